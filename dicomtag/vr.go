package dicomtag

// VR 是 Value Representation, 每个element的数据类型编码
type VR int

const (
	AE VR = iota // Application Entity
	AS           // Age String
	AT           // Attribute Tag
	CS           // Code String
	DA           // Date
	DS           // Decimal String
	DT           // Date Time
	FL           // Floating Point Single
	FD           // Floating Point Double
	IS           // Integer String
	LO           // Long String
	LT           // Long Text
	OB           // Other Byte String
	OD           // Other Double String
	OF           // Other Float String
	OW           // Other Word String
	PN           // Person Name
	SH           // Short String
	SL           // Signed Long
	SS           // Signed Short
	ST           // Short Text
	TM           // Time
	UI           // Unique Identifier (UUID)
	UL           // Unsigned Long
	UN           // Unknown
	US           // Unsigned Short
	UT           // Unlimited Text
	SQ           // Sequence of Items

	// VRUnknown 表示两个字节不是合法的VR代码
	VRUnknown
)

var vrNames = [...]string{
	AE: "AE", AS: "AS", AT: "AT", CS: "CS", DA: "DA", DS: "DS", DT: "DT",
	FL: "FL", FD: "FD", IS: "IS", LO: "LO", LT: "LT", OB: "OB", OD: "OD",
	OF: "OF", OW: "OW", PN: "PN", SH: "SH", SL: "SL", SS: "SS", ST: "ST",
	TM: "TM", UI: "UI", UL: "UL", UN: "UN", US: "US", UT: "UT", SQ: "SQ",
	VRUnknown: "??",
}

var vrByName = func() map[string]VR {
	m := make(map[string]VR, len(vrNames))
	for vr, name := range vrNames {
		if VR(vr) != VRUnknown {
			m[name] = VR(vr)
		}
	}
	return m
}()

// ParseVR 将两个字符的VR代码转换成VR, 不认识时返回VRUnknown
func ParseVR(s string) VR {
	vr, ok := vrByName[s]
	if !ok {
		return VRUnknown
	}
	return vr
}

// ParseVRBytes 同ParseVR, 直接接受流中的两个字节
func ParseVRBytes(b0, b1 byte) VR {
	return ParseVR(string([]byte{b0, b1}))
}

func (vr VR) String() string {
	if vr < 0 || int(vr) >= len(vrNames) {
		return "??"
	}
	return vrNames[vr]
}

// IsLongForm 判断explicit VR下该VR是否在VR代码后跟2字节保留位和4字节长度
func (vr VR) IsLongForm() bool {
	switch vr {
	case OB, OW, OF, SQ, UT, UN:
		return true
	default:
		return false
	}
}

// IsString 判断VR是否为文本编码
func (vr VR) IsString() bool {
	switch vr {
	case AE, AS, CS, DA, DS, DT, IS, LO, LT, PN, SH, ST, TM, UI, UT:
		return true
	default:
		return false
	}
}

// VRKind 定义了golang 编码的VR
type VRKind int

const (
	// VRStringList means the element stores a list of strings
	VRStringList VRKind = iota
	// VRBytes means the element stores a []byte
	VRBytes
	// VRString means the element stores a string
	VRString
	// VRUInt16List means the element stores a list of uint16s
	VRUInt16List
	// VRUInt32List means the element stores a list of uint32s
	VRUInt32List
	// VRInt16List means the element stores a list of int16s
	VRInt16List
	// VRInt32List element stores a list of int32s
	VRInt32List
	// VRFloat32List element stores a list of float32s
	VRFloat32List
	// VRFloat64List element stores a list of float64s
	VRFloat64List
	// VRSequence means the element carries no value, its items were skipped
	VRSequence
	// VRTagList element stores a list of Tags
	VRTagList
	// VRDate means the element stores a date string.
	VRDate
	// VRPixelData means the element stores raw pixel samples
	VRPixelData
)

// GetVRKind 返回 go语言的 value encoding of an element with <tag, vr>.
func GetVRKind(tag Tag, vr VR) VRKind {
	if tag == PixelData {
		return VRPixelData
	}
	switch vr {
	case DA:
		return VRDate
	case AT:
		return VRTagList
	case OW, OB, OD, OF, UN, VRUnknown:
		return VRBytes
	case LT, UT, ST:
		return VRString
	case UL:
		return VRUInt32List
	case SL:
		return VRInt32List
	case US:
		return VRUInt16List
	case SS:
		return VRInt16List
	case FL:
		return VRFloat32List
	case FD:
		return VRFloat64List
	case SQ:
		return VRSequence
	default:
		return VRStringList
	}
}
