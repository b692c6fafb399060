package dicomtag

import (
	"fmt"
	"strconv"
	"strings"
)

// Tag 是一个定义了dicom文件中element 的类型的 <group, element> 元组
// 标准tags定义在dictionary.go, 也可以参考：
// ftp://medical.nema.org/medical/dicom/2011/11_06pu.pdf
type Tag struct {
	// Group 和 Element 是读取16进制对的结果 如 (1000,10008)
	Group   uint16
	Element uint16
}

// Compare 返回 -1/0/1 如果t<other | t==other | t>other，
// tag先由group排序，再由element排序
func (t Tag) Compare(other Tag) int {
	switch {
	case t.Group < other.Group:
		return -1
	case t.Group > other.Group:
		return 1
	case t.Element < other.Element:
		return -1
	case t.Element > other.Element:
		return 1
	}
	return 0
}

// Uint32 把tag合并成 group<<16|element, 用作字典的key
func (t Tag) Uint32() uint32 {
	return uint32(t.Group)<<16 | uint32(t.Element)
}

func IsPrivate(group uint16) bool {
	return group%2 == 1
}

// String 返回一个如"(0008, 1234)"格式的string
// 0x0008 是 t.Group 0x1234是t.Element
func (t Tag) String() string {
	return fmt.Sprintf("(%04x, %04x)", t.Group, t.Element)
}

// TagInfo 保存了Tag在标准DICOM标准中的detail information
type TagInfo struct {
	Tag Tag
	// Data 编码 如 UL, CS
	VR VR
	// 人类可读的Tag名称 如 "PatientName"
	Name string
	// 基数(Cardinality) (element中期望的值 #)
	VM string
}

// MetadataGroup 是 Tag.Group 中 metadata tags的值.
const MetadataGroup = 2

// ItemGroup 是item及delimiter tags的group
const ItemGroup = 0xfffe

// 解码器用到的tags
var (
	FileMetaInformationGroupLength = Tag{0x0002, 0x0000}
	FileMetaInformationVersion     = Tag{0x0002, 0x0001}
	MediaStorageSOPClassUID        = Tag{0x0002, 0x0002}
	MediaStorageSOPInstanceUID     = Tag{0x0002, 0x0003}
	TransferSyntaxUID              = Tag{0x0002, 0x0010}
	ImplementationClassUID         = Tag{0x0002, 0x0012}
	ImplementationVersionName      = Tag{0x0002, 0x0013}

	SpecificCharacterSet   = Tag{0x0008, 0x0005}
	SOPClassUID            = Tag{0x0008, 0x0016}
	SOPInstanceUID         = Tag{0x0008, 0x0018}
	StudyDate              = Tag{0x0008, 0x0020}
	SeriesDate             = Tag{0x0008, 0x0021}
	AcquisitionDate        = Tag{0x0008, 0x0022}
	StudyTime              = Tag{0x0008, 0x0030}
	SeriesTime             = Tag{0x0008, 0x0031}
	AcquisitionTime        = Tag{0x0008, 0x0032}
	Modality               = Tag{0x0008, 0x0060}
	Manufacturer           = Tag{0x0008, 0x0070}
	InstitutionName        = Tag{0x0008, 0x0080}
	ReferringPhysicianName = Tag{0x0008, 0x0090}
	StudyDescription       = Tag{0x0008, 0x1030}
	SeriesDescription      = Tag{0x0008, 0x103e}
	OperatorsName          = Tag{0x0008, 0x1070}

	ReferencedImageSequence = Tag{0x0008, 0x1140}

	PatientName      = Tag{0x0010, 0x0010}
	PatientID        = Tag{0x0010, 0x0020}
	PatientBirthDate = Tag{0x0010, 0x0030}
	PatientSex       = Tag{0x0010, 0x0040}
	PatientAge       = Tag{0x0010, 0x1010}

	BodyPartExamined = Tag{0x0018, 0x0015}
	SliceThickness   = Tag{0x0018, 0x0050}

	SeriesNumber         = Tag{0x0020, 0x0011}
	InstanceNumber       = Tag{0x0020, 0x0013}
	ImagePositionPatient = Tag{0x0020, 0x0032}
	SliceLocation        = Tag{0x0020, 0x1041}

	SamplesPerPixel         = Tag{0x0028, 0x0002}
	Rows                    = Tag{0x0028, 0x0010}
	Columns                 = Tag{0x0028, 0x0011}
	PixelSpacing            = Tag{0x0028, 0x0030}
	BitsAllocated           = Tag{0x0028, 0x0100}
	BitsStored              = Tag{0x0028, 0x0101}
	HighBit                 = Tag{0x0028, 0x0102}
	PixelRepresentation     = Tag{0x0028, 0x0103}
	SmallestImagePixelValue = Tag{0x0028, 0x0106}
	LargestImagePixelValue  = Tag{0x0028, 0x0107}
	PixelPaddingValue       = Tag{0x0028, 0x0120}
	WindowCenter            = Tag{0x0028, 0x1050}
	WindowWidth             = Tag{0x0028, 0x1051}
	RescaleIntercept        = Tag{0x0028, 0x1052}
	RescaleSlope            = Tag{0x0028, 0x1053}
	RescaleType             = Tag{0x0028, 0x1054}

	PixelData = Tag{0x7fe0, 0x0010}

	Item                     = Tag{0xfffe, 0xe000}
	ItemDelimitationItem     = Tag{0xfffe, 0xe00d}
	SequenceDelimitationItem = Tag{0xfffe, 0xe0dd}
)

// 找到给与的tag中的信息
// 如果tag不是dicom standard的一部分或已经不再在dicom standard中 会返回错误
func Find(tag Tag) (TagInfo, error) {
	maybeInitTagDict()
	entry, ok := tagDict[tag]
	if !ok {
		// (0000-u-ffff,0000)	UL	GenericGroupLength	1	GENERIC
		if tag.Group%2 == 0 && tag.Element == 0x0000 {
			entry = TagInfo{tag, UL, "GenericGroupLength", "1"}
		} else {
			return TagInfo{}, fmt.Errorf("Could not find tag (0x%x, 0x%x) in dictionary", tag.Group, tag.Element)
		}
	}
	return entry, nil
}

// MustFind与Find相似, 但报错会panic停止程序
func MustFind(tag Tag) TagInfo {
	e, err := Find(tag)
	if err != nil {
		panic(fmt.Sprintf("tag %v not found: %s", tag, err))
	}
	return e
}

// LookupVR 返回implicit VR流中tag对应的VR. 字典中没有的tag返回UN,
// 调用者按原始字节处理
func LookupVR(tag Tag) VR {
	e, err := Find(tag)
	if err != nil {
		return UN
	}
	return e.VR
}

// DebugString 返回一个人类可读的tag的诊断字符串，格式如 "(group, element)[name]"
func DebugString(tag Tag) string {
	e, err := Find(tag)
	if err != nil {
		if IsPrivate(tag.Group) {
			return fmt.Sprintf("(%04x,%04x)[private]", tag.Group, tag.Element)
		}
		return fmt.Sprintf("(%04x,%04x)[??]", tag.Group, tag.Element)
	}
	return fmt.Sprintf("(%04x,%04x)[%s]", tag.Group, tag.Element, e.Name)
}

// 将tag分成 group和element 由16进制数表示
// TODO: support group ranges (6000-60FF,0803)
func parseTag(tag string) (Tag, error) {
	parts := strings.Split(strings.Trim(tag, "()"), ",")
	if len(parts) != 2 {
		return Tag{}, fmt.Errorf("malformed tag '%s'", tag)
	}
	group, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 16, 16)
	if err != nil {
		return Tag{}, err
	}
	elem, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 16, 16)
	if err != nil {
		return Tag{}, err
	}
	return Tag{Group: uint16(group), Element: uint16(elem)}, nil
}
