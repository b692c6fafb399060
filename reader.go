package dicom

import (
	"encoding/binary"
	"io"

	"github.com/odincare/dcmvolume/dicomio"
	"github.com/odincare/dcmvolume/dicomlog"
	"github.com/odincare/dcmvolume/dicomtag"
	"github.com/odincare/dcmvolume/dicomuid"
)

const (
	preambleLength = 128
	magicWord      = "DICM"
	// Preamble, magic and at least one short element header.
	minFileSize = 144

	// MaxSequenceDepth bounds the nesting of undefined-length sequences.
	MaxSequenceDepth = 64
)

type readerState int

const (
	readingMetaGroup readerState = iota
	readingDataSet
)

// TagInfo is handed to Reader.OnElement for every decoded element.
type TagInfo struct {
	Tag   dicomtag.Tag
	Name  string
	VR    string
	Value string
}

// Reader walks the elements of one in-memory DICOM Part 10 file.
//
// The file meta group (0002,xxxx) is always explicit VR little endian. The
// transfer syntax found there takes effect once the cursor reaches the end
// of the group, which is known from (0002,0000) or detected when the first
// element of another group shows up.
type Reader struct {
	d     *dicomio.Decoder
	state readerState
	ts    dicomio.TransferSyntax

	// Offset where the data set starts, -1 until (0002,0000) is seen.
	metaEnd int64
	sawMeta bool

	err error

	// OnElement, if set, is called for every element returned by Next.
	OnElement func(TagInfo)
}

// NewReader validates the preamble and magic word and positions the cursor
// at the first meta element.
func NewReader(data []byte) (*Reader, error) {
	if len(data) < minFileSize {
		return nil, newError(KindTooSmall, "%d bytes, need at least %d", len(data), minFileSize)
	}
	if string(data[preambleLength:preambleLength+len(magicWord)]) != magicWord {
		return nil, newError(KindBadHeader, "keyword 'DICM' not found in the header")
	}
	d := dicomio.NewBytesDecoder(data, binary.LittleEndian, dicomio.ExplicitVR)
	d.Skip(preambleLength + len(magicWord))
	return &Reader{
		d:       d,
		state:   readingMetaGroup,
		ts:      dicomio.DefaultTransferSyntax,
		metaEnd: -1,
	}, nil
}

// TransferSyntax returns the syntax of the data set. It is the default
// explicit little endian syntax until (0002,0010) has been read.
func (r *Reader) TransferSyntax() dicomio.TransferSyntax { return r.ts }

// CodingSystem returns the character set decoders installed by (0008,0005).
func (r *Reader) CodingSystem() dicomio.CodingSystem { return r.d.CodingSystem() }

// String renders e with the current character set.
func (r *Reader) String(e *Element) string {
	return ValueString(e, r.d.CodingSystem())
}

// Text decodes a string element with the current character set, without
// any of the display formatting String applies.
func (r *Reader) Text(e *Element) string {
	return trimPadding(dicomio.DecodeString(r.d.CodingSystem().Ideographic, e.Value))
}

func (r *Reader) enterDataSet() {
	r.state = readingDataSet
	r.d.SetTransferSyntax(r.ts.ByteOrder, r.ts.Implicit)
	dicomlog.Vprintf(2, "dicom.Reader: data set starts at %d, %s", r.d.Pos(), dicomuid.UIDString(r.ts.UID))
}

func (r *Reader) fail(err *Error) (*Element, error) {
	r.err = err
	return nil, err
}

// decodeError converts the decoder's sticky error into a typed error. The
// byte cursor only fails on short reads.
func (r *Reader) decodeError() *Error {
	return wrapError(KindTruncated, r.d.Error())
}

// Next decodes one element. It returns io.EOF once the buffer is exhausted.
// After any other error the reader is unusable and keeps returning it.
func (r *Reader) Next() (*Element, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.state == readingMetaGroup {
		if r.metaEnd >= 0 && r.d.Pos() >= r.metaEnd {
			r.enterDataSet()
		} else if g, ok := r.d.PeekUInt16(0, binary.LittleEndian); ok && g != dicomtag.MetadataGroup {
			r.enterDataSet()
		}
	}
	if r.d.Len() == 0 {
		return nil, io.EOF
	}

	offset := r.d.Pos()
	tag, vr, vl := r.readHeader()
	if r.d.Error() != nil {
		return r.fail(r.decodeError())
	}
	bo, _ := r.d.TransferSyntax()
	elem := &Element{
		Tag:             tag,
		VR:              vr,
		LittleEndian:    bo == binary.LittleEndian,
		UndefinedLength: vl == UndefinedLength,
		Offset:          offset,
	}

	switch {
	case vr == dicomtag.SQ:
		if vl == UndefinedLength {
			if err := r.skipSequence(); err != nil {
				return r.fail(err)
			}
		} else if err := r.skip(tag, vl); err != nil {
			return r.fail(err)
		}
	case vl == UndefinedLength:
		if tag != dicomtag.PixelData {
			return r.fail(newError(KindUndefinedLength, "%v VR=%v at offset %d", dicomtag.DebugString(tag), vr, offset))
		}
		elem.Value = r.d.ReadRest()
	default:
		if int64(vl) > r.d.Len() {
			return r.fail(newError(KindTruncated, "%v: length %d, %d bytes left", dicomtag.DebugString(tag), vl, r.d.Len()))
		}
		elem.Value = r.d.ReadBytes(int(vl))
	}

	if tag.Group == dicomtag.MetadataGroup {
		r.sawMeta = true
	}
	if err := r.apply(elem); err != nil {
		return r.fail(err)
	}
	if dicomlog.Level() >= 2 {
		dicomlog.Vprintf(2, "dicom.Reader: %v VR=%v VL=%d pos=%d", dicomtag.DebugString(tag), vr, vl, offset)
	}
	if r.OnElement != nil {
		info := TagInfo{Tag: tag, VR: vr.String(), Value: r.String(elem)}
		if ti, err := dicomtag.Find(tag); err == nil {
			info.Name = ti.Name
		}
		r.OnElement(info)
	}
	return elem, nil
}

// apply handles elements that change how the rest of the stream is read.
func (r *Reader) apply(e *Element) *Error {
	switch e.Tag {
	case dicomtag.FileMetaInformationGroupLength:
		n, err := e.GetUInt32()
		if err != nil {
			return wrapError(KindTruncated, err)
		}
		r.metaEnd = r.d.Pos() + int64(n)
	case dicomtag.TransferSyntaxUID:
		ts, err := dicomio.ParseTransferSyntaxUID(e.GetString())
		if err != nil {
			return wrapError(KindUnsupportedTransferSyntax, err)
		}
		r.ts = ts
		if r.state == readingDataSet {
			// (0002,0010) outside the meta group; honor it for what follows.
			r.d.SetTransferSyntax(ts.ByteOrder, ts.Implicit)
		}
	case dicomtag.SpecificCharacterSet:
		// SpecificCharacterSet 不是metadata的一部分, 而是普通属性,
		// 所以需要在读取data set时处理
		cs, err := dicomio.ParseSpecificCharacterSet(e.GetStrings())
		if err != nil {
			dicomlog.Vprintf(0, "dicom.Reader: %v", err)
		} else {
			r.d.SetCodingSystem(cs)
		}
	}
	return nil
}

func (r *Reader) readTag() dicomtag.Tag {
	group := r.d.ReadUInt16()
	element := r.d.ReadUInt16()
	return dicomtag.Tag{Group: group, Element: element}
}

// readHeader reads tag, VR and length of the next element.
func (r *Reader) readHeader() (dicomtag.Tag, dicomtag.VR, uint32) {
	tag := r.readTag()

	// 组为0xFFFE 的 elements组应被编码为Implicit VR
	// DICOM 标准09. PS3.6 - Section 7.5: "Nesting of Data Sets"
	_, implicit := r.d.TransferSyntax()
	if tag.Group == dicomtag.ItemGroup {
		return tag, dicomtag.UN, r.d.ReadUInt32()
	}
	if implicit == dicomio.ImplicitVR {
		return r.readImplicit(tag)
	}
	return r.readExplicit(tag)
}

// 从DICOM字典中读取VR，VL是32比特无符号数字
func (r *Reader) readImplicit(tag dicomtag.Tag) (dicomtag.Tag, dicomtag.VR, uint32) {
	vr := dicomtag.LookupVR(tag)
	vl := r.d.ReadUInt32()
	if vl == UndefinedLength && tag != dicomtag.PixelData {
		vr = dicomtag.SQ
	}
	return tag, vr, vl
}

// VR由下两个连续的bytes代表, VL根据VR的值
// PS3.5 7.1.2
func (r *Reader) readExplicit(tag dicomtag.Tag) (dicomtag.Tag, dicomtag.VR, uint32) {
	raw, ok := r.d.PeekUInt16(0, binary.LittleEndian)
	if !ok {
		r.d.ReadUInt16() // records the short read
		return tag, dicomtag.VRUnknown, 0
	}
	vr := dicomtag.ParseVRBytes(byte(raw), byte(raw>>8))
	if vr == dicomtag.VRUnknown {
		vr = dicomtag.LookupVR(tag)
		if r.sawMeta {
			// meta group声明了explicit VR: 跳过不认识的VR代码, 长度仍是2字节
			dicomlog.Vprintf(1, "dicom.Reader: bad VR %q at %v, using %v", []byte{byte(raw), byte(raw >> 8)}, dicomtag.DebugString(tag), vr)
			r.d.Skip(2)
			return tag, vr, uint32(r.d.ReadUInt16())
		}
		// 没有meta group: 这4个字节当作implicit的长度, 之后按implicit VR读取
		vl := r.d.ReadUInt32()
		dicomlog.Vprintf(1, "dicom.Reader: no meta group and bad VR at %v, switching to implicit VR", dicomtag.DebugString(tag))
		r.ts.Implicit = dicomio.ImplicitVR
		r.d.SetTransferSyntax(r.ts.ByteOrder, r.ts.Implicit)
		if vl == UndefinedLength && tag != dicomtag.PixelData {
			vr = dicomtag.SQ
		}
		return tag, vr, vl
	}
	r.d.Skip(2)

	var vl uint32
	if vr.IsLongForm() {
		r.d.Skip(2) // 忽略两个bytes，给未来用(0000H)
		vl = r.d.ReadUInt32()
	} else {
		vl = uint32(r.d.ReadUInt16())
	}
	if vr == dicomtag.UN && vl == UndefinedLength {
		// PS3.5 6.2.2: <UN, undefinedLength> 按 <SQ, undefinedLength> 处理
		vr = dicomtag.SQ
	}
	return tag, vr, vl
}

func (r *Reader) skip(tag dicomtag.Tag, vl uint32) *Error {
	if int64(vl) > r.d.Len() {
		return newError(KindTruncated, "%v: length %d, %d bytes left", dicomtag.DebugString(tag), vl, r.d.Len())
	}
	r.d.Skip(int(vl))
	return nil
}

// seqFrame is one undefined-length sequence being skipped. inItem is set
// while the cursor is inside one of its items; bounded marks a
// defined-length item, walked under a decoder limit.
type seqFrame struct {
	inItem  bool
	bounded bool
}

// skipSequence consumes the items of an undefined-length sequence, whose
// header has already been read. Nesting is tracked on an explicit stack.
//
// Format:
//
//	Sequence := Item* SequenceDelimitationItem
//	Item     := Item(VL undefined) Any* ItemDelimitationItem
//	          | Item(VL defined) Any*
func (r *Reader) skipSequence() *Error {
	stack := []seqFrame{{}}
	closeItem := func(f *seqFrame) {
		if f.bounded {
			r.d.PopLimit()
		}
		f.inItem, f.bounded = false, false
	}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if r.d.Len() == 0 {
			if top.bounded {
				closeItem(top)
				if r.d.Error() != nil {
					return r.decodeError()
				}
				continue
			}
			return newError(KindTruncated, "sequence not terminated, %d levels open", len(stack))
		}
		if !top.inItem {
			tag := r.readTag()
			vl := r.d.ReadUInt32()
			if r.d.Error() != nil {
				return r.decodeError()
			}
			switch tag {
			case dicomtag.SequenceDelimitationItem:
				stack = stack[:len(stack)-1]
			case dicomtag.Item:
				top.inItem = true
				if vl != UndefinedLength {
					if int64(vl) > r.d.Len() {
						return newError(KindTruncated, "item: length %d, %d bytes left", vl, r.d.Len())
					}
					// 元素不能越过item的边界
					r.d.PushLimit(int64(vl))
					top.bounded = true
				}
			default:
				return newError(KindTruncated, "found non-item element %v in sequence", dicomtag.DebugString(tag))
			}
			continue
		}

		tag, vr, vl := r.readHeader()
		if r.d.Error() != nil {
			return r.decodeError()
		}
		switch {
		case tag == dicomtag.ItemDelimitationItem:
			closeItem(top)
		case tag == dicomtag.SequenceDelimitationItem:
			// Item delimiter missing; close the item and the sequence.
			closeItem(top)
			stack = stack[:len(stack)-1]
		case vr == dicomtag.SQ && vl == UndefinedLength:
			if len(stack) >= MaxSequenceDepth {
				return newError(KindSequenceTooDeep, "more than %d nested sequences at %v", MaxSequenceDepth, dicomtag.DebugString(tag))
			}
			stack = append(stack, seqFrame{})
		case vl == UndefinedLength:
			return newError(KindUndefinedLength, "%v VR=%v inside sequence item", dicomtag.DebugString(tag), vr)
		default:
			if err := r.skip(tag, vl); err != nil {
				return err
			}
		}
	}
	return nil
}
