package dicom

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/odincare/dcmvolume/dicomio"
	"github.com/odincare/dcmvolume/dicomtag"
	"github.com/odincare/dcmvolume/dicomuid"
)

// Values written to the meta group when the caller gives none.
const (
	DefaultImplementationClassUID    = "1.2.826.0.1.3680043.9.7433.1.1"
	DefaultImplementationVersionName = "DCMVOLUME_1"
	DefaultSOPInstanceUID            = "1.2.826.0.1.3680043.9.7433.2.1"
)

// Attribute is one element to encode.
//
// Values must match the VR: US uint16, SS int16, UL uint32, SL int32, FL
// float32, FD float64, AT dicomtag.Tag, OB/UN []byte, OW []byte (native
// order) or []uint16, strings for the text VRs. PixelData takes a single
// []uint16 or []byte. SQ uses Items instead of Values.
type Attribute struct {
	Tag    dicomtag.Tag
	VR     dicomtag.VR
	Values []interface{}
	Items  [][]Attribute

	// UndefinedLength writes SQ and its items with delimiters. PixelData,
	// OB, OW and UN are written with a 0xffffffff length followed by the raw
	// payload, so they must be the last attribute of the data set.
	UndefinedLength bool
}

// NewAttribute returns an attribute whose VR comes from the dictionary.
func NewAttribute(tag dicomtag.Tag, values ...interface{}) Attribute {
	return Attribute{Tag: tag, VR: dicomtag.LookupVR(tag), Values: values}
}

// NewSequence returns an SQ attribute with the given items.
func NewSequence(tag dicomtag.Tag, undefinedLength bool, items ...[]Attribute) Attribute {
	return Attribute{Tag: tag, VR: dicomtag.SQ, Items: items, UndefinedLength: undefinedLength}
}

func findAttribute(attrs []Attribute, tag dicomtag.Tag) (Attribute, bool) {
	for _, a := range attrs {
		if a.Tag == tag {
			return a, true
		}
	}
	return Attribute{}, false
}

// writeFileHeader writes the preamble, the magic word and the meta group.
// Group 2 attributes in meta are copied; the required ones get defaults.
//
// http://dicom.nema.org/dicom/2013/output/chtml/part10/chapter_7.html
func writeFileHeader(e *dicomio.Encoder, transferSyntaxUID string, meta []Attribute) {
	e.PushTransferSyntax(binary.LittleEndian, dicomio.ExplicitVR)
	defer e.PopTransferSyntax()

	subEncoder := dicomio.NewBytesEncoder(binary.LittleEndian, dicomio.ExplicitVR)
	tagsUsed := map[dicomtag.Tag]bool{
		dicomtag.FileMetaInformationGroupLength: true,
		dicomtag.TransferSyntaxUID:              true,
	}

	writeMetaElement := func(tag dicomtag.Tag, defaultValue interface{}) {
		if a, ok := findAttribute(meta, tag); ok {
			writeAttribute(subEncoder, a)
		} else {
			writeAttribute(subEncoder, NewAttribute(tag, defaultValue))
		}
		tagsUsed[tag] = true
	}

	writeMetaElement(dicomtag.FileMetaInformationVersion, []byte{0, 1})
	writeMetaElement(dicomtag.MediaStorageSOPClassUID, dicomuid.SecondaryCaptureStorage)
	writeMetaElement(dicomtag.MediaStorageSOPInstanceUID, DefaultSOPInstanceUID)
	writeAttribute(subEncoder, NewAttribute(dicomtag.TransferSyntaxUID, transferSyntaxUID))
	writeMetaElement(dicomtag.ImplementationClassUID, DefaultImplementationClassUID)
	writeMetaElement(dicomtag.ImplementationVersionName, DefaultImplementationVersionName)

	for _, a := range meta {
		if !tagsUsed[a.Tag] {
			writeAttribute(subEncoder, a)
		}
	}

	if subEncoder.Error() != nil {
		e.SetError(subEncoder.Error())
		return
	}
	metaBytes := subEncoder.Bytes()

	e.WriteZeros(preambleLength)
	e.WriteString(magicWord)
	writeAttribute(e, NewAttribute(dicomtag.FileMetaInformationGroupLength, uint32(len(metaBytes))))
	e.WriteBytes(metaBytes)
}

func encodeElementHeader(e *dicomio.Encoder, tag dicomtag.Tag, vr dicomtag.VR, vl uint32) {
	dicomio.DoAssert(vl == UndefinedLength || vl%2 == 0, vl)

	e.WriteUInt16(tag.Group)
	e.WriteUInt16(tag.Element)

	_, implicit := e.TransferSyntax()
	// item 和 delimiter 永远没有VR
	if tag.Group == dicomtag.ItemGroup {
		implicit = dicomio.ImplicitVR
	}

	if implicit == dicomio.ExplicitVR {
		e.WriteString(vr.String())
		if vr.IsLongForm() {
			e.WriteZeros(2) // 2 bytes for "future use" (0000H)
			e.WriteUInt32(vl)
		} else {
			dicomio.DoAssert(vl <= 0xffff, vl)
			e.WriteUInt16(uint16(vl))
		}
	} else {
		e.WriteUInt32(vl)
	}
}

// writeItems writes the items of a sequence, each wrapped in an Item header.
func writeItems(e *dicomio.Encoder, a Attribute) {
	for _, item := range a.Items {
		if a.UndefinedLength {
			encodeElementHeader(e, dicomtag.Item, dicomtag.UN, UndefinedLength)
			for _, sub := range item {
				writeAttribute(e, sub)
			}
			encodeElementHeader(e, dicomtag.ItemDelimitationItem, dicomtag.UN, 0)
			continue
		}
		sube := dicomio.NewBytesEncoder(e.TransferSyntax())
		for _, sub := range item {
			writeAttribute(sube, sub)
		}
		if sube.Error() != nil {
			e.SetError(sube.Error())
			return
		}
		data := sube.Bytes()
		encodeElementHeader(e, dicomtag.Item, dicomtag.UN, uint32(len(data)))
		e.WriteBytes(data)
	}
}

// writeAttribute encodes one attribute. Errors are reported through
// e.Error().
func writeAttribute(e *dicomio.Encoder, a Attribute) {
	if e.Error() != nil {
		return
	}
	if a.VR == dicomtag.VRUnknown {
		e.SetErrorf("dicom.writeAttribute: %v has no VR", dicomtag.DebugString(a.Tag))
		return
	}
	if entry, err := dicomtag.Find(a.Tag); err == nil && entry.VR != a.VR {
		if dicomtag.GetVRKind(a.Tag, entry.VR) != dicomtag.GetVRKind(a.Tag, a.VR) {
			e.SetErrorf("dicom.writeAttribute: VR mismatch for tag %s. Attribute.VR=%v, but DICOM standard defines VR to be %v",
				dicomtag.DebugString(a.Tag), a.VR, entry.VR)
			return
		}
		logrus.Warnf("dicom.writeAttribute: VR mismatch for tag %s. Attribute.VR=%v, but DICOM standard defines VR to be %v (continuing)",
			dicomtag.DebugString(a.Tag), a.VR, entry.VR)
	}

	if a.VR == dicomtag.SQ {
		if a.UndefinedLength {
			encodeElementHeader(e, a.Tag, a.VR, UndefinedLength)
			writeItems(e, a)
			encodeElementHeader(e, dicomtag.SequenceDelimitationItem, dicomtag.UN, 0)
			return
		}
		sube := dicomio.NewBytesEncoder(e.TransferSyntax())
		writeItems(sube, a)
		if sube.Error() != nil {
			e.SetError(sube.Error())
			return
		}
		data := sube.Bytes()
		encodeElementHeader(e, a.Tag, a.VR, uint32(len(data)))
		e.WriteBytes(data)
		return
	}

	sube := dicomio.NewBytesEncoder(e.TransferSyntax())
	encodeValues(sube, a)
	if sube.Error() != nil {
		e.SetError(sube.Error())
		return
	}
	data := sube.Bytes()

	if a.UndefinedLength {
		switch a.VR {
		case dicomtag.OB, dicomtag.OW, dicomtag.UN:
		default:
			e.SetErrorf("dicom.writeAttribute: %v: undefined length is not supported for VR %v", dicomtag.DebugString(a.Tag), a.VR)
			return
		}
		encodeElementHeader(e, a.Tag, a.VR, UndefinedLength)
	} else {
		encodeElementHeader(e, a.Tag, a.VR, uint32(len(data)))
	}
	e.WriteBytes(data)
}

// encodeValues writes the payload of a non-sequence attribute, padded to an
// even length.
func encodeValues(e *dicomio.Encoder, a Attribute) {
	typeError := func(want string, v interface{}) {
		e.SetErrorf("%v: 需要是%s类型, 而不是: %T", dicomtag.DebugString(a.Tag), want, v)
	}

	switch a.VR {
	case dicomtag.US:
		for _, value := range a.Values {
			v, ok := value.(uint16)
			if !ok {
				typeError("uint16", value)
				return
			}
			e.WriteUInt16(v)
		}
	case dicomtag.UL:
		for _, value := range a.Values {
			v, ok := value.(uint32)
			if !ok {
				typeError("uint32", value)
				return
			}
			e.WriteUInt32(v)
		}
	case dicomtag.SL:
		for _, value := range a.Values {
			v, ok := value.(int32)
			if !ok {
				typeError("int32", value)
				return
			}
			e.WriteInt32(v)
		}
	case dicomtag.SS:
		for _, value := range a.Values {
			v, ok := value.(int16)
			if !ok {
				typeError("int16", value)
				return
			}
			e.WriteInt16(v)
		}
	case dicomtag.FL, dicomtag.OF:
		for _, value := range a.Values {
			v, ok := value.(float32)
			if !ok {
				typeError("float32", value)
				return
			}
			e.WriteFloat32(v)
		}
	case dicomtag.FD, dicomtag.OD:
		for _, value := range a.Values {
			v, ok := value.(float64)
			if !ok {
				typeError("float64", value)
				return
			}
			e.WriteFloat64(v)
		}
	case dicomtag.AT:
		for _, value := range a.Values {
			v, ok := value.(dicomtag.Tag)
			if !ok {
				typeError("dicomtag.Tag", value)
				return
			}
			e.WriteUInt16(v.Group)
			e.WriteUInt16(v.Element)
		}
	case dicomtag.OB, dicomtag.OW, dicomtag.UN:
		if len(a.Values) != 1 {
			e.SetErrorf("%v: 需要单个value, 而不是: %d", dicomtag.DebugString(a.Tag), len(a.Values))
			return
		}
		switch v := a.Values[0].(type) {
		case []uint16:
			for _, w := range v {
				e.WriteUInt16(w)
			}
		case []byte:
			if a.VR == dicomtag.OW || a.Tag == dicomtag.PixelData {
				if len(v)%2 != 0 {
					e.SetErrorf("%v: 需要一个长度均匀（even length）的二进制字符串, 而不是长度（length） %v",
						dicomtag.DebugString(a.Tag), len(v))
					return
				}
				// 16位的值按目标字节序重写
				d := dicomio.NewBytesDecoder(v, dicomio.NativeByteOrder, dicomio.UnknownVR)
				for i := 0; i < len(v)/2; i++ {
					e.WriteUInt16(d.ReadUInt16())
				}
				dicomio.DoAssert(d.Finish() == nil, d.Error())
			} else {
				e.WriteBytes(v)
				if len(v)%2 == 1 {
					e.WriteByte(0)
				}
			}
		default:
			typeError("[]byte", v)
		}
	default:
		var buf bytes.Buffer
		for i, value := range a.Values {
			s, ok := value.(string)
			if !ok {
				typeError("string", value)
				return
			}
			if i > 0 {
				buf.WriteByte('\\')
			}
			buf.WriteString(s)
		}
		if buf.Len()%2 == 1 {
			if a.VR == dicomtag.UI {
				buf.WriteByte(0)
			} else {
				buf.WriteByte(' ')
			}
		}
		e.WriteBytes(buf.Bytes())
	}
}

// EncodeFile writes attrs as a DICOM Part 10 file in the given transfer
// syntax. Group 2 attributes go to the meta group, where missing required
// elements get defaults; everything else is written in order as the data
// set. Only the native syntaxes can be encoded.
func EncodeFile(out io.Writer, transferSyntaxUID string, attrs []Attribute) error {
	ts, err := dicomio.ParseTransferSyntaxUID(transferSyntaxUID)
	if err != nil {
		return err
	}
	var meta, data []Attribute
	for _, a := range attrs {
		if a.Tag.Group == dicomtag.MetadataGroup {
			meta = append(meta, a)
		} else {
			data = append(data, a)
		}
	}
	e := dicomio.NewEncoder(out, binary.LittleEndian, dicomio.ExplicitVR)
	writeFileHeader(e, ts.UID, meta)
	if e.Error() != nil {
		return e.Error()
	}
	return writeDataSet(e, ts, data)
}

// EncodeFileWithoutMeta writes the preamble and magic word followed directly
// by the data set, the way some old modalities did. The reader has to guess
// the syntax of such files.
func EncodeFileWithoutMeta(out io.Writer, ts dicomio.TransferSyntax, attrs []Attribute) error {
	e := dicomio.NewEncoder(out, binary.LittleEndian, dicomio.ExplicitVR)
	e.WriteZeros(preambleLength)
	e.WriteString(magicWord)
	return writeDataSet(e, ts, attrs)
}

func writeDataSet(e *dicomio.Encoder, ts dicomio.TransferSyntax, attrs []Attribute) error {
	e.PushTransferSyntax(ts.ByteOrder, ts.Implicit)
	defer e.PopTransferSyntax()
	for i, a := range attrs {
		if a.UndefinedLength && a.VR != dicomtag.SQ && i != len(attrs)-1 {
			return fmt.Errorf("dicom.EncodeFile: %v has undefined length but is not the last attribute", dicomtag.DebugString(a.Tag))
		}
		writeAttribute(e, a)
	}
	return e.Error()
}

// EncodeFileBytes is EncodeFile into a new buffer.
func EncodeFileBytes(transferSyntaxUID string, attrs []Attribute) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeFile(&buf, transferSyntaxUID, attrs); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeFileToPath writes the file to path. If the file already exists,
// existing contents are clobbered.
func EncodeFileToPath(path string, transferSyntaxUID string, attrs []Attribute) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeFile(out, transferSyntaxUID, attrs); err != nil {
		out.Close() // nolint: errcheck
		return err
	}
	return out.Close()
}
