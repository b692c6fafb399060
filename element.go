// Package dicom decodes stacks of single-frame DICOM Part 10 files and
// reconstructs them into 8-bit voxel volumes.
package dicom

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/odincare/dcmvolume/dicomio"
	"github.com/odincare/dcmvolume/dicomtag"
)

// UndefinedLength is the length sentinel of sequences, items and
// encapsulated pixel data.
const UndefinedLength uint32 = 0xffffffff

// Element represents a single decoded DICOM element. Elements are transient:
// Value aliases the file buffer the Reader was created with.
type Element struct {
	// Tag is a pair of <group, element>. See dicomtag for possible values.
	Tag dicomtag.Tag

	// VR used to decode Value. It is read from the stream for explicit
	// transfer syntaxes and from the dictionary for implicit ones. UN with
	// undefined length is reported as SQ.
	VR dicomtag.VR

	// Raw payload. Nil for SQ, whose items are skipped.
	Value []byte

	// LittleEndian is the byte order of numeric payloads.
	LittleEndian bool

	// UndefinedLength is true if the element was encoded with length
	// 0xffffffff, i.e. an SQ walked up to its delimiter or pixel data
	// running to the end of the buffer.
	UndefinedLength bool

	// Offset of the element's tag in the file.
	Offset int64
}

// ByteOrder returns the byte order of numeric payloads.
func (e *Element) ByteOrder() binary.ByteOrder {
	if e.LittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// GetUInt reads an unsigned integer by declared length: 2 bytes as uint16, 4
// bytes as uint32. Other lengths are an error.
func (e *Element) GetUInt() (uint32, error) {
	bo := e.ByteOrder()
	switch len(e.Value) {
	case 2:
		return uint32(bo.Uint16(e.Value)), nil
	case 4:
		return bo.Uint32(e.Value), nil
	}
	return 0, fmt.Errorf("%v: expect 2 or 4 bytes, found %d", dicomtag.DebugString(e.Tag), len(e.Value))
}

// GetInt is like GetUInt but sign-extends the value.
func (e *Element) GetInt() (int32, error) {
	v, err := e.GetUInt()
	if err != nil {
		return 0, err
	}
	if len(e.Value) == 2 {
		return int32(int16(uint16(v))), nil
	}
	return int32(v), nil
}

// GetUInt16 gets the first uint16 value from an element.
func (e *Element) GetUInt16() (uint16, error) {
	if len(e.Value) < 2 {
		return 0, fmt.Errorf("Uint16 value not found in %v", e)
	}
	return e.ByteOrder().Uint16(e.Value), nil
}

// GetUInt32 gets the first uint32 value from an element.
func (e *Element) GetUInt32() (uint32, error) {
	if len(e.Value) < 4 {
		return 0, fmt.Errorf("Uint32 value not found in %v", e)
	}
	return e.ByteOrder().Uint32(e.Value), nil
}

// GetUint16s decodes every uint16 in the payload.
func (e *Element) GetUint16s() []uint16 {
	bo := e.ByteOrder()
	values := make([]uint16, len(e.Value)/2)
	for i := range values {
		values[i] = bo.Uint16(e.Value[2*i:])
	}
	return values
}

// GetString returns the raw payload as a string without trailing padding.
// No character set conversion is applied; use Reader.String for that.
func (e *Element) GetString() string {
	return trimPadding(string(e.Value))
}

// GetStrings splits a multi-valued string on the DICOM '\' separator.
func (e *Element) GetStrings() []string {
	s := e.GetString()
	if s == "" {
		return nil
	}
	parts := strings.Split(s, `\`)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// GetFloats parses a DS (or IS) element into floats.
func (e *Element) GetFloats() ([]float64, error) {
	parts := e.GetStrings()
	values := make([]float64, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("%v: bad decimal string '%s': %w", dicomtag.DebugString(e.Tag), p, err)
		}
		values = append(values, v)
	}
	return values, nil
}

// GetFloat returns the first value of a DS element.
func (e *Element) GetFloat() (float64, error) {
	values, err := e.GetFloats()
	if err != nil {
		return 0, err
	}
	if len(values) == 0 {
		return 0, fmt.Errorf("%v: no decimal value", dicomtag.DebugString(e.Tag))
	}
	return values[0], nil
}

// GetIntString parses an IS element.
func (e *Element) GetIntString() (int, error) {
	v, err := e.GetFloat()
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

func trimPadding(s string) string {
	return strings.TrimRight(s, " \x00")
}

func (e *Element) String() string {
	sVl := ""
	if e.UndefinedLength {
		sVl = "u"
	}
	sv := ValueString(e, dicomio.CodingSystem{})
	if len(sv) > 1024 {
		sv = sv[:1024] + "(...)"
	}
	return fmt.Sprintf("%s %s %s [%s]", dicomtag.DebugString(e.Tag), e.VR, sVl, sv)
}
