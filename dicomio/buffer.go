// Package dicomio provides utility functions for encoding and decoding
// low-level DICOM data types, such as integers and strings, over in-memory
// byte buffers.
package dicomio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
)

// NativeByteOrder is the byte order used for decoded 16-bit sample buffers.
var NativeByteOrder = binary.LittleEndian

type transferSyntaxStackEntry struct {
	byteorder binary.ByteOrder
	implicit  IsImplicitVR
}

// Encoder is a helper class for encoding low-level DICOM data types
type Encoder struct {
	err error

	out io.Writer

	byteorder binary.ByteOrder

	// implicit is not used by the encoder itself. It lets callers see the
	// transfer syntax currently in effect.
	implicit IsImplicitVR

	// Stack of old transfer syntaxes. Used by {Push,Pop}TransferSyntax.
	oldTransferSyntaxes []transferSyntaxStackEntry
}

// NewBytesEncoder creates a new encoder that writes to an internal buffer.
// The data can be retrieved through Bytes().
func NewBytesEncoder(byteorder binary.ByteOrder, implicit IsImplicitVR) *Encoder {
	return &Encoder{
		out:       &bytes.Buffer{},
		byteorder: byteorder,
		implicit:  implicit,
	}
}

// NewEncoder creates a new encoder that writes to "out"
func NewEncoder(out io.Writer, byteorder binary.ByteOrder, implicit IsImplicitVR) *Encoder {
	return &Encoder{
		out:       out,
		byteorder: byteorder,
		implicit:  implicit,
	}
}

// TransferSyntax returns the current transfer syntax
func (e *Encoder) TransferSyntax() (binary.ByteOrder, IsImplicitVR) {
	return e.byteorder, e.implicit
}

// PushTransferSyntax temporarily changes the encoding format.
// PopTransferSyntax restores the previous one.
func (e *Encoder) PushTransferSyntax(byteorder binary.ByteOrder, implicit IsImplicitVR) {
	e.oldTransferSyntaxes = append(e.oldTransferSyntaxes,
		transferSyntaxStackEntry{e.byteorder, e.implicit})
	e.byteorder = byteorder
	e.implicit = implicit
}

// PopTransferSyntax undoes the last PushTransferSyntax.
func (e *Encoder) PopTransferSyntax() {
	ts := e.oldTransferSyntaxes[len(e.oldTransferSyntaxes)-1]
	e.byteorder = ts.byteorder
	e.implicit = ts.implicit
	e.oldTransferSyntaxes = e.oldTransferSyntaxes[:len(e.oldTransferSyntaxes)-1]
}

// SetError sets the error to be reported by future Error() calls. Only the
// first error is kept.
//
// REQUIRES: err != nil
func (e *Encoder) SetError(err error) {
	if err != nil && e.err == nil {
		e.err = err
	}
}

// SetErrorf is similar to SetError, but takes a printf format string
func (e *Encoder) SetErrorf(format string, args ...interface{}) {
	e.SetError(fmt.Errorf(format, args...))
}

// Error returns the error set by SetError, or nil.
func (e *Encoder) Error() error {
	return e.err
}

// Bytes returns the encoded data
//
// REQUIRES: Encoder was created by NewBytesEncoder, and e.Error() == nil
func (e *Encoder) Bytes() []byte {
	DoAssert(len(e.oldTransferSyntaxes) == 0)
	if e.err != nil {
		logrus.Panic(e.err)
	}
	return e.out.(*bytes.Buffer).Bytes()
}

func (e *Encoder) write(v interface{}) {
	if e.err != nil {
		return
	}
	if err := binary.Write(e.out, e.byteorder, v); err != nil {
		e.SetError(err)
	}
}

func (e *Encoder) WriteByte(v byte) { e.write(&v) }
func (e *Encoder) WriteUInt16(v uint16) { e.write(&v) }
func (e *Encoder) WriteUInt32(v uint32) { e.write(&v) }
func (e *Encoder) WriteInt16(v int16) { e.write(&v) }
func (e *Encoder) WriteInt32(v int32) { e.write(&v) }
func (e *Encoder) WriteFloat32(v float32) { e.write(&v) }
func (e *Encoder) WriteFloat64(v float64) { e.write(&v) }

// WriteString writes the string, without any length prefix or padding.
func (e *Encoder) WriteString(v string) {
	if _, err := e.out.Write([]byte(v)); err != nil {
		e.SetError(err)
	}
}

// WriteZeros encodes an array of zero bytes.
func (e *Encoder) WriteZeros(len int) {
	e.WriteBytes(make([]byte, len))
}

// WriteBytes copies the given data to output.
func (e *Encoder) WriteBytes(v []byte) {
	if _, err := e.out.Write(v); err != nil {
		e.SetError(err)
	}
}

// IsImplicitVR defines whether a 2-character VR tag is emitted with each data
// element.
type IsImplicitVR int

const (
	// ImplicitVR encodes a data element without a VR tag. The reader
	// consults the dictionary in dicomtag to find the VR.
	ImplicitVR IsImplicitVR = iota

	// ExplicitVR stores the 2-byte VR value inline with a data element.
	ExplicitVR

	// UnknownVR is to be used when you never encode or decode DataElement.
	UnknownVR
)

func (v IsImplicitVR) String() string {
	switch v {
	case ImplicitVR:
		return "implicit"
	case ExplicitVR:
		return "explicit"
	default:
		return "unknown"
	}
}

type stackEntry struct {
	limit int64
	err   error
}

// Decoder is a cursor over an in-memory DICOM byte buffer. Reads past the
// current limit set a sticky error and return zero values; callers check
// Error() after a group of reads, the same way the Encoder is used.
type Decoder struct {
	data      []byte
	err       error
	byteorder binary.ByteOrder

	// implicit is not used by the decoder internally. It lets callers see
	// the transfer syntax currently in effect.
	implicit IsImplicitVR

	// Max offset that can be read.
	limit int64

	// Current offset.
	pos int64

	// Converts raw bytes to utf-8. Nil decoders mean 7-bit ASCII.
	// Cf. P3.5 6.1.2.1
	codingSystem CodingSystem

	// Stack of old transfer syntaxes, used by {Push,Pop}TransferSyntax.
	oldTransferSyntaxes []transferSyntaxStackEntry
	// Stack of old limits, used by {Push,Pop}Limit. Limits are stored in
	// descending order.
	stateStack []stackEntry
}

// NewBytesDecoder creates a decoder that reads a sequence of bytes. The
// decoder never copies "data"; slices returned by ReadBytes alias it.
func NewBytesDecoder(data []byte, byteorder binary.ByteOrder, implicit IsImplicitVR) *Decoder {
	return &Decoder{
		data:      data,
		byteorder: byteorder,
		implicit:  implicit,
		limit:     int64(len(data)),
	}
}

// SetError records the first error for later Error() or Finish() calls. The
// file offset is appended to the message.
//
// REQUIRES: err != nil
func (d *Decoder) SetError(err error) {
	if err != nil && d.err == nil {
		if err != io.EOF {
			err = &OffsetError{Offset: d.pos, Err: err}
		}
		d.err = err
	}
}

// SetErrorf is similar to SetError, but takes a printf format string.
func (d *Decoder) SetErrorf(format string, args ...interface{}) {
	d.SetError(fmt.Errorf(format, args...))
}

// OffsetError annotates a decode error with the byte offset it was found at.
type OffsetError struct {
	Offset int64
	Err    error
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("%s (file offset %d)", e.Err.Error(), e.Offset)
}

func (e *OffsetError) Unwrap() error { return e.Err }

// TransferSyntax returns the current transfer syntax.
func (d *Decoder) TransferSyntax() (byteorder binary.ByteOrder, implicit IsImplicitVR) {
	return d.byteorder, d.implicit
}

// PushTransferSyntax temporarily changes the encoding format.
// PopTransferSyntax restores the old one.
func (d *Decoder) PushTransferSyntax(byteorder binary.ByteOrder, implicit IsImplicitVR) {
	d.oldTransferSyntaxes = append(d.oldTransferSyntaxes, transferSyntaxStackEntry{d.byteorder, d.implicit})
	d.byteorder = byteorder
	d.implicit = implicit
}

// PopTransferSyntax restores the encoding format active before the last
// call to PushTransferSyntax.
func (d *Decoder) PopTransferSyntax() {
	e := d.oldTransferSyntaxes[len(d.oldTransferSyntaxes)-1]
	d.byteorder = e.byteorder
	d.implicit = e.implicit
	d.oldTransferSyntaxes = d.oldTransferSyntaxes[:len(d.oldTransferSyntaxes)-1]
}

// SetTransferSyntax replaces the current encoding format without touching
// the push/pop stack.
func (d *Decoder) SetTransferSyntax(byteorder binary.ByteOrder, implicit IsImplicitVR) {
	d.byteorder = byteorder
	d.implicit = implicit
}

// SetCodingSystem overrides the default (7bit ASCII) decoder used when
// converting a byte[] to a string.
func (d *Decoder) SetCodingSystem(cs CodingSystem) {
	d.codingSystem = cs
}

// CodingSystem returns the decoder installed by SetCodingSystem.
func (d *Decoder) CodingSystem() CodingSystem {
	return d.codingSystem
}

// PushLimit temporarily overrides the end of the buffer and clears d.err.
// PopLimit restores the old limit and error.
//
// REQUIRES: the new limit must be smaller than the current one.
func (d *Decoder) PushLimit(bytes int64) {
	newLimit := d.pos + bytes
	if newLimit > d.limit {
		d.SetError(fmt.Errorf("trying to read %d bytes beyond buffer end", newLimit-d.limit))
		newLimit = d.pos
	}
	d.stateStack = append(d.stateStack, stackEntry{limit: d.limit, err: d.err})
	d.limit = newLimit
	d.err = nil
}

// PopLimit restores the limit overridden by PushLimit.
func (d *Decoder) PopLimit() {
	if d.pos < d.limit {
		// The caller did not consume the input fully, usually because of
		// a parse error. Skip the rest so the outer reader stays aligned.
		d.pos = d.limit
	}
	last := len(d.stateStack) - 1
	d.limit = d.stateStack[last].limit
	if d.stateStack[last].err != nil {
		d.err = d.stateStack[last].err
	}
	d.stateStack = d.stateStack[:last]
}

// Error returns an error encountered so far.
func (d *Decoder) Error() error { return d.err }

// Finish must be called after using the decoder. It returns any error
// encountered during decoding, and an error if some data was left unread.
func (d *Decoder) Finish() error {
	if d.err != nil {
		return d.err
	}
	if !d.EOF() {
		return fmt.Errorf("decoder found junk")
	}
	return nil
}

// EOF checks if there is no more data to read.
func (d *Decoder) EOF() bool {
	if d.err != nil {
		return true
	}
	return d.limit-d.pos <= 0
}

// Pos returns the current offset within the buffer.
func (d *Decoder) Pos() int64 { return d.pos }

// Len returns the number of bytes left before the current limit.
func (d *Decoder) Len() int64 {
	return d.limit - d.pos
}

// take advances the cursor by n bytes and returns them. On short buffers it
// sets the sticky error and returns nil.
func (d *Decoder) take(n int64) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.Len() < n {
		d.SetError(fmt.Errorf("requested %d bytes, available %d: %w", n, d.Len(), io.ErrUnexpectedEOF))
		return nil
	}
	b := d.data[d.pos : d.pos+n]
	d.pos += n
	return b
}

// PeekUInt16 decodes a uint16 at offset "off" from the cursor without
// moving it.
func (d *Decoder) PeekUInt16(off int64, byteorder binary.ByteOrder) (uint16, bool) {
	start := d.pos + off
	if start < 0 || start+2 > d.limit {
		return 0, false
	}
	return byteorder.Uint16(d.data[start:]), true
}

// ReadByte reads a single byte from the buffer. On EOF, it returns a junk
// value, and sets an error to be returned by Error() or Finish().
func (d *Decoder) ReadByte() (v byte) {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *Decoder) ReadUInt16() (v uint16) {
	if b := d.take(2); b != nil {
		return d.byteorder.Uint16(b)
	}
	return 0
}

func (d *Decoder) ReadUInt32() (v uint32) {
	if b := d.take(4); b != nil {
		return d.byteorder.Uint32(b)
	}
	return 0
}

func internalReadString(d *Decoder, sd *encoding.Decoder, length int) string {
	bytes := d.ReadBytes(length)
	if len(bytes) == 0 {
		return ""
	}
	return DecodeString(sd, bytes)
}

// DecodeString converts raw attribute bytes to utf-8 with "sd". A nil
// decoder treats the input as ASCII.
func DecodeString(sd *encoding.Decoder, raw []byte) string {
	if sd == nil {
		// utf-8 is a superset of ASCII.
		return string(raw)
	}
	out, err := sd.Bytes(raw)
	if err != nil {
		logrus.Debugf("dicomio.DecodeString: %v, keeping raw bytes", err)
		return string(raw)
	}
	return string(out)
}

func (d *Decoder) ReadString(length int) string {
	return internalReadString(d, d.codingSystem.Ideographic, length)
}

// ReadBytes returns the next "length" bytes. The result aliases the
// underlying buffer.
func (d *Decoder) ReadBytes(length int) []byte {
	return d.take(int64(length))
}

// ReadRest returns every byte up to the current limit.
func (d *Decoder) ReadRest() []byte {
	return d.take(d.Len())
}

func (d *Decoder) Skip(length int) {
	d.take(int64(length))
}

// DoAssert panics when "condition" is false. It guards programmer errors
// only; malformed input is reported through SetError.
func DoAssert(condition bool, values ...interface{}) {
	if !condition {
		var s string
		for _, value := range values {
			s += fmt.Sprintf("%v", value)
		}
		logrus.Panic(s)
	}
}
