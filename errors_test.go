package dicom

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorIs(t *testing.T) {
	err := &Error{Kind: KindTruncated, File: "a.dcm", Err: io.ErrUnexpectedEOF}
	assert.True(t, errors.Is(err, ErrTruncated))
	assert.False(t, errors.Is(err, ErrTooSmall))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "a.dcm: truncated stream: unexpected EOF", err.Error())

	// Wrapping keeps the kind visible.
	wrapped := errors.Wrap(errors.WithStack(err), "series 0000002a")
	assert.True(t, errors.Is(wrapped, ErrTruncated))
	assert.Equal(t, KindTruncated, KindOf(wrapped))

	var de *Error
	require.True(t, errors.As(wrapped, &de))
	assert.Equal(t, "a.dcm", de.File)

	assert.Equal(t, KindUnknown, KindOf(io.EOF))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestErrorClass(t *testing.T) {
	tests := map[ErrorKind]ErrorClass{
		KindTooSmall:                  StructuralError,
		KindBadHeader:                 StructuralError,
		KindSequenceTooDeep:           StructuralError,
		KindPixelDataNotFound:         StructuralError,
		KindWrongImageDimX:            DimensionError,
		KindWrongHeaderDataSize:       DimensionError,
		KindUnsupportedTransferSyntax: UnsupportedFormatError,
		KindUnsupportedBitDepth:       UnsupportedFormatError,
		KindWrongNumSlices:            ReconstructionError,
		KindScaling:                   ReconstructionError,
		KindAmbiguousSeries:           ReconstructionError,
	}
	for kind, want := range tests {
		assert.Equal(t, want, kind.Class(), kind.String())
	}
	assert.Equal(t, "ErrorKind(99)", ErrorKind(99).String())
	assert.Equal(t, "unsupported format", UnsupportedFormatError.String())
}

func TestNewError(t *testing.T) {
	err := newError(KindWrongNumSlices, "got %d, expect %d", 3, 4)
	assert.Equal(t, "wrong number of slices: got 3, expect 4", err.Error())
	assert.ErrorIs(t, err, ErrWrongNumSlices)

	err = wrapError(KindTruncated, io.ErrUnexpectedEOF)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
