package dicom

import (
	"errors"
	"fmt"
)

// ErrorKind names one specific decode or reconstruction failure.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota

	// Structural failures: the byte stream is not a well formed Part 10 file.
	KindTooSmall
	KindBadHeader
	KindUndefinedLength
	KindTruncated
	KindSequenceTooDeep
	KindPixelDataNotFound

	// Dimension failures: the header disagrees with itself or the payload.
	KindWrongImageDimX
	KindWrongImageDimY
	KindWrongHeaderDataSize

	// Unsupported encodings.
	KindUnsupportedTransferSyntax
	KindUnsupportedBitDepth

	// Reconstruction failures, raised while assembling a volume.
	KindWrongNumSlices
	KindHistogramDetectRidges
	KindScaling
	KindInvalidSliceIndex
	KindAmbiguousSeries
	KindEmptySeries
)

var kindNames = map[ErrorKind]string{
	KindUnknown:                   "unknown error",
	KindTooSmall:                  "file too small",
	KindBadHeader:                 "bad DICM header",
	KindUndefinedLength:           "undefined length outside sequence or pixel data",
	KindTruncated:                 "truncated stream",
	KindSequenceTooDeep:           "sequence nesting too deep",
	KindPixelDataNotFound:         "pixel data not found",
	KindWrongImageDimX:            "inconsistent image columns",
	KindWrongImageDimY:            "inconsistent image rows",
	KindWrongHeaderDataSize:       "pixel data size does not match header",
	KindUnsupportedTransferSyntax: "unsupported transfer syntax",
	KindUnsupportedBitDepth:       "unsupported bit depth",
	KindWrongNumSlices:            "wrong number of slices",
	KindHistogramDetectRidges:     "histogram ridge detection failed",
	KindScaling:                   "bad intensity scaling",
	KindInvalidSliceIndex:         "invalid slice index",
	KindAmbiguousSeries:           "more than one series",
	KindEmptySeries:               "empty series",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ErrorClass groups error kinds the way callers usually react to them.
type ErrorClass int

const (
	StructuralError ErrorClass = iota
	DimensionError
	UnsupportedFormatError
	ReconstructionError
)

func (c ErrorClass) String() string {
	switch c {
	case StructuralError:
		return "structural"
	case DimensionError:
		return "dimension"
	case UnsupportedFormatError:
		return "unsupported format"
	default:
		return "reconstruction"
	}
}

// Class returns the family the kind belongs to.
func (k ErrorKind) Class() ErrorClass {
	switch k {
	case KindWrongImageDimX, KindWrongImageDimY, KindWrongHeaderDataSize:
		return DimensionError
	case KindUnsupportedTransferSyntax, KindUnsupportedBitDepth:
		return UnsupportedFormatError
	case KindWrongNumSlices, KindHistogramDetectRidges, KindScaling,
		KindInvalidSliceIndex, KindAmbiguousSeries, KindEmptySeries:
		return ReconstructionError
	default:
		return StructuralError
	}
}

// Error is the typed failure returned by the reader, slice decoder,
// assembler and loader. File is filled in by the loader.
type Error struct {
	Kind ErrorKind
	File string
	Err  error
}

func (e *Error) Error() string {
	s := e.Kind.String()
	if e.File != "" {
		s = e.File + ": " + s
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same kind, so the sentinels below work with
// errors.Is no matter which file or cause is attached.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrTooSmall                  = &Error{Kind: KindTooSmall}
	ErrBadHeader                 = &Error{Kind: KindBadHeader}
	ErrUndefinedLength           = &Error{Kind: KindUndefinedLength}
	ErrTruncated                 = &Error{Kind: KindTruncated}
	ErrSequenceTooDeep           = &Error{Kind: KindSequenceTooDeep}
	ErrPixelDataNotFound         = &Error{Kind: KindPixelDataNotFound}
	ErrWrongImageDimX            = &Error{Kind: KindWrongImageDimX}
	ErrWrongImageDimY            = &Error{Kind: KindWrongImageDimY}
	ErrWrongHeaderDataSize       = &Error{Kind: KindWrongHeaderDataSize}
	ErrUnsupportedTransferSyntax = &Error{Kind: KindUnsupportedTransferSyntax}
	ErrUnsupportedBitDepth       = &Error{Kind: KindUnsupportedBitDepth}
	ErrWrongNumSlices            = &Error{Kind: KindWrongNumSlices}
	ErrHistogramDetectRidges     = &Error{Kind: KindHistogramDetectRidges}
	ErrScaling                   = &Error{Kind: KindScaling}
	ErrInvalidSliceIndex         = &Error{Kind: KindInvalidSliceIndex}
	ErrAmbiguousSeries           = &Error{Kind: KindAmbiguousSeries}
	ErrEmptySeries               = &Error{Kind: KindEmptySeries}
)

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

func wrapError(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
