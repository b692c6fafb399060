package dicom

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odincare/dcmvolume/dicomtag"
	"github.com/odincare/dcmvolume/dicomuid"
)

func testSeriesParams() SeriesParams {
	return SeriesParams{
		Slices:           4,
		Rows:             2,
		Cols:             3,
		PatientName:      "DOE^JOHN",
		StudyDescr:       "HEAD CT",
		StudyDate:        "20200201",
		SeriesTime:       "120000",
		SeriesDescr:      "AXIAL",
		BodyPartExamined: "HEAD",
		PixelSpacing:     0.5,
		SliceThickness:   2,
		Pixel: func(x, y, z int) uint16 {
			return uint16(100*z + 10*y + x)
		},
	}
}

func TestDecodeSlice(t *testing.T) {
	p := testSeriesParams()
	p.Extra = []Attribute{
		NewAttribute(dicomtag.SeriesNumber, "3"),
		NewAttribute(dicomtag.ImagePositionPatient, "-10", "20.5", "30"),
		NewAttribute(dicomtag.WindowCenter, "40", "400"),
		NewAttribute(dicomtag.WindowWidth, "350"),
		NewAttribute(dicomtag.RescaleIntercept, "-1024"),
		NewAttribute(dicomtag.RescaleSlope, "1"),
		NewAttribute(dicomtag.RescaleType, "HU"),
		NewAttribute(dicomtag.PatientID, "PID-7"),
		NewAttribute(dicomtag.PatientSex, "M"),
		NewAttribute(dicomtag.PatientAge, "061Y"),
		NewAttribute(dicomtag.Manufacturer, "ACME"),
		NewAttribute(dicomtag.OperatorsName, "Smith^Ann"),
	}
	for _, uid := range []string{dicomuid.ImplicitVRLittleEndian, dicomuid.ExplicitVRLittleEndian, dicomuid.ExplicitVRBigEndian} {
		t.Run(dicomuid.UIDString(uid), func(t *testing.T) {
			data := mustEncode(t, uid, p.SliceAttributes(2))
			s, err := DecodeSlice(data, DecodeOptions{Index: 5, FileName: "a.dcm"})
			require.NoError(t, err)

			assert.Equal(t, 5, s.Index)
			assert.EqualValues(t, 3, s.XDim)
			assert.EqualValues(t, 2, s.YDim)
			assert.EqualValues(t, 2, s.SliceNumber)
			assert.Equal(t, 4.0, s.SliceLocation)
			assert.Equal(t, []uint16{200, 201, 202, 210, 211, 212}, s.Image)
			assert.Equal(t, uid, s.TransferSyntaxUID)

			assert.Equal(t, "DOE^JOHN", s.PatientName)
			assert.Equal(t, "HEAD CT", s.StudyDescr)
			assert.Equal(t, "01/02/2020", s.StudyDate)
			assert.Equal(t, "20200201", s.StudyDateDA)
			assert.Equal(t, "120000", s.SeriesTime)
			assert.Equal(t, "AXIAL", s.SeriesDescr)
			assert.Equal(t, "HEAD", s.BodyPartExamined)
			assert.Equal(t, SeriesHash("DOE^JOHNHEAD CT01/02/2020120000AXIALHEAD"), s.Hash)
			assert.EqualValues(t, 0x1fca1f1d, s.Hash)

			assert.Equal(t, 3, s.SeriesNumber)
			assert.True(t, s.HasPixelSpacing)
			assert.Equal(t, Vec3{X: 0.5, Y: 0.5}, s.PixelSpacing)
			assert.Equal(t, 2.0, s.SliceThickness)
			assert.True(t, s.HasImagePosition)
			assert.Equal(t, Vec3{-10, 20.5, 30}, s.ImagePosition)
			assert.Equal(t, 40.0, s.WindowCenter)
			assert.Equal(t, 350.0, s.WindowWidth)
			assert.Equal(t, -1024.0, s.RescaleIntercept)
			assert.Equal(t, 1.0, s.RescaleSlope)
			assert.Equal(t, "HU", s.RescaleType)
			assert.EqualValues(t, 16, s.BitsAllocated)
			assert.EqualValues(t, 11, s.HighBit)
			assert.EqualValues(t, 1, s.SamplesPerPixel)

			assert.Equal(t, PatientInfo{
				PatientID:     "PID-7",
				PatientSex:    "M",
				PatientAge:    "61 years",
				OperatorsName: "Smith Ann",
				Manufacturer:  "ACME",
				Modality:      "CT",
			}, s.Info)
		})
	}
}

func TestDecodeSliceDefaults(t *testing.T) {
	data := mustEncode(t, dicomuid.ExplicitVRLittleEndian, []Attribute{
		NewAttribute(dicomtag.Rows, uint16(1)),
		NewAttribute(dicomtag.Columns, uint16(2)),
		NewAttribute(dicomtag.BitsAllocated, uint16(16)),
		// Malformed optional attributes are ignored.
		NewAttribute(dicomtag.SliceLocation, "abc"),
		NewAttribute(dicomtag.PixelData, []uint16{7, 8}),
	})
	s, err := DecodeSlice(data, DecodeOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, -1, s.SliceNumber)
	assert.Equal(t, 0.0, s.SliceLocation)
	assert.Equal(t, 1.0, s.RescaleSlope)
	assert.False(t, s.HasPixelSpacing)
	assert.Equal(t, SeriesHash(""), s.Hash)
	assert.Equal(t, []uint16{7, 8}, s.Image)
}

func TestDecodeSliceErrors(t *testing.T) {
	base := func(rows, cols, bits uint16, pixels interface{}) []Attribute {
		return []Attribute{
			NewAttribute(dicomtag.Rows, rows),
			NewAttribute(dicomtag.Columns, cols),
			NewAttribute(dicomtag.BitsAllocated, bits),
			NewAttribute(dicomtag.PixelData, pixels),
		}
	}
	tests := []struct {
		name  string
		attrs []Attribute
		want  error
	}{
		{"no pixel data", base(2, 2, 16, []uint16{1, 2, 3, 4})[:3], ErrPixelDataNotFound},
		{"size mismatch", base(3, 3, 16, []uint16{1, 2, 3, 4, 5, 6}), ErrWrongHeaderDataSize},
		{"8 bit", base(2, 3, 8, []byte{1, 2, 3, 4, 5, 6}), ErrUnsupportedBitDepth},
		{"32 bit", base(1, 1, 32, []uint16{1, 2}), ErrUnsupportedBitDepth},
		{"rows disagree", append([]Attribute{NewAttribute(dicomtag.Rows, uint16(4))}, base(2, 3, 16, []uint16{1, 2, 3, 4, 5, 6})...), ErrWrongImageDimY},
		{"columns disagree", append([]Attribute{NewAttribute(dicomtag.Columns, uint16(4))}, base(2, 3, 16, []uint16{1, 2, 3, 4, 5, 6})...), ErrWrongImageDimX},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, err := DecodeSlice(mustEncode(t, dicomuid.ExplicitVRLittleEndian, test.attrs), DecodeOptions{})
			require.ErrorIs(t, err, test.want)
			assert.Nil(t, s)
		})
	}
}

func samplesLE(values ...uint16) []byte {
	raw := make([]byte, 2*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint16(raw[2*i:], v)
	}
	return raw
}

func TestConvertPixelsMasked(t *testing.T) {
	h := &sliceHeader{bitsAllocated: 16}
	// highBit defaults to bitsAllocated-1, then the vendor bits are cleared.
	assert.Equal(t, []uint16{0, 0x0fff, 0, 0x8001}, convertPixels(h, samplesLE(0, 0x0fff, 0x7001, 0x8001), binary.LittleEndian))

	h = &sliceHeader{bitsAllocated: 16, highBit: 11, hasHighBit: true}
	assert.Equal(t, []uint16{0x0fff, 0x0234}, convertPixels(h, samplesLE(0xffff, 0x1234), binary.LittleEndian))

	h = &sliceHeader{bitsAllocated: 16, highBit: 11, hasHighBit: true, padding: 0xffff, hasPadding: true}
	assert.Equal(t, []uint16{0, 0x0234}, convertPixels(h, samplesLE(0xffff, 0x1234), binary.LittleEndian))

	// A pair that is not strictly increasing is ignored.
	h = &sliceHeader{bitsAllocated: 16, smallest: 5, hasSmallest: true, largest: 5, hasLargest: true}
	assert.Equal(t, []uint16{3}, convertPixels(h, samplesLE(3), binary.LittleEndian))
}

func TestConvertPixelsStretched(t *testing.T) {
	h := &sliceHeader{
		bitsAllocated: 16,
		smallest:      -100, hasSmallest: true,
		largest: 100, hasLargest: true,
		padding: 0x8000, hasPadding: true,
	}
	neg := func(v int16) uint16 { return uint16(v) }
	got := convertPixels(h, samplesLE(neg(-200), neg(-100), 0, 100, 300, 0x8000), binary.LittleEndian)
	assert.Equal(t, []uint16{0, 0, 2047, 4094, 4094, 2047}, got)
}

func TestDecodeSliceSignedPair(t *testing.T) {
	data := mustEncode(t, dicomuid.ExplicitVRBigEndian, []Attribute{
		NewAttribute(dicomtag.Rows, uint16(1)),
		NewAttribute(dicomtag.Columns, uint16(3)),
		NewAttribute(dicomtag.BitsAllocated, uint16(16)),
		NewAttribute(dicomtag.PixelRepresentation, uint16(1)),
		NewAttribute(dicomtag.SmallestImagePixelValue, uint16(0xff9c)), // -100
		NewAttribute(dicomtag.LargestImagePixelValue, uint16(100)),
		NewAttribute(dicomtag.PixelData, []uint16{0xff9c, 0, 100}),
	})
	s, err := DecodeSlice(data, DecodeOptions{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, s.PixelRepresentation)
	assert.Equal(t, []uint16{0, 2047, 4094}, s.Image)
}
