package dicom_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dicom "github.com/odincare/dcmvolume"
	"github.com/odincare/dcmvolume/dicomuid"
)

func phantom(descr string, slices int) dicom.SeriesParams {
	return dicom.SeriesParams{
		Slices:           slices,
		Rows:             16,
		Cols:             16,
		PatientName:      "PHANTOM^SPHERE",
		StudyDescr:       "PHANTOM",
		StudyDate:        "20200101",
		SeriesTime:       "101010",
		SeriesDescr:      descr,
		BodyPartExamined: "HEAD",
		PixelSpacing:     0.8,
		SliceThickness:   1.5,
	}
}

func synthesize(t *testing.T, p dicom.SeriesParams) []dicom.File {
	t.Helper()
	files, err := p.Synthesize()
	require.NoError(t, err)
	return files
}

func TestReadSeriesProgress(t *testing.T) {
	files := synthesize(t, phantom("AXIAL", 20))
	var ratios []float64
	l := &dicom.DicomLoader{Options: dicom.LoadOptions{
		Workers:        4,
		ProgressStride: 8,
		Progress:       func(r float64) { ratios = append(ratios, r) },
	}}
	c, err := l.ReadSeries(context.Background(), files)
	require.NoError(t, err)
	assert.Equal(t, 20, c.Len())
	assert.Equal(t, []float64{0.4, 0.8, 1.0}, ratios)
}

func TestReadSeriesFirstFailure(t *testing.T) {
	files := synthesize(t, phantom("AXIAL", 6))
	files[0] = dicom.File{Name: "broken.dcm", Data: make([]byte, 100)}

	var ratios []float64
	l := &dicom.DicomLoader{Options: dicom.LoadOptions{
		Workers:        1,
		ProgressStride: 1,
		Progress:       func(r float64) { ratios = append(ratios, r) },
	}}
	c, err := l.ReadSeries(context.Background(), files)
	require.Error(t, err)
	assert.Nil(t, c)
	// Later files are never decoded, so nothing is reported.
	assert.Empty(t, ratios)

	assert.Equal(t, dicom.KindTooSmall, dicom.KindOf(err))
	assert.True(t, errors.Is(err, dicom.ErrTooSmall))
	var de *dicom.Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "broken.dcm", de.File)
	assert.Contains(t, err.Error(), "broken.dcm")
}

func TestReadSeriesCancelled(t *testing.T) {
	files := synthesize(t, phantom("AXIAL", 4))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := (&dicom.DicomLoader{}).ReadSeries(ctx, files)
	require.ErrorIs(t, err, context.Canceled)
}

func TestReadSeriesLimits(t *testing.T) {
	l := &dicom.DicomLoader{}
	_, err := l.ReadSeries(context.Background(), nil)
	require.ErrorIs(t, err, dicom.ErrEmptySeries)

	l.Options.MaxSlices = 3
	_, err = l.ReadSeries(context.Background(), synthesize(t, phantom("AXIAL", 4)))
	require.ErrorIs(t, err, dicom.ErrWrongNumSlices)
}

func TestLoadSingleSeries(t *testing.T) {
	files := synthesize(t, phantom("AXIAL", 10))
	l := &dicom.DicomLoader{Options: dicom.LoadOptions{Workers: 3}}
	vol, err := l.Load(context.Background(), files)
	require.NoError(t, err)
	assert.EqualValues(t, 16, vol.XDim)
	assert.EqualValues(t, 16, vol.YDim)
	assert.EqualValues(t, 10, vol.ZDim)
	assert.Len(t, vol.Data, 16*16*10)
	assert.InDelta(t, 12.8, vol.BoxSize.X, 1e-9)
	assert.InDelta(t, 15, vol.BoxSize.Z, 1e-9)

	// The ball is bright at the centre.
	assert.EqualValues(t, 255, vol.At(8, 8, 5))

	// Files arriving in any order give the same volume.
	reversed := make([]dicom.File, len(files))
	for i, f := range files {
		reversed[len(files)-1-i] = f
	}
	again, err := l.Load(context.Background(), reversed)
	require.NoError(t, err)
	assert.Equal(t, vol.Data, again.Data)
}

// Two series whose files are interleaved in one input.
func TestLoadInterleavedSeries(t *testing.T) {
	axial := synthesize(t, phantom("AXIAL", 5))
	p := phantom("CORONAL", 5)
	p.Pixel = func(x, y, z int) uint16 { return uint16(40*z + 3*x + y) }
	coronal := synthesize(t, p)

	var files []dicom.File
	for i := range axial {
		files = append(files, axial[i], coronal[i])
	}

	l := &dicom.DicomLoader{Options: dicom.LoadOptions{Workers: 4}}
	c, err := l.ReadSeries(context.Background(), files)
	require.NoError(t, err)
	descrs := c.Descriptions()
	require.Len(t, descrs, 2)
	for _, d := range descrs {
		assert.Equal(t, 5, d.NumSlices)
	}
	sameDay, err := c.Find(&dicom.SeriesQuery{StudyDate: "202001*"})
	require.NoError(t, err)
	assert.Len(t, sameDay, 2)

	_, err = l.Load(context.Background(), files)
	require.ErrorIs(t, err, dicom.ErrAmbiguousSeries)
	assert.Contains(t, err.Error(), "CORONAL")

	_, err = l.LoadSeries(context.Background(), files, &dicom.SeriesQuery{PatientName: "PHANTOM*"})
	require.ErrorIs(t, err, dicom.ErrAmbiguousSeries)

	_, err = l.LoadSeries(context.Background(), files, &dicom.SeriesQuery{SeriesDescr: "SAGITTAL"})
	require.ErrorIs(t, err, dicom.ErrEmptySeries)

	for _, test := range []struct {
		query string
		alone []dicom.File
	}{
		{"AX*", axial},
		{"COR?NAL", coronal},
	} {
		got, err := l.LoadSeries(context.Background(), files, &dicom.SeriesQuery{SeriesDescr: test.query})
		require.NoError(t, err, test.query)
		want, err := l.Load(context.Background(), test.alone)
		require.NoError(t, err, test.query)
		assert.Equal(t, want, got, test.query)
	}
}

func TestLoadUnsupportedTransferSyntax(t *testing.T) {
	files := synthesize(t, phantom("AXIAL", 4))
	ts := []byte(dicomuid.ExplicitVRLittleEndian + "\x00")
	files[2].Data = bytes.Replace(files[2].Data, ts, []byte(dicomuid.RLELossless+"\x00"), 1)

	vol, err := (&dicom.DicomLoader{}).Load(context.Background(), files)
	require.ErrorIs(t, err, dicom.ErrUnsupportedTransferSyntax)
	assert.Equal(t, dicom.UnsupportedFormatError, dicom.KindOf(err).Class())
	assert.Nil(t, vol)
}
