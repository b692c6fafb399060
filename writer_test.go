package dicom

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odincare/dcmvolume/dicomio"
	"github.com/odincare/dcmvolume/dicomtag"
	"github.com/odincare/dcmvolume/dicomuid"
)

func TestEncodeFileMeta(t *testing.T) {
	data := mustEncode(t, dicomuid.ExplicitVRLittleEndian, append([]Attribute{
		NewAttribute(dicomtag.ImplementationVersionName, "DCMV_TEST"),
	}, basicAttributes()...))
	assert.Equal(t, make([]byte, 128), data[:128])
	assert.Equal(t, "DICM", string(data[128:132]))
	assert.True(t, bytes.Contains(data, []byte("DCMV_TEST")))
	assert.False(t, bytes.Contains(data, []byte(DefaultImplementationVersionName)))
	assert.True(t, bytes.Contains(data, []byte(DefaultImplementationClassUID)))
	assert.True(t, bytes.Contains(data, []byte(dicomuid.SecondaryCaptureStorage)))
}

func TestEncodeFileErrors(t *testing.T) {
	tests := []struct {
		name  string
		attrs []Attribute
	}{
		{"wrong go type", []Attribute{NewAttribute(dicomtag.Rows, 2)}},
		{"string for US", []Attribute{NewAttribute(dicomtag.Columns, "2")}},
		{"incompatible VR", []Attribute{{Tag: dicomtag.Rows, VR: dicomtag.FD, Values: []interface{}{2.0}}}},
		{"no VR", []Attribute{{Tag: dicomtag.Rows, VR: dicomtag.VRUnknown}}},
		{"odd OW", []Attribute{NewAttribute(dicomtag.PixelData, []byte{1, 2, 3})}},
		{"two pixel buffers", []Attribute{NewAttribute(dicomtag.PixelData, []uint16{1}, []uint16{2})}},
		{"undefined length not last", []Attribute{
			{Tag: dicomtag.PixelData, VR: dicomtag.OW, Values: []interface{}{[]uint16{1}}, UndefinedLength: true},
			NewAttribute(dicomtag.Rows, uint16(1)),
		}},
		{"undefined length string", []Attribute{{Tag: dicomtag.PatientName, VR: dicomtag.PN, Values: []interface{}{"A"}, UndefinedLength: true}}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := EncodeFileBytes(dicomuid.ExplicitVRLittleEndian, test.attrs)
			assert.Error(t, err)
		})
	}

	_, err := EncodeFileBytes(dicomuid.RLELossless, basicAttributes())
	assert.ErrorIs(t, err, dicomio.ErrUnsupportedTransferSyntax)
}

func TestEncodeFileToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slice.dcm")
	require.NoError(t, EncodeFileToPath(path, dicomuid.ImplicitVRLittleEndian, basicAttributes()))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, mustEncode(t, dicomuid.ImplicitVRLittleEndian, basicAttributes()), data)
}

func TestEncodeStringPadding(t *testing.T) {
	e := dicomio.NewBytesEncoder(dicomio.NativeByteOrder, dicomio.ExplicitVR)
	encodeValues(e, NewAttribute(dicomtag.SOPClassUID, "1.2.3"))
	encodeValues(e, NewAttribute(dicomtag.Modality, "CT", "MR", "X"))
	require.NoError(t, e.Error())
	assert.Equal(t, "1.2.3\x00CT\\MR\\X ", string(e.Bytes()))
}
