package dicom

import (
	"fmt"
	"strconv"

	"github.com/odincare/dcmvolume/dicomtag"
	"github.com/odincare/dcmvolume/dicomuid"
)

// SeriesParams describes a synthetic single-frame series.
type SeriesParams struct {
	Slices     int
	Rows, Cols int

	TransferSyntaxUID string

	PatientName      string
	StudyDescr       string
	StudyDate        string
	SeriesTime       string
	SeriesDescr      string
	BodyPartExamined string

	// PixelSpacing is the in-plane spacing, SliceThickness the z spacing.
	// Zero omits the attribute.
	PixelSpacing   float64
	SliceThickness float64

	// Pixel returns the stored sample at (x, y) of slice z. Nil draws a
	// sphere phantom.
	Pixel func(x, y, z int) uint16

	// Extra attributes appended to every slice before PixelData.
	Extra []Attribute
}

func floatToDS(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func intToIS(v int) string {
	return strconv.Itoa(v)
}

// spherePhantom is a bright ball on a dark background.
func spherePhantom(p SeriesParams) func(x, y, z int) uint16 {
	cx, cy, cz := float64(p.Cols-1)/2, float64(p.Rows-1)/2, float64(p.Slices-1)/2
	r := 0.4 * float64(min(p.Cols, p.Rows))
	return func(x, y, z int) uint16 {
		dx, dy := float64(x)-cx, float64(y)-cy
		dz := (float64(z) - cz) * float64(p.Cols) / float64(max(p.Slices, 1))
		if dx*dx+dy*dy+dz*dz <= r*r {
			return 1000
		}
		return 0
	}
}

// SliceAttributes returns the attributes of slice z of the series.
func (p SeriesParams) SliceAttributes(z int) []Attribute {
	pixel := p.Pixel
	if pixel == nil {
		pixel = spherePhantom(p)
	}
	samples := make([]uint16, p.Rows*p.Cols)
	for y := 0; y < p.Rows; y++ {
		for x := 0; x < p.Cols; x++ {
			samples[y*p.Cols+x] = pixel(x, y, z)
		}
	}

	attrs := []Attribute{
		NewAttribute(dicomtag.MediaStorageSOPClassUID, dicomuid.CTImageStorage),
		NewAttribute(dicomtag.MediaStorageSOPInstanceUID, fmt.Sprintf("%s.%d", DefaultSOPInstanceUID, z+1)),
		NewAttribute(dicomtag.SpecificCharacterSet, "ISO_IR 100"),
		NewAttribute(dicomtag.SOPClassUID, dicomuid.CTImageStorage),
		NewAttribute(dicomtag.StudyDate, p.StudyDate),
		NewAttribute(dicomtag.SeriesTime, p.SeriesTime),
		NewAttribute(dicomtag.Modality, "CT"),
		NewAttribute(dicomtag.StudyDescription, p.StudyDescr),
		NewAttribute(dicomtag.SeriesDescription, p.SeriesDescr),
		NewAttribute(dicomtag.PatientName, p.PatientName),
		NewAttribute(dicomtag.BodyPartExamined, p.BodyPartExamined),
	}
	if p.SliceThickness != 0 {
		attrs = append(attrs, NewAttribute(dicomtag.SliceThickness, floatToDS(p.SliceThickness)))
	}
	attrs = append(attrs,
		NewAttribute(dicomtag.InstanceNumber, intToIS(z+1)),
		NewAttribute(dicomtag.SliceLocation, floatToDS(float64(z)*p.SliceThickness)),
		NewAttribute(dicomtag.SamplesPerPixel, uint16(1)),
		NewAttribute(dicomtag.Rows, uint16(p.Rows)),
		NewAttribute(dicomtag.Columns, uint16(p.Cols)),
	)
	if p.PixelSpacing != 0 {
		attrs = append(attrs, NewAttribute(dicomtag.PixelSpacing, floatToDS(p.PixelSpacing), floatToDS(p.PixelSpacing)))
	}
	attrs = append(attrs,
		NewAttribute(dicomtag.BitsAllocated, uint16(16)),
		NewAttribute(dicomtag.BitsStored, uint16(12)),
		NewAttribute(dicomtag.HighBit, uint16(11)),
		NewAttribute(dicomtag.PixelRepresentation, uint16(0)),
	)
	attrs = append(attrs, p.Extra...)
	return append(attrs, NewAttribute(dicomtag.PixelData, samples))
}

// Synthesize encodes every slice of the series. File names are
// "<SeriesDescr>-NNNN.dcm".
func (p SeriesParams) Synthesize() ([]File, error) {
	ts := p.TransferSyntaxUID
	if ts == "" {
		ts = dicomuid.ExplicitVRLittleEndian
	}
	files := make([]File, p.Slices)
	for z := range files {
		data, err := EncodeFileBytes(ts, p.SliceAttributes(z))
		if err != nil {
			return nil, err
		}
		files[z] = File{Name: fmt.Sprintf("%s-%04d.dcm", p.SeriesDescr, z+1), Data: data}
	}
	return files, nil
}
