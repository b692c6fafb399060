package dicom

import (
	"encoding/binary"
	"io"

	"github.com/odincare/dcmvolume/dicomlog"
	"github.com/odincare/dcmvolume/dicomtag"
)

// DecodeOptions defines how DecodeSlice reads one file.
type DecodeOptions struct {
	// Index is the position of the file in the input list. Slices with
	// equal sort keys keep this order.
	Index int

	// FileName is only used in log messages.
	FileName string

	// OnElement is installed on the Reader, see Reader.OnElement.
	OnElement func(TagInfo)
}

// PatientInfo holds the descriptive attributes shown next to a volume.
type PatientInfo struct {
	PatientID        string
	PatientBirthDate string
	PatientSex       string
	PatientAge       string
	AcquisitionTime  string
	InstitutionName  string
	PhysicianName    string
	OperatorsName    string
	Manufacturer     string
	Modality         string
}

// Slice is one decoded 2-D image. Image holds XDim*YDim normalized
// intensities, rows first.
type Slice struct {
	Image       []uint16
	XDim, YDim  uint32
	SliceNumber int32

	SliceLocation float64

	PatientName      string
	StudyDescr       string
	StudyDate        string
	SeriesTime       string
	SeriesDescr      string
	BodyPartExamined string

	// StudyDateDA is (0008,0020) as stored, YYYYMMDD. StudyDate is the
	// DD/MM/YYYY display form that goes into the hash.
	StudyDateDA string

	// Hash of the six descriptive strings above, see SeriesHash.
	Hash uint32

	Index        int
	SeriesNumber int

	PixelSpacing     Vec3
	HasPixelSpacing  bool
	SliceThickness   float64
	ImagePosition    Vec3
	HasImagePosition bool

	WindowCenter     float64
	WindowWidth      float64
	RescaleSlope     float64
	RescaleIntercept float64
	RescaleType      string

	BitsAllocated       uint16
	HighBit             uint16
	PixelRepresentation uint16
	SamplesPerPixel     uint16

	TransferSyntaxUID string
	Info              PatientInfo
}

// DescriptiveKey is the string the series hash is computed from.
func (s *Slice) DescriptiveKey() string {
	return s.PatientName + s.StudyDescr + s.StudyDate + s.SeriesTime + s.SeriesDescr + s.BodyPartExamined
}

// Geometry returns what this slice alone says about the volume layout.
func (s *Slice) Geometry() Geometry {
	g := Geometry{XDim: s.XDim, YDim: s.YDim}
	if s.HasPixelSpacing || s.SliceThickness != 0 {
		g.PixelSpacing = s.PixelSpacing
		g.PixelSpacing.Z = s.SliceThickness
		g.HasSpacing = true
	}
	if s.HasImagePosition {
		g.ImagePosMin = s.ImagePosition
		g.ImagePosMax = s.ImagePosition
		g.HasPosition = true
	}
	return g
}

// sliceHeader collects the attributes that control pixel conversion.
type sliceHeader struct {
	bitsAllocated uint32
	highBit       uint32
	hasHighBit    bool
	smallest      int32
	hasSmallest   bool
	largest       int32
	hasLargest    bool
	padding       uint32
	hasPadding    bool
}

// vendorMaskTrick zeroes samples with any of these bits set. Some scanners
// store out-of-field markers there.
const vendorMaskTrick = 0x7000

// DecodeSlice decodes one Part 10 file into a Slice. Elements are read
// until PixelData; everything after it is ignored.
func DecodeSlice(data []byte, opts DecodeOptions) (*Slice, error) {
	r, err := NewReader(data)
	if err != nil {
		return nil, err
	}
	r.OnElement = opts.OnElement

	s := &Slice{
		Index:        opts.Index,
		SliceNumber:  -1,
		RescaleSlope: 1,
	}
	var h sliceHeader
	var pixels *Element
	for pixels == nil {
		e, err := r.Next()
		if err == io.EOF {
			return nil, newError(KindPixelDataNotFound, "no %v before end of file", dicomtag.DebugString(dicomtag.PixelData))
		}
		if err != nil {
			return nil, err
		}
		if e.Tag == dicomtag.PixelData {
			pixels = e
			break
		}
		if err := s.apply(r, e, &h); err != nil {
			return nil, err
		}
	}
	s.TransferSyntaxUID = r.TransferSyntax().UID

	bytesPerSample := h.bitsAllocated / 8
	expect := uint64(s.XDim) * uint64(s.YDim) * uint64(bytesPerSample)
	if expect != uint64(len(pixels.Value)) {
		return nil, newError(KindWrongHeaderDataSize, "%d rows * %d cols * %d bytes = %d, pixel data has %d bytes",
			s.YDim, s.XDim, bytesPerSample, expect, len(pixels.Value))
	}
	if h.bitsAllocated != 16 {
		return nil, newError(KindUnsupportedBitDepth, "bits allocated %d", h.bitsAllocated)
	}
	s.Image = convertPixels(&h, pixels.Value, pixels.ByteOrder())
	s.Hash = SeriesHash(s.DescriptiveKey())
	if dicomlog.Level() >= 2 {
		dicomlog.WithFile(opts.FileName).Debugf("dicom.DecodeSlice: %dx%d slice %d loc %v hash %08x",
			s.XDim, s.YDim, s.SliceNumber, s.SliceLocation, s.Hash)
	}
	return s, nil
}

// apply copies one element into the slice or the conversion header.
func (s *Slice) apply(r *Reader, e *Element, h *sliceHeader) error {
	var err error
	switch e.Tag {
	case dicomtag.Rows:
		var v uint32
		if v, err = e.GetUInt(); err == nil {
			if s.YDim != 0 && s.YDim != v {
				return newError(KindWrongImageDimY, "rows %d, earlier %d", v, s.YDim)
			}
			s.YDim = v
		}
	case dicomtag.Columns:
		var v uint32
		if v, err = e.GetUInt(); err == nil {
			if s.XDim != 0 && s.XDim != v {
				return newError(KindWrongImageDimX, "columns %d, earlier %d", v, s.XDim)
			}
			s.XDim = v
		}
	case dicomtag.BitsAllocated:
		h.bitsAllocated, err = e.GetUInt()
		s.BitsAllocated = uint16(h.bitsAllocated)
	case dicomtag.HighBit:
		h.highBit, err = e.GetUInt()
		h.hasHighBit = err == nil
		s.HighBit = uint16(h.highBit)
	case dicomtag.SmallestImagePixelValue:
		h.smallest, err = e.GetInt()
		h.hasSmallest = err == nil
	case dicomtag.LargestImagePixelValue:
		h.largest, err = e.GetInt()
		h.hasLargest = err == nil
	case dicomtag.PixelPaddingValue:
		h.padding, err = e.GetUInt()
		h.hasPadding = err == nil
	case dicomtag.SamplesPerPixel:
		var v uint32
		v, err = e.GetUInt()
		s.SamplesPerPixel = uint16(v)
	case dicomtag.PixelRepresentation:
		var v uint32
		v, err = e.GetUInt()
		s.PixelRepresentation = uint16(v)
	case dicomtag.PixelSpacing:
		var v []float64
		if v, err = e.GetFloats(); err == nil && len(v) >= 2 {
			s.PixelSpacing.X, s.PixelSpacing.Y = v[0], v[1]
			s.HasPixelSpacing = true
		}
	case dicomtag.SliceThickness:
		s.SliceThickness, err = e.GetFloat()
	case dicomtag.SliceLocation:
		s.SliceLocation, err = e.GetFloat()
	case dicomtag.ImagePositionPatient:
		var v []float64
		if v, err = e.GetFloats(); err == nil && len(v) >= 3 {
			s.ImagePosition = Vec3{v[0], v[1], v[2]}
			s.HasImagePosition = true
		}
	case dicomtag.InstanceNumber:
		var n int
		if n, err = e.GetIntString(); err == nil {
			s.SliceNumber = int32(n - 1)
		}
	case dicomtag.SeriesNumber:
		s.SeriesNumber, err = e.GetIntString()
	case dicomtag.WindowCenter:
		s.WindowCenter, err = e.GetFloat()
	case dicomtag.WindowWidth:
		s.WindowWidth, err = e.GetFloat()
	case dicomtag.RescaleSlope:
		s.RescaleSlope, err = e.GetFloat()
	case dicomtag.RescaleIntercept:
		s.RescaleIntercept, err = e.GetFloat()
	case dicomtag.RescaleType:
		s.RescaleType = r.Text(e)

	case dicomtag.PatientName:
		s.PatientName = r.Text(e)
	case dicomtag.StudyDescription:
		s.StudyDescr = r.Text(e)
	case dicomtag.StudyDate:
		s.StudyDate = r.String(e)
		s.StudyDateDA = r.Text(e)
	case dicomtag.SeriesTime:
		s.SeriesTime = r.Text(e)
	case dicomtag.SeriesDescription:
		s.SeriesDescr = r.Text(e)
	case dicomtag.BodyPartExamined:
		s.BodyPartExamined = r.Text(e)

	case dicomtag.PatientID:
		s.Info.PatientID = r.Text(e)
	case dicomtag.PatientBirthDate:
		s.Info.PatientBirthDate = r.String(e)
	case dicomtag.PatientSex:
		s.Info.PatientSex = r.Text(e)
	case dicomtag.PatientAge:
		s.Info.PatientAge = r.String(e)
	case dicomtag.AcquisitionTime:
		s.Info.AcquisitionTime = r.Text(e)
	case dicomtag.InstitutionName:
		s.Info.InstitutionName = r.Text(e)
	case dicomtag.ReferringPhysicianName:
		s.Info.PhysicianName = r.String(e)
	case dicomtag.OperatorsName:
		s.Info.OperatorsName = r.String(e)
	case dicomtag.Manufacturer:
		s.Info.Manufacturer = r.Text(e)
	case dicomtag.Modality:
		s.Info.Modality = r.Text(e)
	}
	if err != nil {
		// A malformed optional attribute does not invalidate the slice.
		dicomlog.Vprintf(1, "dicom.DecodeSlice: ignoring %v: %v", dicomtag.DebugString(e.Tag), err)
	}
	return nil
}

// convertPixels turns raw 16-bit samples into normalized intensities.
//
// Without a usable smallest/largest pair the samples are masked to the
// stored bits. With one they are clamped to the pair and stretched to a
// 12-bit range.
func convertPixels(h *sliceHeader, raw []byte, bo binary.ByteOrder) []uint16 {
	n := len(raw) / 2
	out := make([]uint16, n)
	padding := uint16(h.padding)

	if !(h.hasSmallest && h.hasLargest && h.smallest < h.largest) {
		highBit := h.bitsAllocated - 1
		if h.hasHighBit {
			highBit = h.highBit
		}
		mask := uint16((uint32(1) << (highBit + 1)) - 1)
		for i := range out {
			v := bo.Uint16(raw[2*i:])
			if h.hasPadding && v == padding {
				v = 0
			}
			v &= mask
			if v&vendorMaskTrick != 0 {
				v = 0
			}
			out[i] = v
		}
		return out
	}

	lo, hi := int64(h.smallest), int64(h.largest)
	scale := (int64(4095) << 12) / (hi - lo)
	for i := range out {
		u := bo.Uint16(raw[2*i:])
		v := int64(int16(u))
		if h.hasPadding && u == padding {
			v = 0
		}
		if v < lo {
			v = lo
		} else if v > hi {
			v = hi
		}
		out[i] = uint16(((v - lo) * scale) >> 12)
	}
	return out
}
