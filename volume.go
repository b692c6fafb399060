package dicom

import (
	"sort"

	"github.com/odincare/dcmvolume/dicomlog"
)

// AssembleOptions defines how a series is turned into a volume.
type AssembleOptions struct {
	// ZDim is the number of slices the series must have. Zero means the
	// number of slices the series holds.
	ZDim uint32
}

// Volume is an 8-bit voxel grid, x fastest, then y, then z.
type Volume struct {
	XDim, YDim, ZDim uint32
	BytesPerVoxel    int
	Data             []byte

	// BoxSize is the physical size in millimetres.
	BoxSize Vec3
	// Spacing is the voxel size in millimetres.
	Spacing Vec3
}

// At returns the voxel at (x, y, z).
func (v *Volume) At(x, y, z uint32) byte {
	return v.Data[(int(z)*int(v.YDim)+int(y))*int(v.XDim)+int(x)]
}

// SortSlices orders slices by slice number when the numbers differ, else by
// slice location, then renumbers them 0..n-1. Equal keys keep input index
// order, so the result does not depend on the order slices arrived in.
func SortSlices(slices []*Slice) {
	if len(slices) == 0 {
		return
	}
	lo, hi := slices[0].SliceNumber, slices[0].SliceNumber
	for _, s := range slices {
		if s.SliceNumber < lo {
			lo = s.SliceNumber
		}
		if s.SliceNumber > hi {
			hi = s.SliceNumber
		}
	}
	if hi-lo > 0 {
		sort.SliceStable(slices, func(i, j int) bool {
			a, b := slices[i], slices[j]
			if a.SliceNumber != b.SliceNumber {
				return a.SliceNumber < b.SliceNumber
			}
			return a.Index < b.Index
		})
	} else {
		sort.SliceStable(slices, func(i, j int) bool {
			a, b := slices[i], slices[j]
			if a.SliceLocation != b.SliceLocation {
				return a.SliceLocation < b.SliceLocation
			}
			return a.Index < b.Index
		})
	}
	for i, s := range slices {
		s.SliceNumber = int32(i)
	}
}

// Assemble sorts the slices of s, picks an intensity ceiling from their
// histogram and writes them into an 8-bit volume. On success the series is
// released; the volume shares no memory with it.
func Assemble(s *Series, opts AssembleOptions) (*Volume, error) {
	if s == nil || len(s.Slices) == 0 {
		return nil, newError(KindEmptySeries, "nothing to assemble")
	}
	zDim := opts.ZDim
	if zDim == 0 {
		zDim = uint32(len(s.Slices))
	}

	slices := make([]*Slice, 0, len(s.Slices))
	for _, sl := range s.Slices {
		if sl.Hash == s.Hash {
			slices = append(slices, sl)
		}
	}
	if uint32(len(slices)) != zDim {
		return nil, newError(KindWrongNumSlices, "series %08x has %d slices, expect %d", s.Hash, len(slices), zDim)
	}

	var geo Geometry
	for _, sl := range slices {
		geo = geo.Merge(sl.Geometry())
	}
	xDim, yDim := slices[0].XDim, slices[0].YDim
	for _, sl := range slices {
		if sl.XDim != xDim {
			return nil, newError(KindWrongImageDimX, "slice %d has %d columns, expect %d", sl.Index, sl.XDim, xDim)
		}
		if sl.YDim != yDim {
			return nil, newError(KindWrongImageDimY, "slice %d has %d rows, expect %d", sl.Index, sl.YDim, yDim)
		}
		if uint64(len(sl.Image)) != uint64(xDim)*uint64(yDim) {
			return nil, newError(KindWrongHeaderDataSize, "slice %d has %d samples, expect %d", sl.Index, len(sl.Image), xDim*yDim)
		}
	}
	box := geo.BoxSize(zDim)

	SortSlices(slices)

	hist, total := buildHistogram(slices)
	hs := smoothHistogram(hist, HistSmoothSigma)
	ceiling, err := detectCeiling(hs, total)
	if err != nil {
		return nil, err
	}
	scale, err := scaleForCeiling(ceiling)
	if err != nil {
		return nil, err
	}
	dicomlog.Vprintf(1, "dicom.Assemble: %dx%dx%d, max value %d, ceiling %d, scale %d",
		xDim, yDim, zDim, len(hist)-1, ceiling, scale)

	xyDim := int(xDim) * int(yDim)
	data := make([]byte, xyDim*int(zDim))
	for _, sl := range slices {
		z := sl.SliceNumber
		if z < 0 || uint32(z) >= zDim {
			return nil, newError(KindInvalidSliceIndex, "slice %d maps to z=%d, zDim %d", sl.Index, z, zDim)
		}
		dst := data[int(z)*xyDim : (int(z)+1)*xyDim]
		for i, v := range sl.Image {
			dst[i] = rescaleSample(v, scale)
		}
	}

	vol := &Volume{
		XDim:          xDim,
		YDim:          yDim,
		ZDim:          zDim,
		BytesPerVoxel: 1,
		Data:          data,
		BoxSize:       box,
		Spacing: Vec3{
			X: box.X / float64(xDim),
			Y: box.Y / float64(yDim),
			Z: box.Z / float64(zDim),
		},
	}
	vol.clearBorders()
	s.Release()
	return vol, nil
}

// minSlicesForSideFaces is the depth below which only the z faces are
// cleared.
const minSlicesForSideFaces = 4

// clearBorders zeroes the first and last z plane and, for volumes deeper
// than minSlicesForSideFaces, the x and y faces as well.
func (v *Volume) clearBorders() {
	xDim, yDim, zDim := int(v.XDim), int(v.YDim), int(v.ZDim)
	xyDim := xDim * yDim
	if xyDim == 0 || zDim == 0 {
		return
	}
	zero := func(b []byte) {
		for i := range b {
			b[i] = 0
		}
	}
	zero(v.Data[:xyDim])
	zero(v.Data[(zDim-1)*xyDim:])
	if zDim <= minSlicesForSideFaces {
		return
	}
	for z := 0; z < zDim; z++ {
		plane := v.Data[z*xyDim : (z+1)*xyDim]
		zero(plane[:xDim])
		zero(plane[(yDim-1)*xDim:])
		for y := 0; y < yDim; y++ {
			plane[y*xDim] = 0
			plane[y*xDim+xDim-1] = 0
		}
	}
}
