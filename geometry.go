package dicom

import "math"

// Vec3 is a point or extent in patient space, in millimetres.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) min(o Vec3) Vec3 {
	return Vec3{math.Min(v.X, o.X), math.Min(v.Y, o.Y), math.Min(v.Z, o.Z)}
}

func (v Vec3) max(o Vec3) Vec3 {
	return Vec3{math.Max(v.X, o.X), math.Max(v.Y, o.Y), math.Max(v.Z, o.Z)}
}

// Geometry accumulates what the slices of a series say about the physical
// layout of the volume. It is a value: Merge returns a new Geometry and the
// fold over slices gives the same result in any order.
type Geometry struct {
	XDim, YDim uint32

	// PixelSpacing is x,y from (0028,0030) and z from slice thickness.
	PixelSpacing Vec3
	HasSpacing   bool

	ImagePosMin, ImagePosMax Vec3
	HasPosition              bool
}

// Merge combines two partial geometries. Dimensions and spacing keep the
// larger value, image positions widen the bounding box.
func (g Geometry) Merge(o Geometry) Geometry {
	out := g
	if o.XDim > out.XDim {
		out.XDim = o.XDim
	}
	if o.YDim > out.YDim {
		out.YDim = o.YDim
	}
	switch {
	case o.HasSpacing && out.HasSpacing:
		out.PixelSpacing = out.PixelSpacing.max(o.PixelSpacing)
	case o.HasSpacing:
		out.PixelSpacing = o.PixelSpacing
		out.HasSpacing = true
	}
	switch {
	case o.HasPosition && out.HasPosition:
		out.ImagePosMin = out.ImagePosMin.min(o.ImagePosMin)
		out.ImagePosMax = out.ImagePosMax.max(o.ImagePosMax)
	case o.HasPosition:
		out.ImagePosMin = o.ImagePosMin
		out.ImagePosMax = o.ImagePosMax
		out.HasPosition = true
	}
	return out
}

// minSpacing below which a spacing or extent counts as missing.
const minSpacing = 1e-5

// ZExtent is the physical depth of a stack of zDim slices: slice thickness
// times count when known, else the image position extent along z, then x,
// then y, else 1.
func (g Geometry) ZExtent(zDim uint32) float64 {
	if math.Abs(g.PixelSpacing.Z) > minSpacing {
		return g.PixelSpacing.Z * float64(zDim)
	}
	if g.HasPosition {
		ext := Vec3{
			X: g.ImagePosMax.X - g.ImagePosMin.X,
			Y: g.ImagePosMax.Y - g.ImagePosMin.Y,
			Z: g.ImagePosMax.Z - g.ImagePosMin.Z,
		}
		for _, v := range []float64{ext.Z, ext.X, ext.Y} {
			if math.Abs(v) > minSpacing {
				return v
			}
		}
	}
	return 1.0
}

// BoxSize is the physical size of the volume. Missing x/y spacing counts
// as 1mm.
func (g Geometry) BoxSize(zDim uint32) Vec3 {
	sx, sy := g.PixelSpacing.X, g.PixelSpacing.Y
	if math.Abs(sx) <= minSpacing {
		sx = 1
	}
	if math.Abs(sy) <= minSpacing {
		sy = 1
	}
	return Vec3{
		X: float64(g.XDim) * sx,
		Y: float64(g.YDim) * sy,
		Z: g.ZExtent(zDim),
	}
}
