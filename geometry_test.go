package dicom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGeometryMerge(t *testing.T) {
	geos := []Geometry{
		{XDim: 4, YDim: 2},
		{XDim: 2, YDim: 8, PixelSpacing: Vec3{0.5, 0.5, 2}, HasSpacing: true},
		{ImagePosMin: Vec3{1, 2, 3}, ImagePosMax: Vec3{1, 2, 3}, HasPosition: true},
		{PixelSpacing: Vec3{0.7, 0.4, 1}, HasSpacing: true, ImagePosMin: Vec3{-1, 5, 0}, ImagePosMax: Vec3{-1, 5, 0}, HasPosition: true},
		{},
	}
	want := Geometry{
		XDim: 4, YDim: 8,
		PixelSpacing: Vec3{0.7, 0.5, 2}, HasSpacing: true,
		ImagePosMin: Vec3{-1, 2, 0}, ImagePosMax: Vec3{1, 5, 3}, HasPosition: true,
	}

	// Left and right folds, and every rotation of the input, agree.
	for shift := range geos {
		var left Geometry
		for i := range geos {
			left = left.Merge(geos[(i+shift)%len(geos)])
		}
		assert.Equal(t, want, left, "rotation %d", shift)

		var right Geometry
		for i := len(geos) - 1; i >= 0; i-- {
			right = geos[(i+shift)%len(geos)].Merge(right)
		}
		assert.Equal(t, want, right, "rotation %d", shift)
	}

	// (a+b)+c == a+(b+c)
	a, b, c := geos[1], geos[2], geos[3]
	assert.Equal(t, a.Merge(b).Merge(c), a.Merge(b.Merge(c)))
}

func TestGeometryBoxSize(t *testing.T) {
	g := Geometry{XDim: 10, YDim: 20, PixelSpacing: Vec3{0.5, 0.25, 2}, HasSpacing: true}
	assert.Equal(t, Vec3{5, 5, 16}, g.BoxSize(8))

	// No slice thickness: image positions give the extent, z first.
	g = Geometry{
		XDim: 10, YDim: 10,
		ImagePosMin: Vec3{0, 0, -5}, ImagePosMax: Vec3{0, 3, 7}, HasPosition: true,
	}
	assert.Equal(t, Vec3{10, 10, 12}, g.BoxSize(8))

	g.ImagePosMax.Z = -5
	assert.Equal(t, 3.0, g.ZExtent(8))

	assert.Equal(t, 1.0, Geometry{}.ZExtent(8))
}
