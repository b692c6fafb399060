package dicom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSlice(index int, number int32, descr string) *Slice {
	s := &Slice{
		Index:       index,
		SliceNumber: number,
		XDim:        2,
		YDim:        2,
		PatientName: "DOE^JANE",
		StudyDescr:  "CHEST CT",
		SeriesDescr: descr,
		Image:       []uint16{1, 2, 3, 4},
	}
	s.Hash = SeriesHash(s.DescriptiveKey())
	return s
}

func TestClassifier(t *testing.T) {
	slices := []*Slice{
		testSlice(0, 0, "AXIAL"),
		testSlice(1, 4, "CORONAL"),
		testSlice(2, 2, "AXIAL"),
		testSlice(3, 1, "AXIAL"),
		testSlice(4, 3, "CORONAL"),
	}
	c := NewClassifier()
	for _, s := range slices {
		c.Add(s)
	}
	assert.Equal(t, 5, c.Len())

	series := c.Series()
	require.Len(t, series, 2)
	assert.Less(t, series[0].Hash, series[1].Hash)

	axial := c.Lookup(SeriesHash("DOE^JANECHEST CTAXIAL"))
	require.NotNil(t, axial)
	assert.Len(t, axial.Slices, 3)
	assert.EqualValues(t, 0, axial.MinSlice)
	assert.EqualValues(t, 2, axial.MaxSlice)
	assert.Equal(t, 3, axial.Descr.NumSlices)
	assert.Equal(t, "AXIAL", axial.Descr.SeriesDescr)
	assert.EqualValues(t, 2, axial.Geometry.XDim)

	coronal := c.Lookup(SeriesHash("DOE^JANECHEST CTCORONAL"))
	require.NotNil(t, coronal)
	assert.EqualValues(t, 3, coronal.MinSlice)
	assert.EqualValues(t, 4, coronal.MaxSlice)

	assert.Nil(t, c.Lookup(1))

	descrs := c.Descriptions()
	require.Len(t, descrs, 2)
	assert.Equal(t, series[0].Descr, descrs[0])
	assert.Contains(t, descrs[0].String(), "DOE^JANE")

	c.Release()
	assert.Nil(t, axial.Slices)
	assert.Nil(t, slices[0].Image)
}

// Adding the same slices in any order gives the same series.
func TestClassifierOrderIndependent(t *testing.T) {
	build := func(order []int) []SeriesDescr {
		c := NewClassifier()
		for _, i := range order {
			c.Add(testSlice(i, int32(i), []string{"A", "B", "C"}[i%3]))
		}
		return c.Descriptions()
	}
	want := build([]int{0, 1, 2, 3, 4, 5, 6})
	require.Len(t, want, 3)
	assert.Equal(t, want, build([]int{6, 5, 4, 3, 2, 1, 0}))
	assert.Equal(t, want, build([]int{3, 0, 6, 1, 4, 2, 5}))
}
