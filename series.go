package dicom

import (
	"fmt"
	"sort"
)

// SeriesDescr describes one series for listing and querying.
type SeriesDescr struct {
	Hash             uint32
	NumSlices        int
	PatientName      string
	StudyDescr       string
	StudyDate        string
	SeriesTime       string
	SeriesDescr      string
	BodyPartExamined string
	StudyDateDA      string
}

func (d SeriesDescr) String() string {
	return fmt.Sprintf("%08x %3d slices | %s | %s | %s | %s | %s | %s", d.Hash, d.NumSlices,
		d.PatientName, d.StudyDescr, d.StudyDate, d.SeriesTime, d.SeriesDescr, d.BodyPartExamined)
}

// Series is the set of slices sharing one hash.
type Series struct {
	Hash     uint32
	Slices   []*Slice
	MinSlice int32
	MaxSlice int32
	Descr    SeriesDescr
	Geometry Geometry
}

func newSeries(s *Slice) *Series {
	return &Series{
		Hash:     s.Hash,
		MinSlice: s.SliceNumber,
		MaxSlice: s.SliceNumber,
		Descr: SeriesDescr{
			Hash:             s.Hash,
			PatientName:      s.PatientName,
			StudyDescr:       s.StudyDescr,
			StudyDate:        s.StudyDate,
			SeriesTime:       s.SeriesTime,
			SeriesDescr:      s.SeriesDescr,
			BodyPartExamined: s.BodyPartExamined,
			StudyDateDA:      s.StudyDateDA,
		},
	}
}

func (se *Series) add(s *Slice) {
	se.Slices = append(se.Slices, s)
	se.Descr.NumSlices = len(se.Slices)
	if s.SliceNumber < se.MinSlice {
		se.MinSlice = s.SliceNumber
	}
	if s.SliceNumber > se.MaxSlice {
		se.MaxSlice = s.SliceNumber
	}
	se.Geometry = se.Geometry.Merge(s.Geometry())
}

// Release drops every slice and its pixel buffer.
func (se *Series) Release() {
	for _, s := range se.Slices {
		s.Image = nil
	}
	se.Slices = nil
}

// Classifier groups decoded slices into series by hash. It is a fold: the
// result does not depend on the order slices are added in, apart from the
// order of Series.Slices which Assemble sorts anyway.
//
// A Classifier is not safe for concurrent use.
type Classifier struct {
	series   map[uint32]*Series
	geometry Geometry
	count    int
}

// NewClassifier returns an empty classifier.
func NewClassifier() *Classifier {
	return &Classifier{series: make(map[uint32]*Series)}
}

// Add files s under its hash.
func (c *Classifier) Add(s *Slice) {
	se, ok := c.series[s.Hash]
	if !ok {
		se = newSeries(s)
		c.series[s.Hash] = se
	}
	se.add(s)
	c.geometry = c.geometry.Merge(s.Geometry())
	c.count++
}

// Len returns the number of slices added so far.
func (c *Classifier) Len() int { return c.count }

// Series returns all series ordered by hash.
func (c *Classifier) Series() []*Series {
	out := make([]*Series, 0, len(c.series))
	for _, se := range c.series {
		out = append(out, se)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Hash < out[j].Hash })
	return out
}

// Lookup returns the series with the given hash, or nil.
func (c *Classifier) Lookup(hash uint32) *Series {
	return c.series[hash]
}

// Descriptions lists every series, ordered by hash.
func (c *Classifier) Descriptions() []SeriesDescr {
	series := c.Series()
	out := make([]SeriesDescr, len(series))
	for i, se := range series {
		out[i] = se.Descr
	}
	return out
}

// Geometry is the fold of every slice added, across series.
func (c *Classifier) Geometry() Geometry { return c.geometry }

// Release drops the pixel buffers of every series.
func (c *Classifier) Release() {
	for _, se := range c.series {
		se.Release()
	}
}
