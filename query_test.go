package dicom

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeriesQueryMatch(t *testing.T) {
	d := SeriesDescr{
		Hash:             0x1234,
		PatientName:      "DOE^JOHN",
		StudyDescr:       "HEAD CT",
		StudyDate:        "01/02/2020",
		SeriesDescr:      "AXIAL 5mm",
		BodyPartExamined: "HEAD",
		StudyDateDA:      "20200201",
	}
	tests := []struct {
		name  string
		query SeriesQuery
		want  bool
	}{
		{"empty", SeriesQuery{}, true},
		{"all stars", SeriesQuery{PatientName: "***"}, true},
		{"exact", SeriesQuery{PatientName: "DOE^JOHN"}, true},
		{"prefix", SeriesQuery{SeriesDescr: "AXIAL*"}, true},
		{"one char", SeriesQuery{BodyPartExamined: "HEA?"}, true},
		{"one char short", SeriesQuery{BodyPartExamined: "HE?"}, false},
		{"case", SeriesQuery{StudyDescr: "head ct"}, false},
		{"every field", SeriesQuery{PatientName: "DOE*", StudyDescr: "*CT", StudyDate: "*2020", SeriesDescr: "*5mm"}, true},
		{"date as DA", SeriesQuery{StudyDate: "2020*"}, true},
		{"date as DA, exact", SeriesQuery{StudyDate: "20200201"}, true},
		{"date as DA, month", SeriesQuery{StudyDate: "202002??"}, true},
		{"other date", SeriesQuery{StudyDate: "1999*"}, false},
		{"date fails after other fields", SeriesQuery{PatientName: "DOE*", StudyDate: "2019*"}, false},
		{"one field fails", SeriesQuery{PatientName: "DOE*", SeriesDescr: "CORONAL*"}, false},
		{"empty value", SeriesQuery{SeriesTime: "?*"}, false},
		{"hash", SeriesQuery{Hash: 0x1234}, true},
		{"other hash", SeriesQuery{Hash: 0x4321, PatientName: "*"}, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ok, err := test.query.Match(d)
			require.NoError(t, err)
			assert.Equal(t, test.want, ok)
		})
	}
}

func TestSeriesQueryBadPattern(t *testing.T) {
	q := SeriesQuery{SeriesDescr: "[AXIAL"}
	_, err := q.Match(SeriesDescr{SeriesDescr: "AXIAL"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SeriesDescr")
}

func TestClassifierFind(t *testing.T) {
	c := NewClassifier()
	for i, descr := range []string{"AXIAL", "CORONAL", "AXIAL", "SAGITTAL"} {
		c.Add(testSlice(i, int32(i), descr))
	}

	all, err := c.Find(nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	found, err := c.Find(&SeriesQuery{SeriesDescr: "*AL"})
	require.NoError(t, err)
	require.Len(t, found, 3)

	found, err = c.Find(&SeriesQuery{SeriesDescr: "AX*"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Len(t, found[0].Slices, 2)

	found, err = c.Find(&SeriesQuery{Hash: found[0].Hash})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	found, err = c.Find(&SeriesQuery{PatientName: "SMITH*"})
	require.NoError(t, err)
	assert.Empty(t, found)
}
