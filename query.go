package dicom

import (
	"fmt"

	"github.com/gobwas/glob"
)

// SeriesQuery picks series by their descriptive strings. Each non-empty
// field is a DICOM wildcard pattern ('*' any run, '?' one character); empty
// or all-'*' fields are universal matches (P3.4 C.2.2.2.4). Hash, if
// non-zero, must match exactly. StudyDate matches either the display form
// (DD/MM/YYYY) or the DA form (YYYYMMDD).
type SeriesQuery struct {
	PatientName      string
	StudyDescr       string
	StudyDate        string
	SeriesTime       string
	SeriesDescr      string
	BodyPartExamined string
	Hash             uint32
}

// Match reports whether d satisfies every field of q. A malformed pattern
// is an error.
func (q *SeriesQuery) Match(d SeriesDescr) (bool, error) {
	if q.Hash != 0 && q.Hash != d.Hash {
		return false, nil
	}
	filters := []struct {
		name, pattern, value string
	}{
		{"PatientName", q.PatientName, d.PatientName},
		{"StudyDescr", q.StudyDescr, d.StudyDescr},
		{"SeriesTime", q.SeriesTime, d.SeriesTime},
		{"SeriesDescr", q.SeriesDescr, d.SeriesDescr},
		{"BodyPartExamined", q.BodyPartExamined, d.BodyPartExamined},
	}
	for _, f := range filters {
		if isEmptyQuery(f.pattern) {
			// 通用匹配
			continue
		}
		ok, err := matchString(f.pattern, f.value)
		if err != nil {
			return false, fmt.Errorf("query %s: %w", f.name, err)
		}
		if !ok {
			return false, nil
		}
	}
	if isEmptyQuery(q.StudyDate) {
		return true, nil
	}
	for _, v := range []string{d.StudyDate, d.StudyDateDA} {
		ok, err := matchString(q.StudyDate, v)
		if err != nil {
			return false, fmt.Errorf("query StudyDate: %w", err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// Find returns the series matching q, ordered by hash. A nil query matches
// everything.
func (c *Classifier) Find(q *SeriesQuery) ([]*Series, error) {
	var out []*Series
	for _, se := range c.Series() {
		if q != nil {
			ok, err := q.Match(se.Descr)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		out = append(out, se)
	}
	return out, nil
}

func matchString(pattern string, value string) (bool, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return false, err
	}
	return g.Match(value), nil
}

// 检查匹配格式是否是空或一串 “*”
// "*" 与 空查询一样是通用匹配符 P3.4 C2.2.2.4
func isEmptyQuery(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		if pattern[i] != '*' {
			return false
		}
	}
	return true
}
