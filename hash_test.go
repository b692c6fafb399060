package dicom

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeriesHash(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
	}{
		{"", 0},
		{"a", 0x258babf0},
		{"ab", 991135867},
		{"ba", 592944979},
		{"PHANTOM^SPHERE", 0x06d1e600},
		{"Zhang^San张三", 0x2562cd88},
		// One code point outside the BMP is two UTF-16 units.
		{"\U0001F600", 532498623},
	}
	for _, test := range tests {
		got := SeriesHash(test.in)
		assert.Equal(t, test.want, got, "%q", test.in)
		assert.Zero(t, got&^hashMask, "%q keeps 30 bits", test.in)
	}
}
