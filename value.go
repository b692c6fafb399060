package dicom

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/odincare/dcmvolume/dicomio"
	"github.com/odincare/dcmvolume/dicomtag"
)

// multiValueSeparator joins numeric values with VM > 1.
const multiValueSeparator = ` \ `

// ValueString renders the payload of e for display. Strings go through cs;
// numbers are decoded in the element's byte order.
func ValueString(e *Element, cs dicomio.CodingSystem) string {
	if e.VR == dicomtag.SQ {
		return "(Sequence Data)"
	}
	if e.Tag == dicomtag.PixelData {
		return fmt.Sprintf("(%d bytes of pixel data)", len(e.Value))
	}
	bo := e.ByteOrder()
	switch e.VR {
	case dicomtag.PN:
		if cs.Alphabetic == nil {
			return trimPadding(foldPersonName(e.Value))
		}
		return strings.ReplaceAll(trimPadding(dicomio.DecodeString(cs.Alphabetic, e.Value)), "^", " ")
	case dicomtag.AS:
		return formatAge(trimPadding(string(e.Value)))
	case dicomtag.DA:
		return formatDate(trimPadding(string(e.Value)))
	case dicomtag.TM:
		return formatTime(trimPadding(string(e.Value)))
	case dicomtag.US:
		return joinNumbers(len(e.Value)/2, func(i int) string {
			return strconv.FormatUint(uint64(bo.Uint16(e.Value[2*i:])), 10)
		})
	case dicomtag.SS:
		return joinNumbers(len(e.Value)/2, func(i int) string {
			return strconv.FormatInt(int64(int16(bo.Uint16(e.Value[2*i:]))), 10)
		})
	case dicomtag.UL:
		return joinNumbers(len(e.Value)/4, func(i int) string {
			return strconv.FormatUint(uint64(bo.Uint32(e.Value[4*i:])), 10)
		})
	case dicomtag.SL:
		return joinNumbers(len(e.Value)/4, func(i int) string {
			return strconv.FormatInt(int64(int32(bo.Uint32(e.Value[4*i:]))), 10)
		})
	case dicomtag.FL:
		return joinNumbers(len(e.Value)/4, func(i int) string {
			return strconv.FormatFloat(float64(math.Float32frombits(bo.Uint32(e.Value[4*i:]))), 'g', -1, 32)
		})
	case dicomtag.FD:
		return joinNumbers(len(e.Value)/8, func(i int) string {
			return strconv.FormatFloat(math.Float64frombits(bo.Uint64(e.Value[8*i:])), 'g', -1, 64)
		})
	case dicomtag.AT:
		return joinNumbers(len(e.Value)/4, func(i int) string {
			t := dicomtag.Tag{Group: bo.Uint16(e.Value[4*i:]), Element: bo.Uint16(e.Value[4*i+2:])}
			return t.String()
		})
	case dicomtag.OB, dicomtag.OW, dicomtag.OF, dicomtag.OD, dicomtag.UN, dicomtag.VRUnknown:
		return fmt.Sprintf("(%d bytes)", len(e.Value))
	}
	return trimPadding(dicomio.DecodeString(cs.Ideographic, e.Value))
}

func joinNumbers(n int, format func(i int) string) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = format(i)
	}
	return strings.Join(parts, multiValueSeparator)
}

// foldPersonName decodes UTF-8 by hand and turns the component separator
// '^' into a space. Malformed sequences are decoded as far as they go,
// which is what older viewers showed for such names.
func foldPersonName(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case c >= 0xe0 && i+2 < len(raw):
			sb.WriteRune(rune(c&0x0f)<<12 | rune(raw[i+1]&0x3f)<<6 | rune(raw[i+2]&0x3f))
			i += 2
		case c >= 0xc0 && i+1 < len(raw):
			sb.WriteRune(rune(c&0x1f)<<6 | rune(raw[i+1]&0x3f))
			i++
		case c == '^':
			sb.WriteByte(' ')
		default:
			sb.WriteRune(rune(c))
		}
	}
	return sb.String()
}

// formatAge renders "045Y" as "45 years".
func formatAge(s string) string {
	if len(s) != 4 {
		return s
	}
	n, err := strconv.Atoi(s[:3])
	if err != nil {
		return s
	}
	var unit string
	switch s[3] {
	case 'D':
		unit = "days"
	case 'W':
		unit = "weeks"
	case 'M':
		unit = "months"
	case 'Y':
		unit = "years"
	default:
		return s
	}
	return fmt.Sprintf("%d %s", n, unit)
}

// formatDate renders YYYYMMDD as DD/MM/YYYY.
func formatDate(s string) string {
	if len(s) < 8 {
		return s
	}
	return fmt.Sprintf("%s/%s/%s", s[6:8], s[4:6], s[0:4])
}

// formatTime renders HHMMSS.FFFFFF as "HHh MMm SSs". Fractions are dropped.
func formatTime(s string) string {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	switch len(s) {
	case 6:
		return fmt.Sprintf("%sh %sm %ss", s[0:2], s[2:4], s[4:6])
	case 4:
		return fmt.Sprintf("%sh %sm", s[0:2], s[2:4])
	case 2:
		return s + "h"
	}
	return s
}
