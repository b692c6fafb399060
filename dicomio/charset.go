package dicomio

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// CodingSystem defines how a []byte is translated into a utf8 string.
type CodingSystem struct {
	// VR="PN" is the only place where we potentially use all three
	// decoders. For all other VR types, only the Ideographic decoder is
	// used. See P3.5, 6.2.
	Alphabetic  *encoding.Decoder
	Ideographic *encoding.Decoder
	Phonetic    *encoding.Decoder
}

// IsASCII reports whether no decoder is installed.
func (cs CodingSystem) IsASCII() bool {
	return cs.Alphabetic == nil && cs.Ideographic == nil && cs.Phonetic == nil
}

// Mapping of DICOM charset name to golang encoding/htmlindex name. "" means
// 7bit ascii.
var htmlEncodingNames = map[string]string{
	"ISO 2022 IR 6":   "",
	"ISO_IR 6":        "",
	"ISO_IR 13":       "shift_jis",
	"ISO 2022 IR 13":  "shift_jis",
	"ISO_IR 100":      "iso-8859-1",
	"ISO 2022 IR 100": "iso-8859-1",
	"ISO_IR 101":      "iso-8859-2",
	"ISO 2022 IR 101": "iso-8859-2",
	"ISO_IR 109":      "iso-8859-3",
	"ISO 2022 IR 109": "iso-8859-3",
	"ISO_IR 110":      "iso-8859-4",
	"ISO 2022 IR 110": "iso-8859-4",
	"ISO_IR 126":      "iso-ir-126",
	"ISO 2022 IR 126": "iso-ir-126",
	"ISO_IR 127":      "iso-ir-127",
	"ISO 2022 IR 127": "iso-ir-127",
	"ISO_IR 138":      "iso-ir-138",
	"ISO 2022 IR 138": "iso-ir-138",
	"ISO_IR 144":      "iso-ir-144",
	"ISO 2022 IR 144": "iso-ir-144",
	"ISO_IR 148":      "iso-ir-148",
	"ISO 2022 IR 148": "iso-ir-148",
	"ISO 2022 IR 149": "euc-kr",
	"ISO 2022 IR 159": "iso-2022-jp",
	"ISO_IR 166":      "tis-620",
	"ISO 2022 IR 166": "tis-620",
	"ISO 2022 IR 87":  "iso-2022-jp",
	"ISO_IR 192":      "utf-8",
	"GB18030":         "gb18030",
	"GBK":             "gbk",
}

// ParseSpecificCharacterSet converts DICOM character encoding names, such as
// "ISO_IR 100", to golang decoders. It returns an all-nil CodingSystem for the
// default (7bit ASCII) encoding. Cf. P3.2 D.6.2.
//
// SpecificCharacterSet is a regular attribute rather than part of the meta
// group, so callers must watch for it while walking the data set.
func ParseSpecificCharacterSet(encodingNames []string) (CodingSystem, error) {
	var decoders []*encoding.Decoder
	for _, name := range encodingNames {
		name = strings.TrimSpace(name)
		var c *encoding.Decoder
		if htmlName, ok := htmlEncodingNames[name]; !ok {
			logrus.Warnf("dicomio.ParseSpecificCharacterSet: unknown character set '%s', assuming utf-8", name)
		} else if htmlName != "" {
			d, err := htmlindex.Get(htmlName)
			if err != nil {
				return CodingSystem{}, fmt.Errorf("encoding name %s (for %s) not found: %w", htmlName, name, err)
			}
			c = d.NewDecoder()
		}
		decoders = append(decoders, c)
	}
	switch len(decoders) {
	case 0:
		return CodingSystem{}, nil
	case 1:
		return CodingSystem{decoders[0], decoders[0], decoders[0]}, nil
	case 2:
		return CodingSystem{decoders[0], decoders[1], decoders[1]}, nil
	default:
		return CodingSystem{decoders[0], decoders[1], decoders[2]}, nil
	}
}
