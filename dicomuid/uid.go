// Package dicomuid lists the DICOM UIDs the volume loader needs to tell apart,
// mostly transfer syntaxes.
package dicomuid

import (
	"fmt"
	"strings"
)

// Type classifies a UID entry.
type Type string

const (
	TypeTransferSyntax Type = "Transfer Syntax"
	TypeSOPClass       Type = "SOP Class"
)

const (
	ImplicitVRLittleEndian         = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian         = "1.2.840.10008.1.2.1"
	ExplicitVRBigEndian            = "1.2.840.10008.1.2.2"
	DeflatedExplicitVRLittleEndian = "1.2.840.10008.1.2.1.99"

	JPEGBaseline            = "1.2.840.10008.1.2.4.50"
	JPEGExtended            = "1.2.840.10008.1.2.4.51"
	JPEGLossless            = "1.2.840.10008.1.2.4.57"
	JPEGLosslessSV1         = "1.2.840.10008.1.2.4.70"
	JPEGLSLossless          = "1.2.840.10008.1.2.4.80"
	JPEGLSNearLossless      = "1.2.840.10008.1.2.4.81"
	JPEG2000Lossless        = "1.2.840.10008.1.2.4.90"
	JPEG2000                = "1.2.840.10008.1.2.4.91"
	RLELossless             = "1.2.840.10008.1.2.5"
	CTImageStorage          = "1.2.840.10008.5.1.4.1.1.2"
	MRImageStorage          = "1.2.840.10008.5.1.4.1.1.4"
	SecondaryCaptureStorage = "1.2.840.10008.5.1.4.1.1.7"
)

// Info describes one UID.
type Info struct {
	UID  string
	Name string
	Type Type
	// Compressed is set for transfer syntaxes whose pixel data is
	// encapsulated (JPEG, RLE, deflate).
	Compressed bool
}

var uidDict = map[string]Info{
	ImplicitVRLittleEndian:         {ImplicitVRLittleEndian, "Implicit VR Little Endian", TypeTransferSyntax, false},
	ExplicitVRLittleEndian:         {ExplicitVRLittleEndian, "Explicit VR Little Endian", TypeTransferSyntax, false},
	ExplicitVRBigEndian:            {ExplicitVRBigEndian, "Explicit VR Big Endian", TypeTransferSyntax, false},
	DeflatedExplicitVRLittleEndian: {DeflatedExplicitVRLittleEndian, "Deflated Explicit VR Little Endian", TypeTransferSyntax, true},
	JPEGBaseline:                   {JPEGBaseline, "JPEG Baseline (Process 1)", TypeTransferSyntax, true},
	JPEGExtended:                   {JPEGExtended, "JPEG Extended (Process 2 & 4)", TypeTransferSyntax, true},
	JPEGLossless:                   {JPEGLossless, "JPEG Lossless, Non-Hierarchical (Process 14)", TypeTransferSyntax, true},
	JPEGLosslessSV1:                {JPEGLosslessSV1, "JPEG Lossless, First-Order Prediction", TypeTransferSyntax, true},
	JPEGLSLossless:                 {JPEGLSLossless, "JPEG-LS Lossless Image Compression", TypeTransferSyntax, true},
	JPEGLSNearLossless:             {JPEGLSNearLossless, "JPEG-LS Lossy (Near-Lossless) Image Compression", TypeTransferSyntax, true},
	JPEG2000Lossless:               {JPEG2000Lossless, "JPEG 2000 Image Compression (Lossless Only)", TypeTransferSyntax, true},
	JPEG2000:                       {JPEG2000, "JPEG 2000 Image Compression", TypeTransferSyntax, true},
	RLELossless:                    {RLELossless, "RLE Lossless", TypeTransferSyntax, true},
	CTImageStorage:                 {CTImageStorage, "CT Image Storage", TypeSOPClass, false},
	MRImageStorage:                 {MRImageStorage, "MR Image Storage", TypeSOPClass, false},
	SecondaryCaptureStorage:        {SecondaryCaptureStorage, "Secondary Capture Image Storage", TypeSOPClass, false},
}

// Lookup finds information about the given uid. Trailing NUL or space
// padding is ignored.
func Lookup(uid string) (Info, error) {
	uid = strings.TrimRight(uid, " \x00")
	if e, ok := uidDict[uid]; ok {
		return e, nil
	}
	return Info{}, fmt.Errorf("unknown DICOM UID '%s'", uid)
}

// UIDString returns a human-readable name for "uid", or the uid itself.
func UIDString(uid string) string {
	e, err := Lookup(uid)
	if err != nil {
		return uid
	}
	return e.Name
}
