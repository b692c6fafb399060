package dicomio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"

	"github.com/odincare/dcmvolume/dicomuid"
)

// ErrUnsupportedTransferSyntax is returned for transfer syntaxes whose data
// set cannot be walked as native tags: compressed pixel encodings, deflated
// streams and UIDs that are not transfer syntaxes at all.
var ErrUnsupportedTransferSyntax = errors.New("unsupported transfer syntax")

// TransferSyntax is the negotiated encoding of the data set that follows the
// file meta group.
type TransferSyntax struct {
	UID       string
	ByteOrder binary.ByteOrder
	Implicit  IsImplicitVR
	// Deflate is set for the deflated explicit little endian syntax. Such
	// streams are recognised so they can be reported, never decoded.
	Deflate bool
}

// DefaultTransferSyntax is the syntax assumed until (0002,0010) is decoded.
var DefaultTransferSyntax = TransferSyntax{
	UID:       dicomuid.ExplicitVRLittleEndian,
	ByteOrder: binary.LittleEndian,
	Implicit:  ExplicitVR,
}

// StandardTransferSyntaxes is the list of native transfer syntaxes
var StandardTransferSyntaxes = []string{
	dicomuid.ImplicitVRLittleEndian,
	dicomuid.ExplicitVRLittleEndian,
	dicomuid.ExplicitVRBigEndian,
}

// ParseTransferSyntaxUID parses a transfer syntax uid and returns its byte
// order and implicit/explicit VR mode, e.g.
//
//	1.2.840.10008.1.2      -> (LittleEndian, ImplicitVR)
//	1.2.840.10008.1.2.2    -> (BigEndian, ExplicitVR)
//	1.2.840.10008.1.2.1.99 -> (LittleEndian, ExplicitVR, Deflate) + error
//
// Every UID outside the native set yields an error wrapping
// ErrUnsupportedTransferSyntax. The returned TransferSyntax is still filled
// in for deflate so callers can log what the stream claimed to be.
func ParseTransferSyntaxUID(uid string) (TransferSyntax, error) {
	uid = strings.TrimRight(uid, " \x00")
	switch uid {
	case dicomuid.ImplicitVRLittleEndian:
		return TransferSyntax{UID: uid, ByteOrder: binary.LittleEndian, Implicit: ImplicitVR}, nil
	case dicomuid.ExplicitVRLittleEndian:
		return TransferSyntax{UID: uid, ByteOrder: binary.LittleEndian, Implicit: ExplicitVR}, nil
	case dicomuid.ExplicitVRBigEndian:
		return TransferSyntax{UID: uid, ByteOrder: binary.BigEndian, Implicit: ExplicitVR}, nil
	case dicomuid.DeflatedExplicitVRLittleEndian:
		ts := TransferSyntax{UID: uid, ByteOrder: binary.LittleEndian, Implicit: ExplicitVR, Deflate: true}
		return ts, fmt.Errorf("%w: %s (deflate)", ErrUnsupportedTransferSyntax, uid)
	}

	e, err := dicomuid.Lookup(uid)
	if err != nil {
		return TransferSyntax{}, fmt.Errorf("%w: '%s' is not a known transfer syntax", ErrUnsupportedTransferSyntax, uid)
	}
	if e.Type != dicomuid.TypeTransferSyntax {
		return TransferSyntax{}, fmt.Errorf("%w: '%s' is not a transfer syntax (is %s)", ErrUnsupportedTransferSyntax, uid, e.Type)
	}
	return TransferSyntax{}, fmt.Errorf("%w: %s (%s, compressed)", ErrUnsupportedTransferSyntax, uid, e.Name)
}
