package dicomuid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	e, err := Lookup(ExplicitVRBigEndian + "\x00")
	require.NoError(t, err)
	assert.Equal(t, TypeTransferSyntax, e.Type)
	assert.False(t, e.Compressed)

	e, err = Lookup(RLELossless)
	require.NoError(t, err)
	assert.True(t, e.Compressed)

	_, err = Lookup("1.2.3.4")
	assert.Error(t, err)
}

func TestUIDString(t *testing.T) {
	assert.Equal(t, "CT Image Storage", UIDString(CTImageStorage))
	assert.Equal(t, "1.2.3.4", UIDString("1.2.3.4"))
}
