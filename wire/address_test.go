package wire

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProtocolAddressStringRoundTrip(t *testing.T) {
	addr := NewProtocolAddress("alice", 3)
	require.Equal(t, "alice.3", addr.String())

	parsed, err := ParseProtocolAddress(addr.String())
	require.NoError(t, err)
	require.True(t, addr.Equal(parsed))
}

func TestParseProtocolAddressRejectsMissingDeviceID(t *testing.T) {
	_, err := ParseProtocolAddress("alice")
	require.Error(t, err)
}

func TestParseProtocolAddressRejectsNonNumericDeviceID(t *testing.T) {
	_, err := ParseProtocolAddress("alice.not-a-number")
	require.Error(t, err)
}

func TestParseProtocolAddressSplitsOnLastDot(t *testing.T) {
	parsed, err := ParseProtocolAddress("alice.device.7")
	require.NoError(t, err)
	require.Equal(t, "alice.device", parsed.Name)
	require.Equal(t, uint32(7), parsed.DeviceID)
}

func TestProtocolAddressEqual(t *testing.T) {
	a := NewProtocolAddress("alice", 1)
	b := NewProtocolAddress("alice", 1)
	c := NewProtocolAddress("alice", 2)
	d := NewProtocolAddress("bob", 1)

	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
	require.False(t, a.Equal(d))
}
