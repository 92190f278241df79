// Package wire implements the external, byte-exact surface of the
// protocol: addressing, the versioned message envelope, the identity
// fingerprint algorithm, and a hand-written protobuf-wire-format codec for
// every message and persisted-record type named in the data model.
package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// ProtocolAddress identifies a single device belonging to a named
// participant. Equality is by both fields; the canonical string form is
// "name.device_id".
type ProtocolAddress struct {
	Name     string
	DeviceID uint32
}

// NewProtocolAddress constructs a ProtocolAddress.
func NewProtocolAddress(name string, deviceID uint32) ProtocolAddress {
	return ProtocolAddress{Name: name, DeviceID: deviceID}
}

// String renders the address as "name.device_id".
func (a ProtocolAddress) String() string {
	return a.Name + "." + strconv.FormatUint(uint64(a.DeviceID), 10)
}

// Equal reports whether two addresses name the same device.
func (a ProtocolAddress) Equal(other ProtocolAddress) bool {
	return a.Name == other.Name && a.DeviceID == other.DeviceID
}

// ParseProtocolAddress parses the "name.device_id" string form produced by
// String. The string is split on its last '.', so a name that itself
// contains dots parses back unchanged.
func ParseProtocolAddress(s string) (ProtocolAddress, error) {
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return ProtocolAddress{}, fmt.Errorf("wire: address %q missing device id", s)
	}
	name, idPart := s[:idx], s[idx+1:]
	id, err := strconv.ParseUint(idPart, 10, 32)
	if err != nil {
		return ProtocolAddress{}, fmt.Errorf("wire: address %q has invalid device id: %w", s, err)
	}
	return ProtocolAddress{Name: name, DeviceID: uint32(id)}, nil
}
