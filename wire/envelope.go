package wire

import "github.com/jaydenbeard/e2ee-core/protocolerr"

// CurrentVersion is the highest message version this implementation
// produces and the one new sessions always negotiate.
const CurrentVersion = 3

// legacyVersion is the newest message version this implementation only
// reads (embedded in historical records), never produces.
const legacyVersion = 2

// PackVersionByte packs a message's own version and the version this
// implementation supports into the single leading envelope byte shared by
// SignalMessage and PreKeySignalMessage: (messageVersion << 4) | CurrentVersion.
func PackVersionByte(messageVersion int) byte {
	return byte(messageVersion<<4) | byte(CurrentVersion)
}

// ParseVersionByte unpacks the leading envelope byte, returning the
// message's own version and the remaining body. It enforces the §6
// rejection rules: empty input is CiphertextMessageTooShort, a version at
// or below the legacy threshold is LegacyCiphertextVersion, and anything
// above CurrentVersion is UnrecognizedCiphertextVersion.
func ParseVersionByte(data []byte) (messageVersion int, body []byte, err error) {
	if len(data) == 0 {
		return 0, nil, protocolerr.ErrCiphertextMessageTooShort
	}
	version := int(data[0]) >> 4
	switch {
	case version <= legacyVersion:
		return 0, nil, protocolerr.ErrLegacyCiphertextVersion
	case version > CurrentVersion:
		return 0, nil, protocolerr.ErrUnrecognizedCiphertextVersion
	}
	return version, data[1:], nil
}
