/*
NAME
  guid.go

DESCRIPTION
  guid.go provides the small set of WAVEFORMATEXTENSIBLE SubFormat GUIDs that
  RIFF-based container parsers (component H) compare against when a 'fmt '
  chunk uses the extensible format tag (0xFFFE) to disambiguate a custom
  codec's GUID from PCM/float.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package crc16

// GUID is a 16-byte WAVEFORMATEXTENSIBLE SubFormat identifier, stored in the
// mixed-endian layout Microsoft's GUID wire format uses (first three fields
// little-endian, last two big-endian).
type GUID [16]byte

// KSDATAFORMAT_SUBTYPE_PCM is the standard PCM subformat GUID.
var KSDATAFORMAT_SUBTYPE_PCM = GUID{
	0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
}

// KSDATAFORMAT_SUBTYPE_IEEE_FLOAT is the standard IEEE float subformat GUID.
var KSDATAFORMAT_SUBTYPE_IEEE_FLOAT = GUID{
	0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x10, 0x00,
	0x80, 0x00, 0x00, 0xAA, 0x00, 0x38, 0x9B, 0x71,
}

// Equal reports whether two GUIDs are bit-identical.
func (g GUID) Equal(o GUID) bool { return g == o }

// GUIDFromBytes parses a 16-byte slice into a GUID, returning false if b is
// shorter than 16 bytes.
func GUIDFromBytes(b []byte) (GUID, bool) {
	var g GUID
	if len(b) < 16 {
		return g, false
	}
	copy(g[:], b[:16])
	return g, true
}
