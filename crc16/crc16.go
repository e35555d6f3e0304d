/*
NAME
  crc16.go

DESCRIPTION
  crc16.go implements the CRC-16/CCITT checksum (polynomial 0x8005, CCITT bit
  order, initial register 0) that HCA uses to validate both its header and
  every frame. The table generator is adapted from the MPEG-TS PSI CRC-32
  table builder this module's teacher repo used for program-specific
  information sections, re-derived for CRC-16 with the non-reversed CCITT bit
  convention HCA requires.

AUTHORS
  Dan Kortschak <dan@ausocean.org>
  Saxon Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package crc16 implements CRC-16/CCITT and the small set of
// WAVEFORMATEXTENSIBLE subformat GUIDs the container parsers compare against.
package crc16

// Polynomial is the CCITT CRC-16 polynomial used by HCA header/frame
// checksums.
const Polynomial = 0x8005

var table = makeTable(Polynomial)

func makeTable(poly uint16) *[256]uint16 {
	var t [256]uint16
	for i := range t {
		crc := uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		t[i] = crc
	}
	return &t
}

// Checksum computes the CRC-16/CCITT of b, starting from an initial register
// of 0.
func Checksum(b []byte) uint16 {
	return Update(0, b)
}

// Update folds more bytes into an in-progress CRC-16/CCITT register.
func Update(crc uint16, b []byte) uint16 {
	for _, v := range b {
		crc = table[byte(crc>>8)^v] ^ (crc << 8)
	}
	return crc
}

// IsValid reports whether b (a complete HCA header or frame, including its
// trailing two-byte checksum) has a CRC-16/CCITT of zero, the invariant
// spec.md §4.J and §8 require of every valid header and frame.
func IsValid(b []byte) bool {
	return Checksum(b) == 0
}
