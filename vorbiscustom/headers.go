/*
NAME
  headers.go

DESCRIPTION
  headers.go builds the two Vorbis header packets every variant in this
  package synthesizes identically: the identification packet (derived from
  Config) and the comment packet (always the same 25 bytes, since none of
  these vendor containers carry real Vorbis comments worth preserving).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vorbiscustom

import "encoding/binary"

const (
	packetTypeIdentification = 0x01
	packetTypeComment        = 0x03
	packetTypeSetup          = 0x05
)

var vorbisID = [6]byte{'v', 'o', 'r', 'b', 'i', 's'}

// buildIdentification returns the 30-byte Vorbis identification packet
// (build_header_identification): packet type, "vorbis", a fixed version of
// 0, the channel count and sample rate, three zeroed bitrate hints, the
// packed blocksize exponents, and the framing bit.
func buildIdentification(cfg Config) []byte {
	buf := make([]byte, 0x1e)
	buf[0x00] = packetTypeIdentification
	copy(buf[0x01:], vorbisID[:])
	binary.LittleEndian.PutUint32(buf[0x07:], 0) // vorbis_version
	buf[0x0b] = byte(cfg.Channels)
	binary.LittleEndian.PutUint32(buf[0x0c:], uint32(cfg.SampleRate))
	binary.LittleEndian.PutUint32(buf[0x10:], 0) // bitrate_maximum
	binary.LittleEndian.PutUint32(buf[0x14:], 0) // bitrate_nominal
	binary.LittleEndian.PutUint32(buf[0x18:], 0) // bitrate_minimum
	buf[0x1c] = byte(cfg.BlockSizeExp0<<4) | byte(cfg.BlockSizeExp1)
	buf[0x1d] = 1 // framing_flag
	return buf
}

const vendorString = "vgmstream"

// buildComment returns the 25-byte synthetic Vorbis comment packet
// (build_header_comment): a fixed vendor string and no user comments.
func buildComment() []byte {
	buf := make([]byte, 0x19)
	buf[0x00] = packetTypeComment
	copy(buf[0x01:], vorbisID[:])
	binary.LittleEndian.PutUint32(buf[0x07:], uint32(len(vendorString)))
	copy(buf[0x0b:], vendorString)
	binary.LittleEndian.PutUint32(buf[0x14:], 0) // user_comment_list_length
	buf[0x18] = 1                                // framing_flag
	return buf
}
