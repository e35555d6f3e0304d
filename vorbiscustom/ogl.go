/*
NAME
  ogl.go

DESCRIPTION
  ogl.go reconstructs the Vorbis packet stream Shin'en's .ogl format carries
  (spec.md §4.G, OGL variant): every packet, header or audio, is framed by a
  16-bit little-endian word whose top 14 bits are the packet size and whose
  bottom 2 bits are flags (vorbis_custom_setup_init_ogl,
  vorbis_custom_parse_packet_ogl).

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

import (
	"encoding/binary"
	"io"

	"github.com/ausocean/vgmcodec/streamfile"
)

type oglSource struct {
	src    streamfile.ByteSource
	offset int64
}

func newOGLSource(src streamfile.ByteSource, offset int64, cfg Config) *oglSource {
	return &oglSource{src: src, offset: offset}
}

// readOGLPacket reads one size|flags-prefixed packet at offset, returning
// the packet bytes, its flags, and the offset just past it.
func readOGLPacket(src streamfile.ByteSource, offset int64) ([]byte, byte, int64, error) {
	var prefix [2]byte
	if err := streamfile.ReadFull(src, prefix[:], offset); err != nil {
		return nil, 0, 0, err
	}
	word := binary.LittleEndian.Uint16(prefix[:])
	size := word >> 2
	flags := byte(word & 0x03)

	packet := make([]byte, size)
	if err := streamfile.ReadFull(src, packet, offset+2); err != nil {
		return nil, 0, 0, err
	}
	return packet, flags, offset + 2 + int64(size), nil
}

func (s *oglSource) headerPackets() ([][]byte, error) {
	var headers [][]byte
	for i := 0; i < 3; i++ {
		packet, _, next, err := readOGLPacket(s.src, s.offset)
		if err != nil {
			return nil, err
		}
		headers = append(headers, packet)
		s.offset = next
	}
	return headers, nil
}

func (s *oglSource) nextAudioPacket() ([]byte, int64, error) {
	if s.offset >= s.src.Size() {
		return nil, 0, io.EOF
	}
	packet, _, next, err := readOGLPacket(s.src, s.offset)
	if err != nil {
		return nil, 0, err
	}
	s.offset = next
	return packet, -1, nil
}
