/*
NAME
  awc.go

DESCRIPTION
  awc.go reconstructs the Vorbis packet stream Rockstar's Audio Wave
  Container (AWC) carries (spec.md §4.G, AWC variant): header packets are
  32-bit little-endian size prefixed, audio packets are 16-bit size
  prefixed, and the whole stream is laid out in 0x800-byte blocks with
  padding that has to be skipped whenever a packet would otherwise straddle
  a block boundary (vorbis_custom_setup_init_awc, find_padding_awc,
  vorbis_custom_parse_packet_awc).

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

const awcBlockSize = 0x800

type awcSource struct {
	src    streamfile.ByteSource
	offset int64
}

func newAWCSource(src streamfile.ByteSource, offset int64, cfg Config) *awcSource {
	return &awcSource{src: src, offset: offset}
}

// findPaddingAWC skips to the start of the next 0x800-byte block if fewer
// than need bytes remain in the current one (find_padding_awc).
func findPaddingAWC(offset int64, need int64) int64 {
	blockEnd := (offset/awcBlockSize + 1) * awcBlockSize
	if offset+need > blockEnd {
		return blockEnd
	}
	return offset
}

func (s *awcSource) readSized(prefixSize int) ([]byte, error) {
	s.offset = findPaddingAWC(s.offset, int64(prefixSize))

	prefix := make([]byte, prefixSize)
	if err := streamfile.ReadFull(s.src, prefix, s.offset); err != nil {
		return nil, err
	}
	var size int64
	if prefixSize == 4 {
		size = int64(binary.LittleEndian.Uint32(prefix))
	} else {
		size = int64(binary.LittleEndian.Uint16(prefix))
	}
	s.offset += int64(prefixSize)

	s.offset = findPaddingAWC(s.offset, size)
	packet := make([]byte, size)
	if size > 0 {
		if err := streamfile.ReadFull(s.src, packet, s.offset); err != nil {
			return nil, err
		}
	}
	s.offset += size
	return packet, nil
}

func (s *awcSource) headerPackets() ([][]byte, error) {
	idPacket, err := s.readSized(4)
	if err != nil {
		return nil, err
	}
	commentPacket, err := s.readSized(4)
	if err != nil {
		return nil, err
	}
	setupPacket, err := s.readSized(4)
	if err != nil {
		return nil, err
	}
	return [][]byte{idPacket, commentPacket, setupPacket}, nil
}

func (s *awcSource) nextAudioPacket() ([]byte, int64, error) {
	if s.offset >= s.src.Size() {
		return nil, 0, io.EOF
	}
	packet, err := s.readSized(2)
	if err != nil {
		return nil, 0, err
	}
	if len(packet) == 0 {
		return nil, 0, io.EOF
	}
	return packet, -1, nil
}
