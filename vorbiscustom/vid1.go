/*
NAME
  vid1.go

DESCRIPTION
  vid1.go reconstructs the Vorbis packet stream Activision's VID1 format
  carries (spec.md §4.G, VID1 variant). Packets are prefixed by a
  Vorbis-LSF-style variable length header (4 bits giving the bit-width of
  the size field, then that many bits plus one holding the size itself,
  byte-aligned afterwards), grouped into FRAM/VIDD/AUDD blocks; a lone 0x80
  magic byte in place of the header means "one byte of silence"
  (get_packet_header, vorbis_custom_parse_packet_vid1).

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

	"github.com/pkg/errors"

	"github.com/ausocean/vgmcodec/bitreader"
	"github.com/ausocean/vgmcodec/streamfile"
)

const (
	vid1SilenceMagic = 0x80

	vid1BlockFRAM = 0x4652414D
	vid1BlockVIDD = 0x56494444
	vid1BlockAUDD = 0x41554444
)

// readVID1PacketHeader reads a get_packet_header-style prefix at offset and
// returns the packet size and the offset of the byte-aligned data that
// follows it.
func readVID1PacketHeader(src streamfile.ByteSource, offset int64) (int, int64, error) {
	var first [1]byte
	if err := streamfile.ReadFull(src, first[:], offset); err != nil {
		return 0, 0, err
	}
	if first[0] == vid1SilenceMagic {
		return 1, offset + 1, nil
	}

	buf := make([]byte, 5) // enough for a 4b width-field + up to a 16b size field
	if err := streamfile.ReadFull(src, buf, offset); err != nil {
		return 0, 0, err
	}
	r := bitreader.NewMSBReader(buf)
	sizeBits := int(r.ReadBits(4))
	size := int(r.ReadBits(sizeBits + 1))
	r.Align()
	return size, offset + int64(r.BitPosition()/8), nil
}

type vid1Source struct {
	src    streamfile.ByteSource
	offset int64
}

func newVID1Source(src streamfile.ByteSource, offset int64, cfg Config) *vid1Source {
	return &vid1Source{src: src, offset: offset}
}

// nextBlockTag advances past a FRAM/VIDD/AUDD 4-byte block tag and returns it;
// blocks delimit groups of packets but carry no data of their own.
func (s *vid1Source) nextBlockTag() (uint32, error) {
	var tag [4]byte
	if err := streamfile.ReadFull(s.src, tag[:], s.offset); err != nil {
		return 0, err
	}
	s.offset += 4
	return binary.BigEndian.Uint32(tag[:]), nil
}

func (s *vid1Source) readPacket() ([]byte, error) {
	size, dataOffset, err := readVID1PacketHeader(s.src, s.offset)
	if err != nil {
		return nil, err
	}
	packet := make([]byte, size)
	if size > 0 {
		if err := streamfile.ReadFull(s.src, packet, dataOffset); err != nil {
			return nil, err
		}
	}
	s.offset = dataOffset + int64(size)
	return packet, nil
}

func (s *vid1Source) headerPackets() ([][]byte, error) {
	tag, err := s.nextBlockTag()
	if err != nil {
		return nil, err
	}
	if tag != vid1BlockFRAM && tag != vid1BlockVIDD {
		return nil, errors.Errorf("vorbiscustom: VID1 expected a header block, got %08x", tag)
	}

	idPacket, err := s.readPacket()
	if err != nil {
		return nil, err
	}
	setupPacket, err := s.readPacket()
	if err != nil {
		return nil, err
	}
	return [][]byte{idPacket, buildComment(), setupPacket}, nil
}

func (s *vid1Source) nextAudioPacket() ([]byte, int64, error) {
	for {
		if s.offset >= s.src.Size() {
			return nil, 0, io.EOF
		}
		tag, err := s.nextBlockTag()
		if err != nil {
			return nil, 0, err
		}
		switch tag {
		case vid1BlockAUDD:
			packet, err := s.readPacket()
			if err != nil {
				return nil, 0, err
			}
			return packet, -1, nil
		case vid1BlockFRAM, vid1BlockVIDD:
			continue // video data block this layer doesn't decode; skip its tag and keep scanning
		default:
			return nil, 0, errors.Errorf("vorbiscustom: unexpected VID1 block %08x", tag)
		}
	}
}
