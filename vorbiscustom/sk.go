/*
NAME
  sk.go

DESCRIPTION
  sk.go reconstructs the Vorbis packet stream Silicon Knights' format
  carries (spec.md §4.G, SK variant). The pages are genuine Ogg pages; the
  format simply renames the "OggS" capture pattern to 0x11534B10 and, inside
  the three header packets, the "vorbis" id to "SK" (get_page_info,
  build_header in vorbis_custom_utils_sk.c) — otherwise this is standard Ogg
  paging, segment table and all.

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

	"github.com/ausocean/vgmcodec/streamfile"
)

const skCapturePattern = 0x11534B10 // "\x11SK\x10"

// skPacketSpan locates one packet within a page already read off disk.
type skPacketSpan struct {
	offset int64
	size   int64
}

// readSKPageInfo reads the page at pageOffset and returns every packet span
// in it plus the page's total byte size (get_page_info, target_packet=-1
// case: vorbiscustom always wants every packet in a page, never just one).
func readSKPageInfo(src streamfile.ByteSource, pageOffset int64) ([]skPacketSpan, int64, error) {
	var hdr [0x1b]byte
	if err := streamfile.ReadFull(src, hdr[:], pageOffset); err != nil {
		return nil, 0, err
	}
	if binary.BigEndian.Uint32(hdr[0:4]) != skCapturePattern {
		return nil, 0, errors.New("vorbiscustom: SK page has bad capture pattern")
	}
	segments := int(hdr[0x1a])

	table := make([]byte, segments)
	if err := streamfile.ReadFull(src, table, pageOffset+0x1b); err != nil {
		return nil, 0, err
	}

	var spans []skPacketSpan
	dataOffset := pageOffset + 0x1b + int64(segments)
	packetStart := dataOffset
	var packetSize int64
	for _, segSize := range table {
		packetSize += int64(segSize)
		dataOffset += int64(segSize)
		if segSize != 0xFF {
			spans = append(spans, skPacketSpan{offset: packetStart, size: packetSize})
			packetStart = dataOffset
			packetSize = 0
		}
	}
	return spans, dataOffset, nil
}

// buildSKHeader rewrites a packet's "SK" id back to "vorbis" (build_header).
func buildSKHeader(src streamfile.ByteSource, span skPacketSpan) ([]byte, error) {
	raw := make([]byte, span.size)
	if err := streamfile.ReadFull(src, raw, span.offset); err != nil {
		return nil, err
	}
	if len(raw) < 3 {
		return nil, errors.New("vorbiscustom: SK packet too small")
	}
	out := make([]byte, 1+6+len(raw)-3)
	out[0] = raw[0]
	copy(out[1:], vorbisID[:])
	copy(out[7:], raw[3:])
	return out, nil
}

type skSource struct {
	src    streamfile.ByteSource
	offset int64

	spans   []skPacketSpan
	current int
}

func newSKSource(src streamfile.ByteSource, offset int64, cfg Config) *skSource {
	return &skSource{src: src, offset: offset}
}

func (s *skSource) headerPackets() ([][]byte, error) {
	idSpans, idPageSize, err := readSKPageInfo(s.src, s.offset)
	if err != nil {
		return nil, err
	}
	if len(idSpans) != 1 {
		return nil, errors.New("vorbiscustom: SK identification page must hold one packet")
	}
	idPacket, err := buildSKHeader(s.src, idSpans[0])
	if err != nil {
		return nil, err
	}
	s.offset += idPageSize

	cSpans, cPageSize, err := readSKPageInfo(s.src, s.offset)
	if err != nil {
		return nil, err
	}
	if len(cSpans) != 2 {
		return nil, errors.New("vorbiscustom: SK comment/setup page must hold two packets")
	}
	commentPacket, err := buildSKHeader(s.src, cSpans[0])
	if err != nil {
		return nil, err
	}
	setupPacket, err := buildSKHeader(s.src, cSpans[1])
	if err != nil {
		return nil, err
	}
	s.offset += cPageSize

	return [][]byte{idPacket, commentPacket, setupPacket}, nil
}

func (s *skSource) nextAudioPacket() ([]byte, int64, error) {
	if s.current == 0 {
		if s.offset >= s.src.Size() {
			return nil, 0, io.EOF
		}
		spans, pageSize, err := readSKPageInfo(s.src, s.offset)
		if err != nil {
			return nil, 0, err
		}
		if len(spans) == 0 {
			return nil, 0, io.EOF
		}
		s.spans = spans
		s.offset += pageSize
	}

	span := s.spans[s.current]
	s.current++
	if s.current >= len(s.spans) {
		s.current = 0
	}

	packet := make([]byte, span.size)
	if err := streamfile.ReadFull(s.src, packet, span.offset); err != nil {
		return nil, 0, err
	}
	return packet, -1, nil
}
