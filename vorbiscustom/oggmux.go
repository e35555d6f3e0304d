/*
NAME
  oggmux.go

DESCRIPTION
  oggmux.go pages up a reconstructed Vorbis packet stream into genuine Ogg
  pages (capture pattern, sequence numbers, segment table, CRC), so that any
  standard Ogg/Vorbis decoder can read the result without knowing that the
  packets came from a proprietary container. Every vorbiscustom variant
  funnels through this one muxer; only the packetSource they feed it differs
  (spec.md §4.G, "containers differ only in packet framing").

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
	"bytes"
	"encoding/binary"
	"io"
)

const (
	oggCapturePattern = 0x4f676753 // "OggS"
	oggMaxSegmentSize = 255
	oggMaxPageBytes   = oggMaxSegmentSize * oggMaxSegmentSize
)

// Page header flags.
const (
	oggContinuedPacket = 0x01
	oggFirstPage       = 0x02
	oggLastPage        = 0x04
)

// oggCRCTable is precomputed for the non-reflected CRC-32 polynomial Ogg
// uses (0x04c11db7, init 0, no final XOR); this isn't the reflected variant
// hash/crc32 implements, so there is no stdlib or corpus table to reuse
// (see DESIGN.md).
var oggCRCTable = buildOggCRCTable()

func buildOggCRCTable() [256]uint32 {
	const poly = 0x04c11db7
	var table [256]uint32
	for i := range table {
		crc := uint32(i) << 24
		for bit := 0; bit < 8; bit++ {
			if crc&0x80000000 != 0 {
				crc = crc<<1 ^ poly
			} else {
				crc <<= 1
			}
		}
		table[i] = crc
	}
	return table
}

func oggCRC32(data []byte) uint32 {
	var crc uint32
	for _, b := range data {
		crc = crc<<8 ^ oggCRCTable[byte(crc>>24)^b]
	}
	return crc
}

// Stream is an io.Reader of a standard Ogg bitstream reconstructed from a
// vorbiscustom packetSource: the three Vorbis header packets each in their
// own page, followed by audio packets paged up to oggMaxPageBytes.
type Stream struct {
	src    packetSource
	serial uint32
	seqNum uint32

	pending []byte // bytes of the current page not yet read
	headers [][]byte
	done    bool
}

func newOggStream(src packetSource, headers [][]byte) *Stream {
	return &Stream{src: src, headers: headers, serial: 0x56434242} // "VCBB", arbitrary but stable
}

// Read implements io.Reader, filling p with reconstructed Ogg page bytes.
func (s *Stream) Read(p []byte) (int, error) {
	for len(s.pending) == 0 {
		if s.done {
			return 0, io.EOF
		}
		if err := s.fillNextPage(); err != nil {
			return 0, err
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

// fillNextPage builds the next Ogg page into s.pending: the three header
// packets one-per-page, then audio packets batched up to oggMaxPageBytes.
func (s *Stream) fillNextPage() error {
	if len(s.headers) > 0 {
		packet := s.headers[0]
		s.headers = s.headers[1:]
		flags := byte(0)
		if s.seqNum == 0 {
			flags |= oggFirstPage
		}
		s.pending = s.buildPage([][]byte{packet}, flags, 0)
		s.seqNum++
		return nil
	}

	var packets [][]byte
	var size int
	var granule int64 = -1
	for size < oggMaxPageBytes {
		packet, g, err := s.src.nextAudioPacket()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		packets = append(packets, packet)
		size += len(packet)
		granule = g
		if size >= oggMaxPageBytes {
			break
		}
	}

	flags := byte(0)
	if len(packets) == 0 {
		s.done = true
		flags |= oggLastPage
		s.pending = s.buildPage(nil, flags, granule)
		return nil
	}
	s.pending = s.buildPage(packets, flags, granule)
	s.seqNum++
	return nil
}

// buildPage lays packets into one Ogg page per the framing spec: capture
// pattern, version 0, flags, granule position, serial, sequence number, a
// placeholder CRC, the lacing (segment) table, then packet data.
func (s *Stream) buildPage(packets [][]byte, flags byte, granule int64) []byte {
	segments := lacingTable(packets)

	var buf bytes.Buffer
	var hdr [27]byte
	binary.BigEndian.PutUint32(hdr[0:4], oggCapturePattern)
	hdr[4] = 0 // stream structure version
	hdr[5] = flags
	binary.LittleEndian.PutUint64(hdr[6:14], uint64(granule))
	binary.LittleEndian.PutUint32(hdr[14:18], s.serial)
	binary.LittleEndian.PutUint32(hdr[18:22], s.seqNum)
	// hdr[22:26] CRC filled in below
	hdr[26] = byte(len(segments))

	buf.Write(hdr[:])
	buf.Write(segments)
	for _, p := range packets {
		buf.Write(p)
	}

	page := buf.Bytes()
	for i := 22; i < 26; i++ {
		page[i] = 0
	}
	crc := oggCRC32(page)
	binary.LittleEndian.PutUint32(page[22:26], crc)
	return page
}

// lacingTable builds the segment table describing each packet's length as
// a run of 255-byte segments terminated by a value less than 255 (or a
// trailing 0 if a packet's length is an exact multiple of 255).
func lacingTable(packets [][]byte) []byte {
	var table []byte
	for _, p := range packets {
		n := len(p)
		for n >= oggMaxSegmentSize {
			table = append(table, oggMaxSegmentSize)
			n -= oggMaxSegmentSize
		}
		table = append(table, byte(n))
	}
	return table
}
