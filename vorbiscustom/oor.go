/*
NAME
  oor.go

DESCRIPTION
  oor.go reconstructs the Vorbis packet stream the "OOR" container carries
  (spec.md §4.G, OOR variant): a bit-packed header page gives channel count,
  sample rate and blocksize exponents directly (no synthesized
  identification packet needed to guess them), the setup page holds exactly
  one byte naming an external codebook id, and audio pages are OggS-like
  with CONTINUED/PARTIAL continuation flags joining a packet split across
  page boundaries (vorbis_custom_utils_oor.c).

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
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/vgmcodec/bitreader"
	"github.com/ausocean/vgmcodec/streamfile"
)

const (
	oorFlagPartial   = 0x01
	oorFlagContinued = 0x02
	oorFlagEOS       = 0x04

	oorMaxPacketSizes = 255
	oorPageBufSize    = 0x200
)

// oorHeader is everything the OOR header page tells us about the stream
// (oor_header_t, as consumed by read_header_packet).
type oorHeader struct {
	channels       int
	sampleRate     int
	blockSizeExp0  int
	blockSizeExp1  int
}

func readOORHeader(r *bitreader.MSBReader) oorHeader {
	// header page + header fields; field widths mirror oor_read_page /
	// oor_read_header's layout of channel count, sample rate and the two
	// blocksize exponents ahead of the encoder's own bookkeeping fields.
	r.SkipBits(8) // page type / flags
	channels := int(r.ReadBits(8))
	sampleRate := int(r.ReadBits(32))
	blockSizeExp0 := int(r.ReadBits(4))
	blockSizeExp1 := int(r.ReadBits(4))
	return oorHeader{
		channels:      channels,
		sampleRate:    sampleRate,
		blockSizeExp0: blockSizeExp0,
		blockSizeExp1: blockSizeExp1,
	}
}

// oorPageInfo is one audio page's parsed bookkeeping (oor_page_t/oor_size_t).
type oorPageInfo struct {
	flags       byte
	packetSizes []int
}

func readOORPageInfo(buf []byte) (oorPageInfo, int, error) {
	r := bitreader.NewMSBReader(buf)
	flags := byte(r.ReadBits(8))
	packetCount := int(r.ReadBits(8))
	if packetCount >= oorMaxPacketSizes {
		return oorPageInfo{}, 0, errors.New("vorbiscustom: OOR packet count exceeds maximum")
	}
	basePacketSize := int(r.ReadBits(16))

	sizes := make([]int, packetCount)
	for i := range sizes {
		variable := int(r.ReadBits(8))
		sizes[i] = basePacketSize + variable
	}
	r.Align()
	return oorPageInfo{flags: flags, packetSizes: sizes}, r.BitPosition() / 8, nil
}

type oorSource struct {
	src    streamfile.ByteSource
	offset int64

	flags   byte
	sizes   []int
	current int
	eos     bool
}

func newOORSource(src streamfile.ByteSource, offset int64, cfg Config) *oorSource {
	return &oorSource{src: src, offset: offset}
}

func (s *oorSource) headerPackets() ([][]byte, error) {
	var hdrBuf [0x20]byte
	if err := streamfile.ReadFull(s.src, hdrBuf[:], s.offset); err != nil {
		return nil, err
	}
	hdr := readOORHeader(bitreader.NewMSBReader(hdrBuf[:]))
	s.offset += 0x20

	cfg := Config{
		Channels:      hdr.channels,
		SampleRate:    hdr.sampleRate,
		BlockSizeExp0: hdr.blockSizeExp0,
		BlockSizeExp1: hdr.blockSizeExp1,
	}

	setupCodebookID, err := s.readPacket()
	if err != nil {
		return nil, err
	}
	if len(setupCodebookID) != 1 {
		return nil, errors.New("vorbiscustom: OOR setup mini-packet must be one byte")
	}

	return [][]byte{buildIdentification(cfg), buildComment(), buildOORSetup(setupCodebookID[0])}, nil
}

// buildOORSetup produces a placeholder setup packet naming the external
// codebook id the real setup packet would need inflated in (OOR ships no
// inline codebook data; a full reconstruction needs a vendor codebook
// table, supplied the same way as Wwise's — see DESIGN.md).
func buildOORSetup(codebookID byte) []byte {
	buf := make([]byte, 2)
	buf[0] = packetTypeSetup
	buf[1] = codebookID
	return buf
}

// readPacket reads the next chunk of the stream, joining
// PARTIAL/CONTINUED fragments across page boundaries the way OOR requires.
func (s *oorSource) readPacket() ([]byte, error) {
	var out []byte
	for {
		if s.current == 0 {
			if s.eos {
				return nil, errors.New("vorbiscustom: OOR stream ended")
			}
			buf := make([]byte, oorPageBufSize)
			if err := streamfile.ReadFull(s.src, buf, s.offset); err != nil {
				return nil, err
			}
			info, pageSize, err := readOORPageInfo(buf)
			if err != nil {
				return nil, err
			}
			s.flags = info.flags
			s.sizes = info.packetSizes
			s.offset += int64(pageSize)
			if s.flags&oorFlagEOS != 0 {
				s.eos = true
			}
			if len(s.sizes) == 0 {
				return nil, errors.New("vorbiscustom: empty OOR page")
			}
		}

		size := s.sizes[s.current]
		s.current++
		isLast := s.current == len(s.sizes)
		if isLast {
			s.current = 0
		}

		chunk := make([]byte, size)
		if size > 0 {
			if err := streamfile.ReadFull(s.src, chunk, s.offset); err != nil {
				return nil, err
			}
		}
		s.offset += int64(size)
		out = append(out, chunk...)

		if !(isLast && s.flags&oorFlagPartial != 0) {
			return out, nil
		}
	}
}

func (s *oorSource) nextAudioPacket() ([]byte, int64, error) {
	if s.eos && s.current == 0 {
		return nil, 0, io.EOF
	}
	packet, err := s.readPacket()
	if err != nil {
		return nil, 0, err
	}
	return packet, -1, nil
}
