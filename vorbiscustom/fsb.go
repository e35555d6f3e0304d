/*
NAME
  fsb.go

DESCRIPTION
  fsb.go reconstructs the Vorbis packet stream FMOD Sound Bank (FSB) files
  carry (spec.md §4.G, FSB variant): audio packets are simple u16le
  length-prefixed blocks, and the setup packet is either a precompiled table
  entry selected by the bank or an external ".fvs" blob — neither of which
  this package can embed, so the caller supplies the resolved setup packet
  bytes directly (Config.FSBSetupPacket; see DESIGN.md).

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

// fsbDefaultBlockSize0, fsbDefaultBlockSize1 are the blocksizes every known
// FSB Vorbis stream uses (vorbis_custom_setup_init_fsb hardcodes them).
const (
	fsbDefaultBlockSize0 = 2048
	fsbDefaultBlockSize1 = 256

	fsbPaddingMarker = 0xFFFF
)

type fsbSource struct {
	src    streamfile.ByteSource
	offset int64
	cfg    Config
}

func newFSBSource(src streamfile.ByteSource, offset int64, cfg Config) *fsbSource {
	return &fsbSource{src: src, offset: offset, cfg: cfg}
}

func (s *fsbSource) headerPackets() ([][]byte, error) {
	if len(s.cfg.FSBSetupPacket) == 0 {
		return nil, errors.New("vorbiscustom: FSB requires Config.FSBSetupPacket")
	}
	cfg := s.cfg
	if cfg.BlockSizeExp0 == 0 && cfg.BlockSizeExp1 == 0 {
		cfg.BlockSizeExp0, _ = LoadBlockSizeExponent(fsbDefaultBlockSize0)
		cfg.BlockSizeExp1, _ = LoadBlockSizeExponent(fsbDefaultBlockSize1)
	}
	return [][]byte{buildIdentification(cfg), buildComment(), s.cfg.FSBSetupPacket}, nil
}

func (s *fsbSource) nextAudioPacket() ([]byte, int64, error) {
	var lenBuf [2]byte
	if err := streamfile.ReadFull(s.src, lenBuf[:], s.offset); err != nil {
		return nil, 0, err
	}
	size := binary.LittleEndian.Uint16(lenBuf[:])
	s.offset += 2

	if size == 0 || size == fsbPaddingMarker {
		return nil, 0, io.EOF
	}

	packet := make([]byte, size)
	if err := streamfile.ReadFull(s.src, packet, s.offset); err != nil {
		return nil, 0, err
	}
	s.offset += int64(size)
	return packet, -1, nil
}
