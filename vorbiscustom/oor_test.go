/*
NAME
  oor_test.go

DESCRIPTION
  oor_test.go contains tests for the OOR packet source: header field
  decoding, page parsing and PARTIAL/CONTINUED packet joining.

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
	"io"
	"testing"

	"github.com/ausocean/vgmcodec/bitreader"
	"github.com/ausocean/vgmcodec/streamfile"
)

func TestReadOORHeader(t *testing.T) {
	// Hand-build the bit layout readOORHeader expects: 8 bits page
	// type/flags, 8 bits channels, 32 bits sample rate, 4+4 bits blocksize
	// exponents.
	buf := make([]byte, 0x20)
	buf[0] = 0 // page type/flags
	buf[1] = 2 // channels
	buf[2] = 0x00
	buf[3] = 0x00
	buf[4] = 0xac // sample rate 0x0000ac44 = 44100
	buf[5] = 0x44
	buf[6] = (11 << 4) | 8 // blockSizeExp0=11, blockSizeExp1=8

	r := bitreader.NewMSBReader(buf)
	hdr := readOORHeader(r)
	if hdr.channels != 2 {
		t.Fatalf("channels = %d, want 2", hdr.channels)
	}
	if hdr.sampleRate != 0x0000ac44 {
		t.Fatalf("sampleRate = %d, want %d", hdr.sampleRate, 0x0000ac44)
	}
	if hdr.blockSizeExp0 != 11 {
		t.Fatalf("blockSizeExp0 = %d, want 11", hdr.blockSizeExp0)
	}
	if hdr.blockSizeExp1 != 8 {
		t.Fatalf("blockSizeExp1 = %d, want 8", hdr.blockSizeExp1)
	}
}

func TestReadOORPageInfo(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteByte(oorFlagPartial)
	buf.WriteByte(2) // packet count
	buf.WriteByte(0) // base size high byte
	buf.WriteByte(10)
	buf.WriteByte(0) // first packet: base + 0
	buf.WriteByte(5) // second packet: base + 5

	info, size, err := readOORPageInfo(buf.Bytes())
	if err != nil {
		t.Fatalf("readOORPageInfo: %v", err)
	}
	if info.flags != oorFlagPartial {
		t.Fatalf("flags = %#x, want %#x", info.flags, oorFlagPartial)
	}
	if len(info.packetSizes) != 2 || info.packetSizes[0] != 10 || info.packetSizes[1] != 15 {
		t.Fatalf("packetSizes = %v, want [10 15]", info.packetSizes)
	}
	if size != 6 {
		t.Fatalf("size = %d, want 6", size)
	}
}

func TestReadOORPageInfoRejectsTooManyPackets(t *testing.T) {
	buf := []byte{0, 0xff, 0, 0}
	if _, _, err := readOORPageInfo(buf); err == nil {
		t.Fatal("readOORPageInfo with packetCount >= max: want error, got nil")
	}
}

func TestOORReadPacketJoinsPartialFragments(t *testing.T) {
	// Page info is parsed from a fixed oorPageBufSize-byte read at the page's
	// start, but only the flags/count/sizes prefix plus however many packet
	// bytes the sizes name are actually consumed; the next page's header
	// follows immediately after, not at a fixed offset. Pad the tail so
	// every page-start read has a full oorPageBufSize window to read into.
	var buf bytes.Buffer
	fragment1 := []byte{1, 2, 3}
	buf.Write([]byte{oorFlagPartial, 1, 0, 3, 0}) // flags, count=1, base size=3, delta=0
	buf.Write(fragment1)

	fragment2 := []byte{4, 5}
	buf.Write([]byte{oorFlagEOS, 1, 0, 2, 0}) // flags, count=1, base size=2, delta=0
	buf.Write(fragment2)

	buf.Write(make([]byte, oorPageBufSize))

	src := streamfile.NewMemory(buf.Bytes())
	s := &oorSource{src: src}

	got, err := s.readPacket()
	if err != nil {
		t.Fatalf("readPacket: %v", err)
	}
	want := append(append([]byte{}, fragment1...), fragment2...)
	if !bytes.Equal(got, want) {
		t.Fatalf("readPacket = %v, want %v", got, want)
	}
}

func TestOORNextAudioPacketEOF(t *testing.T) {
	s := &oorSource{eos: true, current: 0}
	if _, _, err := s.nextAudioPacket(); err != io.EOF {
		t.Fatalf("nextAudioPacket at eos = %v, want io.EOF", err)
	}
}
