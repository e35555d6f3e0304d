/*
NAME
  wwise_test.go

DESCRIPTION
  wwise_test.go contains tests for the Wwise packet source: the ww2ogg-style
  codebook copy/inflate helpers, packet mini-header parsing, the
  version-to-encoding mapping, and the "modified" audio packet path.

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
	"errors"
	"testing"

	"github.com/ausocean/vgmcodec/bitreader"
)

func TestTremorIlog(t *testing.T) {
	tests := []struct {
		v    uint32
		want int
	}{
		{0, 0},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{255, 8},
		{256, 9},
	}
	for _, tt := range tests {
		if got := tremorIlog(tt.v); got != tt.want {
			t.Errorf("tremorIlog(%d) = %d, want %d", tt.v, got, tt.want)
		}
	}
}

func TestMaptype1QuantvalsBounds(t *testing.T) {
	// The returned vals must satisfy vals^dimensions <= entries <
	// (vals+1)^dimensions, the defining property from Tremor's book_maptype1_quantvals.
	tests := []struct{ entries, dimensions uint32 }{
		{8, 1}, {8, 2}, {256, 2}, {625, 4}, {100, 3},
	}
	for _, tt := range tests {
		vals := maptype1Quantvals(tt.entries, tt.dimensions)
		var lo, hi uint64 = 1, 1
		for i := uint32(0); i < tt.dimensions; i++ {
			lo *= uint64(vals)
			hi *= uint64(vals + 1)
		}
		if lo > uint64(tt.entries) || hi <= uint64(tt.entries) {
			t.Errorf("maptype1Quantvals(%d, %d) = %d: %d^%d=%d, %d^%d=%d, entries=%d",
				tt.entries, tt.dimensions, vals, vals, tt.dimensions, lo, vals+1, tt.dimensions, hi, tt.entries)
		}
	}
}

func TestCopyCodebookRoundTrip(t *testing.T) {
	w := bitreader.NewWriterLSB()
	w.WriteBits(0x564342, 24) // "VCB"
	w.WriteBits(1, 16)        // dimensions
	w.WriteBits(2, 24)        // entries
	w.WriteBits(0, 1)         // ordered
	w.WriteBits(0, 1)         // sparse
	w.WriteBits(3, 5)         // length[0]
	w.WriteBits(4, 5)         // length[1]
	w.WriteBits(0, 4)         // lookup type 0 (no VQ table)
	input := w.Bytes()

	r := bitreader.NewLSBReader(input)
	out := bitreader.NewWriterLSB()
	if err := copyCodebook(out, r); err != nil {
		t.Fatalf("copyCodebook: %v", err)
	}
	if !bytes.Equal(out.Bytes(), input) {
		t.Fatalf("copyCodebook output = %v, want identical copy %v", out.Bytes(), input)
	}
}

func TestCopyCodebookRejectsBadID(t *testing.T) {
	w := bitreader.NewWriterLSB()
	w.WriteBits(0x000000, 24) // not "VCB"
	r := bitreader.NewLSBReader(w.Bytes())
	if err := copyCodebook(bitreader.NewWriterLSB(), r); err == nil {
		t.Fatal("copyCodebook with bad id: want error, got nil")
	}
}

func TestRebuildCodebookInflatesInlineEncoding(t *testing.T) {
	w := bitreader.NewWriterLSB()
	w.WriteBits(1, 4)  // dimensions
	w.WriteBits(2, 14) // entries
	w.WriteBits(0, 1)  // ordered
	w.WriteBits(3, 3)  // lengthLen
	w.WriteBits(0, 1)  // sparse
	w.WriteBits(3, 3)  // length[0] (lengthLen bits)
	w.WriteBits(4, 3)  // length[1]
	w.WriteBits(0, 1)  // lookup type (1 bit in the inline encoding)
	input := w.Bytes()

	r := bitreader.NewLSBReader(input)
	out := bitreader.NewWriterLSB()
	if err := rebuildCodebook(out, r, 0); err != nil {
		t.Fatalf("rebuildCodebook: %v", err)
	}

	check := bitreader.NewLSBReader(out.Bytes())
	if id := check.ReadBits(24); id != 0x564342 {
		t.Fatalf("rebuilt id = %#x, want 0x564342", id)
	}
	if dims := check.ReadBits(16); dims != 1 {
		t.Fatalf("rebuilt dimensions = %d, want 1", dims)
	}
	if entries := check.ReadBits(24); entries != 2 {
		t.Fatalf("rebuilt entries = %d, want 2", entries)
	}
	if ordered := check.ReadBits(1); ordered != 0 {
		t.Fatalf("rebuilt ordered = %d, want 0", ordered)
	}
	if sparse := check.ReadBits(1); sparse != 0 {
		t.Fatalf("rebuilt sparse = %d, want 0", sparse)
	}
	if l0 := check.ReadBits(5); l0 != 3 {
		t.Fatalf("rebuilt length[0] = %d, want 3", l0)
	}
	if l1 := check.ReadBits(5); l1 != 4 {
		t.Fatalf("rebuilt length[1] = %d, want 4", l1)
	}
	if lt := check.ReadBits(4); lt != 0 {
		t.Fatalf("rebuilt lookup type = %d, want 0", lt)
	}
}

func TestRebuildCodebookChecksSize(t *testing.T) {
	w := bitreader.NewWriterLSB()
	w.WriteBits(1, 4)
	w.WriteBits(1, 14)
	w.WriteBits(0, 1) // ordered
	w.WriteBits(3, 3) // lengthLen
	w.WriteBits(0, 1) // sparse
	w.WriteBits(2, 3) // length[0]
	w.WriteBits(0, 1) // lookup type
	r := bitreader.NewLSBReader(w.Bytes())
	if err := rebuildCodebook(bitreader.NewWriterLSB(), r, 999); err == nil {
		t.Fatal("rebuildCodebook with mismatched cbSize: want error, got nil")
	}
}

func TestReadWwisePacketHeader(t *testing.T) {
	t.Run("8-byte little endian", func(t *testing.T) {
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint32(buf[0:4], 100)
		binary.LittleEndian.PutUint32(buf[4:8], 2048)
		hdr, err := readWwisePacketHeader(buf, WwiseHeaderType8, false)
		if err != nil {
			t.Fatalf("readWwisePacketHeader: %v", err)
		}
		if hdr.headerSize != 8 || hdr.packetSize != 100 || hdr.granulePos != 2048 {
			t.Fatalf("hdr = %+v, want {8 100 2048}", hdr)
		}
	})
	t.Run("6-byte big endian", func(t *testing.T) {
		buf := make([]byte, 6)
		binary.BigEndian.PutUint16(buf[0:2], 50)
		binary.BigEndian.PutUint32(buf[2:6], 512)
		hdr, err := readWwisePacketHeader(buf, WwiseHeaderType6, true)
		if err != nil {
			t.Fatalf("readWwisePacketHeader: %v", err)
		}
		if hdr.headerSize != 6 || hdr.packetSize != 50 || hdr.granulePos != 512 {
			t.Fatalf("hdr = %+v, want {6 50 512}", hdr)
		}
	})
	t.Run("2-byte, no granule", func(t *testing.T) {
		buf := make([]byte, 2)
		binary.LittleEndian.PutUint16(buf, 30)
		hdr, err := readWwisePacketHeader(buf, WwiseHeaderType2, false)
		if err != nil {
			t.Fatalf("readWwisePacketHeader: %v", err)
		}
		if hdr.headerSize != 2 || hdr.packetSize != 30 || hdr.granulePos != 0 {
			t.Fatalf("hdr = %+v, want {2 30 0}", hdr)
		}
	})
}

func TestWwiseModified(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want bool
	}{
		{
			"equal blocksizes never modified",
			Config{BlockSizeExp0: 11, BlockSizeExp1: 11, WwiseSetup: WwiseSetupExternalCodebooks, WwiseHeaderType: WwiseHeaderType2},
			false,
		},
		{
			"external codebooks, type2 header, distinct blocksizes",
			Config{BlockSizeExp0: 11, BlockSizeExp1: 8, WwiseSetup: WwiseSetupExternalCodebooks, WwiseHeaderType: WwiseHeaderType2},
			true,
		},
		{
			"inline codebooks never modified",
			Config{BlockSizeExp0: 11, BlockSizeExp1: 8, WwiseSetup: WwiseSetupInlineCodebooks, WwiseHeaderType: WwiseHeaderType2},
			false,
		},
		{
			"type6 header never modified",
			Config{BlockSizeExp0: 11, BlockSizeExp1: 8, WwiseSetup: WwiseSetupExternalCodebooks, WwiseHeaderType: WwiseHeaderType6},
			false,
		},
	}
	for _, tt := range tests {
		if got := wwiseModified(tt.cfg); got != tt.want {
			t.Errorf("%s: wwiseModified() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestNewWwiseConfigVersionMapping(t *testing.T) {
	tests := []struct {
		version        WwiseVersion
		wantHeaderType WwiseHeaderType
		wantSetup      WwiseSetup
	}{
		{WwiseV34, WwiseHeaderType8, WwiseSetupHeaderTriad},
		{WwiseV38, WwiseHeaderType6, WwiseSetupFull},
		{WwiseV44, WwiseHeaderType6, WwiseSetupInlineCodebooks},
		{WwiseV48, WwiseHeaderType6, WwiseSetupExternalCodebooks},
		{WwiseV52, WwiseHeaderType6, WwiseSetupExternalCodebooks},
		{WwiseV53, WwiseHeaderType2, WwiseSetupExternalCodebooks},
		{WwiseV56, WwiseHeaderType2, WwiseSetupExternalCodebooks},
		{WwiseV62, WwiseHeaderType2, WwiseSetupAoTuV603Codebooks},
	}
	for _, tt := range tests {
		cfg := NewWwiseConfig(tt.version, 2, 44100, 11, 8)
		if cfg.WwiseHeaderType != tt.wantHeaderType {
			t.Errorf("version %d: WwiseHeaderType = %v, want %v", tt.version, cfg.WwiseHeaderType, tt.wantHeaderType)
		}
		if cfg.WwiseSetup != tt.wantSetup {
			t.Errorf("version %d: WwiseSetup = %v, want %v", tt.version, cfg.WwiseSetup, tt.wantSetup)
		}
		if cfg.Variant != VariantWwise {
			t.Errorf("version %d: Variant = %v, want VariantWwise", tt.version, cfg.Variant)
		}
	}
}

func TestRebuildAudioPacketUnmodifiedIsVerbatim(t *testing.T) {
	s := &wwiseSource{cfg: Config{BlockSizeExp0: 11, BlockSizeExp1: 11}}
	data := []byte{1, 2, 3, 4, 5}
	hdr := wwisePacketHeader{packetSize: len(data)}
	got, err := s.rebuildAudioPacket(hdr, data)
	if err != nil {
		t.Fatalf("rebuildAudioPacket: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("rebuildAudioPacket (unmodified) = %v, want %v", got, data)
	}
}

type fakeCodebookSource struct {
	books map[uint32][]byte
}

func (f *fakeCodebookSource) Codebook(id uint32) ([]byte, error) {
	b, ok := f.books[id]
	if !ok {
		return nil, errors.New("vorbiscustom: no such codebook")
	}
	return b, nil
}

func TestRebuildCodebookByIDResolvesFromSource(t *testing.T) {
	w := bitreader.NewWriterLSB()
	w.WriteBits(1, 4)
	w.WriteBits(1, 14)
	w.WriteBits(0, 1) // ordered
	w.WriteBits(3, 3) // lengthLen
	w.WriteBits(0, 1) // sparse
	w.WriteBits(2, 3) // length[0]
	w.WriteBits(0, 1) // lookup type
	raw := w.Bytes()

	src := &fakeCodebookSource{books: map[uint32][]byte{7: raw}}
	out := bitreader.NewWriterLSB()
	if err := rebuildCodebookByID(out, src, 7); err != nil {
		t.Fatalf("rebuildCodebookByID: %v", err)
	}
	if len(out.Bytes()) == 0 {
		t.Fatal("rebuildCodebookByID produced no output")
	}
}

func TestRebuildCodebookByIDRequiresSource(t *testing.T) {
	if err := rebuildCodebookByID(bitreader.NewWriterLSB(), nil, 1); err == nil {
		t.Fatal("rebuildCodebookByID with nil CodebookSource: want error, got nil")
	}
}
