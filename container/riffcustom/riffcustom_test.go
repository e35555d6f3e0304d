/*
NAME
  riffcustom_test.go

DESCRIPTION
  riffcustom_test.go contains tests for the RIFF-embedded Ogg Vorbis patch
  layer: repeated beginning-of-stream flag clearing and trailing-garbage
  size trimming.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package riffcustom

import (
	"bytes"
	"testing"

	"github.com/ausocean/vgmcodec/streamfile"
)

// buildOggPage returns one raw Ogg page: fixed 27-byte header (magic,
// version 0, header_type_flags, 20 bytes of zeroed granule/serial/seq/
// checksum fields), a one-entry lacing table naming len(payload), and the
// payload itself.
func buildOggPage(flags byte, payload []byte) []byte {
	page := make([]byte, 0x1b+1+len(payload))
	copy(page[0:4], "OggS")
	page[4] = 0 // version
	page[5] = flags
	page[0x1a] = 1 // segment count
	page[0x1b] = byte(len(payload))
	copy(page[0x1b+1:], payload)
	return page
}

func TestNewSourcePatchesRepeatedStartFlagAndTrimsGarbage(t *testing.T) {
	page0 := buildOggPage(0x02, bytes.Repeat([]byte{0x01}, 10))   // first BOS page, left alone
	page1 := buildOggPage(0x02, bytes.Repeat([]byte{0x02}, 5))    // repeated BOS: the glitch
	page2 := buildOggPage(0x00, bytes.Repeat([]byte{0x03}, 8))    // ordinary data page
	lastPage := buildOggPage(0x04, bytes.Repeat([]byte{0x04}, 3)) // proper EOS page
	garbage := buildOggPage(0x00, bytes.Repeat([]byte{0x05}, 2))  // trailing junk, no EOS flag

	realSize := int64(len(page0) + len(page1) + len(page2) + len(lastPage))
	buf := append(append(append(append(append([]byte{}, page0...), page1...), page2...), lastPage...), garbage...)
	fullSize := int64(len(buf))

	src := streamfile.NewMemory(buf)
	s := NewSource(src, 0, fullSize)

	if s.Size() != realSize {
		t.Fatalf("Size() = %d, want %d (trailing garbage not trimmed)", s.Size(), realSize)
	}

	wantPatchOffset := int64(len(page0)) + 0x05
	if s.patchOffset != wantPatchOffset {
		t.Fatalf("patchOffset = %#x, want %#x", s.patchOffset, wantPatchOffset)
	}

	got := make([]byte, realSize)
	n, err := s.ReadAt(got, 0)
	if err != nil || int64(n) != realSize {
		t.Fatalf("ReadAt = %d, %v", n, err)
	}
	if got[wantPatchOffset] != 0x00 {
		t.Fatalf("repeated start flag byte = %#x, want 0x00 (patched)", got[wantPatchOffset])
	}

	want := buf[:realSize]
	want[wantPatchOffset] = 0x00
	if !bytes.Equal(got, want) {
		t.Fatalf("patched data mismatch")
	}

	// Reading past the trimmed size returns nothing, even though the
	// underlying source still has garbage bytes there.
	tail := make([]byte, 8)
	n, err = s.ReadAt(tail, realSize)
	if err != nil || n != 0 {
		t.Fatalf("ReadAt past trimmed size = %d, %v, want 0, nil", n, err)
	}
}

func TestNewSourceNoGlitchesLeavesSizeAndDataUnchanged(t *testing.T) {
	page0 := buildOggPage(0x02, bytes.Repeat([]byte{0xaa}, 6))
	page1 := buildOggPage(0x00, bytes.Repeat([]byte{0xbb}, 6))
	lastPage := buildOggPage(0x04, bytes.Repeat([]byte{0xcc}, 6))
	buf := append(append(append([]byte{}, page0...), page1...), lastPage...)

	src := streamfile.NewMemory(buf)
	s := NewSource(src, 0, int64(len(buf)))

	if s.Size() != int64(len(buf)) {
		t.Fatalf("Size() = %d, want %d (unexpected trim)", s.Size(), len(buf))
	}
	if s.patchOffset != 0 {
		t.Fatalf("patchOffset = %#x, want 0 (no repeated start page present)", s.patchOffset)
	}

	got := make([]byte, len(buf))
	n, err := s.ReadAt(got, 0)
	if err != nil || n != len(buf) {
		t.Fatalf("ReadAt = %d, %v", n, err)
	}
	if !bytes.Equal(got, buf) {
		t.Fatalf("data mismatch: patched something that should not have been")
	}
}
