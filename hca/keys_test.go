/*
NAME
  keys_test.go

DESCRIPTION
  keys_test.go exercises the key-testing heuristic's fast paths (the
  all-zero "inconclusive" short circuit and the "unpack failed" rejection),
  the subkey combination formula, and FindKey's "nothing plausible" result.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package hca

import "testing"

func TestTestBlockSilentFrameIsInconclusive(t *testing.T) {
	hdr := buildMinimalHeader(1, 44100, 1, 0, 0, 64)
	h, err := ParseHeader(hdr, 0)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	d := NewDecoder(h)

	frame := make([]byte, h.FrameSize) // bytewise zero except sync/crc, both skipped by the check
	if got := d.TestBlock(frame); got != 0 {
		t.Fatalf("TestBlock(all-zero) = %d, want 0", got)
	}
}

func TestTestBlockBadCRCIsRejected(t *testing.T) {
	hdr := buildMinimalHeader(1, 44100, 1, 0, 0, 64)
	h, err := ParseHeader(hdr, 0)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	d := NewDecoder(h)

	frame := make([]byte, h.FrameSize)
	for i := range frame {
		frame[i] = byte(i + 1) // nonzero throughout, and not a valid CRC-16 frame
	}
	if got := d.TestBlock(frame); got != -1 {
		t.Fatalf("TestBlock(garbage) = %d, want -1", got)
	}
}

func TestCombineSubkeyMatchesFormula(t *testing.T) {
	base := uint64(9621963164387704)
	subkey := uint16(0x1234)
	got := CombineSubkey(base, subkey)
	want := base * ((uint64(subkey) << 16) | uint64((^subkey+2)&0xFFFF))
	if got != want {
		t.Fatalf("CombineSubkey = %d, want %d", got, want)
	}
}

func TestFindKeyReturnsNotOKWhenNothingPlausible(t *testing.T) {
	hdr := buildMinimalHeader(1, 44100, 1, 0, 0, 64)
	h, err := ParseHeader(hdr, 0)
	if err != nil {
		t.Fatalf("ParseHeader: %v", err)
	}
	h.CiphType = 56 // only type 56 is keyed; type 0/1 headers can't carry a keycode

	frame := make([]byte, h.FrameSize)
	for i := range frame {
		frame[i] = byte(i + 1)
	}

	_, ok := FindKey(h, frame, []uint64{1, 2, 3})
	if ok {
		t.Fatal("FindKey should report no plausible key for unrecoverable garbage")
	}
}
