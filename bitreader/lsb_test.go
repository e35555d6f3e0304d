/*
NAME
  lsb_test.go

DESCRIPTION
  lsb_test.go contains tests for the LSB-first bit reader/writer pair.

AUTHOR
  Saxon Nelson-Milton <saxon@ausocean.org>, The Australian Ocean Laboratory (AusOcean)

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package bitreader

import "testing"

func TestLSBReaderReadBits(t *testing.T) {
	// 0xb2 = 1011 0010, LSB-first reads 2, then 4, then 2 bits:
	// bit0..1 = 10 (0b10=2), bit2..5 = 1100 (0xc), bit6..7 = 10 (2)
	r := NewLSBReader([]byte{0xb2})
	if got := r.ReadBits(2); got != 0b10 {
		t.Fatalf("first ReadBits(2) = %#b, want 0b10", got)
	}
	if got := r.ReadBits(4); got != 0b1100 {
		t.Fatalf("second ReadBits(4) = %#b, want 0b1100", got)
	}
	if got := r.ReadBits(2); got != 0b10 {
		t.Fatalf("third ReadBits(2) = %#b, want 0b10", got)
	}
}

func TestLSBReaderOverreadIsZero(t *testing.T) {
	r := NewLSBReader([]byte{0xff})
	r.ReadBits(8)
	if got := r.ReadBits(8); got != 0 {
		t.Fatalf("over-read ReadBits(8) = %#x, want 0", got)
	}
}

func TestWriterLSBRoundTrip(t *testing.T) {
	w := NewWriterLSB()
	w.WriteBits(0b10, 2)
	w.WriteBits(0b1100, 4)
	w.WriteBits(0b10, 2)
	got := w.Bytes()
	want := []byte{0xb2}
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("Bytes() = %#v, want %#v", got, want)
	}

	r := NewLSBReader(got)
	if v := r.ReadBits(8); v != 0xb2 {
		t.Fatalf("round trip ReadBits(8) = %#x, want 0xb2", v)
	}
}
