/*
NAME
  deblock_test.go

DESCRIPTION
  deblock_test.go tests the DeblockView logical-over-physical walk.

AUTHOR
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package deblock

import (
	"bytes"
	"testing"

	"github.com/ausocean/vgmcodec/streamfile"
)

// fixedShapeCB returns a BlockCallback describing blocks all of the same
// shape, terminating once nBlocks have been produced.
func fixedShapeCB(blockSize, skipSize, dataSize, nBlocks int) BlockCallback {
	return func(src streamfile.ByteSource, physOffset int64) (BlockShape, error) {
		idx := int(physOffset) / blockSize
		if idx >= nBlocks {
			return BlockShape{}, nil
		}
		return BlockShape{BlockSize: blockSize, SkipSize: skipSize, DataSize: dataSize}, nil
	}
}

func sequentialBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestDeblockLogicalOffsetMapsToPhysical(t *testing.T) {
	// Two blocks of (block_size=16, skip_size=4, data_size=12) as in spec.md
	// scenario 6: logical byte 13 must equal physical byte 16+4+1=21.
	src := streamfile.NewMemory(sequentialBytes(64))
	v := New(src, 0, 24, fixedShapeCB(16, 4, 12, 2), nil, 1)

	buf := make([]byte, 1)
	n, err := v.ReadAt(buf, 13)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 1 {
		t.Fatalf("n = %d, want 1", n)
	}
	if buf[0] != 21 {
		t.Fatalf("logical byte 13 = %d, want 21", buf[0])
	}
}

func TestDeblockSequentialReadEqualsDataConcatenation(t *testing.T) {
	src := streamfile.NewMemory(sequentialBytes(64))
	v := New(src, 0, 24, fixedShapeCB(16, 4, 12, 2), nil, 1)

	got := make([]byte, 24)
	n, err := v.ReadAt(got, 0)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 24 {
		t.Fatalf("n = %d, want 24", n)
	}
	want := append(append([]byte{}, sequentialBytes(64)[4:16]...), sequentialBytes(64)[20:32]...)
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDeblockNonSequentialRestartsWalk(t *testing.T) {
	src := streamfile.NewMemory(sequentialBytes(64))
	v := New(src, 0, 24, fixedShapeCB(16, 4, 12, 2), nil, 1)

	// Read forward first.
	buf := make([]byte, 1)
	v.ReadAt(buf, 20)
	// Now read an earlier offset; this must restart the walk from
	// streamStart rather than use a stale cursor.
	n, err := v.ReadAt(buf, 0)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 1 || buf[0] != 4 {
		t.Fatalf("restarted read = %d, want 4", buf[0])
	}
}

func TestDeblockStepSkipsBlocksForDeinterleave(t *testing.T) {
	// 4 blocks of 4 data bytes each, consumer reads every 2nd block
	// (channel de-interleave).
	src := streamfile.NewMemory(sequentialBytes(64))
	v := New(src, 0, 8, fixedShapeCB(4, 0, 4, 4), nil, 2)

	got := make([]byte, 8)
	n, err := v.ReadAt(got, 0)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != 8 {
		t.Fatalf("n = %d, want 8", n)
	}
	want := append(append([]byte{}, sequentialBytes(64)[0:4]...), sequentialBytes(64)[8:12]...)
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDeblockReadCallbackPatchesInPlace(t *testing.T) {
	src := streamfile.NewMemory([]byte("OggSxxxxrestofblock"))
	patched := false
	readCB := func(dst []byte, blockPhysOffset int64, n int) {
		if bytes.HasPrefix(dst, []byte("OggS")) {
			copy(dst, []byte("PssH"))
			patched = true
		}
	}
	v := New(src, 0, 4, fixedShapeCB(19, 0, 19, 1), readCB, 1)
	buf := make([]byte, 4)
	v.ReadAt(buf, 0)
	if !patched {
		t.Fatal("read callback was not invoked")
	}
	if string(buf) != "PssH" {
		t.Fatalf("patched buf = %q, want PssH", buf)
	}
}

func TestDeblockTerminalZeroBlockSizeIsEOFNotPanic(t *testing.T) {
	src := streamfile.NewMemory(sequentialBytes(16))
	cb := func(src streamfile.ByteSource, physOffset int64) (BlockShape, error) {
		return BlockShape{}, nil // always terminal
	}
	v := New(src, 0, 100, cb, nil, 1)
	buf := make([]byte, 10)
	n, err := v.ReadAt(buf, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("n = %d, want 0 (terminal block)", n)
	}
}
