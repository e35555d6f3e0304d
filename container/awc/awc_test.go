/*
NAME
  awc_test.go

DESCRIPTION
  awc_test.go contains tests for the AWC block deinterleaver: per-channel
  data extraction across multiple physical blocks, channel-skip repeated
  data suppression, and codec rejection.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package awc

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/ausocean/vgmcodec/streamfile"
)

// blockLayout computes one physical block's total size and each channel's
// chunk_start, given only the channel-info table's entries (the layout is
// pure arithmetic over entries; channel_skip never affects it).
func blockLayout(entries []int) (blockSize int64, chunkStart []int64) {
	channels := len(entries)
	var offset int64
	for range entries {
		offset += channelEntrySize
	}
	for ch := 0; ch < channels; ch++ {
		offset += int64(entries[ch]) * seekEntrySize
	}
	headerSize := offset
	if rem := headerSize % headerPadding; rem != 0 {
		headerSize += headerPadding - rem
	}
	offset = headerSize

	chunkStart = make([]int64, channels)
	for ch := 0; ch < channels; ch++ {
		chunkStart[ch] = offset
		offset += int64(entries[ch]) * frameSize
	}
	return offset, chunkStart
}

// writeBlockHeader writes one physical block's channel-info table (entries +
// channel_skip per channel) into buf at blockOffset; the seek table is left
// as zeros since its content is never read by the deinterleaver.
func writeBlockHeader(buf []byte, blockOffset int64, entries, skip []int) {
	offset := blockOffset
	for ch := range entries {
		binary.LittleEndian.PutUint32(buf[offset+0x04:offset+0x08], uint32(entries[ch]))
		binary.LittleEndian.PutUint32(buf[offset+0x08:offset+0x0c], uint32(skip[ch]))
		offset += channelEntrySize
	}
}

func TestOpenDeinterleavesChannelsAcrossBlocks(t *testing.T) {
	const channels = 2
	// Two blocks, one frame (0x800 bytes) per channel per block, no repeats.
	entries := []int{1, 1}
	skip := []int{0, 0}

	blockSize, cs := blockLayout(entries)
	cs0, cs1 := cs, cs // identical layout for both blocks

	total := blockSize * 2
	buf := make([]byte, total)
	writeBlockHeader(buf, 0, entries, skip)
	writeBlockHeader(buf, blockSize, entries, skip)

	ch0Block0 := bytes.Repeat([]byte{0xA0}, frameSize)
	ch1Block0 := bytes.Repeat([]byte{0xB0}, frameSize)
	ch0Block1 := bytes.Repeat([]byte{0xA1}, frameSize)
	ch1Block1 := bytes.Repeat([]byte{0xB1}, frameSize)
	copy(buf[0+cs0[0]:], ch0Block0)
	copy(buf[0+cs0[1]:], ch1Block0)
	copy(buf[blockSize+cs1[0]:], ch0Block1)
	copy(buf[blockSize+cs1[1]:], ch1Block1)

	src := streamfile.NewMemory(buf)
	info, err := Open(src, Params{
		Channels:     channels,
		Codec:        CodecVorbis,
		StreamOffset: 0,
		StreamSize:   total,
		BlockSize:    blockSize,
		SampleRate:   32000,
		NumSamples:   4096,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(info.Channels) != channels {
		t.Fatalf("len(Channels) = %d, want %d", len(info.Channels), channels)
	}
	if info.Subsong.Channels != channels {
		t.Fatalf("Subsong.Channels = %d, want %d", info.Subsong.Channels, channels)
	}

	want0 := append(append([]byte{}, ch0Block0...), ch0Block1...)
	want1 := append(append([]byte{}, ch1Block0...), ch1Block1...)

	for i, want := range [][]byte{want0, want1} {
		got := make([]byte, len(want))
		n, err := info.Channels[i].ReadAt(got, 0)
		if err != nil {
			t.Fatalf("channel %d ReadAt: %v", i, err)
		}
		if n != len(want) {
			t.Fatalf("channel %d: read %d bytes, want %d", i, n, len(want))
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("channel %d data mismatch", i)
		}
	}
}

func TestOpenSuppressesRepeatedFrame(t *testing.T) {
	const channels = 1
	entries := []int{1}
	noSkip := []int{0}
	withSkip := []int{1}

	blockSize, cs := blockLayout(entries)
	cs0, cs1 := cs, cs

	total := blockSize * 2
	buf := make([]byte, total)
	writeBlockHeader(buf, 0, entries, noSkip)
	writeBlockHeader(buf, blockSize, entries, withSkip)

	block0Data := bytes.Repeat([]byte{0xC0}, frameSize)
	block1Data := bytes.Repeat([]byte{0xC1}, frameSize) // fully repeated frame, per channel_skip != 0
	copy(buf[0+cs0[0]:], block0Data)
	copy(buf[blockSize+cs1[0]:], block1Data)

	src := streamfile.NewMemory(buf)
	info, err := Open(src, Params{
		Channels:     channels,
		Codec:        CodecVorbis,
		StreamOffset: 0,
		StreamSize:   total,
		BlockSize:    blockSize,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Block 1's entire frame is the repeated clone (entries=1, frame_size ==
	// chunk_size), so the deinterleaved channel should contain only block 0's
	// data.
	want := block0Data
	got := make([]byte, len(want)+1)
	n, err := info.Channels[0].ReadAt(got, 0)
	if err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if n != len(want) {
		t.Fatalf("read %d bytes, want %d (repeated frame not suppressed)", n, len(want))
	}
	if !bytes.Equal(got[:n], want) {
		t.Fatalf("data mismatch after repeat suppression")
	}
}

func TestOpenRejectsUnsupportedCodec(t *testing.T) {
	src := streamfile.NewMemory(make([]byte, 0x1000))
	_, err := Open(src, Params{Channels: 1, Codec: 0x05, StreamSize: 0x1000, BlockSize: 0x800})
	if err == nil {
		t.Fatal("Open with XMA2 codec: want error, got nil")
	}
}

func TestOpenRejectsBadParams(t *testing.T) {
	src := streamfile.NewMemory(make([]byte, 0x100))
	if _, err := Open(src, Params{Channels: 0, Codec: CodecVorbis, BlockSize: 0x800}); err == nil {
		t.Fatal("Open with zero channels: want error, got nil")
	}
	if _, err := Open(src, Params{Channels: 1, Codec: CodecVorbis, BlockSize: 0}); err == nil {
		t.Fatal("Open with zero block size: want error, got nil")
	}
}
