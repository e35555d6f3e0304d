/*
NAME
  awc.go

DESCRIPTION
  awc.go parses Rockstar's Audio Wave Container (AWC) block layer: a
  block-interleaved multi-channel stream where each physical block opens
  with a per-channel info table (entries/channel_skip/channel_samples),
  followed by a seek table, an optional extra table, padding up to the
  block's header-padding boundary, and finally each channel's data chunk
  back to back (read_awc_block, get_block_repeated_size,
  awc_streamfile.h). This package deinterleaves one deblock.Source per
  channel; the Vorbis packet layer riding on top of each channel's bytes is
  reconstructed by vorbiscustom's AWC variant.

  The top-level AWC stream table (the part of awc.c that resolves a
  subsong index into channel count/codec/block size/stream span) is not
  part of the retrieved source for this container and is therefore not
  reproduced here; Open takes those fields as Params, mirroring
  setup_awc_streamfile's own parameter list, which is also handed them by
  its caller rather than deriving them itself.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package awc deinterleaves Rockstar AWC's block-multiplexed channel data
// into one streamfile.ByteSource per channel.
package awc

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/ausocean/vgmcodec/deblock"
	"github.com/ausocean/vgmcodec/streamfile"
	"github.com/ausocean/vgmcodec/subsong"
)

// CodecVorbis is the only per-block codec tag this package implements
// (0x08 in read_awc_block's switch); it is the only one of AWC's codec
// tags that maps onto a codec family this module supports (vorbiscustom's
// AWC variant). XMA2 (0x05), MPEG (0x07), OPUS (0x0D) and ATRAC9 (0x0F)
// are recognized by read_awc_block upstream but Open rejects them here.
const CodecVorbis = 0x08

const (
	frameSize        = 0x800 // AWC_FRAME_SIZE
	channelEntrySize = 0x18  // per-channel header entry size for MPEG/Vorbis
	seekEntrySize    = 0x04
	headerPadding    = 0x800
)

// Params names the fields a top-level AWC stream-table lookup resolves for
// one subsong, before the block deinterleaver can run.
type Params struct {
	Channels      int
	Codec         uint8
	BigEndian     bool
	StreamOffset  int64
	StreamSize    int64
	BlockSize     int64 // fixed physical block stride (deblock_config_t.chunk_size)
	SampleRate    int
	NumSamples    int64
	ChannelLayout uint32
	Name          string
}

// Info is the result of deinterleaving one AWC subsong's channels.
type Info struct {
	Subsong subsong.Subsong
	// Channels holds one deblocked ByteSource per channel, in channel
	// order; each presents that channel's 0x800-block-padded Vorbis
	// packet stream as a logically contiguous byte source (AWC keeps
	// channels physically separate rather than sample-interleaved, so
	// each is decoded independently; see DESIGN.md).
	Channels []streamfile.ByteSource
}

// Open deinterleaves every channel of the AWC subsong described by p.
func Open(src streamfile.ByteSource, p Params) (*Info, error) {
	if p.Codec != CodecVorbis {
		return nil, errors.Errorf("awc: unsupported codec %#x", p.Codec)
	}
	if p.Channels <= 0 {
		return nil, errors.New("awc: invalid channel count")
	}
	if p.BlockSize <= 0 {
		return nil, errors.New("awc: invalid block size")
	}

	streamEnd := p.StreamOffset + p.StreamSize
	channels := make([]streamfile.ByteSource, p.Channels)
	for ch := 0; ch < p.Channels; ch++ {
		blockCB := blockCallback(p.Channels, p.BigEndian, ch, p.BlockSize, streamEnd)
		size, err := computeLogicalSize(src, p.StreamOffset, streamEnd, blockCB)
		if err != nil {
			return nil, errors.Wrapf(err, "awc: channel %d", ch)
		}
		channels[ch] = deblock.NewSource(src, p.StreamOffset, size, blockCB, nil, 1)
	}

	return &Info{
		Subsong: subsong.Subsong{
			Codec:         subsong.CodecVorbisCustom,
			Channels:      p.Channels,
			SampleRate:    p.SampleRate,
			NumSamples:    p.NumSamples,
			ChannelLayout: p.ChannelLayout,
			ByteOffset:    p.StreamOffset,
			ByteSize:      p.StreamSize,
			Name:          p.Name,
		},
		Channels: channels,
	}, nil
}

// channelBlock is one channel's parsed slot within a single physical block.
type channelBlock struct {
	entries     int64
	channelSkip int64
	chunkStart  int64 // relative to the block's start
	chunkSize   int64
}

// readBlockHeader parses one physical block's channel-info table, seek
// table and padding, deriving each channel's chunk span (read_awc_block's
// Vorbis/MPEG-shaped branch; this package only implements the Vorbis
// derivation, since it is the only in-scope codec).
func readBlockHeader(src streamfile.ByteSource, blockOffset int64, channels int, bigEndian bool) ([]channelBlock, error) {
	blk := make([]channelBlock, channels)
	offset := blockOffset

	for ch := 0; ch < channels; ch++ {
		entries, err := readU32(src, offset+0x04, bigEndian)
		if err != nil {
			return nil, err
		}
		skip, err := readU32(src, offset+0x08, bigEndian)
		if err != nil {
			return nil, err
		}
		blk[ch].entries = int64(int32(entries))
		blk[ch].channelSkip = int64(int32(skip))
		offset += channelEntrySize
	}

	// Seek table: one seekEntrySize-wide entry per frame, every channel.
	for ch := 0; ch < channels; ch++ {
		offset += blk[ch].entries * seekEntrySize
	}

	// Extra table: empty for Vorbis (extra_entry_size == 0), nothing to skip.

	headerSize := offset - blockOffset
	if rem := headerSize % headerPadding; rem != 0 {
		headerSize += headerPadding - rem
	}
	offset = blockOffset + headerSize

	for ch := 0; ch < channels; ch++ {
		blk[ch].chunkSize = blk[ch].entries * frameSize
		blk[ch].chunkStart = offset - blockOffset
		offset += blk[ch].chunkSize
	}

	return blk, nil
}

// blockRepeatedSize is get_block_repeated_size's Vorbis branch: a nonzero
// channel_skip means the block's first (super-)frame is a clone of the
// last one from the previous block, spanning exactly one frame_size.
func blockRepeatedSize(blk channelBlock) int64 {
	if blk.channelSkip == 0 {
		return 0
	}
	return frameSize
}

// blockCallback returns the deblock.BlockCallback that deinterleaves one
// channel's data out of AWC's per-block multi-channel layout (block_callback).
// streamEnd bounds the walk to this subsong's own block range: AWC files
// commonly pack several subsongs' block runs back to back, so stopping only
// at src.Size() would walk straight into the next subsong's blocks.
func blockCallback(channels int, bigEndian bool, channel int, blockStride, streamEnd int64) deblock.BlockCallback {
	return func(src streamfile.ByteSource, physOffset int64) (deblock.BlockShape, error) {
		if physOffset >= streamEnd || physOffset >= src.Size() {
			return deblock.BlockShape{}, nil
		}
		blk, err := readBlockHeader(src, physOffset, channels, bigEndian)
		if err != nil {
			return deblock.BlockShape{}, errors.Wrap(err, "awc: block header")
		}

		repeat := blockRepeatedSize(blk[channel])
		dataSize := blk[channel].chunkSize - repeat
		if dataSize < 0 {
			dataSize = 0
		}
		return deblock.BlockShape{
			BlockSize: int(blockStride),
			SkipSize:  int(blk[channel].chunkStart + repeat),
			DataSize:  int(dataSize),
		}, nil
	}
}

// computeLogicalSize walks every physical block of the stream once, summing
// one channel's yielded data size, so a deblock.Source can be constructed
// with a known logical size up front (deblock.New's documented contract).
func computeLogicalSize(src streamfile.ByteSource, streamOffset, streamEnd int64, blockCB deblock.BlockCallback) (int64, error) {
	var total int64
	offset := streamOffset
	for offset < streamEnd {
		shape, err := blockCB(src, offset)
		if err != nil {
			return 0, err
		}
		if shape.BlockSize <= 0 {
			break
		}
		total += int64(shape.DataSize)
		offset += int64(shape.BlockSize)
	}
	return total, nil
}

func readU32(src streamfile.ByteSource, off int64, bigEndian bool) (uint32, error) {
	var b [4]byte
	if err := streamfile.ReadFull(src, b[:], off); err != nil {
		return 0, err
	}
	if bigEndian {
		return binary.BigEndian.Uint32(b[:]), nil
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}
