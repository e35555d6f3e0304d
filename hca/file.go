/*
NAME
  file.go

DESCRIPTION
  file.go ties Header and Decoder to a streamfile.ByteSource: Open locates
  and validates the header, DecodeNextFrame steps the frame cursor forward
  one frame_size chunk at a time, and Seek restarts decoding at an arbitrary
  frame boundary (hca.c's own playback loop works the same way: there is no
  mid-frame seek, only frame-granular positioning followed by decode).

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

import (
	"io"

	"github.com/pkg/errors"

	"github.com/ausocean/vgmcodec/streamfile"
	"github.com/ausocean/vgmcodec/subsong"
)

// maxHeaderProbe bounds the initial read used to locate and parse the
// header: HeaderSize is a 16-bit field, so no HCA header can exceed 0xFFFF
// bytes.
const maxHeaderProbe = 0xFFFF

// File is a stateful, seekable HCA stream opened from a ByteSource.
type File struct {
	src     streamfile.ByteSource
	h       *Header
	dec     *Decoder
	frame   []byte
	nextIdx int // frame index DecodeNextFrame will read next
}

// Open parses the HCA header at the start of src and returns a File
// positioned at frame 0. keycode is the decryption key for ciph_type 56
// streams; it is ignored for ciph_type 0/1.
func Open(src streamfile.ByteSource, keycode uint64) (*File, error) {
	probeLen := int64(maxHeaderProbe)
	if size := src.Size(); size < probeLen {
		probeLen = size
	}
	buf := make([]byte, probeLen)
	if err := streamfile.ReadFull(src, buf, 0); err != nil {
		return nil, errors.Wrap(err, "hca: reading header")
	}

	h, err := ParseHeader(buf, keycode)
	if err != nil {
		return nil, errors.Wrap(err, "hca: parsing header")
	}
	if src.Size() < int64(h.HeaderSize)+int64(h.FrameCount)*int64(h.FrameSize) {
		return nil, errors.New("hca: source shorter than header_size + frame_count*frame_size")
	}

	return &File{
		src:   src,
		h:     h,
		dec:   NewDecoder(h),
		frame: make([]byte, h.FrameSize),
	}, nil
}

// Info describes the stream as a subsong.Subsong, including its loop region
// if the header carried a loop chunk.
func (f *File) Info() subsong.Subsong {
	s := subsong.Subsong{
		Codec:          subsong.CodecHCA,
		Channels:       f.h.Channels,
		SampleRate:     f.h.SampleRate,
		NumSamples:     f.h.NumSamples(),
		ByteOffset:     0,
		ByteSize:       int64(f.h.HeaderSize) + int64(f.h.FrameCount)*int64(f.h.FrameSize),
		EncoderDelay:   f.h.EncoderDelay,
		EncoderPadding: f.h.EncoderPadding,
	}
	if f.h.LoopFlag {
		samplesPerFrame := int64(subframesPerFrame * samplesPerSubframe)
		s.Loop = &subsong.Loop{
			StartFrame:  f.h.LoopStartFrame,
			EndFrame:    f.h.LoopEndFrame,
			StartSample: int64(f.h.LoopStartFrame)*samplesPerFrame - int64(f.h.LoopStartDelay),
			EndSample:   int64(f.h.LoopEndFrame+1)*samplesPerFrame - int64(f.h.LoopEndPadding),
		}
	}
	return s
}

// NumFrames returns the total frame count declared by the header.
func (f *File) NumFrames() int { return f.h.FrameCount }

// DecodeNextFrame reads and decodes the next frame, returning its PCM16
// samples interleaved by channel (subframesPerFrame*samplesPerSubframe
// frames per channel). It returns io.EOF once every frame has been
// consumed.
func (f *File) DecodeNextFrame() ([]int16, error) {
	if f.nextIdx >= f.h.FrameCount {
		return nil, io.EOF
	}
	off := int64(f.h.HeaderSize) + int64(f.nextIdx)*int64(f.h.FrameSize)
	if err := streamfile.ReadFull(f.src, f.frame, off); err != nil {
		return nil, errors.Wrapf(err, "hca: reading frame %d", f.nextIdx)
	}
	if err := f.dec.DecodeFrame(f.frame); err != nil {
		return nil, errors.Wrapf(err, "hca: decoding frame %d", f.nextIdx)
	}
	f.nextIdx++

	out := make([]int16, subframesPerFrame*samplesPerSubframe*f.dec.Channels())
	f.dec.ReadSamples16(out)
	return out, nil
}

// Seek repositions decoding at the start of frameIndex, resetting IMDCT
// overlap state; the first frame decoded after a seek will not carry overlap
// from whatever preceded frameIndex, matching the reference player's
// restart-and-discard seek model (spec.md's Seek invariant).
func (f *File) Seek(frameIndex int) error {
	if frameIndex < 0 || frameIndex > f.h.FrameCount {
		return errors.Errorf("hca: frame index %d out of range [0,%d]", frameIndex, f.h.FrameCount)
	}
	f.dec.Reset()
	f.nextIdx = frameIndex
	return nil
}

// Close releases the underlying ByteSource.
func (f *File) Close() error { return f.src.Close() }
