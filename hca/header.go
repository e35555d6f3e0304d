/*
NAME
  header.go

DESCRIPTION
  header.go parses an HCA file's chunked header (spec.md §4.D.1): a fixed
  sequence of 4-byte-tagged chunks, each tag masked with 0x7F7F7F7F so that
  high-bit-set variants of the same ASCII tag still match, followed by a
  mandatory CRC-16/CCITT check over the whole header.

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
	"math"

	"github.com/pkg/errors"

	"github.com/ausocean/vgmcodec/bitreader"
	"github.com/ausocean/vgmcodec/cipher"
	"github.com/ausocean/vgmcodec/crc16"
)

const (
	tagMask = 0x7F7F7F7F

	tagHCA  = 0x48434100 // "HCA\0"
	tagFmt  = 0x666D7400 // "fmt\0"
	tagComp = 0x636F6D70 // "comp"
	tagDec  = 0x64656300 // "dec\0"
	tagVbr  = 0x76627200 // "vbr\0"
	tagAth  = 0x61746800 // "ath\0"
	tagLoop = 0x6C6F6F70 // "loop"
	tagCiph = 0x63697068 // "ciph"
	tagRva  = 0x72766100 // "rva\0"
	tagComm = 0x636F6D6D // "comm"
	tagPad  = 0x70616400 // "pad\0"
)

const (
	minChannels   = 1
	maxChannels   = 16
	minSampleRate = 1
	maxSampleRate = 0x7FFFFF
	minFrameSize  = 8
	maxFrameSize  = 0xFFFF

	versionV101 = 0x0101
	versionV102 = 0x0102
	versionV103 = 0x0103
	versionV200 = 0x0200
	versionV300 = 0x0300
)

// ChannelType classifies a channel's role in joint-stereo reconstruction.
type ChannelType int

const (
	Discrete ChannelType = iota
	StereoPrimary
	StereoSecondary
)

// Header holds every field parsed out of an HCA file's header chunks, plus
// the three decoder-global tables D.1 says must be derived from it.
type Header struct {
	Version    int
	HeaderSize int

	Channels       int
	SampleRate     int
	FrameCount     int
	EncoderDelay   int
	EncoderPadding int

	FrameSize     int
	MinResolution int
	MaxResolution int
	TrackCount    int
	ChannelConfig int

	TotalBandCount    int
	BaseBandCount     int
	StereoBandCount   int
	BandsPerHFRGroup  int
	HFRGroupCount     int
	MSStereo          bool
	StereoType        int // only set from a "dec" (v1.x) chunk

	VBRMaxFrameSize int
	VBRNoiseLevel   int

	ATHType int

	LoopFlag        bool
	LoopStartFrame  int
	LoopEndFrame    int
	LoopStartDelay  int
	LoopEndPadding  int

	CiphType int
	Keycode  uint64

	RVAVolume float32
	Comment   string

	ATHCurve    [samplesPerSubframe]byte
	CipherTable *cipher.HCATable
	ChannelType []ChannelType
}

// ParseHeader reads an HCA header from the start of data. data must contain
// at least the full header (HeaderSize bytes); frame data may follow.
func ParseHeader(data []byte, keycode uint64) (*Header, error) {
	if len(data) < 8 {
		return nil, errors.New("hca: header too short")
	}

	r := bitreader.NewMSBReader(data)
	h := &Header{Keycode: keycode}

	if uint32(r.PeekBits(32))&tagMask != tagHCA {
		return nil, errors.New("hca: missing HCA tag")
	}
	r.SkipBits(32)
	h.Version = int(r.ReadBits(16))
	h.HeaderSize = int(r.ReadBits(16))

	switch h.Version {
	case versionV101, versionV102, versionV103, versionV200, versionV300:
	default:
		return nil, errors.Errorf("hca: unsupported version %#x", h.Version)
	}
	if len(data) < h.HeaderSize {
		return nil, errors.New("hca: buffer shorter than declared header_size")
	}
	if !crc16.IsValid(data[:h.HeaderSize]) {
		return nil, errors.New("hca: header CRC-16 mismatch")
	}

	remaining := len(data) - 8

	if remaining >= 0x10 && uint32(r.PeekBits(32))&tagMask == tagFmt {
		r.SkipBits(32)
		h.Channels = int(r.ReadBits(8))
		h.SampleRate = int(r.ReadBits(24))
		h.FrameCount = int(r.ReadBits(32))
		h.EncoderDelay = int(r.ReadBits(16))
		h.EncoderPadding = int(r.ReadBits(16))
		if h.Channels < minChannels || h.Channels > maxChannels {
			return nil, errors.New("hca: channel count out of range")
		}
		if h.FrameCount == 0 {
			return nil, errors.New("hca: zero frame_count")
		}
		if h.SampleRate < minSampleRate || h.SampleRate > maxSampleRate {
			return nil, errors.New("hca: sample_rate out of range")
		}
		remaining -= 0x10
	} else {
		return nil, errors.New("hca: missing fmt chunk")
	}

	switch {
	case remaining >= 0x10 && uint32(r.PeekBits(32))&tagMask == tagComp:
		r.SkipBits(32)
		h.FrameSize = int(r.ReadBits(16))
		h.MinResolution = int(r.ReadBits(8))
		h.MaxResolution = int(r.ReadBits(8))
		h.TrackCount = int(r.ReadBits(8))
		h.ChannelConfig = int(r.ReadBits(8))
		h.TotalBandCount = int(r.ReadBits(8))
		h.BaseBandCount = int(r.ReadBits(8))
		h.StereoBandCount = int(r.ReadBits(8))
		h.BandsPerHFRGroup = int(r.ReadBits(8))
		if r.ReadBits(8) != 0 {
			h.MSStereo = true
		}
		r.ReadBits(8) // reserved, unread by reference decoder
		remaining -= 0x10

	case remaining >= 0x0c && uint32(r.PeekBits(32))&tagMask == tagDec:
		r.SkipBits(32)
		h.FrameSize = int(r.ReadBits(16))
		h.MinResolution = int(r.ReadBits(8))
		h.MaxResolution = int(r.ReadBits(8))
		h.TotalBandCount = int(r.ReadBits(8)) + 1
		h.BaseBandCount = int(r.ReadBits(8)) + 1
		h.TrackCount = int(r.ReadBits(4))
		h.ChannelConfig = int(r.ReadBits(4))
		h.StereoType = int(r.ReadBits(8))
		if h.StereoType == 0 {
			h.BaseBandCount = h.TotalBandCount
		}
		h.StereoBandCount = h.TotalBandCount - h.BaseBandCount
		h.BandsPerHFRGroup = 0
		remaining -= 0x0c

	default:
		return nil, errors.New("hca: missing comp/dec chunk")
	}

	if remaining >= 0x08 && uint32(r.PeekBits(32))&tagMask == tagVbr {
		r.SkipBits(32)
		h.VBRMaxFrameSize = int(r.ReadBits(16))
		h.VBRNoiseLevel = int(r.ReadBits(16))
		if !(h.FrameSize == 0 && h.VBRMaxFrameSize > 8 && h.VBRMaxFrameSize <= 0x1FF) {
			return nil, errors.New("hca: inconsistent vbr chunk")
		}
		remaining -= 0x08
	}

	if remaining >= 0x06 && uint32(r.PeekBits(32))&tagMask == tagAth {
		r.SkipBits(32)
		h.ATHType = int(r.ReadBits(16))
		remaining -= 0x06
	} else {
		if h.Version < versionV200 {
			h.ATHType = 1
		}
	}

	if remaining >= 0x10 && uint32(r.PeekBits(32))&tagMask == tagLoop {
		r.SkipBits(32)
		h.LoopStartFrame = int(r.ReadBits(32))
		h.LoopEndFrame = int(r.ReadBits(32))
		h.LoopStartDelay = int(r.ReadBits(16))
		h.LoopEndPadding = int(r.ReadBits(16))
		h.LoopFlag = true
		if !(h.LoopStartFrame >= 0 && h.LoopStartFrame <= h.LoopEndFrame && h.LoopEndFrame < h.FrameCount) {
			return nil, errors.New("hca: inconsistent loop chunk")
		}
		remaining -= 0x10
	}

	if remaining >= 0x06 && uint32(r.PeekBits(32))&tagMask == tagCiph {
		r.SkipBits(32)
		h.CiphType = int(r.ReadBits(16))
		if h.CiphType != 0 && h.CiphType != 1 && h.CiphType != 56 {
			return nil, errors.New("hca: unsupported ciph_type")
		}
		remaining -= 0x06
	}

	if remaining >= 0x08 && uint32(r.PeekBits(32))&tagMask == tagRva {
		r.SkipBits(32)
		bits := r.ReadBits(32)
		h.RVAVolume = math.Float32frombits(bits)
		remaining -= 0x08
	} else {
		h.RVAVolume = 1.0
	}

	if remaining >= 0x05 && uint32(r.PeekBits(32))&tagMask == tagComm {
		r.SkipBits(32)
		n := int(r.ReadBits(8))
		if n > remaining {
			return nil, errors.New("hca: comment length exceeds header")
		}
		buf := make([]byte, n)
		for i := range buf {
			buf[i] = byte(r.ReadBits(8))
		}
		h.Comment = string(buf)
		remaining -= 0x05 + n
	}

	if remaining >= 0x04 && uint32(r.PeekBits(32))&tagMask == tagPad {
		remaining = 0x02
	}

	if h.FrameSize < minFrameSize || h.FrameSize > maxFrameSize {
		return nil, errors.New("hca: frame_size out of range")
	}
	if h.Version <= versionV200 {
		if h.MinResolution != 1 || h.MaxResolution != 15 {
			return nil, errors.New("hca: v1.x/v2.0 requires min/max resolution 1/15")
		}
	} else if h.MinResolution > h.MaxResolution || h.MaxResolution > 15 {
		return nil, errors.New("hca: resolution range invalid")
	}

	if h.TrackCount == 0 {
		h.TrackCount = 1
	}
	if h.TrackCount > h.Channels {
		return nil, errors.New("hca: track_count exceeds channels")
	}
	if h.TotalBandCount > samplesPerSubframe || h.BaseBandCount > samplesPerSubframe ||
		h.StereoBandCount > samplesPerSubframe || h.BaseBandCount+h.StereoBandCount > samplesPerSubframe ||
		h.BandsPerHFRGroup > samplesPerSubframe {
		return nil, errors.New("hca: band count out of range")
	}

	h.HFRGroupCount = ceilDiv(h.TotalBandCount-h.BaseBandCount-h.StereoBandCount, h.BandsPerHFRGroup)

	h.ATHCurve = buildATHCurve(h.ATHType, h.SampleRate)

	tbl, err := cipher.NewHCATable(h.CiphType, keycode)
	if err != nil {
		return nil, errors.Wrap(err, "hca: cipher table")
	}
	h.CipherTable = tbl

	h.ChannelType = deriveChannelTypes(h)

	return h, nil
}

// NumSamples returns the total playable PCM sample count, trimming the
// encoder's lead-in/out padding from the full frame_count*1024 span (spec.md
// §9's testable invariant: frame_count*1024 - encoder_delay - encoder_padding).
func (h *Header) NumSamples() int64 {
	total := int64(h.FrameCount)*int64(subframesPerFrame*samplesPerSubframe) - int64(h.EncoderDelay) - int64(h.EncoderPadding)
	if total < 0 {
		return 0
	}
	return total
}

// ceilDiv divides a by b rounding up, returning 0 when b is 0 (matching the
// reference decoder's bands_per_hfr_group == 0 case where no HFR groups
// exist at all).
func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// deriveChannelTypes assigns each channel a role following the fixed
// channels-per-track mapping table (spec.md §4.D.1; reference decoder's
// HCAHeaderUtility_GetElementTypes).
func deriveChannelTypes(h *Header) []ChannelType {
	types := make([]ChannelType, h.Channels)
	channelsPerTrack := h.Channels / h.TrackCount
	if h.StereoBandCount == 0 || channelsPerTrack <= 1 {
		return types // all Discrete (zero value)
	}
	for t := 0; t < h.TrackCount; t++ {
		base := t * channelsPerTrack
		switch channelsPerTrack {
		case 2:
			types[base+0] = StereoPrimary
			types[base+1] = StereoSecondary
		case 3:
			types[base+0] = StereoPrimary
			types[base+1] = StereoSecondary
			types[base+2] = Discrete
		case 4:
			types[base+0] = StereoPrimary
			types[base+1] = StereoSecondary
			if h.ChannelConfig == 0 {
				types[base+2] = StereoPrimary
				types[base+3] = StereoSecondary
			} else {
				types[base+2] = Discrete
				types[base+3] = Discrete
			}
		case 5:
			types[base+0] = StereoPrimary
			types[base+1] = StereoSecondary
			types[base+2] = Discrete
			if h.ChannelConfig <= 2 {
				types[base+3] = StereoPrimary
				types[base+4] = StereoSecondary
			} else {
				types[base+3] = Discrete
				types[base+4] = Discrete
			}
		case 6:
			types[base+0] = StereoPrimary
			types[base+1] = StereoSecondary
			types[base+2] = Discrete
			types[base+3] = Discrete
			types[base+4] = StereoPrimary
			types[base+5] = StereoSecondary
		case 7:
			types[base+0] = StereoPrimary
			types[base+1] = StereoSecondary
			types[base+2] = Discrete
			types[base+3] = Discrete
			types[base+4] = StereoPrimary
			types[base+5] = StereoSecondary
			types[base+6] = Discrete
		case 8:
			types[base+0] = StereoPrimary
			types[base+1] = StereoSecondary
			types[base+2] = Discrete
			types[base+3] = Discrete
			types[base+4] = StereoPrimary
			types[base+5] = StereoSecondary
			types[base+6] = StereoPrimary
			types[base+7] = StereoSecondary
		default:
			// channelsPerTrack == 1 or out of table range: all Discrete.
		}
	}
	return types
}
