/*
NAME
  subsong.go

DESCRIPTION
  subsong.go describes a single playable stream located inside a container:
  the codec that owns its bytes, its channel/sample geometry, its loop
  points, and where its bytes live within the parent ByteSource. Container
  parsers (package container) populate one of these per subsong they find;
  codec engines (hca, erisa, utk, vorbiscustom) consume one to know where to
  read from and how to report itself.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package subsong holds the lightweight descriptor container parsers emit
// for each stream they locate, and the codec tag enumeration used to select
// a decoding engine.
package subsong

// Codec names the decoding engine a Subsong's bytes require.
type Codec int

const (
	CodecUnknown Codec = iota
	CodecHCA
	CodecERISA
	CodecUTK
	CodecVorbisCustom
)

func (c Codec) String() string {
	switch c {
	case CodecHCA:
		return "HCA"
	case CodecERISA:
		return "ERISA"
	case CodecUTK:
		return "UTK"
	case CodecVorbisCustom:
		return "VorbisCustom"
	default:
		return "Unknown"
	}
}

// Loop describes an optional loop region, expressed both in frames (codec
// native units, used to resume frame-accurate decoding) and in samples
// (used to report loop points to a player).
type Loop struct {
	StartFrame  int
	EndFrame    int
	StartSample int64
	EndSample   int64
}

// Subsong is a container parser's description of one playable stream.
// Byte offsets and sizes are relative to the ByteSource the parser was
// given, not to the start of the subsong's own codec data (a subsong may
// need its own header skipped before codec frames begin; that is the
// codec engine's job, not this descriptor's).
type Subsong struct {
	Codec     Codec
	Channels  int
	SampleRate int
	NumSamples int64

	// Loop is nil when the stream does not loop.
	Loop *Loop

	// ChannelLayout is a bitmask of WAVEFORMATEXTENSIBLE-style channel
	// position flags, or 0 when the container does not specify one (the
	// codec engine then assumes a default left-to-right ordering).
	ChannelLayout uint32

	// ByteOffset and ByteSize bound the subsong's data within the parent
	// ByteSource, start-of-codec-header to end-of-stream inclusive.
	ByteOffset int64
	ByteSize   int64

	// Name is the encoded stream name, if the container embeds one
	// (e.g. AWC/KTSR hashed or plaintext cue names). Empty when absent.
	Name string

	// EncoderDelay and EncoderPadding are HCA-style sample trims applied
	// at the start and end of the decoded PCM stream; other codecs leave
	// these zero.
	EncoderDelay   int
	EncoderPadding int
}

// Duration reports the playable sample count, loop info aside.
func (s *Subsong) Duration() int64 { return s.NumSamples }

// Loops reports whether the subsong has a loop region.
func (s *Subsong) Loops() bool { return s.Loop != nil }
