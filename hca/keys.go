/*
NAME
  keys.go

DESCRIPTION
  keys.go implements the HCA key-testing heuristic and the key-discovery
  loop built on top of it (spec.md §4.D.5): given a ciphered frame and a
  candidate keycode, TestBlock reports how plausible that key looks without
  needing a known-good reference decode, and FindKey sweeps a candidate
  table (plus an optional subkey combination) looking for the best-scoring
  one.

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

import "github.com/ausocean/vgmcodec/cipher"

// TestBlock scores how plausible it is that frame was correctly deciphered
// and decoded under the Decoder's current key, without any known-good
// reference to compare against. It never mutates d's carried IMDCT state,
// so it's safe to call repeatedly against the same frame while sweeping
// candidate keys.
//
// Returns:
//   - 0 if frame is silent (bytewise zero past sync+CRC): inconclusive,
//     try another block.
//   - -1 if unpack failed, overran its bit budget, or left nonzero trailing
//     bytes where the reference always leaves zero padding: the key is
//     almost certainly wrong.
//   - a positive score, lower is better; 1 means "essentially perfect".
func (d *Decoder) TestBlock(frame []byte) int {
	h := d.h
	if len(frame) < h.FrameSize {
		return -1
	}
	frame = frame[:h.FrameSize]

	isEmpty := true
	for i := 2; i < len(frame)-2; i++ {
		if frame[i] != 0 {
			isEmpty = false
			break
		}
	}
	if isEmpty {
		return 0
	}

	// unpackFrame deciphers frame in place; TestBlock is allowed to consume
	// it destructively (callers sweeping keys must pass a fresh copy per
	// candidate).
	usedBits, err := d.unpackFrame(frame)
	if err != nil {
		return -1
	}

	// Leftover data after the bits actually read is always null up to the
	// trailing checksum in a correctly-keyed frame; bad keys decrypt to
	// garbage there. This check catches almost everything by itself.
	byteStart := usedBits / 8
	if usedBits%8 != 0 {
		byteStart++
	}
	for i := byteStart; i < h.FrameSize-2; i++ {
		if frame[i] != 0 {
			return -1
		}
	}

	// transformFrame advances each channel's IMDCT overlap; restore it
	// afterwards so the carried state is left as it was found.
	saved := make([][samplesPerSubframe]float32, len(d.channels))
	for c := range d.channels {
		saved[c] = d.channels[c].imdctPrevious
	}
	d.transformFrame()
	for c := range d.channels {
		d.channels[c].imdctPrevious = saved[c]
	}

	const scale = 32768.0
	clips, blanks := 0, 0
	channelBlanks := make([]int, len(d.channels))
	frameSamples := subframesPerFrame * samplesPerSubframe

	for c := range d.channels {
		for sf := 0; sf < subframesPerFrame; sf++ {
			for s := 0; s < samplesPerSubframe; s++ {
				fsample := d.channels[c].wave[sf][s]
				if fsample > 1.0 || fsample < -1.0 {
					clips++
					continue
				}
				psample := int32(fsample * scale)
				if psample == 0 || psample == -1 {
					blanks++
					channelBlanks[c]++
				}
			}
		}
	}

	// The more clips the less likely the block was correctly deciphered;
	// a lone clip is treated as "not full score" rather than dismissed
	// outright, since one can occur legitimately near full scale.
	if clips == 1 {
		clips++
	}
	if clips > 1 {
		return clips
	}

	if blanks == len(d.channels)*frameSamples {
		return 0
	}

	// Some bad keys leave the left channel null while the right still
	// looks plausible, a side effect of joint-stereo recombination; a real
	// key could in principle do this too, so it isn't scored as perfect.
	if len(d.channels) >= 2 && channelBlanks[0] == frameSamples && channelBlanks[1] != frameSamples {
		return 3
	}

	return 1
}

// CombineSubkey derives HCA's two-part effective key from a 64-bit base key
// and a 16-bit subkey, per spec.md §4.D.5's key discovery policy. Titles
// that ship a subkey alongside the base keycode (rather than the base key
// alone) must run their candidate keycodes through this before trying them.
func CombineSubkey(base uint64, subkey uint16) uint64 {
	factor := (uint64(subkey) << 16) | uint64((^subkey+2)&0xFFFF)
	return base * factor
}

// FindKeyResult reports the outcome of a FindKey sweep.
type FindKeyResult struct {
	Keycode uint64
	Score   int
}

// FindKey tries each of candidates (already subkey-combined by the caller
// where applicable) against frame, rebuilding a fresh Decoder and Header
// cipher table for each one, and returns the lowest-scoring non-negative
// result. ciphType and channel geometry come from h, which must otherwise
// match the real stream (only the cipher table differs per candidate).
// frame is never mutated: each candidate gets its own copy, since TestBlock
// deciphers and unpacks destructively.
//
// ok is false if every candidate scored -1 (none plausible) or candidates
// was empty.
func FindKey(h *Header, frame []byte, candidates []uint64) (result FindKeyResult, ok bool) {
	best := FindKeyResult{Score: -1}
	for _, key := range candidates {
		tbl, err := cipher.NewHCATable(h.CiphType, key)
		if err != nil {
			continue
		}
		trial := *h
		trial.CipherTable = tbl
		d := NewDecoder(&trial)

		buf := make([]byte, len(frame))
		copy(buf, frame)
		score := d.TestBlock(buf)
		if score < 0 {
			continue
		}
		if !ok || score < best.Score {
			best = FindKeyResult{Keycode: key, Score: score}
			ok = true
		}
		if score == 1 {
			break
		}
	}
	return best, ok
}
