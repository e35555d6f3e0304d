/*
NAME
  decode.go

DESCRIPTION
  decode.go is the MicroTalk (UTK) speech decoder: per-frame header parsing,
  reflection-coefficient decoding, multi-pulse/RELP excitation decoding, the
  adaptive codebook update, and the LPC synthesis filter that together
  reconstruct 432 PCM samples per frame (spec.md §4.F).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package utk

import (
	"github.com/ausocean/vgmcodec/bitreader"
)

const (
	subframeCount   = 4
	subframeSamples = 108
	frameSamples    = subframeCount * subframeSamples
	excitationPad   = 5
	adaptCBSize     = 324
)

// Decoder holds one MicroTalk stream's persistent state: the header fields
// (parsed once, from the first frame), the reflection coefficients and
// synthesis-filter history that evolve frame to frame, and the adaptive
// codebook the pitch predictor reads from.
type Decoder struct {
	parsedHeader     bool
	reducedBW        bool
	multipulseThresh int
	fixedGains       [64]float32
	rc               [lpcOrder]float32
	synthHistory     [lpcOrder]float32
	adaptCB          [adaptCBSize]float32
}

// NewDecoder returns a Decoder with zeroed state, matching utk_init.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Reset clears all decoder state, matching utk_reset.
func (d *Decoder) Reset() {
	*d = Decoder{}
}

func (d *Decoder) parseHeader(r *bitreader.LSBReader) {
	d.reducedBW = r.ReadBits(1) == 1
	d.multipulseThresh = 32 - int(r.ReadBits(4))
	d.fixedGains[0] = 8.0 * float32(1+r.ReadBits(4))
	multiplier := 1.04 + float32(r.ReadBits(6))*0.001

	for i := 1; i < 64; i++ {
		d.fixedGains[i] = d.fixedGains[i-1] * multiplier
	}
}

// DecodeFrame decodes one 432-sample MicroTalk frame from r, parsing the
// stream header from the first frame if it hasn't been parsed yet.
func (d *Decoder) DecodeFrame(r *bitreader.LSBReader) []float32 {
	if !d.parsedHeader {
		d.parseHeader(r)
		d.parsedHeader = true
	}

	excitation := make([]float32, excitationPad+subframeSamples+excitationPad)
	var rcDelta [lpcOrder]float32
	useMultipulse := false

	for i := 0; i < lpcOrder; i++ {
		var idx int
		switch {
		case i == 0:
			idx = int(r.ReadBits(6))
			if idx < d.multipulseThresh {
				useMultipulse = true
			}
		case i < 4:
			idx = int(r.ReadBits(6))
		default:
			idx = 16 + int(r.ReadBits(5))
		}
		rcDelta[i] = (rcTable[idx] - d.rc[i]) * 0.25
	}

	frame := make([]float32, frameSamples)

	for sf := 0; sf < subframeCount; sf++ {
		pitchLag := int(r.ReadBits(8))
		pitchGain := float32(r.ReadBits(4)) / 15.0
		fixedGain := d.fixedGains[r.ReadBits(6)]

		for i := range excitation {
			excitation[i] = 0
		}

		if !d.reducedBW {
			decodeExcitation(r, useMultipulse, excitation, excitationPad, 1)
		} else {
			align := int(r.ReadBits(1))
			zero := r.ReadBits(1) == 1

			decodeExcitation(r, useMultipulse, excitation, excitationPad+align, 2)

			if zero {
				for j := 0; j < 54; j++ {
					excitation[excitationPad+(1-align)+2*j] = 0
				}
			} else {
				base := excitationPad + (1 - align)
				for j := 0; j < subframeSamples; j += 2 {
					p := base + j
					excitation[p] = excitation[p-5]*sincTaps[0] -
						excitation[p-3]*sincTaps[1] +
						excitation[p-1]*sincTaps[2] +
						excitation[p+1]*sincTaps[2] -
						excitation[p+3]*sincTaps[1] +
						excitation[p+5]*sincTaps[0]
				}
				fixedGain *= 0.5
			}
		}

		for j := 0; j < subframeSamples; j++ {
			frame[subframeSamples*sf+j] = fixedGain*excitation[excitationPad+j] +
				pitchGain*d.adaptCB[subframeSamples*sf+216-pitchLag+j]
		}
	}

	for i := 0; i < adaptCBSize; i++ {
		d.adaptCB[i] = frame[subframeSamples+i]
	}

	for sf := 0; sf < subframeCount; sf++ {
		for j := 0; j < lpcOrder; j++ {
			d.rc[j] += rcDelta[j]
		}
		numBlocks := 1
		if sf == 3 {
			numBlocks = 33
		}
		d.lpSynthesisFilter(frame, lpcOrder*sf, numBlocks)
	}

	return frame
}

// decodeExcitation fills every stride-th entry of excitation starting at
// base with 108/stride decoded samples, via either the multi-pulse command
// FSM or the three-level RELP quantizer (utk_decode_excitation).
func decodeExcitation(r *bitreader.LSBReader, useMultipulse bool, excitation []float32, base, stride int) {
	i := 0
	if useMultipulse {
		model := modelNormal
		for i < subframeSamples {
			pos := r.BitPosition()
			peek := r.ReadBits(8)
			r.SetBitPosition(pos)

			cmd := codebooks[model][peek]
			model = commandTable[cmd].nextModel
			r.ReadBits(commandTable[cmd].codeSize)

			switch {
			case cmd > 3:
				excitation[base+i] = commandTable[cmd].pulse
				i += stride
			case cmd > 1:
				count := 7 + int(r.ReadBits(6))
				if i+count*stride > subframeSamples {
					count = (subframeSamples - i) / stride
				}
				for ; count > 0; count-- {
					excitation[base+i] = 0
					i += stride
				}
			default:
				x := 7
				for r.ReadBits(1) == 1 {
					x++
				}
				if r.ReadBits(1) == 0 {
					x = -x
				}
				excitation[base+i] = float32(x)
				i += stride
			}
		}
		return
	}

	for i < subframeSamples {
		var v float32
		if r.ReadBits(1) == 1 {
			if r.ReadBits(1) == 0 {
				v = -2
			} else {
				v = 2
			}
		}
		excitation[base+i] = v
		i += stride
	}
}

// PCM16 converts a decoded frame's float samples to saturated 16-bit PCM.
func PCM16(frame []float32) []int16 {
	out := make([]int16, len(frame))
	for i, f := range frame {
		switch {
		case f > 32767:
			out[i] = 32767
		case f < -32768:
			out[i] = -32768
		default:
			out[i] = int16(f)
		}
	}
	return out
}
