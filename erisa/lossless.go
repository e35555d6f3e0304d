/*
NAME
  lossless.go

DESCRIPTION
  lossless.go implements CVTYPE_LOSSLESS_ERI (spec.md §4.E.3): a per-channel
  difference sequence, two byte-coded planes reconstructing one 16-bit delta
  per sample, integrated twice (delta-of-delta) to recover PCM.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package erisa

import "github.com/ausocean/vgmcodec/bitreader"

// decodeLosslessChannel reconstructs sampleCount PCM16 samples for one
// channel from the pair of byte planes the context's coder produces.
func decodeLosslessChannel(ctx *Context, r *bitreader.MSBReader, sampleCount int) ([]int16, error) {
	lo := make([]byte, sampleCount)
	hi := make([]byte, sampleCount)
	if err := ctx.DecodeBytes(r, lo); err != nil {
		return nil, err
	}
	if err := ctx.DecodeBytes(r, hi); err != nil {
		return nil, err
	}

	out := make([]int16, sampleCount)
	var prevDelta, prevSample int32
	for i := 0; i < sampleCount; i++ {
		low := int8(lo[i])
		h := hi[i] ^ byte(int32(low)>>7)
		d := int32(int16(uint16(h)<<8 | uint16(byte(low))))

		delta := prevDelta + d
		sample := prevSample + delta
		out[i] = int16(sample)

		prevDelta = delta
		prevSample = sample
	}
	return out, nil
}
