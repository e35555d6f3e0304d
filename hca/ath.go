/*
NAME
  ath.go

DESCRIPTION
  ath.go builds the per-stream ATH (absolute threshold of hearing) curve
  used by resolution calculation (spec.md §4.D.2 step 7), from the 656-entry
  base curve in tables.go scaled to the stream's sample rate.

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

// buildATHCurve fills a samplesPerSubframe-entry curve per athType. Type 0
// disables the curve (all zero, "removed" per the reference decoder's
// comment for v1.2+). Type 1 steps an accumulator by sampleRate once per
// output index and looks up athBaseCurve[acc>>13], saturating to 0xFF past
// the base curve's range.
func buildATHCurve(athType int, sampleRate int) [samplesPerSubframe]byte {
	var curve [samplesPerSubframe]byte
	if athType == 0 {
		return curve
	}
	var acc uint32
	for i := 0; i < samplesPerSubframe; i++ {
		acc += uint32(sampleRate)
		index := acc >> 13
		if index >= uint32(len(athBaseCurve)-2) {
			for j := i; j < samplesPerSubframe; j++ {
				curve[j] = 0xFF
			}
			break
		}
		curve[i] = athBaseCurve[index]
	}
	return curve
}
