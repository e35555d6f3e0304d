/*
NAME
  synthesis.go

DESCRIPTION
  synthesis.go converts one frame's reflection coefficients into LPC
  coefficients via a Levinson-like recursion, and runs the 12-tap all-pole
  synthesis filter those coefficients drive.

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

const lpcOrder = 12

// rcToLPC converts 12 reflection coefficients to 12 LPC coefficients
// (rc_to_lpc).
func rcToLPC(rc [lpcOrder]float32) [lpcOrder]float32 {
	var tmp1, tmp2, lpc [lpcOrder]float32

	for i := 10; i >= 0; i-- {
		tmp2[1+i] = rc[i]
	}
	tmp2[0] = 1.0

	for i := 0; i < lpcOrder; i++ {
		x := -tmp2[11] * rc[11]

		for j := 10; j >= 0; j-- {
			x -= tmp2[j] * rc[j]
			tmp2[j+1] = x*rc[j] + tmp2[j]
		}

		tmp1[i] = x
		tmp2[0] = x

		for j := 0; j < i; j++ {
			x -= tmp1[i-1-j] * lpc[j]
		}
		lpc[i] = x
	}
	return lpc
}

// lpSynthesisFilter runs the 12-tap all-pole synthesis filter over
// numBlocks groups of 12 samples starting at offset within frame, updating
// d.synthHistory as it goes (utk_lp_synthesis_filter).
func (d *Decoder) lpSynthesisFilter(frame []float32, offset, numBlocks int) {
	lpc := rcToLPC(d.rc)
	ptr := frame[offset:]

	for i := 0; i < numBlocks; i++ {
		for j := 0; j < lpcOrder; j++ {
			x := ptr[0]

			k := 0
			for ; k < j; k++ {
				x += lpc[k] * d.synthHistory[k-j+lpcOrder]
			}
			for ; k < lpcOrder; k++ {
				x += lpc[k] * d.synthHistory[k-j]
			}

			d.synthHistory[lpcOrder-1-j] = x
			ptr[0] = x
			ptr = ptr[1:]
		}
	}
}
