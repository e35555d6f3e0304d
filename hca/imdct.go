/*
NAME
  imdct.go

DESCRIPTION
  imdct.go performs the fused IMDCT + windowed overlap-add step of spec.md
  §4.D.3 step 5. The reference decoder computes this with a radix-2
  butterfly network driven by 7 stages of precomputed sin/cos twiddle
  tables (see original_source/src/coding/hca_decoder_clhca.c's
  imdct_transform); spec.md explicitly allows floating-point reordering
  here ("bit-exactness with the reference is not required... samples must
  match within typical FP rounding"), so this engine instead evaluates the
  same size-128 DCT-IV directly as one matrix multiply against a
  precomputed basis, using gonum/mat. The window-and-overlap stage that
  follows is ported unchanged from the reference, since that part is where
  bit-exactness actually matters (it is a pure multiply-add, not a
  transform approximation).

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

	"gonum.org/v1/gonum/mat"
)

const half = samplesPerSubframe / 2

// dct4Basis[n][k] = cos(pi/(2N) * (2n+1) * (2k+1)), the unnormalized
// DCT-IV basis the reference decoder's butterfly network implicitly
// computes (no orthonormal 2/N scaling is applied, matching the reference
// algorithm's own unnormalized output).
var dct4Basis = buildDCT4Basis()

func buildDCT4Basis() *mat.Dense {
	const n = samplesPerSubframe
	m := mat.NewDense(n, n, nil)
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			angle := math.Pi / float64(2*n) * float64(2*row+1) * float64(2*col+1)
			m.Set(row, col, math.Cos(angle))
		}
	}
	return m
}

// imdctTransform computes one subframe's 128-sample DCT-IV of ch.spectra
// and fuses it with the Princen-Bradley windowed overlap-add, writing 128
// output samples to ch.wave[subframe] and updating ch.imdctPrevious for
// the next subframe.
func (ch *channelState) imdctTransform(subframe int) {
	src := mat.NewVecDense(samplesPerSubframe, nil)
	for i := 0; i < samplesPerSubframe; i++ {
		src.SetVec(i, float64(ch.spectra[subframe][i]))
	}
	var dst mat.VecDense
	dst.MulVec(dct4Basis, src)

	var dct [samplesPerSubframe]float32
	for i := range dct {
		dct[i] = float32(dst.AtVec(i))
	}

	prev := ch.imdctPrevious
	for i := 0; i < half; i++ {
		ch.wave[subframe][i] = imdctWindow[i]*dct[i+half] + prev[i]
		ch.wave[subframe][i+half] = imdctWindow[i+half]*dct[samplesPerSubframe-1-i] - prev[i+half]
		ch.imdctPrevious[i] = imdctWindow[samplesPerSubframe-1-i] * dct[half-i-1]
		ch.imdctPrevious[i+half] = imdctWindow[half-i-1] * dct[i]
	}
}
