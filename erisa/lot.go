/*
NAME
  lot.go

DESCRIPTION
  lot.go implements CVTYPE_LOT_ERI / CVTYPE_LOT_ERI_MSS (spec.md §4.E.4): the
  quantization table, the weight-table dequantizer, the odd-Givens inverse
  LOT (lapped orthogonal transform), the inverse PLOT pairing stage, and the
  final IDCT that recovers one subband block's worth of PCM. MSS additionally
  rotates a channel pair before the per-channel pipeline runs.

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

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/ausocean/vgmcodec/bitreader"
)

// sinCos is one precomputed rotation angle (EMT_eriCreateRevolveParameter's
// ERI_SIN_COS).
type sinCos struct {
	sin, cos float64
}

// buildRevolveParameters precomputes the odd-Givens rotation tree for a
// subband of size 2^degree, one radix-8 level at a time
// (EMT_eriCreateRevolveParameter).
func buildRevolveParameters(degree int) []sinCos {
	degreeNum := 1 << degree
	levels := 1
	for n := degreeNum / 2; n >= 8; n /= 8 {
		levels++
	}
	out := make([]sinCos, levels*7)

	k := math.Pi / float64(degreeNum*2)
	step := 2
	next := 0
	for {
		for i := 0; i < 7; i++ {
			ws, a := 1.0, 0.0
			for j := 0; j < i; j++ {
				a += float64(step)
				ws = ws*out[next+j].sin + out[next+j].cos*math.Cos(a*k)
			}
			r := math.Atan2(ws, math.Cos((a+float64(step))*k))
			out[next+i] = sinCos{sin: math.Sin(r), cos: math.Cos(r)}
		}
		next += 7
		step *= 8
		if step >= degreeNum {
			break
		}
	}
	return out
}

// oddGivensInverse applies the inverse odd-Givens rotation tree to one
// subband's dequantized coefficients in place (EMT_eriOddGivensInverseMatrix).
func oddGivensInverse(src []float32, revolve []sinCos, degree int) {
	degreeNum := 1 << degree
	index, step, lc := 1, 2, (degreeNum/2)/8

	revOff := 0
	for {
		revOff += 7
		index += step * 7
		step *= 8
		if lc <= 8 {
			break
		}
		lc /= 8
	}

	k := index + step*(lc-2)
	for j := lc - 2; j >= 0; j-- {
		r1, r2 := src[k], src[k+step]
		rc, rs := float32(revolve[revOff+j].cos), float32(revolve[revOff+j].sin)
		src[k] = r1*rc + r2*rs
		src[k+step] = r2*rc - r1*rs
		k -= step
	}

	for {
		if lc > (degreeNum/2)/8 {
			break
		}
		revOff -= 7
		step /= 8
		index -= step * 7

		for i := 0; i < lc; i++ {
			k := i*(step*8) + index + step*6
			for j := 6; j >= 0; j-- {
				r1, r2 := src[k], src[k+step]
				rc, rs := float32(revolve[revOff+j].cos), float32(revolve[revOff+j].sin)
				src[k] = r1*rc + r2*rs
				src[k+step] = r2*rc - r1*rs
				k -= step
			}
		}
		lc *= 8
	}
}

// inversePLOT halves and pairs adjacent frequencies (EMT_eriFastIPLOT).
func inversePLOT(src []float32) {
	for i := 0; i+1 < len(src); i += 2 {
		r1, r2 := src[i], src[i+1]
		src[i] = 0.5 * (r1 + r2)
		src[i+1] = 0.5 * (r1 - r2)
	}
}

// inverseLOT combines this block's odd samples with the previous block's
// via reverse duplication, producing the windowed-overlap input to the IDCT
// (EMT_eriFastILOT).
func inverseLOT(dst, prev, cur []float32) {
	for i := 0; i+1 < len(dst); i += 2 {
		r1, r2 := prev[i], cur[i+1]
		dst[i] = r1 + r2
		dst[i+1] = r1 - r2
	}
}

// revolve2x2 rotates two equal-length buffers in place by a fixed angle
// (EMT_eriRevolve2x2, specialized to the stride-1 case this package needs).
func revolve2x2(buf1, buf2 []float32, sin, cos float32) {
	for i := range buf1 {
		r1, r2 := buf1[i], buf2[i]
		buf1[i] = r1*cos - r2*sin
		buf2[i] = r1*sin + r2*cos
	}
}

// idctBasisCache memoizes the orthogonal IDCT-II basis per transform size,
// the same "precomputed matrix, multiply by gonum/mat" approach used for
// HCA's IMDCT: the reference's radix-2 fast IDCT butterfly is a performance
// optimization equivalent to this direct transform, not a distinct
// algorithm, and spec.md places no bit-exactness requirement on ERISA's
// float pipeline either (§8's testable properties are bitstream-level, not
// sample-level, for this engine).
var idctBasisCache = map[int]*mat.Dense{}

func idctBasis(n int) *mat.Dense {
	if b, ok := idctBasisCache[n]; ok {
		return b
	}
	data := make([]float64, n*n)
	for x := 0; x < n; x++ {
		for k := 0; k < n; k++ {
			c := math.Cos(math.Pi / float64(n) * (float64(x) + 0.5) * float64(k))
			if k == 0 {
				c *= 0.5
			}
			data[x*n+k] = c
		}
	}
	b := mat.NewDense(n, n, data)
	idctBasisCache[n] = b
	return b
}

// idct performs the inverse DCT-II (the LOT path's final transform) over
// src, scaled by the reference's sqrt(2/N) orthonormalization constant.
func idct(src []float32) []float32 {
	n := len(src)
	in := make([]float64, n)
	for i, v := range src {
		in[i] = float64(v)
	}
	vec := mat.NewVecDense(n, in)
	var out mat.VecDense
	out.MulVec(idctBasis(n), vec)

	scale := math.Sqrt(2.0 / float64(n))
	dst := make([]float32, n)
	for i := 0; i < n; i++ {
		dst[i] = float32(out.AtVec(i) * scale)
	}
	return dst
}

// subbandQuant is one subband's quantization table entry: the division code
// (reserved for variable block-size transforms; see DESIGN.md), the packed
// weight code, the 16-bit scale, and (MSS only) the revolve code.
type subbandQuant struct {
	division int
	weight   int32
	scale    int16
	revolve  int
}

// frequencyPoints returns the 7 segment boundaries IQuantumize ramps
// between, for a subband of size 2^degree (MIODecoder_InitializeWithDegree).
func frequencyPoints(degree int) [7]int {
	widths := [7]int{-6, -6, -5, -4, -3, -2, -1}
	var points [7]int
	j := 0
	for i, w := range widths {
		width := 1 << (degree + w)
		points[i] = j + width/2
		j += width
	}
	return points
}

// dequantizeSubband rebuilds one subband's float coefficients from its
// quantized integers and quantization table entry (MIODecoder_IQuantumize).
func dequantizeSubband(quantized []int32, q subbandQuant, degree int) []float32 {
	degreeNum := len(quantized)
	matrixScale := math.Sqrt(2.0 / float64(degreeNum))
	coefficient := matrixScale * float64(q.scale)

	var avgRatio [7]float64
	for i := 0; i < 6; i++ {
		avgRatio[i] = 1.0 / math.Pow(2.0, (float64((q.weight>>(uint(i)*5))&0x1F)-15)*0.5)
	}
	avgRatio[6] = 1.0

	points := frequencyPoints(degree)
	weights := make([]float64, degreeNum)
	i := 0
	for ; i < points[0]; i++ {
		weights[i] = avgRatio[0]
	}
	for j := 1; j < 7; j++ {
		a := avgRatio[j-1]
		k := (avgRatio[j] - a) / float64(points[j]-points[j-1])
		for ; i < points[j]; i++ {
			weights[i] = k*float64(i-points[j-1]) + a
		}
	}
	for ; i < degreeNum; i++ {
		weights[i] = avgRatio[6]
	}

	oddWeight := float64((q.weight>>30)&0x03+0x02) / 2.0
	for i := 15; i < degreeNum; i += 16 {
		weights[i] *= oddWeight
	}
	weights[degreeNum-1] = float64(q.scale)

	out := make([]float32, degreeNum)
	for i := range out {
		out[i] = float32(coefficient / weights[i] * float64(quantized[i]))
	}
	return out
}

// readSubbandQuant reads one subband's quantization table entry
// (spec.md §4.E.4 step 1).
func readSubbandQuant(r *bitreader.MSBReader, mss bool) subbandQuant {
	q := subbandQuant{
		division: int(r.ReadBits(2)),
		weight:   int32(r.ReadBits(32)),
		scale:    int16(r.ReadBits(16)),
	}
	if mss {
		q.revolve = int(r.ReadBits(2))
	}
	return q
}

// channelLOTState carries the previous block's post-IDCT overlap buffer, the
// only state an ERISA/MIO LOT decoder keeps across blocks besides the coder.
type channelLOTState struct {
	revolve []sinCos
	lastDCT []float32
	degree  int
}

func newChannelLOTState(degree int) *channelLOTState {
	return &channelLOTState{
		revolve: buildRevolveParameters(degree),
		lastDCT: make([]float32, 1<<degree),
		degree:  degree,
	}
}

// decodeBlock reconstructs one subband block's PCM16 samples
// (spec.md §4.E.4 steps 1, 4, 5) from already-decoded quantized coefficients.
func (s *channelLOTState) decodeBlock(quantized []int32, q subbandQuant) []int16 {
	coeffs := dequantizeSubband(quantized, q, s.degree)
	return s.finishBlock(coeffs)
}

// finishBlock runs the LOT-reverse pipeline (spec.md §4.E.4 step 5) over
// already-dequantized (and, for MSS, already-rotated) coefficients.
func (s *channelLOTState) finishBlock(coeffs []float32) []int16 {
	degreeNum := 1 << s.degree

	oddGivensInverse(coeffs, s.revolve, s.degree)
	for i := 0; i+1 < degreeNum; i += 2 {
		coeffs[i] = coeffs[i+1]
	}
	inversePLOT(coeffs)

	overlapped := make([]float32, degreeNum)
	inverseLOT(overlapped, s.lastDCT, coeffs)
	s.lastDCT = coeffs

	samples := idct(overlapped)
	out := make([]int16, degreeNum)
	for i, f := range samples {
		out[i] = saturateLOT(f)
	}
	return out
}

func saturateLOT(f float32) int16 {
	switch {
	case f > 32767:
		return 32767
	case f < -32768:
		return -32768
	default:
		return int16(f)
	}
}

// decodeQuantizedCoefficients reads one subband's nDegreeNum quantized
// integers as a de-interleaved low/high byte-plane pair (spec.md §4.E.4
// step 3: "de-interleaving a low-plane/high-plane pair for byte coders").
func decodeQuantizedCoefficients(ctx *Context, r *bitreader.MSBReader, degreeNum int) ([]int32, error) {
	lo := make([]byte, degreeNum)
	hi := make([]byte, degreeNum)
	if err := ctx.DecodeBytes(r, lo); err != nil {
		return nil, errors.Wrap(err, "erisa: decode quantized low plane")
	}
	if err := ctx.DecodeBytes(r, hi); err != nil {
		return nil, errors.Wrap(err, "erisa: decode quantized high plane")
	}
	out := make([]int32, degreeNum)
	for i := range out {
		out[i] = int32(int16(uint16(hi[i])<<8 | uint16(lo[i])))
	}
	return out, nil
}

// mssRotate applies the 2-point stereo rotation step (spec.md §4.E.4 step 6)
// by one of four predefined π/8-step angles before the per-channel pipeline.
func mssRotate(left, right []float32, revCode int) {
	angle := float64(revCode) * math.Pi / 8
	sin, cos := float32(math.Sin(angle)), float32(math.Cos(angle))
	revolve2x2(left, right, sin, cos)
}
