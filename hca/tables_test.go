/*
NAME
  tables_test.go

DESCRIPTION
  tables_test.go checks the procedurally computed tables (scalingTable,
  rangeTable, scaleConversionTable, intensityRatioTable) against known
  reference values decoded from the original hex-float tables, confirming
  the closed forms spec.md gives are actually equivalent to the reference
  decoder's literal tables rather than just plausible-looking formulas.

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
	"testing"
)

func almostEqual(a, b, tol float32) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}

func TestScalingTableMatchesReference(t *testing.T) {
	cases := map[int]float32{
		0:  float32FromBits(0x342A8D26),
		63: float32FromBits(0x413504F3), // index 63 -> sqrt(128)*2^0 = sqrt(128)
	}
	for idx, want := range cases {
		if got := scalingTable[idx]; !almostEqual(got, want, want*1e-4+1e-6) {
			t.Errorf("scalingTable[%d] = %v, want %v", idx, got, want)
		}
	}
}

func TestRangeTableMatchesReference(t *testing.T) {
	if rangeTable[0] != 1.0 {
		t.Fatalf("rangeTable[0] = %v, want 1.0", rangeTable[0])
	}
	want1 := float32FromBits(0x3F2AAAAB) // 2/3
	if !almostEqual(rangeTable[1], want1, 1e-4) {
		t.Fatalf("rangeTable[1] = %v, want %v", rangeTable[1], want1)
	}
}

func TestScaleConversionTableMatchesReference(t *testing.T) {
	if scaleConversionTable[0] != 0 {
		t.Fatalf("scaleConversionTable[0] = %v, want 0", scaleConversionTable[0])
	}
	if got, want := scaleConversionTable[63], float32(1.0); !almostEqual(got, want, 1e-4) {
		t.Fatalf("scaleConversionTable[63] = %v, want %v", got, want)
	}
	want125 := float32FromBits(0x4C4BEC15)
	if got := scaleConversionTable[125]; !almostEqual(got, want125, want125*1e-3) {
		t.Fatalf("scaleConversionTable[125] = %v, want %v", got, want125)
	}
	if scaleConversionTable[126] != 0 || scaleConversionTable[127] != 0 {
		t.Fatalf("scaleConversionTable tail sentinels not zero: %v %v", scaleConversionTable[126], scaleConversionTable[127])
	}
}

func TestIntensityRatioTableMatchesReference(t *testing.T) {
	if intensityRatioTable[0] != 2.0 {
		t.Fatalf("intensityRatioTable[0] = %v, want 2.0", intensityRatioTable[0])
	}
	want7 := float32(1.0)
	if !almostEqual(intensityRatioTable[7], want7, 1e-4) {
		t.Fatalf("intensityRatioTable[7] = %v, want %v", intensityRatioTable[7], want7)
	}
	if intensityRatioTable[14] != 0 || intensityRatioTable[15] != 0 {
		t.Fatalf("intensityRatioTable sentinels not zero")
	}
}

func float32FromBits(bits uint32) float32 {
	return math.Float32frombits(bits)
}
