/*
NAME
  ath_test.go

DESCRIPTION
  ath_test.go checks ATH curve construction for both curve types.

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

import "testing"

func TestBuildATHCurveType0IsZero(t *testing.T) {
	curve := buildATHCurve(0, 44100)
	for i, v := range curve {
		if v != 0 {
			t.Fatalf("type 0 curve[%d] = %d, want 0", i, v)
		}
	}
}

func TestBuildATHCurveType1FollowsBaseCurve(t *testing.T) {
	curve := buildATHCurve(1, 48000)
	// index 0: acc = 48000, acc>>13 = 5
	if got, want := curve[0], athBaseCurve[48000>>13]; got != want {
		t.Fatalf("curve[0] = %d, want %d", got, want)
	}
}

func TestBuildATHCurveType1SaturatesPastBaseCurve(t *testing.T) {
	// A very high sample rate drives the accumulator past the base curve's
	// range quickly; the remainder of the curve must saturate to 0xFF.
	curve := buildATHCurve(1, 1<<22)
	found := false
	for _, v := range curve {
		if v == 0xFF {
			found = true
			break
		}
	}
	if !found {
		t.Fatal("expected saturation to 0xFF somewhere in the curve")
	}
}
