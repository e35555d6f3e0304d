package erisa

import "testing"

func TestFrequencyPointsAreMonotonic(t *testing.T) {
	pts := frequencyPoints(7) // degreeNum = 128
	prev := 0
	for i, p := range pts {
		if p < prev {
			t.Fatalf("frequencyPoints[%d] = %d, not monotonic after %d", i, p, prev)
		}
		prev = p
	}
	if pts[6] <= 0 {
		t.Fatalf("last frequency point should be positive, got %d", pts[6])
	}
}

func TestDequantizeSubbandLastEntryUsesScale(t *testing.T) {
	degree := 6
	degreeNum := 1 << degree
	quantized := make([]int32, degreeNum)
	for i := range quantized {
		quantized[i] = 1
	}
	q := subbandQuant{weight: 0, scale: 100}

	out := dequantizeSubband(quantized, q, degree)
	if out[degreeNum-1] == 0 {
		t.Fatalf("last dequantized coefficient should not collapse to zero")
	}
}

func TestRevolve2x2ZeroAngleIsIdentity(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}
	wantA := append([]float32{}, a...)
	wantB := append([]float32{}, b...)

	revolve2x2(a, b, 0, 1)

	for i := range a {
		if a[i] != wantA[i] || b[i] != wantB[i] {
			t.Fatalf("revolve2x2 with sin=0,cos=1 should be identity, got a=%v b=%v", a, b)
		}
	}
}

func TestInversePLOTPairsAdjacentSamples(t *testing.T) {
	src := []float32{2, 0, 4, 0}
	inversePLOT(src)
	want := []float32{1, 1, 2, 2}
	for i := range src {
		if src[i] != want[i] {
			t.Fatalf("inversePLOT = %v, want %v", src, want)
		}
	}
}

func TestIDCTImpulseResponseIsNonZero(t *testing.T) {
	src := make([]float32, 8)
	src[0] = 1
	out := idct(src)
	if len(out) != 8 {
		t.Fatalf("len(out) = %d, want 8", len(out))
	}
	allZero := true
	for _, v := range out {
		if v != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		t.Fatalf("idct of a DC impulse should not be all-zero")
	}
}

func TestChannelLOTStateDecodeBlockProducesExpectedLength(t *testing.T) {
	degree := 6
	s := newChannelLOTState(degree)
	degreeNum := 1 << degree
	quantized := make([]int32, degreeNum)
	for i := range quantized {
		quantized[i] = int32(i % 3)
	}
	q := subbandQuant{weight: 0x12345678, scale: 50}

	out := s.decodeBlock(quantized, q)
	if len(out) != degreeNum {
		t.Fatalf("len(out) = %d, want %d", len(out), degreeNum)
	}
}
