package erisa

import (
	"testing"

	"github.com/ausocean/vgmcodec/bitreader"
)

func TestDecodeLosslessChannelZeroStreamIsSilence(t *testing.T) {
	ctx := NewContext(ArchNemesis)
	r := bitreader.NewMSBReader(make([]byte, 256))
	if err := ctx.BeginFrame(r, true); err != nil {
		t.Fatalf("BeginFrame error = %v", err)
	}

	out, err := decodeLosslessChannel(ctx, r, 16)
	if err != nil {
		t.Fatalf("decodeLosslessChannel error = %v", err)
	}
	if len(out) != 16 {
		t.Fatalf("len(out) = %d, want 16", len(out))
	}
	for i, s := range out {
		if s != 0 {
			t.Fatalf("out[%d] = %d, want 0 for an all-zero delta stream", i, s)
		}
	}
}

func TestDecodeLosslessChannelIntegratesDeltaOfDelta(t *testing.T) {
	// Hand-integrate the reference's reconstruction rule directly (not via
	// the coder) to pin the arithmetic independent of any byte coder.
	var prevDelta, prevSample int32
	d := []int32{1, 1, 1, 2}
	want := make([]int16, len(d))
	for i, v := range d {
		delta := prevDelta + v
		sample := prevSample + delta
		want[i] = int16(sample)
		prevDelta, prevSample = delta, sample
	}
	// A constant unit delta should accelerate (second integration), so the
	// third sample must exceed twice the first.
	if !(want[2] > 2*want[0]) {
		t.Fatalf("expected quadratic growth from delta-of-delta integration, got %v", want)
	}
}
