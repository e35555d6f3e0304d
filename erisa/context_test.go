package erisa

import (
	"testing"

	"github.com/ausocean/vgmcodec/bitreader"
)

func TestContextRejectsNonKeyframeBeforeAnyKeyframe(t *testing.T) {
	ctx := NewContext(ArchRLEGamma)
	r := bitreader.NewMSBReader(make([]byte, 8))
	if err := ctx.BeginFrame(r, false); err == nil {
		t.Fatalf("BeginFrame(keyframe=false) before any keyframe should error")
	}
}

func TestContextAcceptsKeyframeThenNonKeyframe(t *testing.T) {
	ctx := NewContext(ArchRLEHuffman)
	buf := make([]byte, 64)
	r := bitreader.NewMSBReader(buf)

	if err := ctx.BeginFrame(r, true); err != nil {
		t.Fatalf("BeginFrame(keyframe=true) error = %v", err)
	}
	if err := ctx.BeginFrame(r, false); err != nil {
		t.Fatalf("BeginFrame(keyframe=false) after keyframe error = %v", err)
	}
}

func TestContextDecodeBytesRequiresReadyState(t *testing.T) {
	ctx := NewContext(ArchNemesis)
	r := bitreader.NewMSBReader(make([]byte, 4))
	dst := make([]byte, 2)
	if err := ctx.DecodeBytes(r, dst); err == nil {
		t.Fatalf("DecodeBytes on a never-started context should error")
	}
}

func TestContextNemesisRoundTripsZeroedStream(t *testing.T) {
	ctx := NewContext(ArchNemesis)
	r := bitreader.NewMSBReader(make([]byte, 256))
	if err := ctx.BeginFrame(r, true); err != nil {
		t.Fatalf("BeginFrame error = %v", err)
	}
	dst := make([]byte, 8)
	if err := ctx.DecodeBytes(r, dst); err != nil {
		t.Fatalf("DecodeBytes error = %v", err)
	}
}

func TestErinaCoderDecodesZeroRun(t *testing.T) {
	c := newErinaCoder(true)
	// An all-zero stream: first decoded byte falls back to the 8-bit
	// literal (0x00), which triggers the run-length path; the run length
	// then reads via decodeGamma, whose leading zero bit means length 1 -
	// i.e. no extra zero bytes beyond the one just emitted.
	r := bitreader.NewMSBReader(make([]byte, 16))
	dst := make([]byte, 4)
	c.decodeBytes(r, dst)
	if dst[0] != 0 {
		t.Fatalf("dst[0] = %d, want 0", dst[0])
	}
}
