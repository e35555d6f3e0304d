package erisa

import (
	"testing"

	"github.com/ausocean/vgmcodec/bitreader"
)

func TestNewDecoderRejectsUnsupportedBitDepth(t *testing.T) {
	_, err := NewDecoder(Info{ChannelCount: 2, BitsPerSample: 8, SubbandDegree: 5})
	if err == nil {
		t.Fatalf("NewDecoder should reject a non-16-bit stream")
	}
}

func TestDecodeFrameLosslessProducesOneBufferPerChannel(t *testing.T) {
	d, err := NewDecoder(Info{
		Transformation: TransformLossless,
		Architecture:   ArchRLEGamma,
		ChannelCount:   2,
		BitsPerSample:  16,
		SubbandDegree:  5,
	})
	if err != nil {
		t.Fatalf("NewDecoder error = %v", err)
	}

	r := bitreader.NewMSBReader(make([]byte, 512))
	out, err := d.DecodeFrame(r, LeadBlock)
	if err != nil {
		t.Fatalf("DecodeFrame error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
	for ch, samples := range out {
		if len(samples) != 1<<5 {
			t.Fatalf("channel %d: len(samples) = %d, want %d", ch, len(samples), 1<<5)
		}
	}
}

func TestDecodeFrameLOTRejectsNonZeroSyncBit(t *testing.T) {
	d, err := NewDecoder(Info{
		Transformation: TransformLOT,
		Architecture:   ArchNemesis,
		ChannelCount:   1,
		BitsPerSample:  16,
		SubbandDegree:  4,
	})
	if err != nil {
		t.Fatalf("NewDecoder error = %v", err)
	}

	// division(2) + weight(32) + scale(16) = 50 bits consumed for the
	// quantization table; set the 51st bit (the sync bit) to force rejection.
	const syncBitPos = 50
	buf := make([]byte, 16)
	buf[syncBitPos/8] = 1 << uint(7-syncBitPos%8)
	r := bitreader.NewMSBReader(buf)

	if _, err := d.DecodeFrame(r, LeadBlock); err == nil {
		t.Fatalf("DecodeFrame should reject a non-zero LOT sync bit")
	}
}

func TestDecodeFrameLOTMSSProducesDeclaredChannelCount(t *testing.T) {
	d, err := NewDecoder(Info{
		Transformation: TransformLOTMSS,
		Architecture:   ArchRLEHuffman,
		ChannelCount:   2,
		BitsPerSample:  16,
		SubbandDegree:  6,
	})
	if err != nil {
		t.Fatalf("NewDecoder error = %v", err)
	}

	r := bitreader.NewMSBReader(make([]byte, 512))
	out, err := d.DecodeFrame(r, LeadBlock)
	if err != nil {
		t.Fatalf("DecodeFrame error = %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len(out) = %d, want 2", len(out))
	}
}

func TestDecodeFrameUnsupportedTransformationErrors(t *testing.T) {
	d, err := NewDecoder(Info{
		Transformation: Transformation(0xDEADBEEF),
		Architecture:   ArchNemesis,
		ChannelCount:   1,
		BitsPerSample:  16,
		SubbandDegree:  4,
	})
	if err != nil {
		t.Fatalf("NewDecoder error = %v", err)
	}
	r := bitreader.NewMSBReader(make([]byte, 16))
	if _, err := d.DecodeFrame(r, LeadBlock); err == nil {
		t.Fatalf("DecodeFrame should reject an unrecognized transformation tag")
	}
}
