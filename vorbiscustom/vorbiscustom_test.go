/*
NAME
  vorbiscustom_test.go

DESCRIPTION
  vorbiscustom_test.go contains tests for the package entry point: variant
  naming, blocksize exponent lookup and dispatch in NewStream.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package vorbiscustom

import (
	"testing"

	"github.com/ausocean/vgmcodec/streamfile"
)

func TestVariantString(t *testing.T) {
	tests := []struct {
		v    Variant
		want string
	}{
		{VariantFSB, "FSB"},
		{VariantOGL, "OGL"},
		{VariantSK, "SK"},
		{VariantVID1, "VID1"},
		{VariantAWC, "AWC"},
		{VariantOOR, "OOR"},
		{VariantWwise, "Wwise"},
		{VariantUnknown, "Unknown"},
		{Variant(99), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("Variant(%d).String() = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestLoadBlockSizeExponent(t *testing.T) {
	tests := []struct {
		size    int
		want    int
		wantErr bool
	}{
		{64, 6, false},
		{2048, 11, false},
		{8192, 13, false},
		{256, 8, false},
		{100, 0, true},
		{0, 0, true},
	}
	for _, tt := range tests {
		got, err := LoadBlockSizeExponent(tt.size)
		if tt.wantErr {
			if err == nil {
				t.Errorf("LoadBlockSizeExponent(%d): want error, got nil", tt.size)
			}
			continue
		}
		if err != nil {
			t.Errorf("LoadBlockSizeExponent(%d): unexpected error %v", tt.size, err)
		}
		if got != tt.want {
			t.Errorf("LoadBlockSizeExponent(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestNewStreamUnsupportedVariant(t *testing.T) {
	src := streamfile.NewMemory(make([]byte, 16))
	_, err := NewStream(src, 0, Config{Variant: VariantUnknown})
	if err == nil {
		t.Fatal("NewStream with VariantUnknown: want error, got nil")
	}
}

func TestNewStreamDispatchesOGL(t *testing.T) {
	var buf []byte
	buf = appendOGLPacket(buf, buildIdentification(Config{Channels: 1, SampleRate: 22050, BlockSizeExp0: 11, BlockSizeExp1: 8}))
	buf = appendOGLPacket(buf, buildComment())
	buf = appendOGLPacket(buf, []byte{packetTypeSetup, 0xaa, 0xbb})
	buf = appendOGLPacket(buf, []byte{1, 2, 3, 4})

	src := streamfile.NewMemory(buf)
	s, err := NewStream(src, 0, Config{Variant: VariantOGL})
	if err != nil {
		t.Fatalf("NewStream: %v", err)
	}
	if s == nil {
		t.Fatal("NewStream returned nil Stream")
	}
}

// appendOGLPacket appends packet framed the way ogl.go expects: a 16-bit
// little-endian (size<<2)|flags word followed by the packet bytes.
func appendOGLPacket(buf []byte, packet []byte) []byte {
	word := uint16(len(packet)) << 2
	buf = append(buf, byte(word), byte(word>>8))
	return append(buf, packet...)
}
