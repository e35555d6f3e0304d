/*
NAME
  blowfish_test.go

DESCRIPTION
  blowfish_test.go contains tests for the KTSR Blowfish-ECB streamfile
  filter, including unaligned leading/trailing reads that span the
  encrypted region's edges.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package cipher

import (
	"bytes"
	"testing"

	"golang.org/x/crypto/blowfish"

	"github.com/ausocean/vgmcodec/streamfile"
)

// encryptECB encrypts buf (a multiple of 8 bytes) in place with key,
// mirroring decryptECB but in the forward direction, to build test fixtures.
func encryptECB(t *testing.T, key, buf []byte) {
	t.Helper()
	c, err := blowfish.NewCipher(key)
	if err != nil {
		t.Fatalf("blowfish.NewCipher: %v", err)
	}
	for i := 0; i+blockSize <= len(buf); i += blockSize {
		c.Encrypt(buf[i:i+blockSize], buf[i:i+blockSize])
	}
}

func TestBlowfishECBSourceRoundTrip(t *testing.T) {
	key := []byte("a test key")
	plain := []byte("0123456789abcdef01234567") // 24 bytes, 3 blocks
	cipherBuf := append([]byte{}, plain...)
	encryptECB(t, key, cipherBuf)

	prefix := []byte("HEAD")
	suffix := []byte("TAIL")
	buf := append(append(append([]byte{}, prefix...), cipherBuf...), suffix...)

	src := streamfile.NewMemory(buf)
	view, err := NewBlowfishECB(src, key, int64(len(prefix)), int64(len(cipherBuf)))
	if err != nil {
		t.Fatalf("NewBlowfishECB: %v", err)
	}

	tests := []struct {
		name       string
		off        int64
		n          int
		wantOffset int64 // offset within (prefix+plain+suffix) the result should match
	}{
		{"whole encrypted region", int64(len(prefix)), len(plain), int64(len(prefix))},
		{"leading partial block", int64(len(prefix)) + 3, 5, int64(len(prefix)) + 3},
		{"spans prefix into region", 2, len(prefix) - 2 + 8, 2},
		{"spans region into suffix", int64(len(prefix)) + int64(len(plain)) - 4, 8, int64(len(prefix)) + int64(len(plain)) - 4},
	}

	want := append(append(append([]byte{}, prefix...), plain...), suffix...)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make([]byte, tt.n)
			n, err := view.ReadAt(got, tt.off)
			if err != nil {
				t.Fatalf("ReadAt: %v", err)
			}
			got = got[:n]
			wantSlice := want[tt.wantOffset : tt.wantOffset+int64(len(got))]
			if !bytes.Equal(got, wantSlice) {
				t.Fatalf("ReadAt(%d, %d) = %v, want %v", tt.off, tt.n, got, wantSlice)
			}
		})
	}
}

func TestBlowfishECBSourceOutsideRangePassesThrough(t *testing.T) {
	buf := []byte("plaintext-not-encrypted-at-all!")
	src := streamfile.NewMemory(buf)
	view, err := NewBlowfishECB(src, []byte("key12345"), 100, 8)
	if err != nil {
		t.Fatalf("NewBlowfishECB: %v", err)
	}
	got := make([]byte, len(buf))
	n, err := view.ReadAt(got, 0)
	if err != nil || n != len(buf) {
		t.Fatalf("ReadAt = %d, %v", n, err)
	}
	if !bytes.Equal(got, buf) {
		t.Fatalf("ReadAt = %v, want %v (unencrypted passthrough)", got, buf)
	}
}
