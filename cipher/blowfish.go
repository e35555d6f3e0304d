/*
NAME
  blowfish.go

DESCRIPTION
  blowfish.go implements the KTSR Blowfish-ECB streamfile filter: a
  deblock.View-compatible ByteSource that decrypts 8-byte Blowfish-ECB blocks
  on demand, serving arbitrary (offset, length) reads by decrypting only the
  blocks the request actually touches.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package cipher provides the two encryption-adjacent filters the container
// parsers need: a Blowfish-ECB streamfile view (KTSR) and HCA's per-frame
// substitution cipher.
package cipher

import (
	"github.com/pkg/errors"
	"golang.org/x/crypto/blowfish"

	"github.com/ausocean/vgmcodec/streamfile"
)

const blockSize = 8

// BlowfishECBSource wraps a ByteSource whose bytes in [start, start+size) are
// Blowfish-ECB encrypted, presenting a decrypted view over the same range.
// Reads outside [start, start+size) pass through unmodified.
type BlowfishECBSource struct {
	inner      streamfile.ByteSource
	cipher     *blowfish.Cipher
	start, end int64
}

// NewBlowfishECB returns a decrypting view over inner's [start, start+size)
// region, keyed by key (a raw Blowfish key, 1 to 56 bytes as KTSR embeds it).
func NewBlowfishECB(inner streamfile.ByteSource, key []byte, start, size int64) (*BlowfishECBSource, error) {
	c, err := blowfish.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "cipher: blowfish key schedule")
	}
	return &BlowfishECBSource{inner: inner, cipher: c, start: start, end: start + size}, nil
}

// Size returns the inner source's size; the encrypted region is a sub-range
// of it, not the whole source.
func (b *BlowfishECBSource) Size() int64 { return b.inner.Size() }

func (b *BlowfishECBSource) Close() error { return b.inner.Close() }

func (b *BlowfishECBSource) Reopen() (streamfile.ByteSource, error) {
	inner, err := b.inner.Reopen()
	if err != nil {
		return nil, err
	}
	return &BlowfishECBSource{inner: inner, cipher: b.cipher, start: b.start, end: b.end}, nil
}

// ReadAt decrypts and returns len(p) bytes starting at off. A request may
// begin or end mid-block; the containing aligned block range is decrypted
// once and the requested slice is taken from it, matching spec.md §8's
// Blowfish filter invariant.
func (b *BlowfishECBSource) ReadAt(p []byte, off int64) (int, error) {
	reqStart, reqEnd := off, off+int64(len(p))
	if reqEnd <= b.start || reqStart >= b.end {
		return b.inner.ReadAt(p, off)
	}

	// Clip the encrypted overlap, read any unencrypted leading/trailing
	// portion verbatim, and decrypt only the overlapping aligned blocks.
	n := 0
	if reqStart < b.start {
		head := b.start - reqStart
		nh, err := b.inner.ReadAt(p[:head], reqStart)
		if err != nil {
			return nh, err
		}
		n += nh
		reqStart = b.start
	}
	plainEnd := reqEnd
	if plainEnd > b.end {
		plainEnd = b.end
	}
	if reqStart < plainEnd {
		alignedStart := b.start + ((reqStart - b.start) / blockSize * blockSize)
		alignedEnd := plainEnd
		if rem := (alignedEnd - b.start) % blockSize; rem != 0 {
			alignedEnd += blockSize - rem
		}
		raw := make([]byte, alignedEnd-alignedStart)
		nr, err := b.inner.ReadAt(raw, alignedStart)
		if err != nil {
			return n, err
		}
		raw = raw[:nr]
		decryptECB(b.cipher, raw)
		sliceStart := reqStart - alignedStart
		sliceEnd := plainEnd - alignedStart
		if sliceEnd > int64(len(raw)) {
			sliceEnd = int64(len(raw))
		}
		if sliceStart < sliceEnd {
			copy(p[n:], raw[sliceStart:sliceEnd])
			n += int(sliceEnd - sliceStart)
		}
	}
	if reqEnd > b.end {
		tailStart := b.end
		tailLen := reqEnd - tailStart
		buf := make([]byte, tailLen)
		nt, err := b.inner.ReadAt(buf, tailStart)
		copy(p[n:], buf[:nt])
		n += nt
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// decryptECB decrypts buf in place, 8 bytes at a time. A trailing partial
// block (shorter than blockSize, only possible at end of file) is left
// untouched since Blowfish-ECB has no meaning over a partial block.
func decryptECB(c *blowfish.Cipher, buf []byte) {
	for i := 0; i+blockSize <= len(buf); i += blockSize {
		c.Decrypt(buf[i:i+blockSize], buf[i:i+blockSize])
	}
}
