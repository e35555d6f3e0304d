/*
NAME
  rev3.go

DESCRIPTION
  rev3.go implements the MicroTalk revision 3 frame wrapper: a leading
  marker byte that, when equal to 0xEE, signals a raw PCM overlay following
  the standard frame payload (spec.md §4.F, "Revision 3 wrapper").

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package utk

import (
	"github.com/pkg/errors"

	"github.com/ausocean/vgmcodec/bitreader"
)

const rev3Marker = 0xEE

// DecodeRev3Frame decodes one revision-3-wrapped frame: a marker byte,
// the standard frame payload, and (when the marker is 0xEE) a PCM overlay
// that replaces a sub-range of the decoded frame with raw samples.
//
// The reference decoder reads the marker byte directly off the stream
// pointer (bypassing its bit buffer), decodes the frame, then "unreads"
// whatever partial byte was left buffered by stepping the pointer back one
// byte and resetting the bit count — discarding any leftover buffered bits
// rather than feeding them back in, so that the overlay fields that follow
// always start byte-aligned. This port reproduces that net effect directly:
// align to the next byte boundary before reading the overlay header.
func (d *Decoder) DecodeRev3Frame(r *bitreader.LSBReader) ([]float32, error) {
	r.Align()
	marker := r.ReadBits(8)

	frame := d.DecodeFrame(r)
	r.Align()

	if marker != rev3Marker {
		return frame, nil
	}

	offset := int(int16(r.ReadBits(16)))
	count := int(int16(r.ReadBits(16)))

	if err := validateOverlay(offset, count); err != nil {
		return nil, err
	}

	for i := 0; i < count; i++ {
		frame[offset+i] = float32(int16(r.ReadBits(16)))
	}
	return frame, nil
}

// validateOverlay rejects the overlay offset/count pairs the reference
// decoder is known to crash on (negative or out-of-frame-bounds values).
func validateOverlay(offset, count int) error {
	if offset < 0 || offset > frameSamples {
		return errors.New("utk: invalid PCM overlay offset")
	}
	if count < 0 || count > frameSamples-offset {
		return errors.New("utk: invalid PCM overlay count")
	}
	return nil
}
