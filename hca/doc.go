/*
NAME
  doc.go

DESCRIPTION
  doc.go documents package hca.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package hca decodes CRI's HCA perceptual audio codec: header/cipher/ATH
// table construction, the per-frame bit-exact unpacking pipeline, noise and
// high-frequency reconstruction, joint-stereo recombination, and the fused
// IMDCT/overlap-add that produces PCM. It is the densest codec engine in
// this module; everything else it needs (bit extraction, the substitution
// cipher, the CRC check) lives in bitreader, cipher and crc16.
package hca
