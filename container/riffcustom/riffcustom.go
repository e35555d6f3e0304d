/*
NAME
  riffcustom.go

DESCRIPTION
  riffcustom.go patches the two vendor glitches some RIFF-embedded Ogg
  Vorbis streams carry (spec.md §4.H, riffcustom): a duplicated
  beginning-of-stream page flag that standard Ogg parsers choke on, and a
  run of trailing pages with no proper end-of-stream flag that has to be
  trimmed from the reported stream size (setup_riff_ogg_streamfile,
  riff_ogg_io_read, ogg_get_page). Unlike AWC/KTSR, the embedded bitstream
  here is already standard Ogg Vorbis; this package does not reconstruct
  anything, it only repairs two structural defects before handing the
  range off as an ordinary Ogg Vorbis byte source.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package riffcustom patches glitches found in some RIFF containers'
// embedded Ogg Vorbis streams into a clean, standard Ogg byte source.
package riffcustom

import (
	"encoding/binary"

	"github.com/ausocean/vgmcodec/streamfile"
)

const (
	oggMagic      = 0x4F676753 // "OggS"
	oggPageHdrLen = 0x1b       // fixed header up to and including the segment count
	oggScanWindow = 0x1000     // how much of the stream's tail to scan for the real end
)

// Source presents [start, start+size) of inner as a patched Ogg Vorbis
// stream: the first repeated beginning-of-stream page flag forced to 0,
// and the logical size trimmed to exclude any trailing garbage pages that
// lack a proper end-of-stream flag.
type Source struct {
	inner       streamfile.ByteSource
	start       int64
	size        int64 // trimmed logical size
	patchOffset int64 // logical offset of the flag byte to zero; 0 means no patch
}

// NewSource scans [start, start+size) of inner once to locate both glitches
// and returns the patched view.
func NewSource(inner streamfile.ByteSource, start, size int64) *Source {
	return &Source{
		inner:       inner,
		start:       start,
		size:        findRealSize(inner, start, size),
		patchOffset: findRepeatedStartFlag(inner, start, size),
	}
}

func (s *Source) Size() int64 { return s.size }

func (s *Source) Close() error { return s.inner.Close() }

func (s *Source) Reopen() (streamfile.ByteSource, error) {
	inner, err := s.inner.Reopen()
	if err != nil {
		return nil, err
	}
	return &Source{inner: inner, start: s.start, size: s.size, patchOffset: s.patchOffset}, nil
}

// ReadAt reads the patched logical range, clipping to the trimmed size and
// zeroing the repeated start-page flag byte if this read touches it.
func (s *Source) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= s.size {
		return 0, nil
	}
	if off+int64(len(p)) > s.size {
		p = p[:s.size-off]
	}
	n, err := s.inner.ReadAt(p, s.start+off)
	if err != nil {
		return n, err
	}
	if s.patchOffset > 0 && s.patchOffset >= off && s.patchOffset < off+int64(n) {
		p[s.patchOffset-off] = 0x00
	}
	return n, nil
}

// oggPageSize reads one Ogg page's header and lacing table at the given
// absolute offset and returns its total size (header + lacing table +
// segment data), or 0 if the page could not be read in full (ogg_get_page).
func oggPageSize(src streamfile.ByteSource, offset int64) int64 {
	var hdr [oggPageHdrLen]byte
	n, _ := src.ReadAt(hdr[:], offset)
	if n < len(hdr) {
		return 0
	}
	segments := int(hdr[0x1a])
	lacing := make([]byte, segments)
	if segments > 0 {
		n, _ = src.ReadAt(lacing, offset+oggPageHdrLen)
		if n < segments {
			return 0
		}
	}
	size := int64(oggPageHdrLen + segments)
	for _, b := range lacing {
		size += int64(b)
	}
	return size
}

func oggMagicAt(src streamfile.ByteSource, offset int64) bool {
	var tag [4]byte
	n, _ := src.ReadAt(tag[:], offset)
	return n == 4 && binary.BigEndian.Uint32(tag[:]) == oggMagic
}

// oggHeaderFlags reads the (version<<8 | header_type_flags) 16-bit field at
// offset+0x04, matching get_u16be(buf+0x04) in the original.
func oggHeaderFlags(src streamfile.ByteSource, offset int64) (uint16, bool) {
	var b [2]byte
	n, _ := src.ReadAt(b[:], offset+0x04)
	return binary.BigEndian.Uint16(b[:]), n == 2
}

// findRepeatedStartFlag walks pages from start, skipping the first page
// unconditionally, and returns the logical offset of the header_type_flags
// byte of the first subsequent page also flagged as beginning-of-stream
// (0x0002) — vendor encoders sometimes repeat it, which confuses standard
// Ogg parsers expecting exactly one BOS page.
func findRepeatedStartFlag(src streamfile.ByteSource, start, size int64) int64 {
	limit := start + size
	offset := start + oggPageSize(src, start)
	for offset < limit {
		pageSize := oggPageSize(src, offset)
		if pageSize == 0 || !oggMagicAt(src, offset) {
			break
		}
		if flags, ok := oggHeaderFlags(src, offset); ok && flags == 0x0002 {
			return (offset - start) + 0x05
		}
		offset += pageSize
	}
	return 0
}

// findRealSize scans the last oggScanWindow bytes of [start, start+size) for
// an Ogg page with a proper end-of-stream flag (0x0004); if one is found,
// the size is trimmed to end where the first "OggS" page after it begins,
// excluding that page and everything after it (or left unchanged when no
// page follows the EOS page). If no EOS page turns up in the window at all,
// the original size is returned unchanged rather than risk over-trimming.
func findRealSize(src streamfile.ByteSource, start, size int64) int64 {
	chunkSize := int64(oggScanWindow)
	if chunkSize > size {
		chunkSize = size
	}
	readOffset := start + size - chunkSize
	if readOffset < start {
		return size
	}
	buf := make([]byte, chunkSize)
	n, _ := src.ReadAt(buf, readOffset)
	if int64(n) <= oggPageHdrLen-1 {
		return size
	}

	pos := int64(n) - (oggPageHdrLen - 1)
	maxSize := size
	for pos > 0 {
		if binary.BigEndian.Uint32(buf[pos:pos+4]) == oggMagic {
			if binary.BigEndian.Uint16(buf[pos+4:pos+6]) == 0x0004 {
				return maxSize
			}
			maxSize = size - (chunkSize - pos)
		}
		pos--
	}
	return size
}
