/*
NAME
  streamfile.go

DESCRIPTION
  streamfile.go defines the ByteSource contract that every container parser
  and codec engine in this module reads from, plus the two concrete
  implementations (in-memory and os.File-backed) used by the tests and the
  example tool. Byte I/O itself is an explicit non-goal of the custom-codec
  decoding substrate this module implements; ByteSource is the narrow
  interface the substrate assumes is already available.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package streamfile provides the random-access byte source contract shared
// by every container parser and codec engine: ByteSource.
package streamfile

import (
	"encoding/binary"
	"errors"
	"io"
	"os"

	pkgerrors "github.com/pkg/errors"
)

// ByteSource is a random-access view of bytes with a known total size. Reads
// may return fewer bytes than requested at EOF, matching io.ReaderAt except
// that a short read at EOF is not itself an error (callers check n against
// the requested length).
//
// Engines that need multiple simultaneous independent read cursors (HCA's
// header parse alongside per-frame decode, a deblocked channel view per
// stream) call Reopen to get a source with its own cursor state, rather than
// sharing one.
type ByteSource interface {
	// ReadAt reads len(p) bytes starting at off, returning the number of
	// bytes actually read. It never returns io.EOF as an error; a short read
	// at the end of the source simply returns n < len(p) with a nil error.
	ReadAt(p []byte, off int64) (n int, err error)

	// Size returns the total number of bytes available from the source.
	Size() int64

	// Reopen returns an independent ByteSource over the same underlying
	// data, with its own read cursor (ReadAt is already cursor-free, so in
	// practice this returns a source safe to use concurrently with the
	// original).
	Reopen() (ByteSource, error)

	// Close releases any resources held by the source.
	Close() error
}

// memorySource is a ByteSource backed by an in-memory byte slice. Multiple
// memorySource values may share the same backing slice safely since reads
// never mutate it.
type memorySource struct {
	data []byte
}

// NewMemory returns a ByteSource over an in-memory buffer. The slice is not
// copied; callers must not mutate it afterwards.
func NewMemory(data []byte) ByteSource {
	return &memorySource{data: data}
}

func (m *memorySource) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, nil
	}
	n := copy(p, m.data[off:])
	return n, nil
}

func (m *memorySource) Size() int64 { return int64(len(m.data)) }

func (m *memorySource) Reopen() (ByteSource, error) { return &memorySource{data: m.data}, nil }

func (m *memorySource) Close() error { return nil }

// fileSource is a ByteSource backed by an *os.File.
type fileSource struct {
	f    *os.File
	path string
	size int64
}

// Open returns a ByteSource backed by the named file.
func Open(path string) (ByteSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "streamfile: open %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, pkgerrors.Wrapf(err, "streamfile: stat %s", path)
	}
	return &fileSource{f: f, path: path, size: fi.Size()}, nil
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	n, err := s.f.ReadAt(p, off)
	if err != nil && errors.Is(err, io.EOF) {
		return n, nil
	}
	return n, err
}

func (s *fileSource) Size() int64 { return s.size }

func (s *fileSource) Reopen() (ByteSource, error) { return Open(s.path) }

func (s *fileSource) Close() error { return s.f.Close() }

// ReadFull reads exactly len(p) bytes at off, returning an error that wraps
// io.ErrUnexpectedEOF if the source was shorter than requested. Container
// parsers use this for fixed-size header reads where a short read is always
// a TruncatedSource condition.
func ReadFull(src ByteSource, p []byte, off int64) error {
	n, err := src.ReadAt(p, off)
	if err != nil {
		return err
	}
	if n < len(p) {
		return pkgerrors.Wrapf(io.ErrUnexpectedEOF, "streamfile: truncated read at offset %d: got %d of %d bytes", off, n, len(p))
	}
	return nil
}

// ReadU32LE reads a 32-bit little-endian integer at off, the field width
// most container headers this module parses (AWC, KTSR) use throughout.
func ReadU32LE(src ByteSource, off int64) (uint32, error) {
	var b [4]byte
	if err := ReadFull(src, b[:], off); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b[:]), nil
}

// ReadU16LE reads a 16-bit little-endian integer at off.
func ReadU16LE(src ByteSource, off int64) (uint16, error) {
	var b [2]byte
	if err := ReadFull(src, b[:], off); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b[:]), nil
}
