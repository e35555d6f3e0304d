/*
NAME
  context.go

DESCRIPTION
  context.go ties the two byte coders (adaptive huffman and arithmetic)
  together behind one interface, and implements the per-frame reset rule:
  a keyframe (MIO_LEAD_BLOCK set) starts both coders from a fresh state,
  and any attempt to decode a non-keyframe without prior state is an error
  (spec.md §4.E.5), which is how seeking recovers a mid-stream cursor.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package erisa

import (
	"github.com/pkg/errors"

	"github.com/ausocean/vgmcodec/bitreader"
)

// Architecture selects the byte coder a stream's packets were encoded with
// (MIO_INFO_HEADER's dwArchitecture).
type Architecture uint32

const (
	ArchRLEGamma   Architecture = 0xFFFFFFFF
	ArchRLEHuffman Architecture = 0xFFFFFFFC
	ArchNemesis    Architecture = 0xFFFFFFF0
)

// LeadBlock is the packet flag bit marking a keyframe (coder state reset).
const LeadBlock = 0x01

// erinaCoder is ERINA order-1: 256 symbol trees indexed by the previously
// decoded byte, plus one dedicated tree for run lengths.
type erinaCoder struct {
	trees   [alphabetSize]*huffmanTree
	lenTree *huffmanTree
	current *huffmanTree
	gammaRL bool // true for the RLE+gamma architecture: run lengths read raw gamma-coded, bypassing the length tree's adaptive huffman stage
}

func newErinaCoder(gammaRL bool) *erinaCoder {
	c := &erinaCoder{lenTree: newHuffmanTree(), gammaRL: gammaRL}
	for i := range c.trees {
		c.trees[i] = newHuffmanTree()
	}
	c.current = c.trees[0]
	return c
}

// decodeBytes implements MIOContext_DecodeERINACodeBytes: decode one byte
// at a time, treating a decoded 0 as the start of a run whose length comes
// from a second code.
func (c *erinaCoder) decodeBytes(r *bitreader.MSBReader, dst []byte) {
	tree := c.current
	i := 0
	for i < len(dst) {
		symbol := tree.decode(r, false)
		dst[i] = byte(symbol)
		i++

		if symbol == 0 {
			var length int
			if c.gammaRL {
				length = decodeGamma(r)
			} else {
				length = c.lenTree.decode(r, true)
			}
			length--
			for length > 0 && i < len(dst) {
				dst[i] = 0
				i++
				length--
			}
		}
		tree = c.trees[symbol&0xFF]
	}
	c.current = tree
}

// erisaCoder is the Nemesis arithmetic byte coder: a single shared
// probability model over the 256 byte values (plus an unused escape slot,
// carried only because probModel's layout always reserves one).
type erisaCoder struct {
	model *probModel
	coder *arithmeticCoder
}

func newErisaCoder(r *bitreader.MSBReader) *erisaCoder {
	return &erisaCoder{model: newProbModel(), coder: newArithmeticCoder(r)}
}

func (c *erisaCoder) decodeBytes(r *bitreader.MSBReader, dst []byte) error {
	for i := range dst {
		sym, err := c.coder.decode(r, c.model)
		if err != nil {
			return err
		}
		if sym == escapeCode {
			return errors.New("erisa: unexpected escape symbol in byte stream")
		}
		dst[i] = byte(sym)
	}
	return nil
}

// Context is one MIOContext: the live per-frame coder state for a single
// ERISA/MIO audio stream.
type Context struct {
	arch  Architecture
	erina *erinaCoder
	eri   *erisaCoder
	ready bool
}

// NewContext returns a Context bound to the stream's architecture tag. No
// coder state is initialized until the first keyframe is decoded.
func NewContext(arch Architecture) *Context {
	return &Context{arch: arch}
}

// BeginFrame prepares the context for one packet. keyframe resets coder
// state from scratch (MIO_LEAD_BLOCK); decoding a non-keyframe before any
// keyframe has been seen is an error, matching the reference's seek
// recovery contract (spec.md §4.E.5).
func (c *Context) BeginFrame(r *bitreader.MSBReader, keyframe bool) error {
	if keyframe {
		switch c.arch {
		case ArchNemesis:
			c.eri = newErisaCoder(r)
		default:
			c.erina = newErinaCoder(c.arch == ArchRLEGamma)
		}
		c.ready = true
		return nil
	}
	if !c.ready {
		return errors.New("erisa: cannot decode a non-keyframe without prior coder state")
	}
	if c.arch == ArchNemesis {
		c.eri.coder = newArithmeticCoder(r)
	}
	return nil
}

// DecodeBytes decodes len(dst) bytes using whichever coder BeginFrame chose.
func (c *Context) DecodeBytes(r *bitreader.MSBReader, dst []byte) error {
	if !c.ready {
		return errors.New("erisa: context has no active coder")
	}
	if c.arch == ArchNemesis {
		return c.eri.decodeBytes(r, dst)
	}
	c.erina.decodeBytes(r, dst)
	return nil
}
