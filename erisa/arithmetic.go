/*
NAME
  arithmetic.go

DESCRIPTION
  arithmetic.go implements ERISA's arithmetic ("Nemesis") coder: a 16-bit
  code/augend register pair decoded against an adaptive, frequency-sorted
  probability model (spec.md §4.E.1).

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

const (
	escapeCode  = -1    // probModel symbol value reserved for "not yet assigned"
	totalLimit  = 0x2000 // halve frequencies once the model's total reaches this
	initialSort = 257    // 256 byte values plus one escape slot
)

// probSymbol is one sorted (occurrence count, symbol) pair.
type probSymbol struct {
	occured int32
	symbol  int32
}

// probModel is one ERISA_PROB_MODEL: a symbol table kept sorted by
// descending occurrence count so the arithmetic decoder's linear scan
// visits likely symbols first.
type probModel struct {
	total   int32
	sorts   int32
	symbols []probSymbol
}

func newProbModel() *probModel {
	m := &probModel{total: initialSort, sorts: initialSort, symbols: make([]probSymbol, initialSort)}
	for i := 0; i < 0x100; i++ {
		m.symbols[i] = probSymbol{occured: 1, symbol: int32(i)}
	}
	m.symbols[0x100] = probSymbol{occured: 1, symbol: escapeCode}
	return m
}

func (m *probModel) halveOccuredCount() {
	m.total = 0
	for i := int32(0); i < m.sorts; i++ {
		m.symbols[i].occured = (m.symbols[i].occured + 1) >> 1
		m.total += m.symbols[i].occured
	}
}

// increaseSymbol bumps index's occurrence count and bubbles it left to keep
// the table sorted by descending count, returning its new index.
func (m *probModel) increaseSymbol(index int32) int32 {
	occured := m.symbols[index].occured + 1
	symbol := m.symbols[index].symbol

	i := index
	for i > 0 && m.symbols[i-1].occured < occured {
		m.symbols[i] = m.symbols[i-1]
		i--
	}
	m.symbols[i] = probSymbol{occured: occured, symbol: symbol}

	m.total++
	if m.total >= totalLimit {
		m.halveOccuredCount()
	}
	return i
}

// arithmeticCoder holds ERISA's code/augend register pair and the
// "post bit" corruption guard (a count of the zero bits renormalization
// injects once the packet's bits are exhausted; a run of 256 of them is too
// long to be legitimate bitstream).
type arithmeticCoder struct {
	code, augend uint32
	postBits     int
}

func newArithmeticCoder(r *bitreader.MSBReader) *arithmeticCoder {
	c := &arithmeticCoder{augend: 0xFFFF}
	c.code = r.ReadBits(16)
	return c
}

// decodeIndex implements MIOContext_DecodeERISACodeIndex: locates the
// symbol the current code/augend state points at, updates both registers,
// and renormalizes.
func (c *arithmeticCoder) decodeIndex(r *bitreader.MSBReader, m *probModel) (int32, error) {
	acc := uint32(uint64(c.code) * uint64(m.total) / uint64(c.augend))
	if acc >= totalLimit {
		return 0, errors.New("erisa: arithmetic accumulator out of range")
	}

	var sym int32
	var fs uint32
	var occured int32
	for {
		occured = m.symbols[sym].occured
		if acc < uint32(occured) {
			break
		}
		acc -= uint32(occured)
		fs += uint32(occured)
		sym++
		if sym >= m.sorts {
			return 0, errors.New("erisa: arithmetic symbol table overflow")
		}
	}

	c.code -= (c.augend*fs + uint32(m.total) - 1) / uint32(m.total)
	c.augend = c.augend * uint32(occured) / uint32(m.total)
	if c.augend == 0 {
		return 0, errors.New("erisa: arithmetic augend underflow")
	}

	for c.augend&0x8000 == 0 {
		if r.BitsLeft() == 0 {
			c.postBits++
			if c.postBits >= 256 {
				return 0, errors.New("erisa: arithmetic renormalization overran (corrupt stream)")
			}
		}
		bit := r.ReadBits(1) // past the end of the buffer this reads 0
		c.code = (c.code << 1) | bit
		c.augend <<= 1
	}
	c.code &= 0xFFFF

	return sym, nil
}

// decode implements MIOContext_DecodeERISACode: decode one symbol and feed
// its occurrence back into the model.
func (c *arithmeticCoder) decode(r *bitreader.MSBReader, m *probModel) (int32, error) {
	idx, err := c.decodeIndex(r, m)
	if err != nil {
		return escapeCode, err
	}
	symbol := m.symbols[idx].symbol
	m.increaseSymbol(idx)
	return symbol, nil
}
