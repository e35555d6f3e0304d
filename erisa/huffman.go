/*
NAME
  huffman.go

DESCRIPTION
  huffman.go implements ERINA, the ERISA engine's adaptive (Vitter-like)
  huffman coder: an arena of nodes addressed by index rather than pointer,
  so no node ever needs to be individually freed. Each decoded symbol
  re-sorts the tree so that more frequent symbols migrate toward shorter
  codes, and the whole tree is halved and rebuilt once the root's weight
  saturates.

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

import "github.com/ausocean/vgmcodec/bitreader"

const (
	alphabetSize = 256
	escapeSymbol = 0x100 // payload value reserved for "not yet seen any symbol"
	huffmanMax   = 0x4000

	codeFlag        = uint32(1) << 31
	nullChildCode   = ^uint32(0)
	huffmanNullNode = int32(-1)
)

// huffmanNode is one arena slot: either an internal node (childCode holds the
// left child's index; the right child is always childCode+1), or a leaf
// (childCode's top bit is set; the low bits hold the symbol, or
// escapeSymbol for the not-yet-seen placeholder).
type huffmanNode struct {
	weight    uint16
	parent    int32
	childCode uint32
}

// huffmanTree is one ERINA adaptive huffman tree. Order-1 coding keeps 257
// of these (one per preceding byte value, plus one for run lengths);
// order-0 keeps a single shared tree.
type huffmanTree struct {
	nodes       []huffmanNode
	root        int32
	treePointer int32
	symLookup   [alphabetSize]int32
	escape      int32
}

func newHuffmanTree() *huffmanTree {
	const size = 2 * (alphabetSize + 1)
	t := &huffmanTree{nodes: make([]huffmanNode, size)}
	for i := range t.symLookup {
		t.symLookup[i] = huffmanNullNode
	}
	t.escape = huffmanNullNode
	t.root = int32(size) - 1
	t.treePointer = t.root
	t.nodes[t.root] = huffmanNode{childCode: nullChildCode, parent: huffmanNullNode}
	return t
}

func (t *huffmanTree) recount(parent int32) {
	child := int32(t.nodes[parent].childCode)
	t.nodes[parent].weight = t.nodes[child].weight + t.nodes[child+1].weight
}

// fixupParentPointer repoints whatever refers to node (an internal node's
// children, or symLookup/escape for a leaf) at its new arena slot newIndex.
func (t *huffmanTree) fixupParentPointer(node, newIndex int32) {
	cc := t.nodes[node].childCode
	if cc&codeFlag == 0 {
		child := int32(cc)
		t.nodes[child].parent = newIndex
		t.nodes[child+1].parent = newIndex
	} else {
		code := cc &^ codeFlag
		if code == escapeSymbol {
			t.escape = newIndex
		} else {
			t.symLookup[code&0xFF] = newIndex
		}
	}
}

// normalize restores sorted-by-weight order after entry's weight changed,
// bubbling it toward the root (EHT_Normalize).
func (t *huffmanTree) normalize(entry int32) {
	for entry < t.root {
		weight := t.nodes[entry].weight
		swap := entry + 1
		for swap < t.root && t.nodes[swap].weight < weight {
			swap++
		}
		swap--

		if entry == swap {
			entry = t.nodes[entry].parent
			t.recount(entry)
			continue
		}

		t.fixupParentPointer(entry, swap)
		t.fixupParentPointer(swap, entry)

		entryParent := t.nodes[entry].parent
		swapParent := t.nodes[swap].parent
		t.nodes[entry], t.nodes[swap] = t.nodes[swap], t.nodes[entry]
		t.nodes[swap].parent = swapParent
		t.nodes[entry].parent = entryParent

		t.recount(swapParent)
		entry = swapParent
	}
}

func (t *huffmanTree) increaseOccuredCount(entry int32) {
	t.nodes[entry].weight++
	t.normalize(entry)
	if t.nodes[t.root].weight >= huffmanMax {
		t.halveAndRebuild()
	}
}

// addNewEntry inserts a freshly observed symbol (EHT_AddNewEntry). The tree
// grows downward from the root by consuming two arena slots per insertion
// until the arena is exhausted, at which point the least-recently-added
// slot is recycled.
func (t *huffmanTree) addNewEntry(code int) {
	if t.treePointer <= 0 {
		i := t.treePointer
		entry := &t.nodes[i]
		if entry.childCode == codeFlag|escapeSymbol {
			entry = &t.nodes[i+1]
		}
		entry.childCode = codeFlag | uint32(code)
		return
	}

	t.treePointer -= 2
	i := t.treePointer
	newNode := &t.nodes[i]
	newNode.weight = 1
	newNode.childCode = codeFlag | uint32(code)
	t.symLookup[code&0xFF] = i

	root := &t.nodes[t.root]
	if root.childCode == nullChildCode {
		newNode.parent = t.root
		t.escape = i + 1
		t.nodes[i+1] = huffmanNode{weight: 1, parent: t.root, childCode: codeFlag | escapeSymbol}
		root.weight = 2
		root.childCode = uint32(i)
		return
	}

	oldEscape := t.nodes[t.escape]
	t.nodes[i+1] = oldEscape
	t.fixupParentPointer(i+1, i+1)

	parent := &t.nodes[i+2]
	parent.weight = newNode.weight + oldEscape.weight
	parent.parent = oldEscape.parent
	parent.childCode = uint32(i)
	newNode.parent = i + 2
	t.nodes[i+1].parent = i + 2

	t.normalize(i + 2)
}

// halveAndRebuild halves every leaf's weight and rebuilds the internal tree
// from scratch in weight order (EHT_HalfAndRebuild), bounding code lengths
// once the root saturates.
func (t *huffmanTree) halveAndRebuild() {
	next := t.root
	for i := t.root - 1; i >= t.treePointer; i-- {
		if t.nodes[i].childCode&codeFlag != 0 {
			t.nodes[i].weight = (t.nodes[i].weight + 1) >> 1
			t.nodes[next] = t.nodes[i]
			next--
		}
	}
	next++

	i := t.treePointer
	for {
		t.nodes[i] = t.nodes[next]
		t.nodes[i+1] = t.nodes[next+1]
		next += 2
		c1, c2 := &t.nodes[i], &t.nodes[i+1]
		t.fixupParentPointer(i, i)
		t.fixupParentPointer(i+1, i+1)

		weight := c1.weight + c2.weight
		if next <= t.root {
			j := next
			for {
				if weight <= t.nodes[j].weight {
					t.nodes[j-1].weight = weight
					t.nodes[j-1].childCode = uint32(i)
					break
				}
				t.nodes[j-1] = t.nodes[j]
				j++
				if j > t.root {
					t.nodes[t.root].weight = weight
					t.nodes[t.root].childCode = uint32(i)
					break
				}
			}
			next--
		} else {
			t.nodes[t.root] = huffmanNode{weight: weight, parent: huffmanNullNode, childCode: uint32(i)}
			c1.parent = t.root
			c2.parent = t.root
			break
		}
		i += 2
	}
}

// decode walks the tree from the root using bits read from r. A reached
// escape leaf means the symbol has never been seen before: escapeGamma
// selects whether the literal that follows is gamma-coded (used for ERINA's
// run-length trees) or a flat 8-bit code (used everywhere else).
func (t *huffmanTree) decode(r *bitreader.MSBReader, escapeGamma bool) int {
	if t.escape != huffmanNullNode {
		entry := t.root
		child := int32(t.nodes[t.root].childCode)
		for {
			bit := r.ReadBits(1)
			entry = child + int32(bit)
			child = int32(t.nodes[entry].childCode)
			if t.nodes[entry].childCode&codeFlag != 0 {
				break
			}
		}
		// Read the leaf's code before the count update: normalize may swap
		// another node into this arena slot.
		code := int(t.nodes[entry].childCode &^ codeFlag)
		t.increaseOccuredCount(entry)
		if code != escapeSymbol {
			return code
		}
	}

	var code int
	if escapeGamma {
		code = decodeGamma(r)
	} else {
		code = int(r.ReadBits(8))
	}
	t.addNewEntry(code)
	return code
}

// decodeGamma reads ERINA's escape-literal length code. A leading 0 bit
// encodes the value 1 outright; a leading 1 bit instead introduces a
// sequence of (code-bit, continue-bit) pairs, accumulating the code and
// doubling the base every time the continue bit is set
// (MIOContext_GetGammaCode's fallback path, unrolled one bit pair at a time
// rather than the buffered fast path).
func decodeGamma(r *bitreader.MSBReader) int {
	if r.ReadBits(1) == 0 {
		return 1
	}
	code, base := 0, 2
	for {
		bit := int(r.ReadBits(1))
		code = (code << 1) | bit
		cont := r.ReadBits(1)
		if cont == 0 {
			return code + base
		}
		base <<= 1
	}
}
