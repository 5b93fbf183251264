// Package huffman implements canonical Huffman coding over the 256
// possible byte values, as required by a COMPRESSED chunk's header
// (which carries only the 256 code lengths, never the codes
// themselves -- spec.md §3, "Chunk header").
//
// Because the wire format transmits lengths only, the decoder must be
// able to rebuild the *exact* bit assignment the encoder used from
// nothing but those lengths and the symbol alphabet. This package
// therefore derives codes and the decode tree from a single shared
// construction (buildFromLengths), grounded on original_source's
// bra_huffman_tree_build_from_lengths (encoders/bra_huffman.c): sort
// the present symbols by (length, symbol) ascending, then assign
// numeric codes by the standard canonical-Huffman increment
// (code = (code+1) << (len[i+1]-len[i])), and insert each resulting
// code into the tree along its own bit path. Encoding and decoding
// both reduce to that one function, so whatever canonical codes the
// encoder packed are exactly what the decoder reconstructs -- this is
// how this module resolves spec.md §9 Open Question 2 (the
// tie-break/canonicalization policy): tie-breaking in the frequency
// tree only affects *lengths* (via a stable, sequence-numbered
// min-heap, see below); the *bit values* for a given set of lengths
// are always canonical by the (length, symbol) sort order.
package huffman

import (
	"container/heap"
	"sort"

	"golang.org/x/xerrors"
)

const alphabetSize = 256

// ErrInvalidLengths is returned when a decoder is handed a
// code-length table that is not a valid prefix code (e.g. corrupted on
// disk): no symbols present, a length over 32 bits, or more codes than
// the lengths leave room for. A table with unassigned codes is
// rejected only when the bitstream reaches one of them.
var ErrInvalidLengths = xerrors.New("huffman: invalid code-length table")

// ErrTruncatedPayload is returned when the bitstream is exhausted
// before orig bytes have been decoded.
var ErrTruncatedPayload = xerrors.New("huffman: payload exhausted before orig_size symbols decoded")

// Encoded is the result of compressing a chunk: the canonical code
// lengths (verbatim in the on-disk chunk header), the packed
// bitstream, and the original and encoded byte counts.
type Encoded struct {
	Lengths [alphabetSize]uint8
	Payload []byte
	Orig    uint32
	Size    uint32
}

type node struct {
	symbol      byte
	isLeaf      bool
	left, right *node
}

// freqNode is a min-heap element ordered by (freq, seq): seq is a
// monotonically increasing insertion sequence so that symbols enqueued
// first (ascending symbol order for leaves, creation order for
// internal nodes) win ties -- the same FIFO tie-break
// original_source's linked-list priority queue exhibits.
type freqNode struct {
	freq        uint32
	seq         int
	symbol      byte
	left, right *freqNode
}

type freqHeap []*freqNode

func (h freqHeap) Len() int { return len(h) }
func (h freqHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].seq < h[j].seq
}
func (h freqHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *freqHeap) Push(x interface{}) { *h = append(*h, x.(*freqNode)) }
func (h *freqHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Encode compresses buf, producing its canonical code lengths and
// packed bitstream.
func Encode(buf []byte) Encoded {
	var freq [alphabetSize]uint32
	for _, b := range buf {
		freq[b]++
	}

	lengths := buildLengths(&freq)
	_, codes := buildFromLengths(&lengths)

	var bitCount uint32
	for _, b := range buf {
		bitCount += uint32(lengths[b])
	}

	payload := make([]byte, (bitCount+7)/8)
	var curByte byte
	bitPos := 0
	out := 0
	for _, b := range buf {
		code := codes[b]
		l := lengths[b]
		for j := int(l) - 1; j >= 0; j-- {
			if code&(1<<uint(j)) != 0 {
				curByte |= 1 << uint(7-bitPos)
			}
			bitPos++
			if bitPos == 8 {
				payload[out] = curByte
				out++
				curByte = 0
				bitPos = 0
			}
		}
	}
	if bitPos > 0 {
		payload[out] = curByte
	}

	return Encoded{
		Lengths: lengths,
		Payload: payload,
		Orig:    uint32(len(buf)),
		Size:    uint32(len(payload)),
	}
}

// buildLengths runs the standard frequency-weighted Huffman tree
// construction and returns each symbol's code length. A single
// distinct symbol is given length 1, per spec.md §4.E.
func buildLengths(freq *[alphabetSize]uint32) [alphabetSize]uint8 {
	var lengths [alphabetSize]uint8

	h := make(freqHeap, 0, alphabetSize)
	seq := 0
	for sym := 0; sym < alphabetSize; sym++ {
		if freq[sym] == 0 {
			continue
		}
		h = append(h, &freqNode{freq: freq[sym], seq: seq, symbol: byte(sym)})
		seq++
	}
	if len(h) == 0 {
		return lengths
	}
	if len(h) == 1 {
		lengths[h[0].symbol] = 1
		return lengths
	}

	heap.Init(&h)
	for h.Len() > 1 {
		l := heap.Pop(&h).(*freqNode)
		r := heap.Pop(&h).(*freqNode)
		parent := &freqNode{freq: l.freq + r.freq, seq: seq, left: l, right: r}
		seq++
		heap.Push(&h, parent)
	}
	root := h[0]

	var walk func(n *freqNode, depth uint8)
	walk = func(n *freqNode, depth uint8) {
		if n.left == nil && n.right == nil {
			if depth == 0 {
				depth = 1
			}
			lengths[n.symbol] = depth
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(root, 0)

	return lengths
}

// buildFromLengths reconstructs a canonical tree (and, alongside it,
// each symbol's canonical code value) from a code-length table alone.
// It is the single source of truth shared by Encode (to pack bits)
// and Decode (to walk the bitstream), so the two always agree.
//
// Symbols are ordered by (length, symbol) ascending and assigned
// numeric codes by the standard canonical-Huffman increment: the
// first (shortest, lowest-numbered) symbol gets code 0, and each
// subsequent symbol's code is the previous one plus one, shifted left
// by however many bits its length grew. This guarantees a prefix-free
// assignment regardless of which symbol ties for a given length --
// unlike descending an implicit tree in symbol-ID order, which can
// seat a longer code as a child of a shorter code's own leaf when a
// lower-numbered symbol happens to get the shorter length.
func buildFromLengths(lengths *[alphabetSize]uint8) (*node, [alphabetSize]uint32) {
	root := &node{}
	var codes [alphabetSize]uint32

	type symLen struct {
		sym byte
		len uint8
	}
	var present []symLen
	for sym := 0; sym < alphabetSize; sym++ {
		if lengths[sym] != 0 {
			present = append(present, symLen{byte(sym), lengths[sym]})
		}
	}
	sort.Slice(present, func(i, j int) bool {
		if present[i].len != present[j].len {
			return present[i].len < present[j].len
		}
		return present[i].sym < present[j].sym
	})

	var code uint32
	var prevLen uint8
	for i, s := range present {
		if i > 0 {
			code++
			if s.len > prevLen {
				code <<= s.len - prevLen
			}
		}
		codes[s.sym] = code
		prevLen = s.len

		cur := root
		for j := int(s.len) - 1; j >= 0; j-- {
			bit := (code >> uint(j)) & 1
			if j == 0 {
				leaf := &node{symbol: s.sym, isLeaf: true}
				if bit == 0 {
					cur.left = leaf
				} else {
					cur.right = leaf
				}
				continue
			}
			if bit == 0 {
				if cur.left == nil {
					cur.left = &node{}
				}
				cur = cur.left
			} else {
				if cur.right == nil {
					cur.right = &node{}
				}
				cur = cur.right
			}
		}
	}

	return root, codes
}

// Decode expands a chunk's canonical code lengths and packed
// bitstream back into orig bytes.
func Decode(lengths [alphabetSize]uint8, payload []byte, orig uint32) ([]byte, error) {
	if orig == 0 {
		return nil, nil
	}

	var kraft uint64
	for _, l := range lengths {
		if l > 32 {
			return nil, xerrors.Errorf("%w: code length %d", ErrInvalidLengths, l)
		}
		if l != 0 {
			kraft += 1 << (32 - l)
		}
	}
	if kraft > 1<<32 {
		return nil, xerrors.Errorf("%w: over-subscribed code lengths", ErrInvalidLengths)
	}

	root, _ := buildFromLengths(&lengths)
	if root.left == nil && root.right == nil {
		return nil, xerrors.Errorf("%w: no symbols present", ErrInvalidLengths)
	}

	out := make([]byte, 0, orig)
	cur := root
	for _, by := range payload {
		for bit := 7; bit >= 0; bit-- {
			if by&(1<<uint(bit)) == 0 {
				cur = cur.left
			} else {
				cur = cur.right
			}
			if cur == nil {
				return nil, xerrors.Errorf("%w: walked off tree", ErrInvalidLengths)
			}
			if cur.isLeaf {
				out = append(out, cur.symbol)
				cur = root
				if uint32(len(out)) == orig {
					return out, nil
				}
			}
		}
	}

	return nil, xerrors.Errorf("%w", ErrTruncatedPayload)
}
