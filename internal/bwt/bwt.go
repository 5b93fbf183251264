// Package bwt implements the forward and inverse Burrows-Wheeler
// Transform over a single chunk of up to 65536 bytes.
//
// The forward transform is grounded on original_source's
// bra_bwt_encode (encoders/bra_bwt.c): form the conceptual matrix of
// cyclic rotations of the input, sort rows lexicographically, and take
// the last column. This implementation sorts rotation start indices
// with a comparator instead of materializing the matrix, the same
// algorithm the reference uses (spec.md §9 explicitly allows a
// comparator-sort as "acceptable as a first implementation" for a
// 64 KiB budget).
package bwt

import (
	"sort"

	"golang.org/x/xerrors"
)

// ErrPrimaryOutOfRange is returned when a chunk header's primary index
// is not a valid row of its own rotation matrix.
var ErrPrimaryOutOfRange = xerrors.New("bwt: primary index out of range")

// Encode returns the BWT of buf together with the primary index: the
// row of the sorted rotation matrix that corresponds to the
// unrotated input.
func Encode(buf []byte) (out []byte, primary uint32) {
	n := len(buf)
	if n == 0 {
		return nil, 0
	}

	rotations := make([]int, n)
	for i := range rotations {
		rotations[i] = i
	}

	sort.Slice(rotations, func(a, b int) bool {
		return less(buf, rotations[a], rotations[b])
	})

	out = make([]byte, n)
	for i, start := range rotations {
		out[i] = buf[(start+n-1)%n]
		if start == 0 {
			primary = uint32(i)
		}
	}
	return out, primary
}

// less reports whether the cyclic rotation of buf starting at a sorts
// before the one starting at b.
func less(buf []byte, a, b int) bool {
	n := len(buf)
	for i := 0; i < n; i++ {
		ba := buf[(a+i)%n]
		bb := buf[(b+i)%n]
		if ba != bb {
			return ba < bb
		}
	}
	return false
}

// Decode reconstructs the original n-byte buffer from its BWT and
// primary index, using the standard first-column/last-column
// construction: count symbol frequencies, derive first-occurrence
// cumulative offsets, build the LF-mapping, then follow it from
// primary for n steps.
func Decode(buf []byte, primary uint32) ([]byte, error) {
	n := len(buf)
	if n == 0 {
		return nil, nil
	}
	if int(primary) >= n {
		return nil, ErrPrimaryOutOfRange
	}

	var count [256]int
	for _, b := range buf {
		count[b]++
	}

	var firstOccurrence [256]int
	sum := 0
	for i := 0; i < 256; i++ {
		firstOccurrence[i] = sum
		sum += count[i]
	}

	transform := make([]int, n)
	next := firstOccurrence
	for i, b := range buf {
		transform[next[b]] = i
		next[b]++
	}

	out := make([]byte, n)
	idx := int(primary)
	for i := 0; i < n; i++ {
		idx = transform[idx]
		out[i] = buf[idx]
	}
	return out, nil
}
