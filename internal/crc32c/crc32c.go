// Package crc32c implements the incremental CRC-32C (Castagnoli)
// checksum used to seal every entry in a bra archive, plus the
// combine operation needed to merge a checksum computed over a
// streamed payload with one computed over the metadata that precedes
// it on disk.
//
// The table-driven update itself is hash/crc32's: on amd64 and arm64
// the standard library already recognizes the Castagnoli polynomial
// and dispatches to the CPU's CRC32 instruction, which is exactly the
// "MAY detect a hardware CRC-32C instruction" allowance this component
// documents -- see DESIGN.md for why no pack dependency improves on
// this.
package crc32c

import "hash/crc32"

var table = crc32.MakeTable(crc32.Castagnoli)

// Update extends prev with bytes and returns the new checksum.
// Update(0, nil) == 0, and Update(Update(0, a), b) == crc of a‖b.
func Update(prev uint32, b []byte) uint32 {
	return crc32.Update(prev, table, b)
}

// Checksum returns the CRC-32C of b alone.
func Checksum(b []byte) uint32 {
	return Update(0, b)
}

// Combine computes the CRC-32C of A‖B given crcA = Update(0, A),
// crcB = Update(0, B) and the length of B, without access to A or B
// themselves. This is required by the chunk pipeline: the per-chunk
// payload CRC is accumulated while the compressed stream is still
// being staged in the scratch sink, before the entry's final
// data_size (and therefore its place in the entry-level CRC) is
// known, so the two partial checksums are combined once both are
// available.
//
// The algorithm treats the CRC update as multiplication by x^(8*lenB)
// in GF(2)[x] modulo the CRC polynomial, computed by repeated squaring
// -- the same technique zlib's crc32_combine uses.
func Combine(crcA, crcB uint32, lenB int64) uint32 {
	if lenB == 0 {
		return crcA
	}

	// gf2MatrixSquare squares a 32x32 GF(2) matrix represented as 32
	// uint32 entries, entry n being the output for input bit n alone.
	gf2MatrixSquare := func(square, mat *[32]uint32) {
		for n := 0; n < 32; n++ {
			square[n] = gf2MatrixTimes(mat, mat[n])
		}
	}

	// even/odd alternately hold the operator that shifts 2^k zero bits
	// into the CRC state, each squaring the other to double the shift.
	var even, odd [32]uint32

	// odd: CRC polynomial matrix for a single zero bit shifted in.
	odd[0] = crcPolyReversed
	row := uint32(1)
	for n := 1; n < 32; n++ {
		odd[n] = row
		row <<= 1
	}

	gf2MatrixSquare(&even, &odd) // even = odd^2: shift by 2 zero bits
	gf2MatrixSquare(&odd, &even) // odd = even^2: shift by 4 zero bits

	crc1, crc2 := crcA, crcB
	n := uint64(lenB)
	for {
		gf2MatrixSquare(&even, &odd)
		if n&1 != 0 {
			crc1 = gf2MatrixTimes(&even, crc1)
		}
		n >>= 1
		if n == 0 {
			break
		}

		gf2MatrixSquare(&odd, &even)
		if n&1 != 0 {
			crc1 = gf2MatrixTimes(&odd, crc1)
		}
		n >>= 1
		if n == 0 {
			break
		}
	}

	return crc1 ^ crc2
}

// crcPolyReversed is the reflected CRC-32C (Castagnoli) polynomial.
const crcPolyReversed = 0x82F63B78

func gf2MatrixTimes(mat *[32]uint32, vec uint32) uint32 {
	var sum uint32
	for n := 0; vec != 0; n++ {
		if vec&1 != 0 {
			sum ^= mat[n]
		}
		vec >>= 1
	}
	return sum
}
