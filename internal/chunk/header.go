// Package chunk implements the {BWT→MTF→Huffman} compression pipeline
// and its inverse over self-delimiting 65536-byte chunks, per
// spec.md §4.F. It is grounded on original_source's
// io/lib_bra_io_file_chunks.c (bra_io_file_chunks_compress_file /
// _decompress_file / _copy_file).
package chunk

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"

	"github.com/raffaellobertini/bra/internal/crc32c"
)

// Size is the hard upper bound on a chunk's original and encoded
// length (spec.md §3, invariant 5).
const Size = 65536

// HeaderSize is the fixed, unpadded, little-endian on-disk size of a
// chunk header: encoded_size(4) + orig_size(4) + code_lengths(256) +
// primary_index(4).
const HeaderSize = 4 + 4 + 256 + 4

// ErrOversizedField is returned when a chunk header's encoded_size or
// orig_size field is out of the 1..=65536 bound.
var ErrOversizedField = xerrors.New("chunk: encoded_size/orig_size out of bounds")

// Header is the per-chunk metadata preceding its Huffman bitstream.
type Header struct {
	EncodedSize  uint32
	OrigSize     uint32
	CodeLengths  [256]uint8
	PrimaryIndex uint32
}

// Validate checks the bounds spec.md §4.F step-2 validation requires:
// both sizes must be in 1..=Size.
func (h *Header) Validate() error {
	if h.EncodedSize == 0 || h.EncodedSize > Size {
		return ErrOversizedField
	}
	if h.OrigSize == 0 || h.OrigSize > Size {
		return ErrOversizedField
	}
	return nil
}

// bytes returns the fixed-size, little-endian, unpadded serialization
// of h, used both to write it to disk and to feed it into the running
// CRC-32C in the exact order a reader will later traverse it.
func (h *Header) bytes() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.EncodedSize)
	binary.LittleEndian.PutUint32(b[4:8], h.OrigSize)
	copy(b[8:8+256], h.CodeLengths[:])
	binary.LittleEndian.PutUint32(b[264:268], h.PrimaryIndex)
	return b
}

func (h *Header) unmarshal(b []byte) {
	h.EncodedSize = binary.LittleEndian.Uint32(b[0:4])
	h.OrigSize = binary.LittleEndian.Uint32(b[4:8])
	copy(h.CodeLengths[:], b[8:8+256])
	h.PrimaryIndex = binary.LittleEndian.Uint32(b[264:268])
}

func writeHeader(w io.Writer, h *Header) error {
	if _, err := w.Write(h.bytes()); err != nil {
		return xerrors.Errorf("writing chunk header: %w", err)
	}
	return nil
}

func readHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, xerrors.Errorf("reading chunk header: %w", err)
	}
	h := &Header{}
	h.unmarshal(buf)
	return h, nil
}

// crcOverHeaderThen folds a chunk header, then a payload slice, into a
// running CRC-32C in that serialization order -- the sequencing rule
// spec.md §4.F step 4 mandates.
func crcOverHeaderThen(prev uint32, h *Header, payload []byte) uint32 {
	prev = crc32c.Update(prev, h.bytes())
	return crc32c.Update(prev, payload)
}
