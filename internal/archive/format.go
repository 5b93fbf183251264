// Package archive implements the bra container format: the header,
// footer, and per-entry metadata described in spec.md §3, the chunked
// compression pipeline's wiring into entries, and the top-level
// create/extract/list/test session that drives all of it.
//
// Grounded on original_source's src/io (lib_bra_io_file_ctx.c,
// lib_bra_io_file_meta_entries.c) for the on-disk layout, and on the
// teacher's internal/squashfs for the Go shape of a binary-format
// reader/writer pair (binary.Write/Read over packed little-endian
// structs, a Writer that owns an io.WriteSeeker and builds up
// directory/file state as the caller calls methods on it).
package archive

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"
)

// HeaderMagic is the 4-byte signature "BR-a" at the start of every
// archive.
const HeaderMagic uint32 = 0x612D5242

// FooterMagic is the 4-byte signature "BR-x" of an SFX footer.
const FooterMagic uint32 = 0x782D5242

// HeaderSize is the fixed on-disk size of a Header.
const HeaderSize = 8

// FooterSize is the fixed on-disk size of a Footer.
const FooterSize = 12

// Header is the 8-byte record at the start of every archive (or, for
// an SFX file, at header_offset).
type Header struct {
	NumFiles uint32
}

// WriteHeader serializes h to w.
func WriteHeader(w io.Writer, h Header) error {
	var buf [HeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], HeaderMagic)
	binary.LittleEndian.PutUint32(buf[4:8], h.NumFiles)
	if _, err := w.Write(buf[:]); err != nil {
		return xerrors.Errorf("writing header: %w", err)
	}
	return nil
}

// ReadHeader reads and validates a Header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [HeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, xerrors.Errorf("reading header: %w", err)
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != HeaderMagic {
		return Header{}, xerrors.Errorf("got %#x: %w", magic, ErrBadMagic)
	}
	return Header{NumFiles: binary.LittleEndian.Uint32(buf[4:8])}, nil
}

// Footer is the 12-byte trailer an SFX archive carries at the very
// end of the host file, locating the embedded Header.
type Footer struct {
	HeaderOffset int64
}

// WriteFooter serializes f to w.
func WriteFooter(w io.Writer, f Footer) error {
	var buf [FooterSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], FooterMagic)
	binary.LittleEndian.PutUint64(buf[4:12], uint64(f.HeaderOffset))
	if _, err := w.Write(buf[:]); err != nil {
		return xerrors.Errorf("writing footer: %w", err)
	}
	return nil
}

// ReadFooter reads and validates the trailing Footer of an SFX file
// whose total size is fileSize. It requires header_offset > 0 and
// enough room between the header and the footer for at least an empty
// Header.
func ReadFooter(r io.ReaderAt, fileSize int64) (Footer, error) {
	if fileSize < FooterSize {
		return Footer{}, xerrors.Errorf("file size %d: %w", fileSize, ErrTruncated)
	}
	buf := make([]byte, FooterSize)
	if _, err := r.ReadAt(buf, fileSize-FooterSize); err != nil {
		return Footer{}, xerrors.Errorf("reading footer: %w", err)
	}
	magic := binary.LittleEndian.Uint32(buf[0:4])
	if magic != FooterMagic {
		return Footer{}, xerrors.Errorf("got %#x: %w", magic, ErrBadMagic)
	}
	offset := int64(binary.LittleEndian.Uint64(buf[4:12]))
	if offset <= 0 || offset+HeaderSize > fileSize-FooterSize {
		return Footer{}, xerrors.Errorf("header_offset %d (file size %d): %w", offset, fileSize, ErrTruncated)
	}
	return Footer{HeaderOffset: offset}, nil
}
