package chunk

import (
	"io"

	"golang.org/x/xerrors"

	"github.com/raffaellobertini/bra/internal/bwt"
	"github.com/raffaellobertini/bra/internal/crc32c"
	"github.com/raffaellobertini/bra/internal/huffman"
	"github.com/raffaellobertini/bra/internal/mtf"
)

// CompressResult describes a file's content after it has been run
// through the compress path into a scratch sink.
type CompressResult struct {
	// Size is the number of bytes written to the scratch sink (the
	// candidate on-disk COMPRESSED payload size).
	Size int64
	// PayloadCRC is the running CRC-32C folded over (chunk header
	// bytes, then original chunk bytes) for every chunk, in order --
	// the "logical decoded content plus the headers a reader will
	// traverse" spec.md §4.F step 4 requires.
	PayloadCRC uint32
	// PayloadLen is the number of bytes PayloadCRC was computed over:
	// sum of original chunk lengths plus one HeaderSize per chunk.
	// It is the length argument a caller passes to crc32c.Combine.
	PayloadLen int64
}

// CompressToScratch reads exactly length bytes from src in Size-byte
// chunks, runs each through BWT→MTF→Huffman, and writes the chunk
// headers and encoded payloads to scratch. The caller compares the
// returned Size against length to decide STORED vs COMPRESSED (spec.md
// §4.F step 6). CompressToScratch only writes to scratch; reading the
// staged stream back from its start is up to the caller.
func CompressToScratch(scratch io.Writer, src io.Reader, length int64) (CompressResult, error) {
	var res CompressResult
	buf := make([]byte, Size)

	for remaining := length; remaining > 0; {
		n := int64(Size)
		if remaining < n {
			n = remaining
		}
		chunkBuf := buf[:n]
		if _, err := io.ReadFull(src, chunkBuf); err != nil {
			return res, xerrors.Errorf("reading chunk: %w", err)
		}

		transformed, primary := bwt.Encode(chunkBuf)
		transformed = mtf.Encode(transformed)
		enc := huffman.Encode(transformed)

		h := &Header{
			EncodedSize:  enc.Size,
			OrigSize:     enc.Orig,
			CodeLengths:  enc.Lengths,
			PrimaryIndex: primary,
		}
		if err := h.Validate(); err != nil {
			return res, xerrors.Errorf("compressing chunk: %w", err)
		}

		res.PayloadCRC = crcOverHeaderThen(res.PayloadCRC, h, chunkBuf)
		res.PayloadLen += HeaderSize + n

		if err := writeHeader(scratch, h); err != nil {
			return res, err
		}
		if _, err := scratch.Write(enc.Payload); err != nil {
			return res, xerrors.Errorf("writing chunk payload: %w", err)
		}

		res.Size += HeaderSize + int64(len(enc.Payload))
		remaining -= n
	}

	return res, nil
}

// DecompressFile reads a COMPRESSED payload of streamLength bytes from
// src (a sequence of chunk header + Huffman bitstream pairs), decodes
// each chunk back through Huffman→MTF→BWT, writes the decoded bytes to
// dst if dst is non-nil, and folds (chunk header bytes, decoded chunk
// bytes) into entryCRC in order, returning the updated CRC.
func DecompressFile(dst io.Writer, src io.Reader, streamLength int64, entryCRC uint32) (uint32, error) {
	var consumed int64
	for consumed < streamLength {
		h, err := readHeader(src)
		if err != nil {
			return entryCRC, err
		}
		if err := h.Validate(); err != nil {
			return entryCRC, xerrors.Errorf("decompressing chunk: %w", err)
		}

		encoded := make([]byte, h.EncodedSize)
		if _, err := io.ReadFull(src, encoded); err != nil {
			return entryCRC, xerrors.Errorf("reading chunk payload: %w", err)
		}

		transformed, err := huffman.Decode(h.CodeLengths, encoded, h.OrigSize)
		if err != nil {
			return entryCRC, xerrors.Errorf("huffman decode: %w", err)
		}
		if h.PrimaryIndex >= uint32(len(transformed)) {
			return entryCRC, xerrors.Errorf("chunk: %w", bwt.ErrPrimaryOutOfRange)
		}
		transformed = mtf.Decode(transformed)
		decoded, err := bwt.Decode(transformed, h.PrimaryIndex)
		if err != nil {
			return entryCRC, xerrors.Errorf("bwt decode: %w", err)
		}

		entryCRC = crcOverHeaderThen(entryCRC, h, decoded)

		if dst != nil {
			if _, err := dst.Write(decoded); err != nil {
				return entryCRC, xerrors.Errorf("writing decoded chunk: %w", err)
			}
		}

		consumed += HeaderSize + int64(h.EncodedSize)
	}
	return entryCRC, nil
}

// CopyFile performs a plain chunked copy of a STORED payload,
// folding every copied byte into entryCRC.
func CopyFile(dst io.Writer, src io.Reader, length int64, entryCRC uint32) (uint32, error) {
	buf := make([]byte, Size)
	for remaining := length; remaining > 0; {
		n := int64(Size)
		if remaining < n {
			n = remaining
		}
		b := buf[:n]
		if _, err := io.ReadFull(src, b); err != nil {
			return entryCRC, xerrors.Errorf("copying file: %w", err)
		}
		entryCRC = crc32c.Update(entryCRC, b)
		if dst != nil {
			if _, err := dst.Write(b); err != nil {
				return entryCRC, xerrors.Errorf("writing file: %w", err)
			}
		}
		remaining -= n
	}
	return entryCRC, nil
}
