package archive

import (
	"encoding/binary"
	"io"

	"golang.org/x/xerrors"

	"github.com/raffaellobertini/bra/internal/crc32c"
	"github.com/raffaellobertini/bra/internal/dirtree"
	"github.com/raffaellobertini/bra/internal/pathsan"
)

// Type is the 2-bit entry type carried in bits 0-1 of attributes.
type Type uint8

const (
	TypeFile Type = iota
	TypeDir
	TypeSymlink
	TypeSubdir
)

// Compression is the 2-bit compression method carried in bits 2-3 of
// attributes.
type Compression uint8

const (
	CompStored Compression = iota
	CompCompressed
)

// Attributes packs a Type and Compression into the single on-disk
// attributes byte; all other bits are reserved zero.
func Attributes(t Type, c Compression) byte {
	return byte(t&0x3) | byte(c&0x3)<<2
}

// AttrType extracts the entry Type from an attributes byte.
func AttrType(attr byte) Type { return Type(attr & 0x3) }

// AttrComp extracts the Compression method from an attributes byte.
func AttrComp(attr byte) Compression { return Compression((attr >> 2) & 0x3) }

// WithComp returns attr with its compression bits replaced by c,
// leaving the type bits untouched.
func WithComp(attr byte, c Compression) byte {
	return (attr &^ (0x3 << 2)) | byte(c&0x3)<<2
}

// WriteCommonPrefix writes the attributes byte, name_size, and name
// bytes shared by every entry type, and returns the running CRC-32C
// seeded over exactly those bytes -- the basis every entry's trailing
// CRC is built on.
func WriteCommonPrefix(dst io.Writer, attr byte, name string) (uint32, error) {
	if len(name) == 0 || len(name) > pathsan.MaxNameBytes {
		return 0, xerrors.Errorf("%q: %w", name, ErrNameTooLong)
	}
	buf := make([]byte, 2+len(name))
	buf[0] = attr
	buf[1] = byte(len(name))
	copy(buf[2:], name)
	if _, err := dst.Write(buf); err != nil {
		return 0, xerrors.Errorf("writing entry prefix: %w", err)
	}
	return crc32c.Checksum(buf), nil
}

// ReadCommonPrefix reads the attributes byte, name_size, and name
// bytes of the next entry in src, and returns the same running CRC-32C
// WriteCommonPrefix would have produced.
func ReadCommonPrefix(src io.Reader) (attr byte, name string, crc uint32, err error) {
	var head [2]byte
	if _, err = io.ReadFull(src, head[:]); err != nil {
		return 0, "", 0, xerrors.Errorf("reading entry prefix: %w", err)
	}
	attr = head[0]
	nameSize := int(head[1])
	if nameSize == 0 {
		return 0, "", 0, xerrors.Errorf("name_size 0: %w", ErrTruncated)
	}
	nameBuf := make([]byte, nameSize)
	if _, err = io.ReadFull(src, nameBuf); err != nil {
		return 0, "", 0, xerrors.Errorf("reading entry name: %w", err)
	}
	all := append(head[:], nameBuf...)
	return attr, string(nameBuf), crc32c.Checksum(all), nil
}

// WriteFileTail writes a FILE entry's data_size field and folds it
// into crc.
func WriteFileTail(dst io.Writer, crc uint32, dataSize uint64) (uint32, error) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], dataSize)
	if _, err := dst.Write(buf[:]); err != nil {
		return crc, xerrors.Errorf("writing data_size: %w", err)
	}
	return crc32c.Update(crc, buf[:]), nil
}

// ReadFileTail reads a FILE entry's data_size field and folds it into
// crc.
func ReadFileTail(src io.Reader, crc uint32) (dataSize uint64, newCRC uint32, err error) {
	var buf [8]byte
	if _, err = io.ReadFull(src, buf[:]); err != nil {
		return 0, crc, xerrors.Errorf("reading data_size: %w", err)
	}
	return binary.LittleEndian.Uint64(buf[:]), crc32c.Update(crc, buf[:]), nil
}

// WriteSubdirTail writes a SUBDIR entry's parent_index field and folds
// it into crc.
func WriteSubdirTail(dst io.Writer, crc uint32, parentIndex uint32) (uint32, error) {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], parentIndex)
	if _, err := dst.Write(buf[:]); err != nil {
		return crc, xerrors.Errorf("writing parent_index: %w", err)
	}
	return crc32c.Update(crc, buf[:]), nil
}

// ReadSubdirTail reads a SUBDIR entry's parent_index field and folds
// it into crc.
func ReadSubdirTail(src io.Reader, crc uint32) (parentIndex uint32, newCRC uint32, err error) {
	var buf [4]byte
	if _, err = io.ReadFull(src, buf[:]); err != nil {
		return 0, crc, xerrors.Errorf("reading parent_index: %w", err)
	}
	return binary.LittleEndian.Uint32(buf[:]), crc32c.Update(crc, buf[:]), nil
}

// WriteTrailingCRC writes the final 4-byte CRC-32C that seals an
// entry.
func WriteTrailingCRC(dst io.Writer, crc uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], crc)
	if _, err := dst.Write(buf[:]); err != nil {
		return xerrors.Errorf("writing entry crc: %w", err)
	}
	return nil
}

// ReadAndVerifyCRC reads the trailing 4-byte CRC-32C and reports
// whether it matches the accumulated want value.
func ReadAndVerifyCRC(src io.Reader, want uint32) error {
	got, err := ReadTrailingCRC(src)
	if err != nil {
		return err
	}
	if got != want {
		return xerrors.Errorf("stored %#x computed %#x: %w", got, want, ErrCrcMismatch)
	}
	return nil
}

// ReadTrailingCRC reads an entry's trailing 4-byte CRC-32C without
// comparing it to anything -- used by list mode, which never reads an
// entry's payload and so cannot recompute the CRC a FILE entry's
// trailing bytes actually cover.
func ReadTrailingCRC(src io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(src, buf[:]); err != nil {
		return 0, xerrors.Errorf("reading entry crc: %w", err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// Entry is a parsed entry header: the common prefix plus its
// type-specific tail, with the running CRC-32C accumulated up to (but
// not including) the payload. The payload itself, when present, is
// handled separately by the caller via the chunk pipeline.
type Entry struct {
	Attr     byte
	Type     Type
	Comp     Compression
	Name     string
	DataSize uint64 // valid for Type == TypeFile
	Parent   uint32 // valid for Type == TypeSubdir
	CRC      uint32
}

// ReadEntry reads the next entry's common prefix and type-specific
// tail from src. For TypeDir and TypeSubdir it also materializes the
// corresponding node in tree (TypeDir under root, TypeSubdir under its
// declared parent) and returns it; for TypeFile and TypeSymlink the
// returned node is nil, since FILE entries attach to whichever
// directory node most recently preceded them in the archive (spec.md
// §3 invariant 3) and SYMLINK is rejected outright.
func ReadEntry(src io.Reader, tree *dirtree.Tree) (Entry, *dirtree.Node, error) {
	attr, name, crc, err := ReadCommonPrefix(src)
	if err != nil {
		return Entry{}, nil, err
	}
	e := Entry{Attr: attr, Type: AttrType(attr), Comp: AttrComp(attr), Name: name, CRC: crc}

	switch e.Type {
	case TypeFile:
		e.DataSize, e.CRC, err = ReadFileTail(src, crc)
		if err != nil {
			return e, nil, err
		}
		return e, nil, nil

	case TypeDir:
		return e, tree.Insert([]string{name}), nil

	case TypeSubdir:
		e.Parent, e.CRC, err = ReadSubdirTail(src, crc)
		if err != nil {
			return e, nil, err
		}
		node, err := tree.InsertAtParent(e.Parent, name)
		if err != nil {
			return e, nil, xerrors.Errorf("subdir %q: %w", name, err)
		}
		return e, node, nil

	default:
		return e, nil, xerrors.Errorf("%q: %w", name, ErrUnsupported)
	}
}
