package archive

import "golang.org/x/xerrors"

// Error kinds named in spec.md §7. Each is a sentinel wrapped with
// %w at the point of detection so callers can classify failures with
// errors.Is regardless of how much context has been layered on top.
var (
	ErrBadMagic       = xerrors.New("bad magic")
	ErrTruncated      = xerrors.New("truncated")
	ErrOversizedField = xerrors.New("oversized field")
	ErrInvalidCodes   = xerrors.New("invalid huffman codes")
	ErrCrcMismatch    = xerrors.New("crc mismatch")
	ErrPathUnsafe     = xerrors.New("path unsafe")
	ErrNameTooLong    = xerrors.New("name too long")
	ErrTooManyEntries = xerrors.New("too many entries")
	ErrUnsupported    = xerrors.New("unsupported entry type")
	ErrUserAbort      = xerrors.New("user abort")

	// ErrSFXIO classifies failures specific to the SFX stub/footer I/O
	// steps of create and the seek to the embedded header when
	// extract/list/test open an SFX file, mapped by the CLI to exit code
	// 2 (spec.md §6) separately from the general session/data error
	// classes above. An SFX footer that fails validation is reported
	// with ErrBadMagic or ErrTruncated instead.
	ErrSFXIO = xerrors.New("sfx i/o error")
)
