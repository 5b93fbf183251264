package main

import (
	"errors"

	"github.com/raffaellobertini/bra/internal/archive"
)

// exitCode classifies err per spec.md §6: 0 success, 1 usage/session
// error, 2 SFX-specific I/O error, 3 data error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	switch {
	case errors.Is(err, archive.ErrSFXIO):
		return 2
	case errors.Is(err, archive.ErrBadMagic),
		errors.Is(err, archive.ErrTruncated),
		errors.Is(err, archive.ErrOversizedField),
		errors.Is(err, archive.ErrInvalidCodes),
		errors.Is(err, archive.ErrCrcMismatch),
		errors.Is(err, archive.ErrTooManyEntries):
		return 3
	default:
		return 1
	}
}
