// Package pathsan normalizes and validates paths supplied by a caller
// before they are allowed to enter an archive or leave an extraction
// directory. It is the Go rendition of original_source's bra::fs
// try_sanitize: reject traversal and absolutes, express directory
// nesting with forward slashes only.
package pathsan

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/xerrors"
)

// MaxNameBytes is the largest serialized UTF-8 path a single archive
// entry can carry (spec: name_size is a single byte, 1..=255).
const MaxNameBytes = 255

var (
	// ErrAbsolute is returned when the caller supplies an absolute path
	// or one carrying a drive/root specifier.
	ErrAbsolute = xerrors.New("path is absolute")
	// ErrTraversal is returned when a normalized path contains a ".."
	// component.
	ErrTraversal = xerrors.New("path escapes its root via \"..\"")
	// ErrEscapesRoot is returned when the absolute form of a path is not
	// a descendant of the working directory.
	ErrEscapesRoot = xerrors.New("path escapes the working directory")
	// ErrNameTooLong is returned when the serialized name exceeds
	// MaxNameBytes.
	ErrNameTooLong = xerrors.New("name exceeds 255 bytes")
	// ErrEmpty is returned when sanitizing yields the empty path.
	ErrEmpty = xerrors.New("path is empty after normalization")
)

// IsWildcard reports whether p contains a '*' or '?' glob
// metacharacter; other glob syntax such as '[' is not detected.
// The core never expands globs itself -- a CLI collaborator does that,
// using the result of this helper to decide between glob-expansion and
// a literal sanitize of a single path.
func IsWildcard(p string) bool {
	return strings.ContainsAny(p, "?*")
}

// Sanitize cleans a caller-supplied path and validates that it is
// rooted within wd (normally the process's working directory). It
// returns the cleaned path using forward slashes as the canonical
// separator, suitable for direct use as a serialized entry name or
// directory-tree path.
func Sanitize(wd, p string) (string, error) {
	if filepath.IsAbs(p) || hasDriveLetter(p) {
		return "", xerrors.Errorf("%q: %w", p, ErrAbsolute)
	}

	abs, err := filepath.Abs(filepath.Join(wd, p))
	if err != nil {
		return "", xerrors.Errorf("resolving %q: %w", p, err)
	}
	absWD, err := filepath.Abs(wd)
	if err != nil {
		return "", xerrors.Errorf("resolving working directory: %w", err)
	}

	rel, err := filepath.Rel(absWD, abs)
	if err != nil {
		return "", xerrors.Errorf("relativizing %q: %w", p, err)
	}
	rel = filepath.ToSlash(rel)

	for _, comp := range strings.Split(rel, "/") {
		if comp == ".." {
			return "", xerrors.Errorf("%q: %w", p, ErrTraversal)
		}
	}

	if rel == "" || rel == "." {
		return "", xerrors.Errorf("%q: %w", p, ErrEmpty)
	}
	if strings.HasPrefix(rel, "/") || hasDriveLetter(rel) {
		return "", xerrors.Errorf("%q: %w", p, ErrAbsolute)
	}
	if !strings.HasPrefix(abs, absWD+string(filepath.Separator)) && abs != absWD {
		return "", xerrors.Errorf("%q: %w", p, ErrEscapesRoot)
	}
	if len(rel) > MaxNameBytes {
		return "", xerrors.Errorf("%q: %w", p, ErrNameTooLong)
	}

	return rel, nil
}

// SanitizeComponent validates a single path component (one name field
// of a DIR/SUBDIR/FILE entry): it rejects an empty name, a name
// containing '/' or '\', and a name longer than MaxNameBytes.
func SanitizeComponent(name string) error {
	if name == "" || strings.ContainsAny(name, "/\\") {
		return xerrors.Errorf("%q: invalid path component", name)
	}
	if len(name) > MaxNameBytes {
		return xerrors.Errorf("%q: %w", name, ErrNameTooLong)
	}
	return nil
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' && isASCIILetter(p[0])
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// Exists reports whether a path exists on disk, surfacing I/O errors
// other than "not found".
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, xerrors.Errorf("stat %q: %w", path, err)
}
