package main

import (
	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/xerrors"

	"github.com/raffaellobertini/bra/internal/pathsan"
)

// expandInputs glob-expands any wildcard-bearing argument with
// doublestar and passes literal paths through unchanged, the Go
// rendition of original_source's bra_wildcards.
func expandInputs(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		if !pathsan.IsWildcard(a) {
			out = append(out, a)
			continue
		}
		matches, err := doublestar.FilepathGlob(a)
		if err != nil {
			return nil, xerrors.Errorf("expanding %q: %w", a, err)
		}
		if len(matches) == 0 {
			return nil, xerrors.Errorf("%q: no matches", a)
		}
		out = append(out, matches...)
	}
	return out, nil
}
