package main

import (
	"context"
	"flag"

	"github.com/raffaellobertini/bra/internal/archive"
)

const extractHelp = `bra extract [-flags] archive

Extract an archive into the output directory.

Example:
  % bra extract backup.BRa
  % bra extract -o /tmp/restore -sfx installer.brx
`

func cmdExtract(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("extract", flag.ExitOnError)
	fset.Usage = usage(fset, extractHelp)
	outputDir := fset.String("o", ".", "directory to extract into")
	sfx := fset.Bool("sfx", false, "treat the input as a self-extracting archive")
	verbose := fset.Bool("v", false, "log each entry as it is extracted")
	yes := fset.Bool("y", false, "overwrite existing files without asking")
	fset.Parse(args)

	if fset.NArg() != 1 {
		fset.Usage()
		return errUsage
	}

	var overwriteCB archive.OverwriteCallback
	if !*yes {
		overwriteCB = interactiveOverwrite
	}

	opts := archive.ExtractOptions{
		OverwriteCB: overwriteCB,
		Log:         stderrLogger{verbose: *verbose},
	}

	var s archive.Session
	return s.Extract(ctx, fset.Arg(0), *sfx, *outputDir, opts)
}
