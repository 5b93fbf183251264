package main

import (
	"context"
	"flag"

	"github.com/raffaellobertini/bra/internal/archive"
)

const listHelp = `bra list [-flags] archive

List the contents of an archive.

Example:
  % bra list backup.BRa
`

func cmdList(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("list", flag.ExitOnError)
	fset.Usage = usage(fset, listHelp)
	sfx := fset.Bool("sfx", false, "treat the input as a self-extracting archive")
	fset.Parse(args)

	if fset.NArg() != 1 {
		fset.Usage()
		return errUsage
	}

	var s archive.Session
	return s.List(ctx, fset.Arg(0), *sfx, stderrLogger{verbose: true})
}
