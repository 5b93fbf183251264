package main

import (
	"context"
	"flag"

	"github.com/raffaellobertini/bra/internal/archive"
)

const testHelp = `bra test [-flags] archive

Verify every entry's CRC-32C without writing any output.

Example:
  % bra test backup.BRa
`

func cmdTest(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("test", flag.ExitOnError)
	fset.Usage = usage(fset, testHelp)
	sfx := fset.Bool("sfx", false, "treat the input as a self-extracting archive")
	verbose := fset.Bool("v", false, "log each entry as it is verified")
	fset.Parse(args)

	if fset.NArg() != 1 {
		fset.Usage()
		return errUsage
	}

	var s archive.Session
	return s.Test(ctx, fset.Arg(0), *sfx, stderrLogger{verbose: *verbose})
}
