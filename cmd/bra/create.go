package main

import (
	"context"
	"flag"
	"runtime"

	"github.com/raffaellobertini/bra/internal/archive"
)

const createHelp = `bra create [-flags] (input_file | input_dir)...

Create a new archive from the given files and directories.

Example:
  % bra create -o backup.BRa documents/ notes.txt
  % bra create -sfx -stub bra-stub -o installer.brx payload/
`

func cmdCreate(ctx context.Context, args []string) error {
	fset := flag.NewFlagSet("create", flag.ExitOnError)
	fset.Usage = usage(fset, createHelp)
	output := fset.String("o", "", "output archive path")
	sfx := fset.Bool("sfx", false, "create a self-extracting archive")
	stub := fset.String("stub", "", "path to the sfx stub binary (required with -sfx)")
	recursive := fset.Bool("r", true, "recurse into directories")
	stored := fset.Bool("stored", false, "store files verbatim, skipping BWT/MTF/Huffman compression")
	verbose := fset.Bool("v", false, "log each entry as it is added")
	yes := fset.Bool("y", false, "overwrite an existing output file without asking")
	fset.Parse(args)

	inputs, err := expandInputs(fset.Args())
	if err != nil {
		return err
	}

	output2 := *output
	if output2 == "" {
		if *sfx {
			sfxExt := archive.SFXExt
			if runtime.GOOS == "windows" {
				sfxExt = archive.SFXExtWindows
			}
			output2 = archive.AdjustSFXName("out", sfxExt)
		} else {
			output2 = archive.AdjustArchiveName("out")
		}
	}

	mode := archive.CompressionCompressed
	if *stored {
		mode = archive.CompressionStored
	}

	var overwriteCB archive.OverwriteCallback
	if !*yes {
		overwriteCB = interactiveOverwrite
	}

	opts := archive.CreateOptions{
		SFX:         *sfx,
		StubPath:    *stub,
		Recursive:   *recursive,
		Compression: mode,
		OverwriteCB: overwriteCB,
		Log:         stderrLogger{verbose: *verbose},
	}

	var s archive.Session
	return s.Create(ctx, output2, inputs, opts)
}
