// Command bra creates and extracts BWT/MTF/Huffman archives.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"golang.org/x/xerrors"

	"github.com/raffaellobertini/bra"
)

var errUsage = xerrors.New("usage error")

var debug = flag.Bool("debug", false, "format error messages with additional detail")

func funcmain() error {
	flag.Parse()

	type cmd struct {
		fn func(ctx context.Context, args []string) error
	}
	verbs := map[string]cmd{
		"create":  {cmdCreate},
		"extract": {cmdExtract},
		"list":    {cmdList},
		"test":    {cmdTest},
	}

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "bra [-flags] <command> [-flags] <args>\n")
		fmt.Fprintln(os.Stderr)
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "\tcreate  - create an archive\n")
		fmt.Fprintf(os.Stderr, "\textract - extract an archive\n")
		fmt.Fprintf(os.Stderr, "\tlist    - list an archive's contents\n")
		fmt.Fprintf(os.Stderr, "\ttest    - verify an archive's integrity\n")
		return errUsage
	}
	verb, args := args[0], args[1:]

	v, ok := verbs[verb]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", verb)
		fmt.Fprintf(os.Stderr, "syntax: bra <command> [options]\n")
		return errUsage
	}

	ctx, canc := bra.InterruptibleContext()
	defer canc()

	err := v.fn(ctx, args)
	if err == nil || xerrors.Is(err, errUsage) {
		return err
	}
	return xerrors.Errorf("%s: %w", verb, err)
}

func main() {
	err := funcmain()
	if err != nil && !xerrors.Is(err, errUsage) {
		if *debug {
			fmt.Fprintf(os.Stderr, "%+v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
	os.Exit(exitCode(err))
}
