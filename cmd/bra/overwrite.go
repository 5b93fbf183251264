package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/raffaellobertini/bra/internal/archive"
)

// interactiveOverwrite prompts on stdout/stdin for each existing
// extraction target, escalating the shared policy when the user
// chooses "all" or "none". When stdin is not a terminal, Ask is
// escalated straight to AlwaysNo instead of blocking on a prompt no
// one can answer.
func interactiveOverwrite(path string, policy *archive.OverwritePolicy) archive.OverwriteDecision {
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		*policy = archive.AlwaysNo
		return archive.Skip
	}

	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Printf("%s already exists. Overwrite? [y]es/[n]o/[A]ll/[N]one: ", path)
		line, err := reader.ReadString('\n')
		if err != nil {
			*policy = archive.AlwaysNo
			return archive.Skip
		}
		switch strings.TrimSpace(line) {
		case "y", "Y":
			return archive.Overwrite
		case "n", "":
			return archive.Skip
		case "A":
			*policy = archive.AlwaysYes
			return archive.Overwrite
		case "N":
			*policy = archive.AlwaysNo
			return archive.Skip
		}
	}
}
