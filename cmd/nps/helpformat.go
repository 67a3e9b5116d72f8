package main

import (
	"fmt"
	"io"
	"os"

	"github.com/ja7ad/nps/pkg/format"
	"github.com/ja7ad/nps/pkg/kernel"
)

// version is reported by --version on both the batch and interactive
// frontends, per spec.md §6's CLI surfaces.
const version = "nps 0.1.0"

// printHelpFormat lists every real (non-alias) property the format
// table knows, the way the original's --help-format flag documents
// valid "-o"/"-O" column names.
func printHelpFormat(w io.Writer) {
	for _, d := range format.Properties {
		if d.AliasOf != "" || d.Name == "_hier" {
			continue
		}
		fmt.Fprintf(w, "%-12s %-10s %s\n", d.Name, d.Heading, d.Description)
	}
}

// invokerIdentity stats this process's own task entry under root to
// learn the effective uid and controlling terminal the batch frontend's
// default selector (spec.md §4.F) matches against.
func invokerIdentity(root string) (euid int64, ttyNr int, err error) {
	pid := os.Getpid()
	st, err := kernel.ReadStat(root, pid)
	if err != nil {
		return 0, 0, err
	}
	status, err := kernel.ReadStatus(root, pid)
	if err != nil {
		return 0, 0, err
	}
	return status.EUid, int(st.TTYNr), nil
}
