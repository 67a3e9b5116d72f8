// Package fatalerr renders the literal "ERROR: ..." message both ps and
// top print to stderr before exiting non-zero on a fatal condition
// (bad format string, unreadable kernel root, unknown property).
package fatalerr

import (
	"fmt"
	"os"
)

// Exit prints "ERROR: <err>" to stderr and exits with status 1. It is
// the single point every CLI entrypoint funnels a fatal error through,
// so the message shape never drifts between ps and top.
func Exit(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
	os.Exit(1)
}
