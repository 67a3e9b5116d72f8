// Package render holds top's terminal plumbing: raw-mode key reading
// and viewport sizing, kept separate from the rendering logic in
// pkg/format/pkg/sysinfo so that logic stays testable without a real
// tty.
package render

import (
	"os"

	"golang.org/x/term"
)

// Size returns the current terminal's rows and columns, falling back to
// a conservative 24x80 when stdout is not a terminal (piped output,
// redirected to a file) or the ioctl fails.
func Size() (rows, cols int) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return 24, 80
	}
	w, h, err := term.GetSize(fd)
	if err != nil || w <= 0 || h <= 0 {
		return 24, 80
	}
	return h, w
}

// RawMode puts stdin into raw mode for the duration of top's
// interactive key loop, returning a restore function the caller defers
// immediately. It is a no-op pair on a non-terminal stdin.
func RawMode() (restore func(), err error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, nil
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}, err
	}
	return func() { _ = term.Restore(fd, state) }, nil
}

// ReadKey reads a single byte from stdin, the unit the interactive key
// loop (q to quit, space to refresh, etc.) dispatches on.
func ReadKey(stdin *os.File) (byte, error) {
	var buf [1]byte
	_, err := stdin.Read(buf[:])
	return buf[0], err
}
