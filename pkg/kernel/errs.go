package kernel

import "errors"

var (
	// ErrMalformed indicates a kernel export file was present but its
	// contents did not match the documented layout.
	ErrMalformed = errors.New("kernel: malformed export")

	// ErrNotSupported indicates the running kernel does not expose an
	// optional interface (e.g. smaps_rollup before Linux 4.14).
	ErrNotSupported = errors.New("kernel: interface not supported")
)
