package format

import (
	"fmt"
	"strings"
	"time"
)

// Buffer is a growable output accumulator for rendered task/column text.
// Go's strings.Builder already amortizes growth, so this wraps one
// rather than hand-rolling the original's doubling-buffer; the public
// surface (Printf/Strftime/String/Reset) is kept close to the original
// buffer_* API so callers read the same way.
type Buffer struct {
	b strings.Builder
}

// Printf appends a printf-formatted string.
func (buf *Buffer) Printf(format string, args ...any) {
	fmt.Fprintf(&buf.b, format, args...)
}

// WriteByte appends a single byte.
func (buf *Buffer) WriteByte(c byte) {
	_ = buf.b.WriteByte(c)
}

// WriteString appends s verbatim.
func (buf *Buffer) WriteString(s string) {
	buf.b.WriteString(s)
}

// Strftime appends t formatted per layout, which uses Go's reference-time
// layout syntax rather than C strftime's %-directives — the property
// table's time-formatting entry points (FormatTime/FormatInterval)
// translate the limited strftime subset nps exposes through its own
// format strings before reaching here.
func (buf *Buffer) Strftime(t time.Time, layout string) {
	buf.b.WriteString(t.Format(layout))
}

// String returns the accumulated text.
func (buf *Buffer) String() string {
	return buf.b.String()
}

// Reset empties the buffer for reuse.
func (buf *Buffer) Reset() {
	buf.b.Reset()
}

// Len reports the number of accumulated bytes.
func (buf *Buffer) Len() int {
	return buf.b.Len()
}
