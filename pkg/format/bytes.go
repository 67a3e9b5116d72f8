package format

import (
	"fmt"

	"github.com/ja7ad/nps/pkg/kernel"
)

const (
	kilobyte = 1024
	megabyte = 1024 * kilobyte
	gigabyte = 1024 * megabyte
	terabyte = 1024 * gigabyte
	petabyte = 1024 * terabyte
)

// Bytes renders n as a human-sized string.
//
// ch selects the unit:
//   - 0 means auto-select based on magnitude (and append the unit letter)
//   - a positive unit letter ('K','M','G','T','P','p') means "use exactly
//     this unit, print only the number, no trailing letter"
//   - a negative unit letter means "use this unit and append its letter"
//     (this is the form auto-selection produces internally)
//
// cutoff scales the auto-selection thresholds; 0 is treated as 1, so
// Bytes(1024, 0, 0, 1) == "1K" — the boundary sits exactly at each unit.
func Bytes(n uint64, fieldWidth int, ch rune, cutoff uint) string {
	if ch == 0 {
		if cutoff == 0 {
			cutoff = 1
		}
		c := uint64(cutoff)
		switch {
		case n < kilobyte*c:
			ch = 0
		case n < megabyte*c:
			ch = -'K'
		case n < gigabyte*c:
			ch = -'M'
		case n < terabyte*c:
			ch = -'G'
		case n < petabyte*c:
			ch = -'T'
		default:
			ch = -'P'
		}
	}

	unit := ch
	if unit < 0 {
		unit = -unit
	}
	switch unit {
	case 'K':
		n /= kilobyte
	case 'M':
		n /= megabyte
	case 'G':
		n /= gigabyte
	case 'T':
		n /= terabyte
	case 'P':
		n /= petabyte
	case 'p':
		n /= uint64(PageSize())
	}

	if ch < 0 {
		return fmt.Sprintf("%*d%c", fieldWidth-1, n, -ch)
	}
	return fmt.Sprintf("%*d", fieldWidth, n)
}

// PageSize is overridable so Bytes' 'p' unit can be tested without
// depending on the real system page size; production callers leave it
// at its default, os.Getpagesize via kernel.PageSize.
var PageSize = kernel.PageSize

// ParseByteArg interprets the argument given to a size property
// (e.g. "rss:23=RSS/K") into the unit character ParseByteArg and cutoff
// for Bytes: a leading digit means "auto-select, but scale the
// thresholds by this cutoff"; any other leading character is taken
// literally as the explicit unit; FORMAT_RAW forces 'b' (no scaling)
// regardless of what the caller passed.
func ParseByteArg(arg string, flags Flags) (ch rune, cutoff uint) {
	cutoff = 1
	if flags&FormatRaw != 0 {
		return 'b', cutoff
	}
	if arg == "" {
		return 0, cutoff
	}
	if arg[0] >= '0' && arg[0] <= '9' {
		var v uint
		fmt.Sscanf(arg, "%d", &v)
		return 0, v
	}
	return rune(arg[0]), cutoff
}
