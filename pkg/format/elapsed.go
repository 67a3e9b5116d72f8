package format

import "strings"

// StrfElapsed renders seconds per format, a small directive language for
// elapsed-time display: "%[0][width][.precision][?][+follower]<conv>"
// where conv is one of:
//
//	%  a literal percent
//	d  whole days           h  whole hours        H  hours within the day
//	m  whole minutes        M  minutes within the hour
//	S  seconds within the minute
//	s  whole seconds
//
// A leading '0' after '%' requests zero-fill instead of space-fill. A
// '?' before the conversion suppresses the ENTIRE directive — value,
// sign, padding and follower alike — when the computed value is zero,
// which is how etime/time render "empty" higher-order fields. A
// '+<char>' appends a literal follower character after the value
// unless the directive was itself suppressed.
func StrfElapsed(format string, seconds int64) string {
	var out strings.Builder
	i := 0
	for i < len(format) {
		c := format[i]
		i++
		if c != '%' {
			out.WriteByte(c)
			continue
		}

		fill := byte(' ')
		width := 0
		digits := 1
		hasPrecision := false
		skipZero := false
		var follower byte

		if i < len(format) && format[i] == '0' {
			fill = '0'
		}
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			width = width*10 + int(format[i]-'0')
			i++
		}
		if i < len(format) && format[i] == '.' {
			i++
			hasPrecision = true
			digits = 0
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				digits = digits*10 + int(format[i]-'0')
				i++
			}
		}
		_ = hasPrecision
		if i < len(format) && format[i] == '?' {
			skipZero = true
			i++
		}
		if i < len(format) && format[i] == '+' {
			i++
			if i < len(format) {
				follower = format[i]
				i++
			}
		}
		if i >= len(format) {
			break
		}
		conv := format[i]
		i++

		var value int64
		switch conv {
		case '%':
			out.WriteByte('%')
			continue
		case 'd':
			value = seconds / 86400
		case 'h':
			value = seconds / 3600
		case 'H':
			value = (seconds % 86400) / 3600
		case 'm':
			value = seconds / 60
		case 'M':
			value = (seconds % 3600) / 60
		case 'S':
			value = seconds % 60
		case 's':
			value = seconds
		default:
			continue // unknown conversion: emit nothing, like the original
		}

		if value == 0 && skipZero {
			continue
		}

		var sign byte
		var uvalue uint64
		if value < 0 {
			sign = '-'
			uvalue = uint64(-value)
		} else {
			uvalue = uint64(value)
		}

		digitsBuf := formatDigits(uvalue)
		extra := 0
		if len(digitsBuf) < digits {
			extra = digits - len(digitsBuf)
		}
		n := len(digitsBuf) + extra
		if sign != 0 {
			n++
		}

		if fill != '0' {
			for ; n < width; n++ {
				out.WriteByte(fill)
			}
		}
		if sign != 0 {
			out.WriteByte('-')
		}
		for ; n < width; n++ {
			out.WriteByte(fill)
		}
		for k := 0; k < extra; k++ {
			out.WriteByte('0')
		}
		out.WriteString(digitsBuf)
		if follower != 0 {
			out.WriteByte(follower)
		}
	}
	return out.String()
}

// formatDigits renders v in decimal with no leading zeros and, per the
// original's digit generator, produces an EMPTY string for v == 0 — the
// minimum digit count is enforced separately via the precision ("extra
// digits") mechanism in StrfElapsed, not by this function.
func formatDigits(v uint64) string {
	if v == 0 {
		return ""
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
