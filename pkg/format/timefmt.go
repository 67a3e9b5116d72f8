package format

import "time"

// FormatTime renders an absolute timestamp the way the stime property
// does: a caller-supplied format (interpreted as a Go reference-time
// layout here, since this is a from-scratch Go port rather than a
// strftime binding) takes precedence; with FormatRaw it is always a
// decimal second count; otherwise the rendering narrows by how much
// room is available and how far `when` is from `now`:
//
//   - ISO (2006-01-02T15:04:05) if it fits columnSize
//   - same calendar day as now: "15:04:05", or "15:04" if that's still
//     too wide
//   - otherwise "2006-01-02", or "01-02" if `when` is this year and
//     the full form doesn't fit
//
// columnSize of 0 means "no width constraint" (treated as unbounded).
func FormatTime(when, now time.Time, columnSize int, format string, flags Flags) string {
	if flags&FormatRaw != 0 {
		return itoa64(when.Unix())
	}
	if format != "" {
		return when.Format(format)
	}

	fits := func(layout string) bool {
		return columnSize == 0 || len(when.Format(layout)) <= columnSize
	}

	const iso = "2006-01-02T15:04:05"
	if fits(iso) {
		return when.Format(iso)
	}

	sameDay := when.Year() == now.Year() && when.YearDay() == now.YearDay()
	if sameDay {
		if fits("15:04:05") {
			return when.Format("15:04:05")
		}
		return when.Format("15:04")
	}

	const ymd = "2006-01-02"
	if fits(ymd) {
		return when.Format(ymd)
	}
	if when.Year() == now.Year() {
		return when.Format("01-02")
	}
	return when.Format(ymd)
}

// FormatInterval renders a duration (the etime/time properties): a
// caller-supplied StrfElapsed-style format string takes precedence;
// FormatRaw always yields a decimal second count; otherwise
// "[[D-]HH:]MM:SS" is used (alwaysHours keeps the HH: part even under an
// hour), falling back to "DdHH", "HHhMM" or "MMmSS" when the canonical
// form would not fit columnSize.
func FormatInterval(seconds int64, alwaysHours bool, columnSize int, format string, flags Flags) string {
	if flags&FormatRaw != 0 {
		return itoa64(seconds)
	}
	if format != "" {
		return StrfElapsed(format, seconds)
	}

	days := seconds / 86400
	full := "%d-%02H:%02M:%02S"
	if days == 0 {
		full = "%02H:%02M:%02S"
		if !alwaysHours && seconds/3600 == 0 {
			full = "%02M:%02S"
		}
	}
	rendered := StrfElapsed(full, seconds)
	if columnSize == 0 || len(rendered) <= columnSize {
		return rendered
	}

	switch {
	case days > 0:
		return StrfElapsed("%dd%02H", seconds)
	case seconds/3600 > 0:
		return StrfElapsed("%hh%02M", seconds)
	default:
		return StrfElapsed("%mm%02S", seconds)
	}
}

func itoa64(v int64) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
