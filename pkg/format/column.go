package format

import (
	"strings"
	"sync"
)

// ringDepth is the anti-wobble window (module I, invariant 6): a
// column's rendered width is the maximum observed over the last
// ringDepth refreshes, so one oversized value widens the column
// immediately but the column only narrows again once every sample in
// the window has aged past that value. This trades a little extra
// width for not making every column visibly resize on almost every
// screen refresh.
const ringDepth = 16

// widthRing tracks one column's last ringDepth observed widths and
// reports their maximum. It is intentionally a fixed small ring rather
// than an expiring map: columns are addressed by position, there are
// never more than a few dozen of them, and the fixed array avoids any
// allocation on the hot per-refresh path.
type widthRing struct {
	samples [ringDepth]int
	next    int
	filled  int
}

// Observe records w and returns the ring's current maximum, inflating
// immediately and only deflating once w ages out of the window.
func (r *widthRing) Observe(w int) int {
	r.samples[r.next] = w
	r.next = (r.next + 1) % ringDepth
	if r.filled < ringDepth {
		r.filled++
	}
	max := 0
	for i := 0; i < r.filled; i++ {
		if r.samples[i] > max {
			max = r.samples[i]
		}
	}
	return max
}

// Column is one resolved "-o"/RC-format column: a property, its
// display heading, sort direction and optional explicit width/arg
// overrides.
type Column struct {
	Property *Descriptor
	Heading  string
	Width    int // 0 means "size via the anti-wobble ring"
	Fixed    bool
	Arg      string
	Sign     int // order direction: -1 descending, 0/+1 ascending

	ring widthRing
}

// ParseFormat splits a format string into elements per dialect (split
// on every comma and space before element parsing, for Argument;
// comma-or-space separated and self-delimiting for Quoted) and resolves
// each into a Column. Dialect is supplied by the caller,
// never inferred, per spec.md's design note that the two-dialect
// distinction is a property of the call site.
func ParseFormat(s string, dialect Dialect) ([]*Column, error) {
	var elems []Element
	switch dialect {
	case Argument:
		for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == ' ' || r == ',' }) {
			e, err := ParseElement(tok, Argument)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
	default:
		i := 0
		for i < len(s) {
			for i < len(s) && (s[i] == ' ' || s[i] == ',') {
				i++
			}
			if i >= len(s) {
				break
			}
			e, err := ParseElement(s[i:], Quoted)
			if err != nil {
				return nil, err
			}
			if e.Consumed == 0 {
				break
			}
			i += e.Consumed
			elems = append(elems, e)
		}
	}

	cols := make([]*Column, 0, len(elems))
	for _, e := range elems {
		d, err := Lookup(e.Name)
		if err != nil {
			return nil, err
		}
		heading := d.Heading
		if e.HasHeading {
			heading = e.Heading
		}
		col := &Column{Property: d, Heading: heading, Sign: e.Sign, Arg: e.Arg}
		if e.HasSize {
			col.Width = e.Size
			col.Fixed = true
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// width returns the column's rendered width for one refresh, given the
// formatted text about to be displayed in it: fixed-width columns never
// change; auto-width columns run the text width (floored at the
// heading's width) through the anti-wobble ring.
func (c *Column) width(text string) int {
	if c.Fixed {
		return c.Width
	}
	w := len(text)
	if len(c.Heading) > w {
		w = len(c.Heading)
	}
	return c.ring.Observe(w)
}

// RenderHeading renders the column header row for cols. A column whose
// heading override is the empty string still occupies its slot (as
// spaces), but the whole heading line is suppressed when every column's
// heading is empty. The last column is never padded to its width.
func RenderHeading(cols []*Column) string {
	allEmpty := true
	for _, c := range cols {
		if c.Heading != "" {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return ""
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		w := c.Width
		if !c.Fixed {
			w = c.ring.Observe(len(c.Heading))
		}
		if i == len(cols)-1 {
			parts[i] = c.Heading
		} else {
			parts[i] = padLeft(c.Heading, w)
		}
	}
	return strings.Join(parts, " ")
}

func padLeft(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

// RenderRow formats one Fields row across cols, using each column's
// current anti-wobble width, and returns the rendered line. The last
// column is emitted unpadded, per spec: nothing trails the final value.
func RenderRow(cols []*Column, flags Flags, row Fields) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		v := c.Property.Fetch(row)
		unsized := c.Property.Format(v, 0, c.Arg, flags)
		w := c.width(strings.TrimLeft(unsized, " "))
		cell := c.Property.Format(v, w, c.Arg, flags)
		if i == len(cols)-1 {
			cell = strings.TrimRight(cell, " ")
		}
		parts[i] = cell
	}
	return strings.Join(parts, " ")
}

// SortKey is one column in a multi-key sort order, resolved from an
// order string the same way a display format string is, but only Sign
// and Property matter for ordering: Heading/Width/Arg are irrelevant.
type SortKey struct {
	Property *Descriptor
	Sign     int
}

// ParseOrder parses an order string (spec.md module I's "set_order")
// into a multi-key SortKey list using the same element grammar as
// ParseFormat, ignoring any heading/width/arg suffix a key happens to
// carry.
func ParseOrder(s string, dialect Dialect) ([]SortKey, error) {
	cols, err := ParseFormat(s, dialect)
	if err != nil {
		return nil, err
	}
	keys := make([]SortKey, len(cols))
	for i, c := range cols {
		keys[i] = SortKey{Property: c.Property, Sign: c.Sign}
	}
	return keys, nil
}

// Sort orders rows in place by keys, falling back through ties in key
// order. A key naming the "_hier" pseudo-property (Property.Name ==
// "_hier", Fetch == nil) cannot be resolved from two Fields in
// isolation — it needs the full ancestry graph — so callers building a
// hierarchical view must special-case it themselves (pkg/task's
// Snapshot owns that graph) rather than calling Sort with such a key
// present.
// pidTidTail is the mandatory tail of every sort order: ties in the
// caller-supplied keys break on (pid, tid) ascending, and since tid == -1
// denotes "the whole process" it naturally sorts before any non-negative
// thread tid under plain ascending numeric comparison. Resolved lazily
// (rather than as a package-level var initializer) since it depends on
// properties.go's byName map, which is only built by that package's own
// init() — and package-level var initializers all run before any init().
var (
	pidTidTailOnce sync.Once
	pidTidTail     []SortKey
)

func mustLookup(name string) *Descriptor {
	d, err := Lookup(name)
	if err != nil {
		panic(err)
	}
	return d
}

func Sort(rows []Fields, keys []SortKey) {
	pidTidTailOnce.Do(func() {
		pidTidTail = []SortKey{
			{Property: mustLookup("pid"), Sign: 1},
			{Property: mustLookup("tid"), Sign: 1},
		}
	})
	all := make([]SortKey, 0, len(keys)+len(pidTidTail))
	all = append(all, keys...)
	all = append(all, pidTidTail...)
	less := func(i, j int) bool {
		for _, k := range all {
			c := Compare(k.Property, rows[i], rows[j])
			if k.Sign < 0 {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	}
	insertionSort(rows, less)
}

// insertionSort is a stable sort used instead of sort.Slice. Sort always
// appends the (pid, tid) tail, so rows that tie on the caller's keys come
// out in pid/tid order; only rows equal on pid and tid as well keep
// their input order.
func insertionSort(rows []Fields, less func(i, j int) bool) {
	for i := 1; i < len(rows); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			rows[j], rows[j-1] = rows[j-1], rows[j]
		}
	}
}
