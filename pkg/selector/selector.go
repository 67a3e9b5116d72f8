// Package selector implements module F: composing several -p/-U/-g/...
// style task selections into one OR-of-predicates filter, with typed
// argument parsing per selection kind.
package selector

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ja7ad/nps/pkg/format"
)

// Op names one of the comparison operators a selection can carry
// (spec.md's select_compare operator set). CompareNumeric and CompareQL
// accept the full relational set; the By* list selections match by
// exact membership and parse plain integers only, so an argument such
// as "-p >100" is rejected.
type Op int

const (
	Identical Op = iota
	NotEqual
	Less
	LessOrEqual
	Greater
	GreaterOrEqual
)

// Predicate reports whether one task row is selected.
type Predicate func(format.Fields) bool

// Selector is the OR of every Predicate added to it: a task is selected
// if ANY predicate matches, matching the original's "each -p/-U/etc
// adds an alternative, not a filter" selection semantics.
type Selector struct {
	predicates []Predicate
}

// New returns an empty Selector. An empty Selector's Match always
// returns true — "no selection given" means "everything is selected",
// the same as the original leaving the task list unfiltered.
func New() *Selector {
	return &Selector{}
}

// Add appends an alternative predicate.
func (s *Selector) Add(p Predicate) {
	s.predicates = append(s.predicates, p)
}

// Match reports whether row satisfies the selector.
func (s *Selector) Match(row format.Fields) bool {
	if len(s.predicates) == 0 {
		return true
	}
	for _, p := range s.predicates {
		if p(row) {
			return true
		}
	}
	return false
}

// ByPID adds a selection matching any pid in list (comma-separated
// decimal pids, e.g. "-p 1,2,3").
func (s *Selector) ByPID(list string) error {
	vals, err := parseIntList(list)
	if err != nil {
		return fmt.Errorf("pid selection: %w", err)
	}
	s.Add(func(f format.Fields) bool { return containsInt(vals, int64(f.Pid)) })
	return nil
}

// ByPPID adds a selection matching any parent pid in list.
func (s *Selector) ByPPID(list string) error {
	vals, err := parseIntList(list)
	if err != nil {
		return fmt.Errorf("ppid selection: %w", err)
	}
	s.Add(func(f format.Fields) bool { return containsInt(vals, int64(f.PPid)) })
	return nil
}

// ByUID adds a selection matching any of the given effective uids (the
// batch frontend's "-u"). Entries must be numeric uids; a login name is
// rejected as a parse error, and neither this package nor the CLI
// resolves names to uids.
func (s *Selector) ByUID(list string) error {
	vals, err := parseIntList(list)
	if err != nil {
		return fmt.Errorf("uid selection: %w", err)
	}
	s.Add(func(f format.Fields) bool { return containsInt(vals, f.EUid) })
	return nil
}

// ByRUID adds a selection matching any of the given real uids (the batch
// frontend's "-U"), distinct from ByUID's effective-uid match.
func (s *Selector) ByRUID(list string) error {
	vals, err := parseIntList(list)
	if err != nil {
		return fmt.Errorf("ruid selection: %w", err)
	}
	s.Add(func(f format.Fields) bool { return containsInt(vals, f.RUid) })
	return nil
}

// ByGID adds a selection matching any of the given effective gids.
func (s *Selector) ByGID(list string) error {
	vals, err := parseIntList(list)
	if err != nil {
		return fmt.Errorf("gid selection: %w", err)
	}
	s.Add(func(f format.Fields) bool { return containsInt(vals, f.EGid) })
	return nil
}

// ByRGID adds a selection matching any of the given real gids (the batch
// frontend's "-G"), distinct from ByGID's effective-gid match.
func (s *Selector) ByRGID(list string) error {
	vals, err := parseIntList(list)
	if err != nil {
		return fmt.Errorf("rgid selection: %w", err)
	}
	s.Add(func(f format.Fields) bool { return containsInt(vals, f.RGid) })
	return nil
}

// BySession adds a selection matching any of the given session IDs.
func (s *Selector) BySession(list string) error {
	vals, err := parseIntList(list)
	if err != nil {
		return fmt.Errorf("session selection: %w", err)
	}
	s.Add(func(f format.Fields) bool { return containsInt(vals, int64(f.Session)) })
	return nil
}

// ByTTYNr adds a selection matching any of the given raw tty device
// numbers (already resolved from tty names by the caller).
func (s *Selector) ByTTYNr(nrs []int) {
	s.Add(func(f format.Fields) bool {
		for _, nr := range nrs {
			if f.TTYNr == nr {
				return true
			}
		}
		return false
	})
}

// ByTTYName adds a selection matching any of the given terminal names
// (the batch frontend's "-t"): comma/space-separated tokens each
// accepted as "/dev/X", "X" or "ttyX" per spec.md's argument-parsing
// rule, resolved to a raw device number by stat'ing the device node.
func (s *Selector) ByTTYName(list string) error {
	nrs, err := resolveTTYs(list)
	if err != nil {
		return fmt.Errorf("tty selection: %w", err)
	}
	s.ByTTYNr(nrs)
	return nil
}

// HasControllingTerminal adds a selection matching any task with a
// controlling terminal (the batch frontend's "-a").
func (s *Selector) HasControllingTerminal() {
	s.Add(HasControllingTerminal())
}

// NotSessionLeader adds a selection matching any task that is not its
// own session's leader (the batch frontend's "-d").
func (s *Selector) NotSessionLeader() {
	s.Add(NotSessionLeader())
}

// All adds a selection matching every task (the batch frontend's
// "-A"/"-e").
func (s *Selector) All() {
	s.Add(All())
}

// DefaultInvoker adds the batch frontend's default selector (spec.md
// §4.F: "same euid as invoker AND same terminal as invoker"), installed
// only when the caller registered no other selection flag. Unlike every
// other Add call here, the two conditions are ANDed within a single
// predicate rather than left as independent OR alternatives, since the
// default is one compound rule, not two selections.
func (s *Selector) DefaultInvoker(euid int64, ttyNr int) {
	s.Add(func(f format.Fields) bool { return f.EUid == euid && f.TTYNr == ttyNr })
}

// All returns a predicate matching every task, the "all" entry of
// spec.md §4.F's predicate suite.
func All() Predicate {
	return func(format.Fields) bool { return true }
}

// HasControllingTerminal returns a predicate matching any task with a
// controlling terminal (tty_nr > 0).
func HasControllingTerminal() Predicate {
	return func(f format.Fields) bool { return f.TTYNr > 0 }
}

// NotSessionLeader returns a predicate matching any task whose pid is
// not its own session ID.
func NotSessionLeader() Predicate {
	return func(f format.Fields) bool { return f.Pid != f.Session }
}

// NonIdle returns a predicate matching any task that is not a zombie and
// is currently consuming CPU (spec.md §4.F's "non-idle").
func NonIdle() Predicate {
	return func(f format.Fields) bool { return f.State != 'Z' && f.PCPU > 0 }
}

// PropertyEqualsString returns a predicate matching any task whose
// fetched value for prop renders to exactly want.
func PropertyEqualsString(prop *format.Descriptor, want string) Predicate {
	return func(f format.Fields) bool { return propertyText(prop, f) == want }
}

// PropertyMatchesRegex returns a predicate matching any task whose
// fetched value for prop, rendered to text, matches re.
func PropertyMatchesRegex(prop *format.Descriptor, re *regexp.Regexp) Predicate {
	return func(f format.Fields) bool { return re.MatchString(propertyText(prop, f)) }
}

// CompareQL returns a predicate comparing a task's fetched value for
// prop against want using format.QLCompare (spec.md §4.F's
// "property-compares-against ... using qlcompare"), the natural-sort
// order rather than raw numeric comparison — the only comparison that
// makes sense once string-kind properties are included.
func CompareQL(prop *format.Descriptor, want string, op Op) Predicate {
	return func(f format.Fields) bool {
		c := format.QLCompare(propertyText(prop, f), want)
		switch op {
		case Identical:
			return c == 0
		case NotEqual:
			return c != 0
		case Less:
			return c < 0
		case LessOrEqual:
			return c <= 0
		case Greater:
			return c > 0
		case GreaterOrEqual:
			return c >= 0
		default:
			return false
		}
	}
}

// propertyText renders a task's fetched value for prop to the text form
// qlcompare/regex/string-equality predicates compare against: the raw
// string for string-kind properties, or the property's own Format (at
// zero field width, so no padding) for every other kind.
func propertyText(prop *format.Descriptor, f format.Fields) string {
	v := prop.Fetch(f)
	if prop.Kind == format.KindString {
		return v.S
	}
	return strings.TrimSpace(prop.Format(v, 0, "", 0))
}

// ByCommand adds a selection matching any task whose command name
// equals (or, with prefix=true, begins with) one of the given names.
func (s *Selector) ByCommand(names []string, prefix bool) {
	s.Add(func(f format.Fields) bool {
		for _, n := range names {
			if prefix && strings.HasPrefix(f.Comm, n) {
				return true
			}
			if !prefix && f.Comm == n {
				return true
			}
		}
		return false
	})
}

// IsAncestor adds a selection matching pid itself and every descendant
// of pid, via the ancestor lookup callback the caller supplies (built
// from a Snapshot's pid→ppid forest — see pkg/task). The original's
// ancestor test treats a task as its own ancestor (pid == candidate
// returns "is an ancestor", not "is not"); spec.md's Open Questions
// preserve this rather than call it a bug, so IsAncestor does too.
func (s *Selector) IsAncestor(pid int, isDescendant func(candidatePid, ancestorPid int) bool) {
	s.Add(func(f format.Fields) bool {
		return f.Pid == pid || isDescendant(f.Pid, pid)
	})
}

// CompareNumeric evaluates op between a task's fetched value for prop
// and want, for numeric-kind properties (pid/uid/gid and similar); this
// is the typed-argument, relational half of selection (e.g. "uid > 500"
// alongside plain membership lists).
func CompareNumeric(prop *format.Descriptor, want int64, op Op) Predicate {
	return func(f format.Fields) bool {
		v := prop.Fetch(f)
		var got int64
		switch prop.Kind {
		case format.KindUint:
			got = int64(v.U)
		default:
			got = v.I
		}
		switch op {
		case Identical:
			return got == want
		case NotEqual:
			return got != want
		case Less:
			return got < want
		case LessOrEqual:
			return got <= want
		case Greater:
			return got > want
		case GreaterOrEqual:
			return got >= want
		default:
			return false
		}
	}
}

// splitTokens breaks a selection argument into tokens on comma or space,
// per spec.md §4.F's "comma/space-separated tokens" argument grammar.
func splitTokens(list string) []string {
	fields := strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func parseIntList(list string) ([]int64, error) {
	toks := splitTokens(list)
	out := make([]int64, 0, len(toks))
	for _, p := range toks {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// resolveTTYs resolves a comma/space-separated list of terminal names to
// their raw device numbers.
func resolveTTYs(list string) ([]int, error) {
	toks := splitTokens(list)
	out := make([]int, 0, len(toks))
	for _, tok := range toks {
		nr, err := resolveTTYNr(tok)
		if err != nil {
			return nil, err
		}
		out = append(out, nr)
	}
	return out, nil
}

func containsInt(vals []int64, v int64) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
