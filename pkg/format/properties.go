package format

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind tags which field of Fields (and which arm of Value) a property
// draws from — the tagged-variant approach spec.md's design notes
// prefer over per-descriptor function-pointer triples, since it keeps
// the descriptor table a pure data table.
type Kind int

const (
	KindInt Kind = iota
	KindUint
	KindUID
	KindGID
	KindPID
	KindDouble
	KindString
	KindChar
)

// Value is one fetched, typed property value; only the field matching
// Kind is meaningful.
type Value struct {
	Kind Kind
	I    int64
	U    uint64
	F    float64
	S    string
	C    byte
}

// Fields is the common row both the task store and the property table
// work from: one flat, already-resolved snapshot of everything any
// property might need for one task. Rate properties arrive
// pre-computed (module E's job, not this package's) since they depend
// on two snapshots, not one.
type Fields struct {
	Pid, Tid           int
	PPid, PGrp, Session int
	TTYNr, TPGid       int
	EUid, RUid         int64
	EGid, RGid         int64
	Comm, Cmdline      string
	ParentComm         string
	State              byte
	Nice, Priority     int64
	NumThreads         int64
	Flags              uint64
	StartTime          time.Time
	ElapsedSeconds     int64
	ScheduledSeconds   int64
	VSize, RSS, PSS, Swap uint64
	OomScore           int64
	InsnPointer, WChan uint64
	PCPU               float64
	ReadRate, WriteRate, RWRate float64
	MinFltRate, MajFltRate      float64
	Depth              int // ancestry depth within the current snapshot
	Vanished           bool
	Now                time.Time // snapshot real-time, for relative formatting
}

// Descriptor is one property-table entry: a name, the heading/description
// shown by --help-format, the value kind it fetches (which also selects
// its ordering in Compare), and its fetch and format behavior. AliasOf
// redirects lookups to another entry and leaves Fetch/Format nil.
type Descriptor struct {
	Name        string
	Heading     string
	Description string
	Kind        Kind
	Fetch       func(Fields) Value
	Format      func(v Value, fieldWidth int, arg string, flags Flags) string
	AliasOf     string
}

// command renders a task's command, appending " <defunct>" for a zombie
// task (state Z) and optionally prefixed by hierarchy-mode indentation
// proportional to its depth. Grounded on original_source/lib/format.c's
// property_command_general, which applies both the suffix and the
// indentation to comm, args and argsbrief alike.
func command(text string, depth int, hierarchy bool, state byte) string {
	if state == 'Z' {
		text += " <defunct>"
	}
	if !hierarchy || depth <= 0 {
		return text
	}
	return strings.Repeat("  ", depth) + text
}

func fmtDecimal(v Value, fieldWidth int, _ string, _ Flags) string {
	return fmt.Sprintf("%*d", fieldWidth, v.I)
}

func fmtUnsigned(v Value, fieldWidth int, _ string, _ Flags) string {
	return fmt.Sprintf("%*d", fieldWidth, v.U)
}

func fmtString(v Value, fieldWidth int, _ string, _ Flags) string {
	return fmt.Sprintf("%-*s", fieldWidth, v.S)
}

func fmtChar(v Value, fieldWidth int, _ string, _ Flags) string {
	return fmt.Sprintf("%-*s", fieldWidth, string(v.C))
}

func fmtMem(v Value, fieldWidth int, arg string, flags Flags) string {
	ch, cutoff := ParseByteArg(arg, flags)
	return Bytes(v.U, fieldWidth, ch, cutoff)
}

func fmtRate(v Value, fieldWidth int, arg string, flags Flags) string {
	ch, cutoff := ParseByteArg(arg, flags)
	return Bytes(uint64(v.F), fieldWidth, ch, cutoff)
}

func fmtPcpu(v Value, fieldWidth int, _ string, _ Flags) string {
	return fmt.Sprintf("%*.1f", fieldWidth, v.F*100)
}

func fmtAddr(v Value, fieldWidth int, _ string, flags Flags) string {
	if flags&FormatRaw != 0 {
		return fmt.Sprintf("%*d", fieldWidth, v.U)
	}
	width := 8
	switch {
	case v.U > 0xffffffffffff:
		width = 16
	case v.U > 0xffffffff:
		width = 12
	}
	return fmt.Sprintf("%0*x", width, v.U)
}

func fmtOctal(v Value, fieldWidth int, arg string, _ Flags) string {
	base := 8
	switch arg {
	case "d":
		base = 10
	case "x":
		base = 16
	case "X":
		return fmt.Sprintf("%*X", fieldWidth, v.U)
	}
	return fmt.Sprintf("%*s", fieldWidth, strconv.FormatUint(v.U, base))
}

func fmtElapsed(v Value, fieldWidth int, arg string, flags Flags) string {
	return FormatInterval(v.I, false, fieldWidth, arg, flags)
}

func fmtSchedTime(v Value, fieldWidth int, arg string, flags Flags) string {
	return FormatInterval(v.I, true, fieldWidth, arg, flags)
}

func fmtStartTime(v Value, fieldWidth int, arg string, flags Flags) string {
	return FormatTime(time.Unix(v.I, 0), time.Now(), fieldWidth, arg, flags)
}

// Properties is the full property table, grounded verbatim on
// original_source/lib/format.c's properties[] (names, headings and
// descriptions match; every alias entry there has a home here too).
//
// Two known-buggy original behaviours are intentionally NOT
// reproduced: the self-referential "ni" alias (pointed at "nice"
// instead of itself) and pmem's early-return (this computes PSS+swap,
// the documented intent, in full).
var Properties = []Descriptor{
	{Name: "pcpu", Heading: "%CPU", Description: "%age CPU used", Kind: KindDouble, Format: fmtPcpu,
		Fetch: func(f Fields) Value { return Value{Kind: KindDouble, F: f.PCPU} }},
	{Name: "%cpu", AliasOf: "pcpu"},

	{Name: "_hier"}, // order-only pseudo-property; see Snapshot.CompareHierarchy

	{Name: "addr", Heading: "ADDR", Description: "Instruction pointer address (hex)", Kind: KindUint, Format: fmtAddr,
		Fetch: func(f Fields) Value { return Value{Kind: KindUint, U: f.InsnPointer} }},

	{Name: "args", Heading: "COMMAND", Description: "Command with arguments", Kind: KindString,
		Format: func(v Value, w int, _ string, fl Flags) string { return fmtString(v, w, "", fl) },
		Fetch:  func(f Fields) Value { return Value{Kind: KindString, S: command(f.Cmdline, f.Depth, hierarchyMode, f.State)} }},
	{Name: "argsbrief", Heading: "COMMAND", Description: "Command with arguments (but path removed)", Kind: KindString,
		Format: fmtString,
		Fetch: func(f Fields) Value {
			return Value{Kind: KindString, S: command(briefCommand(f.Cmdline), f.Depth, hierarchyMode, f.State)}
		}},
	{Name: "cmd", AliasOf: "argsbrief"},
	{Name: "command", AliasOf: "argsbrief"},

	{Name: "comm", Heading: "COMMAND", Description: "Command", Kind: KindString, Format: fmtString,
		Fetch: func(f Fields) Value { return Value{Kind: KindString, S: command(f.Comm, f.Depth, hierarchyMode, f.State)} }},

	{Name: "cputime", AliasOf: "time"},

	{Name: "egid", AliasOf: "gid"},
	{Name: "egroup", AliasOf: "group"},

	{Name: "etime", Heading: "ELAPSED", Description: "Elapsed time (argument: format string)", Kind: KindInt, Format: fmtElapsed,
		Fetch: func(f Fields) Value { return Value{Kind: KindInt, I: f.ElapsedSeconds} }},

	{Name: "euid", AliasOf: "uid"},
	{Name: "euser", AliasOf: "user"},

	{Name: "f", AliasOf: "flags"},
	{Name: "flag", AliasOf: "flags"},
	{Name: "flags", Heading: "F", Description: "Flags (octal; argument o/d/x/X)", Kind: KindUint, Format: fmtOctal,
		Fetch: func(f Fields) Value { return Value{Kind: KindUint, U: f.Flags} }},

	{Name: "gid", Heading: "GID", Description: "Effective group ID (decimal)", Kind: KindGID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindGID, I: f.EGid} }},
	{Name: "group", Heading: "GROUP", Description: "Effective group ID (name)", Kind: KindString, Format: fmtString,
		Fetch: func(f Fields) Value { return Value{Kind: KindString, S: GroupName(f.EGid)} }},

	{Name: "io", Heading: "IO", Description: "Recent read+write rate (argument: K/M/G/T/P/p)", Kind: KindDouble, Format: fmtRate,
		Fetch: func(f Fields) Value { return Value{Kind: KindDouble, F: f.RWRate} }},

	{Name: "lwp", AliasOf: "tid"},

	{Name: "majflt", Heading: "+FLT", Description: "Major fault rate (argument: K/M/G/T/P/p)", Kind: KindDouble, Format: fmtRate,
		Fetch: func(f Fields) Value { return Value{Kind: KindDouble, F: f.MajFltRate} }},
	{Name: "minflt", Heading: "-FLT", Description: "Minor fault rate (argument: K/M/G/T/P/p)", Kind: KindDouble, Format: fmtRate,
		Fetch: func(f Fields) Value { return Value{Kind: KindDouble, F: f.MinFltRate} }},

	{Name: "mem", Heading: "MEM", Description: "Memory usage (argument: K/M/G/T/P/p) ", Kind: KindUint, Format: fmtMem,
		Fetch: func(f Fields) Value { return Value{Kind: KindUint, U: f.RSS} }},

	{Name: "ni", AliasOf: "nice"},
	{Name: "nice", Heading: "NI", Description: "Nice value", Kind: KindInt, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindInt, I: f.Nice} }},

	{Name: "nlwp", AliasOf: "threads"},
	{Name: "thcount", AliasOf: "threads"},

	{Name: "oom", Heading: "OOM", Description: "OOM score", Kind: KindInt, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindInt, I: f.OomScore} }},

	{Name: "pcomm", Heading: "PCMD", Description: "Parent command name", Kind: KindString, Format: fmtString,
		Fetch: func(f Fields) Value { return Value{Kind: KindString, S: f.ParentComm} }},

	{Name: "pgid", Heading: "PGID", Description: "Process group ID (observable quirk: reports the controlling tty's foreground group, not getpgrp())", Kind: KindPID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindPID, I: int64(f.TPGid)} }},
	{Name: "pgrp", Heading: "PGRP", Description: "Process group ID", Kind: KindPID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindPID, I: int64(f.PGrp)} }},

	{Name: "pid", Heading: "PID", Description: "Process ID", Kind: KindPID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindPID, I: int64(f.Pid)} }},

	{Name: "pmem", Heading: "PMEM", Description: "Proportional memory usage (argument: K/M/G/T/P/p)", Kind: KindUint, Format: fmtMem,
		Fetch: func(f Fields) Value { return Value{Kind: KindUint, U: f.PSS + f.Swap} }},

	{Name: "ppid", Heading: "PPID", Description: "Parent process ID", Kind: KindPID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindPID, I: int64(f.PPid)} }},

	{Name: "pri", Heading: "PRI", Description: "Priority", Kind: KindInt, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindInt, I: f.Priority} }},

	{Name: "pss", Heading: "PSS", Description: "Proportional resident set size (argument: K/M/G/T/P/p)", Kind: KindUint, Format: fmtMem,
		Fetch: func(f Fields) Value { return Value{Kind: KindUint, U: f.PSS} }},

	{Name: "read", Heading: "RD", Description: "Recent read rate (argument: K/M/G/T/P/p)", Kind: KindDouble, Format: fmtRate,
		Fetch: func(f Fields) Value { return Value{Kind: KindDouble, F: f.ReadRate} }},

	{Name: "rgid", Heading: "RGID", Description: "Real group ID (decimal)", Kind: KindGID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindGID, I: f.RGid} }},
	{Name: "rgroup", Heading: "RGROUP", Description: "Real group ID (name)", Kind: KindString, Format: fmtString,
		Fetch: func(f Fields) Value { return Value{Kind: KindString, S: GroupName(f.RGid)} }},

	{Name: "rss", Heading: "RSS", Description: "Resident set size (argument: K/M/G/T/P/p)", Kind: KindUint, Format: fmtMem,
		Fetch: func(f Fields) Value { return Value{Kind: KindUint, U: f.RSS} }},
	{Name: "rssize", AliasOf: "rss"},
	{Name: "rsz", AliasOf: "rss"},

	{Name: "ruid", Heading: "RUID", Description: "Real user ID (decimal)", Kind: KindUID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindUID, I: f.RUid} }},
	{Name: "ruser", Heading: "RUSER", Description: "Real user ID (name)", Kind: KindString, Format: fmtString,
		Fetch: func(f Fields) Value { return Value{Kind: KindString, S: UserName(f.RUid)} }},

	{Name: "sess", AliasOf: "sid"},
	{Name: "session", AliasOf: "sid"},
	{Name: "sid", Heading: "SID", Description: "Session ID", Kind: KindPID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindPID, I: int64(f.Session)} }},

	{Name: "state", Heading: "S", Description: "Process state", Kind: KindChar, Format: fmtChar,
		Fetch: func(f Fields) Value { return Value{Kind: KindChar, C: f.State} }},

	{Name: "stime", Heading: "STIME", Description: "Start time (argument: strftime format string)", Kind: KindInt, Format: fmtStartTime,
		Fetch: func(f Fields) Value { return Value{Kind: KindInt, I: f.StartTime.Unix()} }},

	{Name: "swap", Heading: "SWAP", Description: "Swap usage (argument: K/M/G/T/P/p)", Kind: KindUint, Format: fmtMem,
		Fetch: func(f Fields) Value { return Value{Kind: KindUint, U: f.Swap} }},

	{Name: "threads", Heading: "T", Description: "Number of threads", Kind: KindPID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindPID, I: f.NumThreads} }},

	{Name: "tid", Heading: "TID", Description: "Thread ID", Kind: KindPID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindPID, I: int64(f.Tid)} }},

	{Name: "time", Heading: "TIME", Description: "Scheduled time (argument: format string)", Kind: KindInt, Format: fmtSchedTime,
		Fetch: func(f Fields) Value { return Value{Kind: KindInt, I: f.ScheduledSeconds} }},

	{Name: "tname", AliasOf: "tty"},
	{Name: "tt", AliasOf: "tty"},
	{Name: "tty", Heading: "TT", Description: "Terminal", Kind: KindString, Format: fmtString,
		Fetch: func(f Fields) Value { return Value{Kind: KindString, S: TTYName(f.TTYNr)} }},

	{Name: "uid", Heading: "UID", Description: "Effective user ID (decimal)", Kind: KindUID, Format: fmtDecimal,
		Fetch: func(f Fields) Value { return Value{Kind: KindUID, I: f.EUid} }},
	{Name: "user", Heading: "USER", Description: "Effective user ID (name)", Kind: KindString, Format: fmtString,
		Fetch: func(f Fields) Value { return Value{Kind: KindString, S: UserName(f.EUid)} }},

	{Name: "vsize", AliasOf: "vsz"},
	{Name: "vsz", Heading: "VSZ", Description: "Virtual memory used (argument: K/M/G/T/P/p)", Kind: KindUint, Format: fmtMem,
		Fetch: func(f Fields) Value { return Value{Kind: KindUint, U: f.VSize} }},

	{Name: "wchan", Heading: "WCHAN", Description: "Wait channel (hex)", Kind: KindUint, Format: fmtAddr,
		Fetch: func(f Fields) Value { return Value{Kind: KindUint, U: f.WChan} }},

	{Name: "write", Heading: "WR", Description: "Recent write rate (argument: K/M/G/T/P/p)", Kind: KindDouble, Format: fmtRate,
		Fetch: func(f Fields) Value { return Value{Kind: KindDouble, F: f.WriteRate} }},
}

// hierarchyMode mirrors the original's process-wide format_hierarchy
// flag: when set, command-family properties prefix their text with
// depth-proportional indentation. It is process-wide the way spec.md's
// design notes say mutable rendering state should be — but threaded
// through SetHierarchyMode rather than a bare package global read from
// many places, so callers set it once per snapshot render.
var hierarchyMode bool

// SetHierarchyMode turns hierarchy-indented command rendering on or off
// for subsequent Fetch calls.
func SetHierarchyMode(on bool) { hierarchyMode = on }

func briefCommand(cmdline string) string {
	if cmdline == "" {
		return cmdline
	}
	first, rest, _ := strings.Cut(cmdline, " ")
	if i := strings.LastIndexByte(first, '/'); i >= 0 {
		first = first[i+1:]
	}
	if rest == "" {
		return first
	}
	return first + " " + rest
}

// byName indexes Properties by name, alias entries included, for O(1)
// lookup; Lookup follows the alias.
var byName map[string]*Descriptor

func init() {
	byName = make(map[string]*Descriptor, len(Properties))
	for i := range Properties {
		byName[Properties[i].Name] = &Properties[i]
	}
}

// Lookup resolves name through at most one alias hop and returns the
// canonical descriptor.
func Lookup(name string) (*Descriptor, error) {
	d, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	if d.AliasOf != "" {
		target, ok := byName[d.AliasOf]
		if !ok || target.AliasOf != "" {
			return nil, fmt.Errorf("%w: %q: alias target %q is missing or is itself an alias", ErrUnknownProperty, name, d.AliasOf)
		}
		return target, nil
	}
	return d, nil
}

// Compare orders two Fields rows by one property, using the property's
// Kind to pick a total ordering: numeric kinds compare numerically,
// strings compare byte-wise (matching the original's plain strcmp, not
// the natural-sort QLCompare — that is used by selector.CompareQL).
func Compare(d *Descriptor, a, b Fields) int {
	av, bv := d.Fetch(a), d.Fetch(b)
	switch d.Kind {
	case KindString:
		return strings.Compare(av.S, bv.S)
	case KindChar:
		switch {
		case av.C < bv.C:
			return -1
		case av.C > bv.C:
			return 1
		default:
			return 0
		}
	case KindDouble:
		switch {
		case av.F < bv.F:
			return -1
		case av.F > bv.F:
			return 1
		default:
			return 0
		}
	case KindUint:
		switch {
		case av.U < bv.U:
			return -1
		case av.U > bv.U:
			return 1
		default:
			return 0
		}
	default: // KindInt, KindUID, KindGID, KindPID
		switch {
		case av.I < bv.I:
			return -1
		case av.I > bv.I:
			return 1
		default:
			return 0
		}
	}
}
