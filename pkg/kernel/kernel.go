// Package kernel reads the text files a Linux-like kernel exports under
// /proc, and turns them into typed Go values. Every function here takes
// a root directory so callers (and tests) can point at a directory tree
// other than the real /proc.
package kernel

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultRoot is the kernel-exported filesystem root used when a caller
// does not override it (the --root flag, the config file's root, or a
// test fixture).
const DefaultRoot = "/proc"

// ClockTicks returns the number of scheduler clock ticks per second
// (historically sysconf(_SC_CLK_TCK)). Pure Go has no portable way to
// query this without cgo, so it is read from NPS_CLK_TCK for tests and
// otherwise defaults to 100, the value on every mainstream Linux
// configuration.
func ClockTicks() int64 {
	if v, err := strconv.ParseInt(os.Getenv("NPS_CLK_TCK"), 10, 64); err == nil && v > 0 {
		return v
	}
	return 100
}

// PageSize returns the system memory page size in bytes.
func PageSize() int64 {
	if v, err := strconv.ParseInt(os.Getenv("NPS_PAGE_SIZE"), 10, 64); err == nil && v > 0 {
		return v
	}
	return int64(os.Getpagesize())
}

// Stat holds every field of <root>/<pid>/stat except the pid, in their
// on-disk order. Names follow proc(5).
type Stat struct {
	Comm                string
	State               byte
	PPID                int64
	PGRP                int64
	Session             int64
	TTYNr               int64
	TPGID               int64
	Flags               uint64
	MinFlt              uint64
	CMinFlt             uint64
	MajFlt              uint64
	CMajFlt             uint64
	UTime               uint64
	STime               uint64
	CUTime              int64
	CSTime              int64
	Priority            int64
	Nice                int64
	NumThreads          int64
	ItRealValue         int64
	StartTime           uint64
	VSize               uint64
	RSS                 uint64
	RSSLim              uint64
	StartCode           uint64
	EndCode             uint64
	StartStack          uint64
	KStkESP             uint64
	KStkEIP             uint64
	Signal              uint64
	Blocked             uint64
	SigIgnore           uint64
	SigCatch            uint64
	WChan               uint64
	NSwap               uint64
	CNSwap              uint64
	ExitSignal          int64
	Processor           int64
	RTPriority          uint64
	Policy              uint64
	DelayAcctBlkioTicks uint64
	GuestTime           uint64
	CGuestTime          int64
}

// ReadStat parses <root>/<pid>/stat. The comm field (2nd, parenthesised)
// may itself contain spaces or parentheses; the split point is the LAST
// ") " in the line, exactly as the kernel documents, not the first.
func ReadStat(root string, pid int) (*Stat, error) {
	b, err := os.ReadFile(filepath.Join(root, strconv.Itoa(pid), "stat"))
	if err != nil {
		return nil, err
	}
	line := strings.TrimRight(string(b), "\n")
	open := strings.IndexByte(line, '(')
	close := strings.LastIndex(line, ") ")
	if open < 0 || close < 0 || close <= open {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, "stat")
	}
	comm := line[open+1 : close]
	rest := strings.Fields(line[close+2:])

	s := &Stat{Comm: comm}
	if len(rest) < 1 {
		return nil, fmt.Errorf("%w: stat: missing state", ErrMalformed)
	}
	s.State = rest[0][0]
	rest = rest[1:]

	get := func(i int) string {
		if i < len(rest) {
			return rest[i]
		}
		return "0"
	}
	u := func(i int) uint64 { v, _ := strconv.ParseUint(get(i), 10, 64); return v }
	d := func(i int) int64 { v, _ := strconv.ParseInt(get(i), 10, 64); return v }

	s.PPID = d(0)
	s.PGRP = d(1)
	s.Session = d(2)
	s.TTYNr = d(3)
	s.TPGID = d(4)
	s.Flags = u(5)
	s.MinFlt = u(6)
	s.CMinFlt = u(7)
	s.MajFlt = u(8)
	s.CMajFlt = u(9)
	s.UTime = u(10)
	s.STime = u(11)
	s.CUTime = d(12)
	s.CSTime = d(13)
	s.Priority = d(14)
	s.Nice = d(15)
	s.NumThreads = d(16)
	s.ItRealValue = d(17)
	s.StartTime = u(18)
	s.VSize = u(19)
	s.RSS = u(20)
	s.RSSLim = u(21)
	s.StartCode = u(22)
	s.EndCode = u(23)
	s.StartStack = u(24)
	s.KStkESP = u(25)
	s.KStkEIP = u(26)
	s.Signal = u(27)
	s.Blocked = u(28)
	s.SigIgnore = u(29)
	s.SigCatch = u(30)
	s.WChan = u(31)
	s.NSwap = u(32)
	s.CNSwap = u(33)
	s.ExitSignal = d(34)
	s.Processor = d(35)
	s.RTPriority = u(36)
	s.Policy = u(37)
	s.DelayAcctBlkioTicks = u(38)
	s.GuestTime = u(39)
	s.CGuestTime = d(40)
	return s, nil
}

// Status is the parsed subset of <root>/<pid>/status this module needs:
// the real/effective uid and gid pairs. /proc/<pid>/stat reports neither,
// so status is consulted whenever ownership properties are fetched.
type Status struct {
	EUid, RUid int64
	EGid, RGid int64
}

// ReadStatus parses <root>/<pid>/status for the Uid: and Gid: lines.
func ReadStatus(root string, pid int) (*Status, error) {
	f, err := os.Open(filepath.Join(root, strconv.Itoa(pid), "status"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	st := &Status{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch key {
		case "Uid":
			fs := strings.Fields(val)
			if len(fs) >= 2 {
				r, _ := strconv.ParseInt(fs[0], 10, 64)
				e, _ := strconv.ParseInt(fs[1], 10, 64)
				st.EUid, st.RUid = e, r
			}
		case "Gid":
			fs := strings.Fields(val)
			if len(fs) >= 2 {
				r, _ := strconv.ParseInt(fs[0], 10, 64)
				e, _ := strconv.ParseInt(fs[1], 10, 64)
				st.EGid, st.RGid = e, r
			}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return st, nil
}

// IO is the parsed form of <root>/<pid>/io. All fields are monotonic
// byte/syscall counters; callers diff across snapshots to get rates.
type IO struct {
	RChar             uint64
	WChar             uint64
	SyscR             uint64
	SyscW             uint64
	ReadBytes         uint64
	WriteBytes        uint64
	CancelledWriteBytes uint64
}

// ReadIO parses <root>/<pid>/io. Permission denied on this file is common
// for processes owned by other users and is NOT treated as "vanished":
// callers should distinguish os.IsPermission(err) from other errors.
func ReadIO(root string, pid int) (*IO, error) {
	f, err := os.Open(filepath.Join(root, strconv.Itoa(pid), "io"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	io := &IO{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		v, _ := strconv.ParseUint(strings.TrimSpace(val), 10, 64)
		switch strings.TrimSpace(key) {
		case "rchar":
			io.RChar = v
		case "wchar":
			io.WChar = v
		case "syscr":
			io.SyscR = v
		case "syscw":
			io.SyscW = v
		case "read_bytes":
			io.ReadBytes = v
		case "write_bytes":
			io.WriteBytes = v
		case "cancelled_write_bytes":
			io.CancelledWriteBytes = v
		}
	}
	return io, sc.Err()
}

// ReadCmdline parses <root>/<pid>/cmdline: NUL-separated arguments,
// rendered space-separated with no trailing space.
func ReadCmdline(root string, pid int) (string, error) {
	b, err := os.ReadFile(filepath.Join(root, strconv.Itoa(pid), "cmdline"))
	if err != nil {
		return "", err
	}
	s := strings.ReplaceAll(string(b), "\x00", " ")
	return strings.TrimRight(s, " "), nil
}

// ReadOomScore parses <root>/<pid>/oom_score.
func ReadOomScore(root string, pid int) (int64, error) {
	b, err := os.ReadFile(filepath.Join(root, strconv.Itoa(pid), "oom_score"))
	if err != nil {
		return 0, err
	}
	v, _ := strconv.ParseInt(strings.TrimSpace(string(b)), 10, 64)
	return v, nil
}

// SmapsRollupPss parses <root>/<pid>/smaps_rollup for the Pss: and Swap:
// lines, in kilobytes as reported, converted to bytes. This is the
// primary source for the pss/pmem properties; the smaps_rollup interface
// is available from Linux 4.14 onward, so on older kernels the open fails
// with a not-exist error (returned as is) and callers should fall back to
// statm-derived RSS.
func SmapsRollupPss(root string, pid int) (pssBytes, swapBytes uint64, err error) {
	f, err := os.Open(filepath.Join(root, strconv.Itoa(pid), "smaps_rollup"))
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "Pss:":
			kb, _ := strconv.ParseUint(fields[1], 10, 64)
			pssBytes = kb * 1024
		case "Swap:":
			kb, _ := strconv.ParseUint(fields[1], 10, 64)
			swapBytes = kb * 1024
		}
	}
	return pssBytes, swapBytes, sc.Err()
}

// ReadStatmRSS is the statm-derived fallback for resident set size, used
// when smaps_rollup is unavailable.
func ReadStatmRSS(root string, pid int) (uint64, error) {
	b, err := os.ReadFile(filepath.Join(root, strconv.Itoa(pid), "statm"))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(b))
	if len(fields) < 2 {
		return 0, ErrMalformed
	}
	pages, _ := strconv.ParseUint(fields[1], 10, 64)
	return pages * uint64(PageSize()), nil
}

// ListTasks returns the thread IDs of a process by reading
// <root>/<pid>/task. For a single-threaded process this is just [pid].
func ListTasks(root string, pid int) ([]int, error) {
	entries, err := os.ReadDir(filepath.Join(root, strconv.Itoa(pid), "task"))
	if err != nil {
		return nil, err
	}
	tids := make([]int, 0, len(entries))
	for _, e := range entries {
		if tid, err := strconv.Atoi(e.Name()); err == nil {
			tids = append(tids, tid)
		}
	}
	sort.Ints(tids)
	return tids, nil
}

// ListPIDs enumerates every numeric entry directly under root, i.e. every
// process currently visible to the caller.
func ListPIDs(root string) ([]int, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	pids := make([]int, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if pid, err := strconv.Atoi(e.Name()); err == nil {
			pids = append(pids, pid)
		}
	}
	sort.Ints(pids)
	return pids, nil
}

// Uptime parses <root>/uptime: system uptime and idle-time, in seconds.
func Uptime(root string) (uptime, idle float64, err error) {
	b, err := os.ReadFile(filepath.Join(root, "uptime"))
	if err != nil {
		return 0, 0, err
	}
	fields := strings.Fields(string(b))
	if len(fields) < 2 {
		return 0, 0, ErrMalformed
	}
	uptime, _ = strconv.ParseFloat(fields[0], 64)
	idle, _ = strconv.ParseFloat(fields[1], 64)
	return uptime, idle, nil
}

// LoadAvg parses <root>/loadavg: the 1/5/15 minute load averages.
func LoadAvg(root string) (one, five, fifteen float64, err error) {
	b, err := os.ReadFile(filepath.Join(root, "loadavg"))
	if err != nil {
		return 0, 0, 0, err
	}
	fields := strings.Fields(string(b))
	if len(fields) < 3 {
		return 0, 0, 0, ErrMalformed
	}
	one, _ = strconv.ParseFloat(fields[0], 64)
	five, _ = strconv.ParseFloat(fields[1], 64)
	fifteen, _ = strconv.ParseFloat(fields[2], 64)
	return one, five, fifteen, nil
}

// CPUTimes are the ten jiffy counters of one aggregate or per-CPU line
// of <root>/stat, in the kernel's documented order.
type CPUTimes struct {
	User, Nice, System, Idle, IOWait    uint64
	IRQ, SoftIRQ, Steal, Guest, GuestNice uint64
}

// Total returns the sum of every counter: the denominator for utilization.
func (c CPUTimes) Total() uint64 {
	return c.User + c.Nice + c.System + c.Idle + c.IOWait +
		c.IRQ + c.SoftIRQ + c.Steal + c.Guest + c.GuestNice
}

// Busy returns every counter except Idle and IOWait.
func (c CPUTimes) Busy() uint64 {
	return c.Total() - c.Idle - c.IOWait
}

// SystemStat parses <root>/stat, returning the aggregate "cpu" line and
// a map of per-CPU lines ("cpu0", "cpu1", ...) keyed by index.
func SystemStat(root string) (total CPUTimes, perCPU map[int]CPUTimes, err error) {
	f, err := os.Open(filepath.Join(root, "stat"))
	if err != nil {
		return CPUTimes{}, nil, err
	}
	defer f.Close()

	perCPU = map[int]CPUTimes{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || !strings.HasPrefix(fields[0], "cpu") {
			continue
		}
		vals := make([]uint64, 10)
		for i, s := range fields[1:] {
			if i >= len(vals) {
				break
			}
			vals[i], _ = strconv.ParseUint(s, 10, 64)
		}
		ct := CPUTimes{
			User: vals[0], Nice: vals[1], System: vals[2], Idle: vals[3], IOWait: vals[4],
			IRQ: vals[5], SoftIRQ: vals[6], Steal: vals[7], Guest: vals[8], GuestNice: vals[9],
		}
		if fields[0] == "cpu" {
			total = ct
			continue
		}
		idx, convErr := strconv.Atoi(strings.TrimPrefix(fields[0], "cpu"))
		if convErr == nil {
			perCPU[idx] = ct
		}
	}
	return total, perCPU, sc.Err()
}

// meminfoNames is the sorted field-name table used by MemInfo's binary
// search. /proc/meminfo's field set and ordering are not guaranteed
// stable across kernel versions, so lookups are by name, not position.
var meminfoNames = []string{
	"Active", "Active(anon)", "Active(file)", "AnonPages", "Bounce", "Buffers",
	"Cached", "CommitLimit", "Committed_AS", "Dirty", "HugePages_Free",
	"HugePages_Total", "Hugepagesize", "Inactive", "Inactive(anon)",
	"Inactive(file)", "KernelStack", "Mapped", "MemAvailable", "MemFree",
	"MemTotal", "Mlocked", "PageTables", "SReclaimable", "SUnreclaim", "Shmem",
	"Slab", "SwapCached", "SwapFree", "SwapTotal", "Unevictable", "VmallocChunk",
	"VmallocTotal", "VmallocUsed", "Writeback", "WritebackTmp",
}

func init() {
	if !sort.StringsAreSorted(meminfoNames) {
		panic("kernel: meminfoNames must stay sorted for MemInfo's binary search")
	}
}

// MemInfo parses <root>/meminfo into a name→kilobytes map, looked up by
// a sorted binary search the way the original implementation handles the
// field-ordering instability of this file across kernels.
func MemInfo(root string) (map[string]uint64, error) {
	f, err := os.Open(filepath.Join(root, "meminfo"))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := map[string]uint64{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		key, val, ok := strings.Cut(sc.Text(), ":")
		if !ok {
			continue
		}
		i := sort.SearchStrings(meminfoNames, key)
		if i >= len(meminfoNames) || meminfoNames[i] != key {
			continue // unknown field; not every kernel exposes every name
		}
		fields := strings.Fields(val)
		if len(fields) == 0 {
			continue
		}
		v, _ := strconv.ParseUint(fields[0], 10, 64)
		out[key] = v
	}
	return out, sc.Err()
}
