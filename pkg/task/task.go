// Package task implements module E: enumerating the tasks visible under
// a kernel-exported root, lazily parsing each one's /proc text files,
// and diffing two snapshots to produce the rate properties (%cpu, the
// fault rates, the io rates) the format engine renders.
package task

import (
	"os"
	"time"

	"github.com/ja7ad/nps/internal/privilege"
	"github.com/ja7ad/nps/pkg/format"
	"github.com/ja7ad/nps/pkg/kernel"
	"github.com/ja7ad/nps/pkg/system/util"
)

// Task is one pid (or, when threads are being listed, one tid) as seen
// in a single Snapshot. Every kernel read is deferred until the accessor
// that needs it is first called, and remembered afterward. Snapshot.Fields
// calls the stat, status, smaps_rollup (or statm), cmdline and oom_score
// accessors for every task it resolves, and the io accessor whenever it
// computes rates, whichever columns the format string names.
type Task struct {
	root string
	pid  int
	tid  int
	gate *privilege.Gate

	vanished bool

	statFetched bool
	stat        *kernel.Stat

	statusFetched bool
	status        *kernel.Status

	ioFetched bool
	io        *kernel.IO
	ioErr     error

	cmdlineFetched bool
	cmdline        string

	oomFetched bool
	oom        int64

	rssFetched bool
	pss, swap  uint64

	statmFetched bool
	statmRSS     uint64
}

// PID and TID identify the task; the whole-process Task for a pid always
// carries TID == -1, never a thread's real tid (spec.md §3's data model).
func (t *Task) PID() int { return t.pid }
func (t *Task) TID() int { return t.tid }

// Vanished reports whether any fetch so far discovered the task had
// already exited. It is never forced true by a permission error on
// /proc/<pid>/io — a task owned by another user legitimately denies
// that read without having exited.
func (t *Task) Vanished() bool { return t.vanished }

func (t *Task) Stat() *kernel.Stat {
	if !t.statFetched {
		t.statFetched = true
		s, err := kernel.ReadStat(t.root, t.pid)
		if err != nil {
			if os.IsNotExist(err) {
				t.vanished = true
			}
			t.stat = &kernel.Stat{}
		} else {
			t.stat = s
		}
	}
	return t.stat
}

func (t *Task) Status() *kernel.Status {
	if !t.statusFetched {
		t.statusFetched = true
		s, err := kernel.ReadStatus(t.root, t.pid)
		if err != nil {
			if os.IsNotExist(err) {
				t.vanished = true
			}
			t.status = &kernel.Status{}
		} else {
			t.status = s
		}
	}
	return t.status
}

// elevated runs op through the task's privilege gate, if any, so the
// ascend/descend pairing in internal/privilege brackets every read of a
// kernel export the real/effective UID split is meant to protect (io,
// smaps). A nil gate (e.g. in tests that build a Task directly) just
// runs op at whatever privilege the process already has.
func (t *Task) elevated(op func() error) error {
	if t.gate == nil {
		return op()
	}
	return t.gate.Run(op)
}

// IO returns the task's io counters. A permission-denied read (common
// for tasks owned by other users without CAP_SYS_PTRACE) leaves the
// task's vanished flag untouched and simply yields zero counters.
func (t *Task) IO() *kernel.IO {
	if !t.ioFetched {
		t.ioFetched = true
		var io *kernel.IO
		err := t.elevated(func() error {
			var ioErr error
			io, ioErr = kernel.ReadIO(t.root, t.pid)
			return ioErr
		})
		t.ioErr = err
		if err != nil {
			if os.IsNotExist(err) {
				t.vanished = true
			}
			t.io = &kernel.IO{}
		} else {
			t.io = io
		}
	}
	return t.io
}

func (t *Task) Cmdline() string {
	if !t.cmdlineFetched {
		t.cmdlineFetched = true
		s, err := kernel.ReadCmdline(t.root, t.pid)
		if err != nil {
			if os.IsNotExist(err) {
				t.vanished = true
			}
			t.cmdline = ""
		} else {
			t.cmdline = s
		}
	}
	return t.cmdline
}

func (t *Task) OomScore() int64 {
	if !t.oomFetched {
		t.oomFetched = true
		v, err := kernel.ReadOomScore(t.root, t.pid)
		if err == nil {
			t.oom = v
		}
	}
	return t.oom
}

// RSS returns proportional set size and swap in bytes, preferring
// smaps_rollup and falling back to statm's coarser RSS (with swap
// unknown, reported as 0) on kernels too old to export smaps_rollup.
func (t *Task) RSS() (pss, swap uint64) {
	if !t.rssFetched {
		t.rssFetched = true
		var p, s uint64
		err := t.elevated(func() error {
			var smapsErr error
			p, s, smapsErr = kernel.SmapsRollupPss(t.root, t.pid)
			return smapsErr
		})
		if err == nil {
			t.pss, t.swap = p, s
		} else if !t.statmFetched {
			t.statmFetched = true
			rss, err2 := kernel.ReadStatmRSS(t.root, t.pid)
			if err2 == nil {
				t.statmRSS = rss
				t.pss = rss
			} else if os.IsNotExist(err2) {
				t.vanished = true
			}
		}
	}
	return t.pss, t.swap
}

func (t *Task) vsizeRSS() (vsize, rss uint64) {
	st := t.Stat()
	return st.VSize, st.RSS * uint64(kernel.PageSize())
}

// Snapshot is one enumeration of every visible task at one point in
// time, plus enough bookkeeping (a pid→ppid forest and per-snapshot
// depth memoization) to answer ancestry questions without walking
// /proc again.
type Snapshot struct {
	Root  string
	At    time.Time
	Tasks []*Task

	byPID map[int]*Task
	ppid  map[int]int
	depth map[int]int
	prev  *Snapshot
}

// Build enumerates every pid under root into a new Snapshot. Each
// process gets one "whole process" Task carrying the data model's
// tid == -1 convention; when includeThreads is set, every thread listed
// under the process's task/ directory additionally gets its own Task
// with its real (non-negative) tid. gate, if non-nil, brackets every
// privileged read (io, smaps) the enumerated tasks perform; pass nil
// from tests or any caller that has not run privilege.Init.
func Build(root string, includeThreads bool, gate *privilege.Gate) (*Snapshot, error) {
	pids, err := kernel.ListPIDs(root)
	if err != nil {
		return nil, err
	}
	snap := &Snapshot{Root: root, At: time.Now(), byPID: map[int]*Task{}, ppid: map[int]int{}, depth: map[int]int{}}
	for _, pid := range pids {
		proc := &Task{root: root, pid: pid, tid: -1, gate: gate}
		snap.Tasks = append(snap.Tasks, proc)
		snap.byPID[pid] = proc

		if includeThreads {
			if tids, err := kernel.ListTasks(root, pid); err == nil {
				for _, tid := range tids {
					snap.Tasks = append(snap.Tasks, &Task{root: root, pid: pid, tid: tid, gate: gate})
				}
			}
		}
	}
	for pid, tk := range snap.byPID {
		snap.ppid[pid] = int(tk.Stat().PPID)
	}
	return snap, nil
}

// Depth returns pid's ancestry depth (init/pid 1 is depth 0), memoized
// per snapshot since the same ancestor chain is walked repeatedly while
// rendering a hierarchical view.
func (s *Snapshot) Depth(pid int) int {
	if d, ok := s.depth[pid]; ok {
		return d
	}
	ppid, ok := s.ppid[pid]
	if !ok || ppid == pid || ppid == 0 {
		s.depth[pid] = 0
		return 0
	}
	d := 1 + s.Depth(ppid)
	s.depth[pid] = d
	return d
}

// IsDescendant reports whether pid descends from ancestorPid by walking
// up pid's ppid chain. A pid is considered its own descendant (equality
// returns true): spec.md's Open Questions preserve this as observable
// behavior rather than calling it a bug.
func (s *Snapshot) IsDescendant(pid, ancestorPid int) bool {
	for p := pid; ; {
		if p == ancestorPid {
			return true
		}
		parent, ok := s.ppid[p]
		if !ok || parent == p {
			return false
		}
		p = parent
	}
}

// CompareHierarchy orders two pids for a hierarchical (tree-indented)
// view, grounded on the original's compare_hier: identical pids compare
// equal; otherwise tasks are ordered by ancestry depth, with a direct
// ancestor always sorting before its descendant regardless of depth
// delta, siblings (same parent) ordered by pid, and otherwise by
// recursing up to the shallower task's depth before comparing.
func (s *Snapshot) CompareHierarchy(a, b int) int {
	if a == b {
		return 0
	}
	if s.IsDescendant(b, a) {
		return -1
	}
	if s.IsDescendant(a, b) {
		return 1
	}
	da, db := s.Depth(a), s.Depth(b)
	for da > db {
		a = s.ppid[a]
		da--
	}
	for db > da {
		b = s.ppid[b]
		db--
	}
	if a == b {
		return 0
	}
	if s.ppid[a] == s.ppid[b] {
		if a < b {
			return -1
		}
		return 1
	}
	return s.CompareHierarchy(s.ppid[a], s.ppid[b])
}

// Fields resolves t into the flat row the format package renders.
// prev, if non-nil, is the immediately preceding Snapshot: rate
// properties compute (current - base)/(t1 - t0) against the matching
// task there, falling back to current/(now - start time) for a task
// seen for the first time, and forcing zero once a task has vanished.
func (s *Snapshot) Fields(t *Task) format.Fields {
	st := t.Stat()
	status := t.Status()
	pss, swap := t.RSS()
	_, rss := t.vsizeRSS()

	f := format.Fields{
		Pid: t.pid, Tid: t.tid,
		PPid: int(st.PPID), PGrp: int(st.PGRP), Session: int(st.Session),
		TTYNr: int(st.TTYNr), TPGid: int(st.TPGID),
		EUid: status.EUid, RUid: status.RUid,
		EGid: status.EGid, RGid: status.RGid,
		Comm: st.Comm, Cmdline: t.Cmdline(),
		State: st.State, Nice: st.Nice, Priority: st.Priority,
		NumThreads: st.NumThreads, Flags: st.Flags,
		VSize: st.VSize, RSS: rss, PSS: pss, Swap: swap,
		OomScore: t.OomScore(),
		InsnPointer: st.KStkEIP, WChan: st.WChan,
		Vanished: t.Vanished(),
		Now:      s.At,
	}

	boot := s.At.Add(-time.Duration(mustUptime(s.Root)) * time.Second)
	f.StartTime = boot.Add(time.Duration(st.StartTime/uint64(kernel.ClockTicks())) * time.Second)
	f.ElapsedSeconds = int64(s.At.Sub(f.StartTime).Seconds())
	if f.ElapsedSeconds < 0 {
		f.ElapsedSeconds = 0
	}
	f.ScheduledSeconds = int64((st.UTime + st.STime) / uint64(kernel.ClockTicks()))

	if pp, ok := s.byPID[f.PPid]; ok {
		f.ParentComm = pp.Stat().Comm
	}

	f.Depth = s.Depth(t.pid)

	if f.Vanished {
		return f
	}

	dt := 0.0
	var prevTask *Task
	if s.prev != nil {
		dt = s.At.Sub(s.prev.At).Seconds()
		prevTask = s.prev.byPID[t.pid]
	}
	cpuTicks := float64(st.UTime + st.STime)
	switch {
	case prevTask != nil && dt > 0:
		prevSt := prevTask.Stat()
		deltaTicks := util.DeltaU64(uint64(cpuTicks), prevSt.UTime+prevSt.STime)
		f.PCPU = util.Clamp01(util.SafeDiv(float64(deltaTicks)/float64(kernel.ClockTicks()), dt))
		io, pio := t.IO(), prevTask.IO()
		f.ReadRate = rateU(io.ReadBytes, pio.ReadBytes, dt)
		f.WriteRate = rateU(io.WriteBytes, pio.WriteBytes, dt)
		f.RWRate = f.ReadRate + f.WriteRate
		f.MinFltRate = rateU(st.MinFlt, prevSt.MinFlt, dt)
		f.MajFltRate = rateU(st.MajFlt, prevSt.MajFlt, dt)
	case f.ElapsedSeconds > 0:
		f.PCPU = util.Clamp01(util.SafeDiv(cpuTicks/float64(kernel.ClockTicks()), float64(f.ElapsedSeconds)))
		io := t.IO()
		f.ReadRate = util.SafeDiv(float64(io.ReadBytes), float64(f.ElapsedSeconds))
		f.WriteRate = util.SafeDiv(float64(io.WriteBytes), float64(f.ElapsedSeconds))
		f.RWRate = f.ReadRate + f.WriteRate
		f.MinFltRate = util.SafeDiv(float64(st.MinFlt), float64(f.ElapsedSeconds))
		f.MajFltRate = util.SafeDiv(float64(st.MajFlt), float64(f.ElapsedSeconds))
	}
	return f
}

// WithPrevious links s to the preceding Snapshot for rate computation.
// Snapshots are otherwise independent, immutable views, so this is a
// deliberate, explicit wiring step rather than an implicit "most recent
// snapshot" global.
func (s *Snapshot) WithPrevious(prev *Snapshot) { s.prev = prev }

func rateU(cur, base uint64, dt float64) float64 {
	return util.SafeDiv(float64(util.DeltaU64(cur, base)), dt)
}

func mustUptime(root string) float64 {
	u, _, err := kernel.Uptime(root)
	if err != nil {
		return 0
	}
	return u
}
