// Package sysinfo renders module J: the load/memory/swap/cpu/uptime
// summary top displays above its task table.
package sysinfo

import (
	"fmt"
	"strings"
	"time"

	"github.com/ja7ad/nps/pkg/format"
	"github.com/ja7ad/nps/pkg/kernel"
	"github.com/ja7ad/nps/pkg/system/util"
)

// Snapshot is one rendering of system-wide state, computed once per
// refresh alongside (but independently of) a task Snapshot.
type Snapshot struct {
	Uptime               time.Duration
	Load1, Load5, Load15 float64
	MemTotal, MemFree, MemAvailable, Buffers, Cached uint64
	SwapTotal, SwapFree  uint64
	CPU                  float64 // fraction busy, 0..1, since the previous sample
}

// Build reads the system-info sources under root once; cpu utilization
// needs a previous CPUTimes sample to derive a fraction, so Build takes
// the prior total (zero value is fine for the first call, which simply
// reports 0% busy) and returns the new total for the caller to keep.
func Build(root string, prevTotal kernel.CPUTimes) (Snapshot, kernel.CPUTimes, error) {
	var s Snapshot

	up, _, err := kernel.Uptime(root)
	if err != nil {
		return s, prevTotal, err
	}
	s.Uptime = time.Duration(up * float64(time.Second))

	s.Load1, s.Load5, s.Load15, err = kernel.LoadAvg(root)
	if err != nil {
		return s, prevTotal, err
	}

	mem, err := kernel.MemInfo(root)
	if err != nil {
		return s, prevTotal, err
	}
	s.MemTotal = mem["MemTotal"] * 1024
	s.MemFree = mem["MemFree"] * 1024
	s.MemAvailable = mem["MemAvailable"] * 1024
	s.Buffers = mem["Buffers"] * 1024
	s.Cached = mem["Cached"] * 1024
	s.SwapTotal = mem["SwapTotal"] * 1024
	s.SwapFree = mem["SwapFree"] * 1024

	total, _, err := kernel.SystemStat(root)
	if err != nil {
		return s, prevTotal, err
	}
	if prevTotal.Total() != 0 {
		deltaBusy := util.DeltaU64(total.Busy(), prevTotal.Busy())
		deltaTotal := util.DeltaU64(total.Total(), prevTotal.Total())
		s.CPU = util.Clamp01(util.SafeDiv(float64(deltaBusy), float64(deltaTotal)))
	}
	return s, total, nil
}

// Render formats the summary the way top's header block does: an
// uptime/load line, a memory line, a swap line, a CPU line and a
// local-time line, each a fixed,
// human-scaled layout rather than a column-model render (there is only
// ever one of each, so anti-wobble sizing does not apply).
func Render(s Snapshot, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "up %s, load average: %.2f, %.2f, %.2f\n",
		format.FormatInterval(int64(s.Uptime.Seconds()), true, 0, "", 0),
		s.Load1, s.Load5, s.Load15)
	fmt.Fprintf(&b, "Mem: %s total, %s free, %s available, %s buff/cache\n",
		format.Bytes(s.MemTotal, 0, 0, 1), format.Bytes(s.MemFree, 0, 0, 1),
		format.Bytes(s.MemAvailable, 0, 0, 1), format.Bytes(s.Buffers+s.Cached, 0, 0, 1))
	fmt.Fprintf(&b, "Swap: %s total, %s free\n",
		format.Bytes(s.SwapTotal, 0, 0, 1), format.Bytes(s.SwapFree, 0, 0, 1))
	fmt.Fprintf(&b, "CPU: %.1f%%\n", s.CPU*100)
	fmt.Fprintf(&b, "%s\n", now.Format("2006-01-02 15:04:05"))
	return b.String()
}
