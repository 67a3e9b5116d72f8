// Package device builds a one-shot map from (type, device-number) pairs
// to filesystem paths by scanning a device tree, mirroring what the tty
// property needs to turn a controlling-terminal device number into a
// path like "/dev/pts/3".
package device

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Kind distinguishes character devices from block devices; device
// numbers are only unique within one kind.
type Kind int

const (
	Char Kind = iota
	Block
)

type entry struct {
	kind   Kind
	rdev   uint64
	path   string
}

// Map is a sorted, searchable (kind, device-number) → path table built
// from a single recursive scan of a device directory.
type Map struct {
	entries []entry
}

// Build recursively scans dir (normally "/dev") for character and block
// special files and returns a Map sorted for O(log n) lookup.
func Build(dir string) (*Map, error) {
	m := &Map{}
	if err := m.scan(dir); err != nil {
		return nil, err
	}
	sort.Slice(m.entries, func(i, j int) bool {
		a, b := m.entries[i], m.entries[j]
		if a.kind != b.kind {
			return a.kind < b.kind
		}
		return a.rdev < b.rdev
	})
	return m, nil
}

func (m *Map) scan(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		// A subtree we can't read (permissions, races with device churn)
		// just contributes nothing; the top-level caller still fails if
		// the root itself is unreadable.
		return err
	}
	for _, de := range entries {
		if de.Name()[0] == '.' {
			continue
		}
		path := filepath.Join(dir, de.Name())
		info, err := os.Lstat(path)
		if err != nil {
			continue
		}
		mode := info.Mode()
		switch {
		case mode.IsDir():
			_ = m.scan(path) // best-effort: skip subtrees we can't read
		case mode&os.ModeDevice != 0:
			kind := Char
			if mode&os.ModeCharDevice == 0 {
				kind = Block
			}
			rdev := rdevOf(info)
			m.entries = append(m.entries, entry{kind: kind, rdev: rdev, path: path})
		}
	}
	return nil
}

// Path looks up the filesystem path for a (kind, device-number) pair.
// The original implementation's binary search narrows by kind and by
// device number in two independent branches of the same iteration,
// which lets a device-number match at the wrong kind return a path from
// the other kind's range; this port instead compares (kind, rdev) as
// one composite key per step.
func (m *Map) Path(kind Kind, rdev uint64) (string, bool) {
	lo, hi := 0, len(m.entries)-1
	for lo <= hi {
		mid := lo + (hi-lo)/2
		e := m.entries[mid]
		switch {
		case kind < e.kind || (kind == e.kind && rdev < e.rdev):
			hi = mid - 1
		case kind > e.kind || (kind == e.kind && rdev > e.rdev):
			lo = mid + 1
		default:
			return e.path, true
		}
	}
	return "", false
}

// lazy is a process-wide, build-once device map, since /dev rarely
// changes across the lifetime of one ps/top invocation.
var lazy struct {
	once sync.Once
	m    *Map
	err  error
}

// Lookup resolves a device using the lazily-built map rooted at "/dev".
// It is safe to call concurrently; the underlying scan happens once.
func Lookup(kind Kind, rdev uint64) (string, bool) {
	lazy.once.Do(func() {
		lazy.m, lazy.err = Build("/dev")
	})
	if lazy.err != nil || lazy.m == nil {
		return "", false
	}
	return lazy.m.Path(kind, rdev)
}
