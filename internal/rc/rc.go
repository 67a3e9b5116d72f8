// Package rc reads and writes $HOME/.npsrc, the persisted-defaults file
// spec.md's external interfaces describe: a small, sorted key=value
// file carrying the last-used format/order/delay settings so a bare
// invocation of ps or top behaves like the previous one.
package rc

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Keys lists the exactly seven settings an rc file may carry, grounded
// verbatim on the original's RC_ITEM table and kept in the same sorted
// order that table's binary search relied on.
var Keys = []string{
	"ps_f_format",
	"ps_format",
	"ps_l_format",
	"top_delay",
	"top_format",
	"top_order",
	"top_sysinfo",
}

func init() {
	if !sort.StringsAreSorted(Keys) {
		panic("rc: Keys must stay sorted")
	}
}

// File is the parsed contents of an rc file: a subset of Keys to their
// values. Keys absent here take their compiled-in default.
type File map[string]string

// Path returns $HOME/.npsrc, falling back to $HOME itself (never to a
// cgo passwd-database lookup — os.UserHomeDir covers the same ground
// for every caller this module supports).
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		home = os.Getenv("HOME")
	}
	if home == "" {
		return "", fmt.Errorf("rc: cannot determine home directory")
	}
	return filepath.Join(home, ".npsrc"), nil
}

// Read parses the rc file at path. A missing file is not an error: it
// simply yields an empty File, the same as "no overrides configured".
func Read(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return File{}, nil
		}
		return nil, err
	}
	defer f.Close()

	out := File{}
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("rc: %s:%d: missing '=' in %q", path, lineNo, line)
		}
		key = strings.TrimSpace(key)
		if !isKnownKey(key) {
			return nil, fmt.Errorf("rc: %s:%d: unknown key %q", path, lineNo, key)
		}
		out[key] = strings.TrimSpace(val)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func isKnownKey(key string) bool {
	i := sort.SearchStrings(Keys, key)
	return i < len(Keys) && Keys[i] == key
}

// Write persists f to path via a temp-file-then-rename (path + ".new",
// i.e. ".npsrc.new"), so a crash or concurrent reader never observes a
// half-written rc file.
func Write(path string, f File) error {
	tmpPath := path + ".new"
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return err
	}
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	for _, key := range Keys {
		val, ok := f[key]
		if !ok {
			continue
		}
		if _, err := fmt.Fprintf(tmp, "%s=%s\n", key, val); err != nil {
			tmp.Close()
			return err
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
