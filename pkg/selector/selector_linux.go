//go:build linux

package selector

import (
	"fmt"
	"os"
	"strings"
	"syscall"
)

// resolveTTYNr resolves one terminal name, accepted as "/dev/X", "X" or
// "ttyX" (spec.md §4.F), by stat'ing the candidate device node and
// requiring it be a character device; its raw device number (rdev) is
// the result.
func resolveTTYNr(name string) (int, error) {
	var candidates []string
	switch {
	case strings.HasPrefix(name, "/dev/"):
		candidates = []string{name}
	case strings.HasPrefix(name, "tty"):
		candidates = []string{"/dev/" + name}
	default:
		candidates = []string{"/dev/" + name, "/dev/tty" + name}
	}
	for _, path := range candidates {
		fi, err := os.Stat(path)
		if err != nil {
			continue
		}
		if fi.Mode()&os.ModeCharDevice == 0 {
			continue
		}
		st, ok := fi.Sys().(*syscall.Stat_t)
		if !ok {
			continue
		}
		return int(st.Rdev), nil
	}
	return 0, fmt.Errorf("%q: no such character-device terminal", name)
}
