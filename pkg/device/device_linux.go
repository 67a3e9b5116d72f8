//go:build linux

package device

import (
	"os"
	"syscall"
)

// rdevOf extracts the raw device number (major/minor packed) that lstat
// reports for a character or block special file.
func rdevOf(info os.FileInfo) uint64 {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Rdev)
	}
	return 0
}
