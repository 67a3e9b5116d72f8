//go:build linux

package privilege

import "golang.org/x/sys/unix"

// capSysPtrace is the bit position of CAP_SYS_PTRACE in the Linux
// capability bitmask (see capability(7)).
const capSysPtrace = unix.CAP_SYS_PTRACE

// detectCapability checks whether CAP_SYS_PTRACE is in this process's
// permitted set, and if so, shrinks the permitted set down to just that
// capability and clears the effective set — a minimal retained
// capability is all this gate ever elevates to.
func detectCapability(*Gate) bool {
	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}
	var data [2]unix.CapUserData
	if err := unix.Capget(&hdr, &data[0]); err != nil {
		return false
	}
	word, bit := capSysPtrace/32, uint(capSysPtrace%32)
	if data[word].Permitted&(1<<bit) == 0 {
		return false
	}

	data[0].Permitted, data[1].Permitted = 0, 0
	data[0].Effective, data[1].Effective = 0, 0
	data[0].Inheritable, data[1].Inheritable = 0, 0
	data[word].Permitted |= 1 << bit
	return unix.Capset(&hdr, &data[0]) == nil
}

func setSysPtrace(effective bool) error {
	hdr := unix.CapUserHeader{Version: unix.LINUX_CAPABILITY_VERSION_3}
	var data [2]unix.CapUserData
	if err := unix.Capget(&hdr, &data[0]); err != nil {
		return err
	}
	word, bit := capSysPtrace/32, uint(capSysPtrace%32)
	if effective {
		data[word].Effective |= 1 << bit
	} else {
		data[word].Effective &^= 1 << bit
	}
	return unix.Capset(&hdr, &data[0])
}

func ascendCapability(*Gate) error  { return setSysPtrace(true) }
func descendCapability(*Gate) error { return setSysPtrace(false) }
