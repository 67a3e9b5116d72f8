package format

import (
	"os/user"
	"strconv"
	"strings"
	"sync"

	"github.com/ja7ad/nps/pkg/device"
)

// userCache and groupCache memoize os/user lookups: a batch ps/top
// render touches the same handful of uids/gids for every task, and
// os/user reads /etc/passwd or /etc/group (or calls into nss) on every
// miss.
var (
	userCacheMu sync.Mutex
	userCache   = map[int64]string{}

	groupCacheMu sync.Mutex
	groupCache   = map[int64]string{}
)

// UserName resolves a uid to a login name, falling back to the decimal
// uid when no passwd entry exists (a deleted user still owning running
// tasks is unremarkable and must not be treated as an error).
func UserName(uid int64) string {
	userCacheMu.Lock()
	defer userCacheMu.Unlock()
	if name, ok := userCache[uid]; ok {
		return name
	}
	name := strconv.FormatInt(uid, 10)
	if u, err := user.LookupId(name); err == nil {
		name = u.Username
	}
	userCache[uid] = name
	return name
}

// GroupName resolves a gid to a group name, with the same numeric
// fallback as UserName.
func GroupName(gid int64) string {
	groupCacheMu.Lock()
	defer groupCacheMu.Unlock()
	if name, ok := groupCache[gid]; ok {
		return name
	}
	name := strconv.FormatInt(gid, 10)
	if g, err := user.LookupGroupId(name); err == nil {
		name = g.Name
	}
	groupCache[gid] = name
	return name
}

// TTYName resolves a controlling terminal's raw device number (as read
// from /proc/<pid>/stat's tty_nr field) to the short name ps/top display
// ("pts/3", "tty1"); ttyNr <= 0 means "no controlling terminal", shown
// as "?" the way the original does.
func TTYName(ttyNr int) string {
	if ttyNr <= 0 {
		return "?"
	}
	path, ok := device.Lookup(device.Char, uint64(ttyNr))
	if !ok {
		return "?"
	}
	return strings.TrimPrefix(path, "/dev/")
}
