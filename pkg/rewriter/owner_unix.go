//go:build unix

package rewriter

import (
	"os"
	"syscall"
)

// fileOwner returns the uid and gid recorded in info, when the filesystem
// exposes them.
func fileOwner(info os.FileInfo) (uid, gid int, ok bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok || st == nil {
		return 0, 0, false
	}
	return int(st.Uid), int(st.Gid), true
}
