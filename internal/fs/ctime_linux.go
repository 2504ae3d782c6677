//go:build linux

package fs

import (
	"os"
	"syscall"
	"time"
)

// Linux does not expose birth time through stat(2), the inode change time is the closest match.
func createdAt(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	}
	return info.ModTime()
}
