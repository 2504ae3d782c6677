//go:build !linux && !darwin && !windows

package fs

import (
	"os"
	"time"
)

func createdAt(info os.FileInfo) time.Time {
	return info.ModTime()
}
