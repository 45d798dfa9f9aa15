//go:build linux

package log

import (
	"os"

	"golang.org/x/sys/unix"
)

// fadviseDontNeed tells the kernel the given range of f will not be read again.
func fadviseDontNeed(f *os.File, offset, length int64) error {
	return unix.Fadvise(int(f.Fd()), offset, length, unix.FADV_DONTNEED)
}
