//go:build unix

package log

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

func isDiskFull(err error) bool {
	return errors.Is(err, unix.ENOSPC)
}

// abortProcess raises SIGABRT and exits with status 2 if the signal does not
// end the process.
func abortProcess() {
	_ = unix.Kill(os.Getpid(), unix.SIGABRT)
	os.Exit(2)
}
