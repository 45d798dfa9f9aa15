//go:build !unix

package log

import (
	"errors"
	"os"
	"syscall"
)

func isDiskFull(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}

func abortProcess() {
	os.Exit(2)
}
