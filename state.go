package log

import (
	"sync/atomic"
	"time"
)

// State encapsulates the runtime state of the logger
type State struct {
	IsInitialized  atomic.Bool
	ShutdownCalled atomic.Bool
	PreInitWarned  atomic.Bool // The logging-before-init warning was printed

	LoggerStartTime atomic.Value // stores time.Time for uptime calculation

	// Statistics
	MessageCounts  [NumSeverities]atomic.Uint64 // Records dispatched per severity
	TotalRotations atomic.Uint64                // Files closed because of size or pid change
	FilesCreated   atomic.Uint64                // Successful file creations
	DroppedLogs    atomic.Uint64                // File writes lost to creation backoff, disk full or write errors
	DiskFullEvents atomic.Uint64                // Transitions into the disk full cooldown
	CleanerScans   atomic.Uint64                // Directory scans performed by the cleaner
	TotalDeletions atomic.Uint64                // Files removed by the cleaner
}

// Shutdown flushes and closes every log file. Records logged afterwards go to
// stderr until the logger is configured again. Safe to call more than once.
func (l *Logger) Shutdown() error {
	if !l.state.ShutdownCalled.CompareAndSwap(false, true) {
		return nil
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	if !l.state.IsInitialized.Load() {
		l.state.ShutdownCalled.Store(false)
		return nil
	}

	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()

	var finalErr error
	for sev, d := range l.files {
		if d == nil {
			continue
		}
		d.mu.Lock()
		if d.file != nil {
			if d.w != nil && !d.stopWriting {
				if err := d.w.Flush(); err != nil {
					finalErr = combineErrors(finalErr, fmtErrorf("failed to flush %s log file '%s' during shutdown: %w", Severity(sev), d.file.Name(), err))
				}
			}
			if err := d.file.Sync(); err != nil {
				finalErr = combineErrors(finalErr, fmtErrorf("failed to sync %s log file '%s' during shutdown: %w", Severity(sev), d.file.Name(), err))
			}
		}
		d.closeLocked()
		d.mu.Unlock()
		l.files[sev] = nil
	}
	for _, w := range l.writers {
		if w != nil {
			w.Flush()
		}
	}

	l.state.IsInitialized.Store(false)
	l.state.PreInitWarned.Store(false)
	l.state.ShutdownCalled.Store(false)
	return finalErr
}

// FlushLogFiles flushes the files of every severity at or above minSeverity.
func (l *Logger) FlushLogFiles(minSeverity Severity) {
	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()

	for s := minSeverity; s < NumSeverities; s++ {
		if s < SeverityInfo {
			continue
		}
		if w := l.writers[s]; w != nil {
			w.Flush()
		} else if d := l.files[s]; d != nil {
			d.Flush()
		}
	}
}

// startTime returns when the logger was created.
func (l *Logger) startTime() time.Time {
	if t, ok := l.state.LoggerStartTime.Load().(time.Time); ok {
		return t
	}
	return time.Time{}
}
