package log

import (
	"sync"
	"sync/atomic"
	"time"
)

// CrashReason describes the first FATAL record of a Logger.
type CrashReason struct {
	File    string
	Line    int
	Message string // Body without the line prefix
	Time    time.Time
}

var failureFunc atomic.Pointer[func()]

func init() {
	f := abortProcess
	failureFunc.Store(&f)
}

// InstallFailureFunction replaces the function called after a FATAL record has
// been flushed. The last installation wins. The function must not return; if it
// does, the calling goroutine is parked.
func InstallFailureFunction(f func()) {
	if f == nil {
		f = abortProcess
	}
	failureFunc.Store(&f)
}

// fatalArbiter decides which concurrent FATAL record is authoritative.
type fatalArbiter struct {
	mu        sync.Mutex
	claimed   bool    // one-way
	exclusive *Record // written once by the first fatal
	shared    *Record // overwritten by every later fatal, under mu

	reason     atomic.Pointer[CrashReason]
	message    [fatalMessageLen]byte
	messageLen int
	messageAt  time.Time
	messageSet atomic.Bool

	terminating atomic.Bool
}

func newFatalArbiter() *fatalArbiter {
	return &fatalArbiter{
		exclusive: &Record{msg: make([]byte, 0, MaxMessageLen+1)},
		shared:    &Record{msg: make([]byte, 0, MaxMessageLen+1)},
	}
}

// claim copies rec into a fatal slot. The first caller gets the exclusive slot
// and first=true; its record is returned for dispatch. Later callers leave a copy
// in the shared slot and keep their own record.
func (a *fatalArbiter) claim(rec *Record) (slot *Record, first bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.claimed {
		a.claimed = true
		rec.cloneInto(a.exclusive)
		return a.exclusive, true
	}
	rec.cloneInto(a.shared)
	return rec, false
}

// recordCrash publishes the crash reason and keeps a short copy of the message.
// Only the exclusive slot holder calls it.
func (a *fatalArbiter) recordCrash(rec *Record) {
	a.reason.CompareAndSwap(nil, &CrashReason{
		File:    rec.File,
		Line:    rec.Line,
		Message: string(rec.sinkBody()),
		Time:    rec.Timestamp,
	})

	n := copy(a.message[:fatalMessageLen-1], rec.msg)
	a.messageLen = n
	a.messageAt = rec.Timestamp
	a.messageSet.Store(true)
}

func (a *fatalArbiter) fatalMessage() ([]byte, time.Time, bool) {
	if !a.messageSet.Load() {
		return nil, time.Time{}, false
	}
	return a.message[:a.messageLen], a.messageAt, true
}

// terminationToken is held only by the goroutine running the termination
// sequence, with the dispatch lock still held.
type terminationToken struct {
	l *Logger
}

// beginTermination hands out the token once per Logger.
func (a *fatalArbiter) beginTermination(l *Logger) (terminationToken, bool) {
	if !a.terminating.CompareAndSwap(false, true) {
		return terminationToken{}, false
	}
	return terminationToken{l: l}, true
}

// CrashReason returns the first FATAL record's details, or nil.
func (l *Logger) CrashReason() *CrashReason {
	return l.fatal.reason.Load()
}

// ReprintFatalMessage writes the stored start of the first FATAL message to stderr
// and, at ERROR severity, to the log files. It is a no-op before any fatal.
func (l *Logger) ReprintFatalMessage() {
	msg, ts, ok := l.fatal.fatalMessage()
	if !ok {
		return
	}
	cfg := l.getConfig()

	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()

	if !cfg.LogToStderr {
		// Uncolored so no terminal check runs here
		_, stderr := l.console.writers()
		_, _ = stderr.Write(msg)
	}
	l.logToAllFiles(cfg, SeverityError, ts, msg)
}

// flushAllUnsafe flushes every open file without taking the file locks.
// The token guarantees the dispatch lock is held and no other writer is active.
func (l *Logger) flushAllUnsafe(tok terminationToken) {
	if tok.l != l {
		return
	}
	now := time.Now()
	for _, d := range l.files {
		if d != nil {
			d.flushUnlocked(now)
		}
	}
	for _, w := range l.writers {
		if w != nil {
			w.Flush()
		}
	}
}

// terminate finishes a FATAL dispatch. The caller holds the dispatch lock; it is
// released here. Exactly one goroutine per Logger runs the failure function, any
// other is parked.
func (l *Logger) terminate(cfg *Config, rec *Record) {
	tok, ok := l.fatal.beginTermination(l)
	if !ok {
		l.dispatchMu.Unlock()
		l.sinks.waitForCompletion(rec)
		select {}
	}

	if !cfg.LogToStderr && !cfg.LogToStdout {
		l.flushAllUnsafe(tok)
	}
	l.dispatchMu.Unlock()

	l.sinks.waitForCompletion(rec)
	l.console.writeStderr(fatalMarker)

	(*failureFunc.Load())()
	// A failure function that returns breaks its contract
	select {}
}
