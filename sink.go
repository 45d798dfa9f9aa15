package log

import (
	"fmt"
	"sync"
	"time"
)

// Sink is an externally owned output target notified of every dispatched record.
//
// Send is called while the logger's dispatch lock is held. An implementation must
// not log through the same Logger from inside Send; doing so deadlocks.
// Asynchronous sinks may hand the record to another goroutine in Send and block
// in WaitTillSent until it is delivered; WaitTillSent runs without the dispatch lock.
//
// Sinks are registered and removed by identity, so implementations should be
// pointer types.
type Sink interface {
	Send(sev Severity, fullPath, basePath string, line int, ts time.Time, msg []byte)
	WaitTillSent()
}

// FormatSinkMessage renders a sink message with the standard line prefix,
// for sinks that want the same layout as the log files.
func FormatSinkMessage(sev Severity, file string, line int, ts time.Time, msg []byte) string {
	return fmt.Sprintf("%s.%06d [%s:%d][%s]: %s",
		ts.Format("2006-01-02 15:04:05"), ts.Nanosecond()/1000, file, line, sev, msg)
}

// sinkRegistry is the ordered list of registered sinks. The list has its own lock,
// separate from the dispatch lock, so that registration does not contend with file I/O.
type sinkRegistry struct {
	mu    sync.RWMutex
	sinks []Sink
}

func (r *sinkRegistry) add(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sinks = append(r.sinks, s)
}

// remove drops every registration of s, keeping the order of the rest.
func (r *sinkRegistry) remove(s Sink) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.sinks[:0]
	for _, existing := range r.sinks {
		if existing != s {
			kept = append(kept, existing)
		}
	}
	// Clear the tail so removed sinks are not retained
	for i := len(kept); i < len(r.sinks); i++ {
		r.sinks[i] = nil
	}
	r.sinks = kept
}

func (r *sinkRegistry) len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sinks)
}

// dispatch sends the record body to every sink, most recently added first.
// Caller holds the dispatch lock.
func (r *sinkRegistry) dispatch(rec *Record) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.sinks) == 0 {
		return
	}
	body := rec.sinkBody()
	base := rec.BaseFile()
	for i := len(r.sinks) - 1; i >= 0; i-- {
		r.sinks[i].Send(rec.Severity, rec.File, base, rec.Line, rec.Timestamp, body)
	}
}

// waitForCompletion waits on every sink in dispatch order, then on the record's own sink.
// Caller must not hold the dispatch lock.
func (r *sinkRegistry) waitForCompletion(rec *Record) {
	r.mu.RLock()
	for i := len(r.sinks) - 1; i >= 0; i-- {
		r.sinks[i].WaitTillSent()
	}
	r.mu.RUnlock()

	if rec.dest.kind == DestinationSink && rec.dest.sink != nil {
		rec.dest.sink.WaitTillSent()
	}
}
