package log

import (
	"time"
)

const preInitWarning = "WARNING: Logging before ApplyConfig() is written to STDERR\n"

// Log dispatches a pre-formatted record. Records below min_log_level are dropped.
func (l *Logger) Log(rec *Record) {
	if rec == nil {
		return
	}
	if !rec.Severity.valid() {
		l.internalLog("dropping record with invalid severity %d from %s:%d\n", int(rec.Severity), rec.BaseFile(), rec.Line)
		return
	}
	cfg := l.getConfig()
	if rec.Severity < Severity(cfg.MinLogLevel) {
		return
	}

	fatal := rec.Severity == SeverityFatal && cfg.ExitOnFatal && rec.dest.reachesLog()
	first := false
	if fatal {
		rec, first = l.fatal.claim(rec)
	}

	restore := rec.terminate()
	defer restore()

	// The fatal path releases the lock itself
	l.dispatchMu.Lock()

	switch rec.dest.kind {
	case DestinationLines:
		*rec.dest.lines = append(*rec.dest.lines, string(rec.sinkBody()))
	case DestinationSink:
		rec.dest.sink.Send(rec.Severity, rec.File, rec.BaseFile(), rec.Line, rec.Timestamp, rec.sinkBody())
		if rec.dest.alsoLog {
			l.sendToLog(cfg, rec)
		}
	case DestinationString:
		*rec.dest.str = string(rec.sinkBody())
		l.sendToLog(cfg, rec)
	default:
		l.sendToLog(cfg, rec)
	}
	l.state.MessageCounts[rec.Severity].Add(1)

	if fatal {
		if first {
			l.fatal.recordCrash(rec)
		}
		l.terminate(cfg, rec)
		return
	}

	l.dispatchMu.Unlock()
	l.sinks.waitForCompletion(rec)
}

// sendToLog runs the normal pipeline: files (or a forced console stream), the
// stderr echo, then the registered sinks. The caller holds the dispatch lock.
func (l *Logger) sendToLog(cfg *Config, rec *Record) {
	initialized := l.state.IsInitialized.Load()
	if !initialized && l.state.PreInitWarned.CompareAndSwap(false, true) {
		l.console.writeStderr(preInitWarning)
	}

	if cfg.LogToStdout || cfg.LogToStderr || !initialized {
		stdout, stderr := l.console.writers()
		if cfg.LogToStdout {
			l.console.write(stdout, true, cfg, rec.Severity, rec.msg)
		} else {
			l.console.write(stderr, false, cfg, rec.Severity, rec.msg)
		}
	} else {
		l.logToAllFiles(cfg, rec.Severity, rec.Timestamp, rec.msg)
		if int64(rec.Severity) >= cfg.StderrThreshold || cfg.AlsoLogToStderr {
			_, stderr := l.console.writers()
			l.console.write(stderr, false, cfg, rec.Severity, rec.msg)
		}
	}

	l.sinks.dispatch(rec)
}

// logToAllFiles writes msg to the files of sev and every lower severity, most
// severe first. A forced console stream replaces the files. The caller holds the
// dispatch lock.
func (l *Logger) logToAllFiles(cfg *Config, sev Severity, ts time.Time, msg []byte) {
	switch {
	case cfg.LogToStdout:
		stdout, _ := l.console.writers()
		l.console.write(stdout, true, cfg, sev, msg)
	case cfg.LogToStderr:
		_, stderr := l.console.writers()
		l.console.write(stderr, false, cfg, sev, msg)
	default:
		for s := sev; s >= SeverityInfo; s-- {
			l.fileWriter(s).Write(int64(s) > cfg.LogBufLevel, ts, msg)
		}
	}
}

// fileWriter returns the writer of sev, creating the built-in destination on
// first use. The caller holds the dispatch lock.
func (l *Logger) fileWriter(sev Severity) FileWriter {
	if w := l.writers[sev]; w != nil {
		return w
	}
	return l.destination(sev)
}

// destination returns the built-in file destination of sev. The caller holds the
// dispatch lock.
func (l *Logger) destination(sev Severity) *fileDestination {
	if l.files[sev] == nil {
		l.files[sev] = newFileDestination(l, sev, "")
		l.files[sev].ext = l.getConfig().Extension
	}
	return l.files[sev]
}
