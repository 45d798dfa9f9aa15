package log

import (
	"fmt"
	"runtime"
	"time"
)

// Logger instance methods for logging at different severities.

// Info logs a message at info severity.
func (l *Logger) Info(args ...any) {
	l.output(1, SeverityInfo, ToLog(), false, "", args)
}

// Infof logs a formatted message at info severity.
func (l *Logger) Infof(format string, args ...any) {
	l.output(1, SeverityInfo, ToLog(), true, format, args)
}

// Warning logs a message at warning severity.
func (l *Logger) Warning(args ...any) {
	l.output(1, SeverityWarning, ToLog(), false, "", args)
}

// Warningf logs a formatted message at warning severity.
func (l *Logger) Warningf(format string, args ...any) {
	l.output(1, SeverityWarning, ToLog(), true, format, args)
}

// Error logs a message at error severity.
func (l *Logger) Error(args ...any) {
	l.output(1, SeverityError, ToLog(), false, "", args)
}

// Errorf logs a formatted message at error severity.
func (l *Logger) Errorf(format string, args ...any) {
	l.output(1, SeverityError, ToLog(), true, format, args)
}

// Fatal logs a message at fatal severity. With exit_on_fatal set, the files are
// flushed and the failure function ends the process; Fatal does not return.
func (l *Logger) Fatal(args ...any) {
	l.output(1, SeverityFatal, ToLog(), false, "", args)
}

// Fatalf logs a formatted message at fatal severity. See Fatal.
func (l *Logger) Fatalf(format string, args ...any) {
	l.output(1, SeverityFatal, ToLog(), true, format, args)
}

// LogDepth logs at sev, attributing the record to the caller depth frames above
// the caller of LogDepth. Adapters use it to skip their own frames.
func (l *Logger) LogDepth(depth int, sev Severity, args ...any) {
	l.output(depth+1, sev, ToLog(), false, "", args)
}

// LogDepthf is the formatted variant of LogDepth.
func (l *Logger) LogDepthf(depth int, sev Severity, format string, args ...any) {
	l.output(depth+1, sev, ToLog(), true, format, args)
}

// LogTo sends a message to s only, or to s and the normal outputs when alsoLog is set.
func (l *Logger) LogTo(s Sink, alsoLog bool, sev Severity, args ...any) {
	if s == nil {
		l.output(1, sev, ToLog(), false, "", args)
		return
	}
	l.output(1, sev, ToSink(s, alsoLog), false, "", args)
}

// CaptureString stores the message body in *target and logs the message normally.
func (l *Logger) CaptureString(target *string, sev Severity, args ...any) {
	l.output(1, sev, ToString(target), false, "", args)
}

// CaptureLines appends the message body to *lines without logging it.
func (l *Logger) CaptureLines(lines *[]string, sev Severity, args ...any) {
	l.output(1, sev, ToLines(lines), false, "", args)
}

// output formats a record for the caller skip frames up and dispatches it.
func (l *Logger) output(skip int, sev Severity, dest Destination, formatted bool, format string, args []any) {
	cfg := l.getConfig()
	if sev < Severity(cfg.MinLogLevel) {
		return
	}

	ts := time.Now()
	_, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		file = "???"
		line = 1
	}

	s := getSerializer()
	defer putSerializer(s)

	prefixLen := s.appendPrefix(cfg, ts, file, line, sev)
	if formatted {
		s.buf = fmt.Appendf(s.buf, format, args...)
	} else {
		s.appendArgs(args)
	}

	rec, err := NewRecord(sev, ts, file, line, s.buf, prefixLen, dest)
	if err != nil {
		l.internalLog("dropping record: %v\n", err)
		return
	}
	l.Log(rec)
}
