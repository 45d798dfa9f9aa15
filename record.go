package log

import (
	"time"
)

// DestinationKind selects where a record goes besides, or instead of, the normal pipeline.
type DestinationKind int

const (
	// DestinationLog sends the record through files, console and registered sinks
	DestinationLog DestinationKind = iota
	// DestinationSink sends the record to one sink, and optionally the normal pipeline
	DestinationSink
	// DestinationString stores the message body in a string, then logs normally
	DestinationString
	// DestinationLines appends the message body to a slice instead of logging
	DestinationLines
)

// Destination is the alternate target of a record. Exactly one payload is set,
// matching Kind; use ToLog, ToSink, ToString or ToLines to build one.
type Destination struct {
	kind    DestinationKind
	sink    Sink
	alsoLog bool
	str     *string
	lines   *[]string
}

// ToLog is the default destination.
func ToLog() Destination {
	return Destination{kind: DestinationLog}
}

// ToSink delivers the record to s. With alsoLog the record also goes through the normal pipeline.
func ToSink(s Sink, alsoLog bool) Destination {
	return Destination{kind: DestinationSink, sink: s, alsoLog: alsoLog}
}

// ToString stores the message body in *s and logs the record normally.
func ToString(s *string) Destination {
	return Destination{kind: DestinationString, str: s}
}

// ToLines appends the message body to *lines; the record is not logged.
func ToLines(lines *[]string) Destination {
	return Destination{kind: DestinationLines, lines: lines}
}

// Kind returns the active variant.
func (d Destination) Kind() DestinationKind {
	return d.kind
}

// reachesLog reports whether the normal pipeline sees the record.
func (d Destination) reachesLog() bool {
	switch d.kind {
	case DestinationLines:
		return false
	case DestinationSink:
		return d.alsoLog
	default:
		return true
	}
}

func (d Destination) validate() error {
	switch d.kind {
	case DestinationLog:
		return nil
	case DestinationSink:
		if d.sink == nil {
			return fmtErrorf("sink destination without a sink")
		}
	case DestinationString:
		if d.str == nil {
			return fmtErrorf("string destination without a target")
		}
	case DestinationLines:
		if d.lines == nil {
			return fmtErrorf("lines destination without a target")
		}
	default:
		return fmtErrorf("unknown destination kind %d", d.kind)
	}
	return nil
}

// Record is one formatted log entry handed to the dispatcher.
type Record struct {
	Severity  Severity
	Timestamp time.Time
	File      string // Full source path
	Line      int

	dest      Destination
	msg       []byte // prefix + body, at most MaxMessageLen bytes
	prefixLen int
	truncated bool
}

// NewRecord builds a record from an already formatted message. The first prefixLen
// bytes of msg are the line prefix; they are stripped for sinks and captures.
// Messages longer than MaxMessageLen are truncated.
func NewRecord(sev Severity, ts time.Time, file string, line int, msg []byte, prefixLen int, dest Destination) (*Record, error) {
	if !sev.valid() {
		return nil, fmtErrorf("invalid severity %d", sev)
	}
	if err := dest.validate(); err != nil {
		return nil, err
	}
	if prefixLen < 0 || prefixLen > len(msg) {
		return nil, fmtErrorf("prefix length %d outside message of %d bytes", prefixLen, len(msg))
	}

	r := &Record{
		Severity:  sev,
		Timestamp: ts,
		File:      file,
		Line:      line,
		dest:      dest,
		prefixLen: prefixLen,
	}

	n := len(msg)
	if n > MaxMessageLen {
		n = MaxMessageLen
		r.truncated = true
		if r.prefixLen > n {
			r.prefixLen = n
		}
	}
	// One spare byte so the trailing newline never reallocates
	r.msg = make([]byte, n, n+1)
	copy(r.msg, msg[:n])
	return r, nil
}

// Message returns the full formatted text, prefix included.
func (r *Record) Message() []byte {
	return r.msg
}

// Body returns the message without its prefix.
func (r *Record) Body() []byte {
	return r.msg[r.prefixLen:]
}

// Destination returns the record's alternate destination.
func (r *Record) Destination() Destination {
	return r.dest
}

// Truncated reports whether the message exceeded MaxMessageLen.
func (r *Record) Truncated() bool {
	return r.truncated
}

// BaseFile returns the final element of the source path.
func (r *Record) BaseFile() string {
	return basename(r.File)
}

// terminate appends a newline unless the message already ends with one.
// The returned function restores the original length.
func (r *Record) terminate() (restore func()) {
	if n := len(r.msg); n > 0 && r.msg[n-1] == '\n' {
		return func() {}
	}
	r.msg = append(r.msg, '\n')
	return func() { r.msg = r.msg[:len(r.msg)-1] }
}

// sinkBody returns the body without the trailing newline, for sinks and captures.
func (r *Record) sinkBody() []byte {
	body := r.Body()
	if n := len(body); n > 0 && body[n-1] == '\n' {
		body = body[:n-1]
	}
	return body
}

// cloneInto copies the record into dst, reusing dst's buffer.
func (r *Record) cloneInto(dst *Record) {
	buf := append(dst.msg[:0], r.msg...)
	*dst = *r
	dst.msg = buf
}
