// Package rotating provides a log sink that writes formatted lines to a
// size-rotated file with bounded backups. Backups are kept uncompressed.
package rotating

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	log "github.com/lizyzzz/lizy-log"
)

var _ log.Sink = (*Sink)(nil)

// Sink appends every record at or above its minimum severity to a lumberjack
// managed file. Writes are synchronous, so WaitTillSent has nothing to wait for.
type Sink struct {
	mu     sync.Mutex
	lj     *lumberjack.Logger
	minSev log.Severity
	closed bool
	errs   uint64
}

// Option configures a Sink.
type Option func(*Sink)

// WithMaxSizeMB sets the size at which the file is rotated.
func WithMaxSizeMB(mb int) Option {
	return func(s *Sink) { s.lj.MaxSize = mb }
}

// WithMaxBackups limits how many rotated files are kept. Zero keeps all.
func WithMaxBackups(n int) Option {
	return func(s *Sink) { s.lj.MaxBackups = n }
}

// WithMaxAgeDays removes rotated files older than days. Zero keeps all.
func WithMaxAgeDays(days int) Option {
	return func(s *Sink) { s.lj.MaxAge = days }
}

// WithUTC names backups with UTC timestamps.
func WithUTC(enable bool) Option {
	return func(s *Sink) { s.lj.LocalTime = !enable }
}

// WithMinSeverity drops records below sev.
func WithMinSeverity(sev log.Severity) Option {
	return func(s *Sink) { s.minSev = sev }
}

// New creates the sink. The file's directory is created if missing; the file
// itself is opened on the first write.
func New(path string, opts ...Option) (*Sink, error) {
	if path == "" {
		return nil, fmt.Errorf("rotating sink: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("rotating sink: create directory: %w", err)
	}

	s := &Sink{
		lj: &lumberjack.Logger{
			Filename:  path,
			MaxSize:   100,
			LocalTime: true,
			Compress:  false,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Send writes the record as one line in the log file layout.
func (s *Sink) Send(sev log.Severity, _, basePath string, line int, ts time.Time, msg []byte) {
	if sev < s.minSev {
		return
	}
	formatted := log.FormatSinkMessage(sev, basePath, line, ts, msg) + "\n"

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if _, err := s.lj.Write([]byte(formatted)); err != nil {
		s.errs++
	}
}

// WaitTillSent returns immediately.
func (s *Sink) WaitTillSent() {}

// WriteErrors returns how many records failed to write.
func (s *Sink) WriteErrors() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs
}

// Rotate closes the current file, renames it with a timestamp and opens a new one.
func (s *Sink) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return os.ErrClosed
	}
	return s.lj.Rotate()
}

// Close closes the file. Later records are dropped.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.lj.Close(); err != nil {
		return fmt.Errorf("rotating sink: close: %w", err)
	}
	return nil
}
