package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Logger is the core struct that encapsulates all logger functionality.
// Destinations, sinks, the cleaner schedule and the fatal slots all belong to one
// Logger; the failure function is process-wide.
type Logger struct {
	currentConfig atomic.Value // stores *Config
	state         State
	initMu        sync.Mutex

	// dispatchMu serializes record delivery, the per-severity file table and
	// sink Send calls.
	dispatchMu sync.Mutex
	files      [NumSeverities]*fileDestination
	writers    [NumSeverities]FileWriter // Replacements installed by SetFileWriter

	sinks   sinkRegistry
	cleaner *logCleaner
	console *console
	fatal   *fatalArbiter
}

// NewLogger creates a new Logger instance with default settings.
// Records are written to stderr until ApplyConfig is called.
func NewLogger() *Logger {
	l := &Logger{
		console: newConsole(),
		fatal:   newFatalArbiter(),
	}
	l.cleaner = newLogCleaner(l)

	// Set default configuration
	l.currentConfig.Store(DefaultConfig())

	l.state.IsInitialized.Store(false)
	l.state.ShutdownCalled.Store(false)
	l.state.LoggerStartTime.Store(time.Now())

	return l
}

// ApplyConfig applies a validated configuration to the logger
// This is the primary way applications should configure the logger
func (l *Logger) ApplyConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("log: configuration cannot be nil")
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("log: invalid configuration: %w", err)
	}

	l.initMu.Lock()
	defer l.initMu.Unlock()

	return l.applyConfig(cfg.Clone())
}

// GetConfig returns a copy of current configuration
func (l *Logger) GetConfig() *Config {
	return l.getConfig().Clone()
}

// getConfig returns the current configuration (thread-safe)
func (l *Logger) getConfig() *Config {
	return l.currentConfig.Load().(*Config)
}

// applyConfig is the internal implementation for applying configuration, assuming initMu is held
func (l *Logger) applyConfig(cfg *Config) error {
	oldCfg := l.getConfig()

	// Ensure an explicit log directory exists
	if cfg.LogDir != "" && !cfg.LogToStderr && !cfg.LogToStdout {
		if err := os.MkdirAll(cfg.LogDir, 0755); err != nil {
			return fmtErrorf("failed to create log directory '%s': %w", cfg.LogDir, err)
		}
	}
	if cfg.LogLink != "" {
		if err := os.MkdirAll(cfg.LogLink, 0755); err != nil {
			return fmtErrorf("failed to create log link directory '%s': %w", cfg.LogLink, err)
		}
	}

	l.dispatchMu.Lock()
	l.currentConfig.Store(cfg)

	dirChanged := oldCfg.LogDir != cfg.LogDir
	namingChanged := oldCfg.TimestampInFilename != cfg.TimestampInFilename
	for _, d := range l.files {
		if d == nil {
			continue
		}
		if oldCfg.Extension != cfg.Extension {
			d.SetExtension(cfg.Extension)
		}
		d.mu.Lock()
		// Auto-named files move to the new directory on their next write
		if (dirChanged && !d.baseSelected) || namingChanged {
			d.closeLocked()
		}
		d.mu.Unlock()
	}
	l.dispatchMu.Unlock()

	if cfg.EnableCleaner && !oldCfg.EnableCleaner {
		l.cleaner.reset()
	}

	l.state.IsInitialized.Store(true)
	return nil
}

// SetFileWriter replaces the file output of sev. A nil writer restores the
// built-in rotating file.
func (l *Logger) SetFileWriter(sev Severity, w FileWriter) error {
	if !sev.valid() {
		return fmtErrorf("invalid severity %d", sev)
	}
	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()
	l.writers[sev] = w
	return nil
}

// FileWriter returns the current file output of sev.
func (l *Logger) FileWriter(sev Severity) FileWriter {
	if !sev.valid() {
		return nil
	}
	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()
	return l.fileWriter(sev)
}

// SetLogDestination sets the full base path of sev's files, for example
// "/var/log/app.INFO.". An empty base disables file output for sev.
func (l *Logger) SetLogDestination(sev Severity, base string) error {
	if !sev.valid() {
		return fmtErrorf("invalid severity %d", sev)
	}
	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()
	l.destination(sev).SetBasename(base)
	return nil
}

// SetLogSymlink sets the name of the symlink maintained for sev's newest file.
// An empty name disables symlinks.
func (l *Logger) SetLogSymlink(sev Severity, name string) error {
	if !sev.valid() {
		return fmtErrorf("invalid severity %d", sev)
	}
	l.dispatchMu.Lock()
	defer l.dispatchMu.Unlock()
	l.destination(sev).SetSymlinkBasename(name)
	return nil
}

// SetLogFilenameExtension sets the extension of every severity's files.
func (l *Logger) SetLogFilenameExtension(ext string) error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	cfg := l.getConfig().Clone()
	cfg.Extension = ext
	return l.applyConfig(cfg)
}

// SetStderrLogging echoes records at or above minSeverity to stderr.
func (l *Logger) SetStderrLogging(minSeverity Severity) error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	cfg := l.getConfig().Clone()
	cfg.StderrThreshold = int64(minSeverity)
	return l.applyConfig(cfg)
}

// LogToStderr sends every record to stderr and disables file output.
func (l *Logger) LogToStderr() error {
	l.initMu.Lock()
	cfg := l.getConfig().Clone()
	cfg.LogToStderr = true
	cfg.StderrThreshold = int64(SeverityInfo)
	err := l.applyConfig(cfg)
	l.initMu.Unlock()
	if err != nil {
		return err
	}

	for s := SeverityInfo; s < NumSeverities; s++ {
		if err := l.SetLogDestination(s, ""); err != nil {
			return err
		}
	}
	return nil
}

// EnableLogCleaner deletes rotated files older than overdueDays.
func (l *Logger) EnableLogCleaner(overdueDays int) error {
	if overdueDays < 0 {
		return fmtErrorf("overdue days cannot be negative: %d", overdueDays)
	}
	l.initMu.Lock()
	defer l.initMu.Unlock()

	cfg := l.getConfig().Clone()
	cfg.EnableCleaner = true
	cfg.CleanOverdueDays = int64(overdueDays)
	return l.applyConfig(cfg)
}

// DisableLogCleaner stops deleting rotated files.
func (l *Logger) DisableLogCleaner() error {
	l.initMu.Lock()
	defer l.initMu.Unlock()

	cfg := l.getConfig().Clone()
	cfg.EnableCleaner = false
	return l.applyConfig(cfg)
}

// AddSink registers s. It receives every record logged afterwards.
func (l *Logger) AddSink(s Sink) {
	if s == nil {
		return
	}
	l.sinks.add(s)
}

// RemoveSink unregisters every registration of s. It does not close s.
func (l *Logger) RemoveSink(s Sink) {
	l.sinks.remove(s)
}

// SetConsoleWriters replaces stdout and stderr. Nil keeps the current writer.
func (l *Logger) SetConsoleWriters(stdout, stderr io.Writer) {
	l.console.set(stdout, stderr)
}

// NumMessages returns how many records of sev were dispatched.
func (l *Logger) NumMessages(sev Severity) uint64 {
	if !sev.valid() {
		return 0
	}
	return l.state.MessageCounts[sev].Load()
}

// internalLog writes a diagnostic about the logger itself to stderr.
func (l *Logger) internalLog(format string, args ...any) {
	// Check if internal error reporting is enabled
	cfg := l.getConfig()
	if !cfg.InternalErrorsToStderr {
		return
	}

	// Ensure consistent "log: " prefix
	if !strings.HasPrefix(format, "log: ") {
		format = "log: " + format
	}

	fmt.Fprintf(os.Stderr, format, args...)
}
