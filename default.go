package log

import (
	"io"
)

// Global instance for package-level functions
var defaultLogger = NewLogger()

// Default returns the logger behind the package-level functions.
func Default() *Logger {
	return defaultLogger
}

// Init configures the default logger from a TOML file; a missing file keeps the defaults.
func Init(path string) error {
	cfg, err := NewConfigFromFile(path)
	if err != nil {
		return err
	}
	return defaultLogger.ApplyConfig(cfg)
}

// InitWithDefaults configures the default logger with built-in defaults and optional overrides
func InitWithDefaults(overrides ...string) error {
	if err := defaultLogger.ApplyConfig(DefaultConfig()); err != nil {
		return err
	}
	if len(overrides) == 0 {
		return nil
	}
	return defaultLogger.ApplyOverride(overrides...)
}

// Shutdown flushes and closes the default logger's files.
func Shutdown() error {
	return defaultLogger.Shutdown()
}

// Info logs a message at info severity
func Info(args ...any) {
	defaultLogger.output(1, SeverityInfo, ToLog(), false, "", args)
}

// Infof logs a formatted message at info severity
func Infof(format string, args ...any) {
	defaultLogger.output(1, SeverityInfo, ToLog(), true, format, args)
}

// Warning logs a message at warning severity
func Warning(args ...any) {
	defaultLogger.output(1, SeverityWarning, ToLog(), false, "", args)
}

// Warningf logs a formatted message at warning severity
func Warningf(format string, args ...any) {
	defaultLogger.output(1, SeverityWarning, ToLog(), true, format, args)
}

// Error logs a message at error severity
func Error(args ...any) {
	defaultLogger.output(1, SeverityError, ToLog(), false, "", args)
}

// Errorf logs a formatted message at error severity
func Errorf(format string, args ...any) {
	defaultLogger.output(1, SeverityError, ToLog(), true, format, args)
}

// Fatal logs a message at fatal severity and terminates the process
func Fatal(args ...any) {
	defaultLogger.output(1, SeverityFatal, ToLog(), false, "", args)
}

// Fatalf logs a formatted message at fatal severity and terminates the process
func Fatalf(format string, args ...any) {
	defaultLogger.output(1, SeverityFatal, ToLog(), true, format, args)
}

// FlushLogFiles flushes the default logger's files at or above minSeverity
func FlushLogFiles(minSeverity Severity) {
	defaultLogger.FlushLogFiles(minSeverity)
}

// AddSink registers s with the default logger
func AddSink(s Sink) {
	defaultLogger.AddSink(s)
}

// RemoveSink unregisters s from the default logger
func RemoveSink(s Sink) {
	defaultLogger.RemoveSink(s)
}

// SetLogDestination sets the base path of sev's files on the default logger
func SetLogDestination(sev Severity, base string) error {
	return defaultLogger.SetLogDestination(sev, base)
}

// SetLogSymlink sets the symlink name of sev's files on the default logger
func SetLogSymlink(sev Severity, name string) error {
	return defaultLogger.SetLogSymlink(sev, name)
}

// SetLogFilenameExtension sets the extension of the default logger's files
func SetLogFilenameExtension(ext string) error {
	return defaultLogger.SetLogFilenameExtension(ext)
}

// SetStderrLogging sets the default logger's stderr echo threshold
func SetStderrLogging(minSeverity Severity) error {
	return defaultLogger.SetStderrLogging(minSeverity)
}

// LogToStderr sends everything the default logger receives to stderr
func LogToStderr() error {
	return defaultLogger.LogToStderr()
}

// EnableLogCleaner enables the default logger's cleaner
func EnableLogCleaner(overdueDays int) error {
	return defaultLogger.EnableLogCleaner(overdueDays)
}

// DisableLogCleaner disables the default logger's cleaner
func DisableLogCleaner() error {
	return defaultLogger.DisableLogCleaner()
}

// SetConsoleWriters replaces the default logger's stdout and stderr
func SetConsoleWriters(stdout, stderr io.Writer) {
	defaultLogger.SetConsoleWriters(stdout, stderr)
}

// NumMessages returns the number of sev records the default logger dispatched
func NumMessages(sev Severity) uint64 {
	return defaultLogger.NumMessages(sev)
}

// ReprintFatalMessage re-emits the default logger's first fatal message
func ReprintFatalMessage() {
	defaultLogger.ReprintFatalMessage()
}

// GetCrashReason returns the default logger's first fatal record, or nil
func GetCrashReason() *CrashReason {
	return defaultLogger.CrashReason()
}
