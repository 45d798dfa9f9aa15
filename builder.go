package log

// Builder provides a fluent API for building logger configurations.
// It wraps a Config instance and provides chainable methods for setting values.
type Builder struct {
	cfg *Config
	err error // Accumulate errors for deferred handling
}

// NewBuilder creates a new configuration builder with default values.
func NewBuilder() *Builder {
	return &Builder{
		cfg: DefaultConfig(),
	}
}

// Build creates a new Logger instance with the specified configuration.
func (b *Builder) Build() (*Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	// Create a new logger.
	logger := NewLogger()

	// Apply the built configuration. ApplyConfig handles all initialization and validation.
	if err := logger.ApplyConfig(b.cfg); err != nil {
		return nil, err
	}

	return logger, nil
}

// Config returns a copy of the configuration built so far.
func (b *Builder) Config() (*Config, error) {
	if b.err != nil {
		return nil, b.err
	}
	return b.cfg.Clone(), nil
}

// Directory sets the log directory.
func (b *Builder) Directory(dir string) *Builder {
	b.cfg.LogDir = dir
	return b
}

// LinkDirectory sets the directory receiving absolute symlinks to the newest files.
func (b *Builder) LinkDirectory(dir string) *Builder {
	b.cfg.LogLink = dir
	return b
}

// Extension sets the file name extension.
func (b *Builder) Extension(ext string) *Builder {
	b.cfg.Extension = ext
	return b
}

// MaxSizeMB sets the rotation threshold.
func (b *Builder) MaxSizeMB(size int64) *Builder {
	b.cfg.MaxLogSizeMB = size
	return b
}

// FileMode sets the permission bits of new files.
func (b *Builder) FileMode(mode int64) *Builder {
	b.cfg.FileMode = mode
	return b
}

// FlushIntervalSecs sets the longest time records stay buffered.
func (b *Builder) FlushIntervalSecs(secs int64) *Builder {
	b.cfg.FlushIntervalSecs = secs
	return b
}

// BufferedUpTo flushes every record above sev immediately.
func (b *Builder) BufferedUpTo(sev Severity) *Builder {
	b.cfg.LogBufLevel = int64(sev)
	return b
}

// MinSeverity drops records below sev.
func (b *Builder) MinSeverity(sev Severity) *Builder {
	b.cfg.MinLogLevel = int64(sev)
	return b
}

// MinSeverityString sets the minimum severity from its name.
func (b *Builder) MinSeverityString(name string) *Builder {
	if b.err != nil {
		return b
	}
	sev, err := ParseSeverity(name)
	if err != nil {
		b.err = err
		return b
	}
	b.cfg.MinLogLevel = int64(sev)
	return b
}

// StderrThreshold echoes records at or above sev to stderr.
func (b *Builder) StderrThreshold(sev Severity) *Builder {
	b.cfg.StderrThreshold = int64(sev)
	return b
}

// ToStdout sends all records to stdout instead of files.
func (b *Builder) ToStdout(enable bool) *Builder {
	b.cfg.LogToStdout = enable
	return b
}

// ToStderr sends all records to stderr instead of files.
func (b *Builder) ToStderr(enable bool) *Builder {
	b.cfg.LogToStderr = enable
	return b
}

// AlsoToStderr echoes every record to stderr.
func (b *Builder) AlsoToStderr(enable bool) *Builder {
	b.cfg.AlsoLogToStderr = enable
	return b
}

// Color toggles colored console output for stderr and stdout.
func (b *Builder) Color(stderr, stdout bool) *Builder {
	b.cfg.ColorLogToStderr = stderr
	b.cfg.ColorLogToStdout = stdout
	return b
}

// Cleaner enables deletion of rotated files older than overdueDays.
func (b *Builder) Cleaner(overdueDays int64) *Builder {
	b.cfg.EnableCleaner = true
	b.cfg.CleanOverdueDays = overdueDays
	return b
}

// CleanIntervalSecs sets the minimum time between two cleaner scans.
func (b *Builder) CleanIntervalSecs(secs int64) *Builder {
	b.cfg.CleanIntervalSecs = secs
	return b
}

// TimestampInFilename toggles the <time>.<pid> segment in file names.
func (b *Builder) TimestampInFilename(enable bool) *Builder {
	b.cfg.TimestampInFilename = enable
	return b
}

// FileHeader toggles the header block of new files.
func (b *Builder) FileHeader(enable bool) *Builder {
	b.cfg.LogFileHeader = enable
	return b
}

// DropLogMemory toggles page cache eviction for written data.
func (b *Builder) DropLogMemory(enable bool) *Builder {
	b.cfg.DropLogMemory = enable
	return b
}

// StopOnFullDisk pauses writing after ENOSPC until the next flush deadline.
func (b *Builder) StopOnFullDisk(enable bool) *Builder {
	b.cfg.StopOnFullDisk = enable
	return b
}

// UTC uses UTC in prefixes and file names.
func (b *Builder) UTC(enable bool) *Builder {
	b.cfg.LogUTCTime = enable
	return b
}

// YearInPrefix toggles the year in line prefixes.
func (b *Builder) YearInPrefix(enable bool) *Builder {
	b.cfg.LogYearInPrefix = enable
	return b
}

// ExitOnFatal toggles process termination after FATAL records.
func (b *Builder) ExitOnFatal(enable bool) *Builder {
	b.cfg.ExitOnFatal = enable
	return b
}

// InternalErrorsToStderr toggles diagnostics about the logger itself.
func (b *Builder) InternalErrorsToStderr(enable bool) *Builder {
	b.cfg.InternalErrorsToStderr = enable
	return b
}
