package log

import (
	"time"
)

// Severity is the ordered level of a record. Higher values are more severe.
type Severity int

// Severity levels
const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
	SeverityFatal

	NumSeverities = 4
)

var severityNames = [NumSeverities]string{"INFO", "WARNING", "ERROR", "FATAL"}

// String returns the upper-case name used in file names, symlinks and prefixes.
func (s Severity) String() string {
	if !s.valid() {
		return "UNKNOWN"
	}
	return severityNames[s]
}

func (s Severity) valid() bool {
	return s >= SeverityInfo && s < NumSeverities
}

// Message limits
const (
	// Hard cap on a record's formatted length, truncated beyond this
	MaxMessageLen = 30000
	// Size of the copy kept of the first fatal message for ReprintFatalMessage
	fatalMessageLen = 256
)

// File destination
const (
	// Creation is retried once every this many writes after a failure
	rolloverAttemptFrequency = 0x20
	// Unflushed byte count that forces a flush
	flushBytesThreshold = 1000000
	// Upper bound (exclusive) for max_log_size_mb, values outside fall back to 1
	maxLogSizeLimitMB = 4096
	// Page cache drop starts once a file reaches this size
	dropCacheMinLength = 3 << 20
	// Most recent window kept in cache
	dropCacheKeepWindow = 1 << 20
	// Smallest range worth advising
	dropCacheMinRange = 2 << 20
)

// Naming
const (
	fileTimeLayout   = "20060102-150405"
	headerTimeLayout = "2006/01/02 15:04:05"
	fatalMarker      = "*** Check failure stack trace: ***\n"
)

// Cleaner
const (
	day = 24 * time.Hour
)
