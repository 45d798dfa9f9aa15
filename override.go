package log

import (
	"fmt"
	"strconv"
	"strings"
)

// ApplyOverride applies string key-value overrides to the logger's current configuration.
// Each override should be in the format "key=value".
// The configuration is cloned before modification to ensure thread safety.
//
// Example:
//
//	logger := log.NewLogger()
//	err := logger.ApplyOverride(
//	    "log_dir=/var/log/app",
//	    "stderr_threshold=warning",
//	    "max_log_size_mb=100",
//	)
func (l *Logger) ApplyOverride(overrides ...string) error {
	cfg := l.getConfig().Clone()

	var errors []error

	for _, override := range overrides {
		key, value, err := parseKeyValue(override)
		if err != nil {
			errors = append(errors, err)
			continue
		}

		if err := applyConfigField(cfg, key, value); err != nil {
			errors = append(errors, err)
		}
	}

	if len(errors) > 0 {
		return combineConfigErrors(errors)
	}

	return l.ApplyConfig(cfg)
}

// combineConfigErrors combines multiple configuration errors into a single error.
func combineConfigErrors(errors []error) error {
	if len(errors) == 0 {
		return nil
	}
	if len(errors) == 1 {
		return errors[0]
	}

	var sb strings.Builder
	sb.WriteString("log: multiple configuration errors:")
	for i, err := range errors {
		// Remove "log: " prefix from individual errors to avoid duplication
		errMsg := strings.TrimPrefix(err.Error(), "log: ")
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, errMsg))
	}
	return fmt.Errorf("%s", sb.String())
}

// applyConfigField applies a single key-value override to a Config.
func applyConfigField(cfg *Config, key, value string) error {
	switch key {
	// Destinations
	case "log_dir":
		cfg.LogDir = value
	case "log_link":
		cfg.LogLink = value
	case "extension":
		cfg.Extension = value

	// Severities accept both names and numbers
	case "log_buf_level", "min_log_level", "stderr_threshold":
		sev, err := ParseSeverity(value)
		if err != nil {
			// A threshold above FATAL is a valid way to silence the stderr echo
			n, nerr := strconv.ParseInt(value, 10, 64)
			if key != "stderr_threshold" || nerr != nil {
				return fmtErrorf("invalid severity value for %s '%s': %w", key, value, err)
			}
			cfg.StderrThreshold = n
			return nil
		}
		*severityField(cfg, key) = int64(sev)

	case "file_mode":
		// Permission bits are conventionally written in octal
		intVal, err := strconv.ParseInt(value, 8, 64)
		if err != nil {
			return fmtErrorf("invalid octal value for file_mode '%s': %w", value, err)
		}
		cfg.FileMode = intVal

	case "max_log_size_mb", "flush_interval_secs", "clean_interval_secs", "clean_overdue_days":
		intVal, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmtErrorf("invalid integer value for %s '%s': %w", key, value, err)
		}
		*intField(cfg, key) = intVal

	default:
		field := boolField(cfg, key)
		if field == nil {
			return fmtErrorf("unknown configuration key '%s'", key)
		}
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return fmtErrorf("invalid boolean value for %s '%s': %w", key, value, err)
		}
		*field = boolVal
	}

	return nil
}

func severityField(cfg *Config, key string) *int64 {
	switch key {
	case "log_buf_level":
		return &cfg.LogBufLevel
	case "min_log_level":
		return &cfg.MinLogLevel
	default:
		return &cfg.StderrThreshold
	}
}

func intField(cfg *Config, key string) *int64 {
	switch key {
	case "max_log_size_mb":
		return &cfg.MaxLogSizeMB
	case "flush_interval_secs":
		return &cfg.FlushIntervalSecs
	case "clean_interval_secs":
		return &cfg.CleanIntervalSecs
	default:
		return &cfg.CleanOverdueDays
	}
}

func boolField(cfg *Config, key string) *bool {
	switch key {
	case "timestamp_in_filename":
		return &cfg.TimestampInFilename
	case "log_file_header":
		return &cfg.LogFileHeader
	case "drop_log_memory":
		return &cfg.DropLogMemory
	case "stop_on_full_disk":
		return &cfg.StopOnFullDisk
	case "enable_cleaner":
		return &cfg.EnableCleaner
	case "log_to_stdout":
		return &cfg.LogToStdout
	case "log_to_stderr":
		return &cfg.LogToStderr
	case "also_log_to_stderr":
		return &cfg.AlsoLogToStderr
	case "color_log_to_stderr":
		return &cfg.ColorLogToStderr
	case "color_log_to_stdout":
		return &cfg.ColorLogToStdout
	case "log_utc_time":
		return &cfg.LogUTCTime
	case "log_year_in_prefix":
		return &cfg.LogYearInPrefix
	case "exit_on_fatal":
		return &cfg.ExitOnFatal
	case "internal_errors_to_stderr":
		return &cfg.InternalErrorsToStderr
	default:
		return nil
	}
}
