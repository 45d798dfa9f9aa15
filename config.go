package log

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/lixenwraith/config"
	"github.com/pelletier/go-toml/v2"
)

// Config holds all logger configuration values
type Config struct {
	// Destinations
	LogDir    string `toml:"log_dir"`   // Log file directory, empty selects the temp directory candidates
	LogLink   string `toml:"log_link"`  // Extra directory holding absolute symlinks to the newest files
	Extension string `toml:"extension"` // Appended verbatim to every log file name

	// File management
	MaxLogSizeMB        int64 `toml:"max_log_size_mb"`       // Rotation threshold per file
	FileMode            int64 `toml:"file_mode"`             // Permission bits of created files
	FlushIntervalSecs   int64 `toml:"flush_interval_secs"`   // Longest time a buffered record stays in memory
	LogBufLevel         int64 `toml:"log_buf_level"`         // Records above this severity are flushed immediately
	TimestampInFilename bool  `toml:"timestamp_in_filename"` // Append <YYYYMMDD-HHMMSS>.<pid> to file names
	LogFileHeader       bool  `toml:"log_file_header"`       // Write a header block into each new file
	DropLogMemory       bool  `toml:"drop_log_memory"`       // Advise the kernel to drop written pages
	StopOnFullDisk      bool  `toml:"stop_on_full_disk"`     // Pause writing until the next flush deadline on ENOSPC

	// Cleaner
	EnableCleaner     bool  `toml:"enable_cleaner"`      // Delete overdue rotated files
	CleanIntervalSecs int64 `toml:"clean_interval_secs"` // Minimum time between two directory scans
	CleanOverdueDays  int64 `toml:"clean_overdue_days"`  // Retention window

	// Routing
	MinLogLevel      int64 `toml:"min_log_level"`       // Records below this severity are discarded
	StderrThreshold  int64 `toml:"stderr_threshold"`    // Records at or above this severity are echoed to stderr
	LogToStdout      bool  `toml:"log_to_stdout"`       // Send everything to stdout instead of files
	LogToStderr      bool  `toml:"log_to_stderr"`       // Send everything to stderr instead of files
	AlsoLogToStderr  bool  `toml:"also_log_to_stderr"`  // Echo every record to stderr in addition to files
	ColorLogToStderr bool  `toml:"color_log_to_stderr"` // Colorize stderr output on capable terminals
	ColorLogToStdout bool  `toml:"color_log_to_stdout"` // Colorize stdout output on capable terminals

	// Prefix
	LogUTCTime      bool `toml:"log_utc_time"`       // Use UTC for prefixes and file names
	LogYearInPrefix bool `toml:"log_year_in_prefix"` // Include the year in line prefixes

	// Failure handling
	ExitOnFatal            bool `toml:"exit_on_fatal"`             // Terminate the process after a FATAL record
	InternalErrorsToStderr bool `toml:"internal_errors_to_stderr"` // Write internal diagnostics to stderr
}

// defaultConfig is the single source for all configurable default values
var defaultConfig = Config{
	// Destinations
	LogDir:    "",
	LogLink:   "",
	Extension: "",

	// File management
	MaxLogSizeMB:        1800,
	FileMode:            0664,
	FlushIntervalSecs:   30,
	LogBufLevel:         int64(SeverityInfo),
	TimestampInFilename: true,
	LogFileHeader:       true,
	DropLogMemory:       true,
	StopOnFullDisk:      false,

	// Cleaner
	EnableCleaner:     false,
	CleanIntervalSecs: 5 * 60,
	CleanOverdueDays:  7,

	// Routing
	MinLogLevel:      int64(SeverityInfo),
	StderrThreshold:  int64(SeverityError),
	LogToStdout:      false,
	LogToStderr:      false,
	AlsoLogToStderr:  false,
	ColorLogToStderr: true,
	ColorLogToStdout: true,

	// Prefix
	LogUTCTime:      false,
	LogYearInPrefix: true,

	// Failure handling
	ExitOnFatal:            true,
	InternalErrorsToStderr: true,
}

// DefaultConfig returns a copy of the default configuration
func DefaultConfig() *Config {
	// Create a copy to prevent modifications to the original
	copiedConfig := defaultConfig
	return &copiedConfig
}

// NewConfigFromFile loads configuration from a TOML file and returns a validated Config
func NewConfigFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	// Use lixenwraith/config as a loader
	loader := config.New()

	// Register the struct to enable proper unmarshaling
	if err := loader.RegisterStruct("log.", *cfg); err != nil {
		return nil, fmtErrorf("failed to register config struct: %w", err)
	}

	// Load from file (handles file not found gracefully)
	if err := loader.Load(path, nil); err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return nil, fmtErrorf("failed to load config from %s: %w", path, err)
	}

	if err := extractConfig(loader, "log.", cfg); err != nil {
		return nil, fmtErrorf("failed to extract config values: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// NewConfigFromDefaults creates a Config with default values and applies overrides
func NewConfigFromDefaults(overrides map[string]any) (*Config, error) {
	cfg := DefaultConfig()

	if err := applyOverrides(cfg, overrides); err != nil {
		return nil, fmtErrorf("failed to apply overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SaveConfig writes the configuration as a [log] table to a TOML file
func (c *Config) SaveConfig(path string) error {
	doc := struct {
		Log *Config `toml:"log"`
	}{Log: c}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmtErrorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmtErrorf("failed to write config to %s: %w", path, err)
	}
	return nil
}

// extractConfig extracts values from lixenwraith/config into our Config struct
func extractConfig(loader *config.Config, prefix string, cfg *Config) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)

		tomlTag := field.Tag.Get("toml")
		if tomlTag == "" {
			continue
		}

		val, found := loader.Get(prefix + tomlTag)
		if !found {
			continue // Use default value
		}

		if err := setFieldValue(fieldValue, val); err != nil {
			return fmt.Errorf("failed to set field %s: %w", field.Name, err)
		}
	}

	return nil
}

// applyOverrides applies a map of overrides to the Config struct
func applyOverrides(cfg *Config, overrides map[string]any) error {
	v := reflect.ValueOf(cfg).Elem()
	t := v.Type()

	fieldMap := make(map[string]reflect.Value)
	for i := 0; i < t.NumField(); i++ {
		if tomlTag := t.Field(i).Tag.Get("toml"); tomlTag != "" {
			fieldMap[tomlTag] = v.Field(i)
		}
	}

	for key, value := range overrides {
		fieldValue, exists := fieldMap[key]
		if !exists {
			return fmt.Errorf("unknown config key: %s", key)
		}

		if err := setFieldValue(fieldValue, value); err != nil {
			return fmt.Errorf("failed to set %s: %w", key, err)
		}
	}

	return nil
}

// setFieldValue sets a reflect.Value with proper type conversion
func setFieldValue(field reflect.Value, value any) error {
	switch field.Kind() {
	case reflect.String:
		strVal, ok := value.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
		field.SetString(strVal)

	case reflect.Int64:
		switch v := value.(type) {
		case int64:
			field.SetInt(v)
		case int:
			field.SetInt(int64(v))
		case Severity:
			field.SetInt(int64(v))
		default:
			return fmt.Errorf("expected int64, got %T", value)
		}

	case reflect.Bool:
		boolVal, ok := value.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", value)
		}
		field.SetBool(boolVal)

	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if c.MaxLogSizeMB < 0 {
		return fmtErrorf("max_log_size_mb cannot be negative: %d", c.MaxLogSizeMB)
	}

	if c.FileMode < 0 || c.FileMode > 0777 {
		return fmtErrorf("file_mode must be between 0 and 0777: %o", c.FileMode)
	}

	if c.FlushIntervalSecs < 0 || c.CleanIntervalSecs < 0 {
		return fmtErrorf("interval settings cannot be negative")
	}

	if c.CleanOverdueDays < 0 {
		return fmtErrorf("clean_overdue_days cannot be negative: %d", c.CleanOverdueDays)
	}

	for key, level := range map[string]int64{
		"log_buf_level":    c.LogBufLevel,
		"min_log_level":    c.MinLogLevel,
		"stderr_threshold": c.StderrThreshold,
	} {
		// stderr_threshold may exceed FATAL to silence the echo entirely
		if level < int64(SeverityInfo) || (level >= NumSeverities && key != "stderr_threshold") {
			return fmtErrorf("%s out of range: %d", key, level)
		}
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	copiedConfig := *c
	return &copiedConfig
}

// maxLogSize returns the rotation threshold in MB, falling back to 1 for out-of-range values
func (c *Config) maxLogSize() uint64 {
	if c.MaxLogSizeMB > 0 && c.MaxLogSizeMB < maxLogSizeLimitMB {
		return uint64(c.MaxLogSizeMB)
	}
	return 1
}
