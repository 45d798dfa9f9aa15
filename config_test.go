package log

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Empty(t, cfg.LogDir)
	assert.Empty(t, cfg.Extension)
	assert.Equal(t, int64(1800), cfg.MaxLogSizeMB)
	assert.Equal(t, int64(0664), cfg.FileMode)
	assert.Equal(t, int64(30), cfg.FlushIntervalSecs)
	assert.Equal(t, int64(SeverityInfo), cfg.LogBufLevel)
	assert.Equal(t, int64(SeverityInfo), cfg.MinLogLevel)
	assert.Equal(t, int64(SeverityError), cfg.StderrThreshold)
	assert.True(t, cfg.TimestampInFilename)
	assert.True(t, cfg.LogFileHeader)
	assert.True(t, cfg.LogYearInPrefix)
	assert.True(t, cfg.ExitOnFatal)
	assert.False(t, cfg.EnableCleaner)
	assert.Equal(t, int64(7), cfg.CleanOverdueDays)

	// Each call hands out an independent copy
	cfg.LogDir = "/changed"
	assert.Empty(t, DefaultConfig().LogDir)
}

func TestConfigClone(t *testing.T) {
	cfg1 := DefaultConfig()
	cfg1.MinLogLevel = int64(SeverityWarning)
	cfg1.LogDir = "/custom/path"

	cfg2 := cfg1.Clone()

	// Verify copy
	assert.Equal(t, cfg1.MinLogLevel, cfg2.MinLogLevel)
	assert.Equal(t, cfg1.LogDir, cfg2.LogDir)

	// Modify original
	cfg1.MinLogLevel = int64(SeverityError)

	// Verify clone unchanged
	assert.Equal(t, int64(SeverityWarning), cfg2.MinLogLevel)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantError string
	}{
		{
			name:      "valid config",
			modify:    func(c *Config) {},
			wantError: "",
		},
		{
			name:      "negative max size",
			modify:    func(c *Config) { c.MaxLogSizeMB = -1 },
			wantError: "max_log_size_mb cannot be negative",
		},
		{
			name:      "oversized max size falls back at use",
			modify:    func(c *Config) { c.MaxLogSizeMB = 10000 },
			wantError: "",
		},
		{
			name:      "file mode out of range",
			modify:    func(c *Config) { c.FileMode = 01000 },
			wantError: "file_mode must be between 0 and 0777",
		},
		{
			name:      "negative flush interval",
			modify:    func(c *Config) { c.FlushIntervalSecs = -5 },
			wantError: "interval settings cannot be negative",
		},
		{
			name:      "negative clean interval",
			modify:    func(c *Config) { c.CleanIntervalSecs = -1 },
			wantError: "interval settings cannot be negative",
		},
		{
			name:      "negative overdue days",
			modify:    func(c *Config) { c.CleanOverdueDays = -1 },
			wantError: "clean_overdue_days cannot be negative",
		},
		{
			name:      "min level beyond fatal",
			modify:    func(c *Config) { c.MinLogLevel = 4 },
			wantError: "min_log_level out of range",
		},
		{
			name:      "negative buffer level",
			modify:    func(c *Config) { c.LogBufLevel = -1 },
			wantError: "log_buf_level out of range",
		},
		{
			name:      "stderr threshold above fatal silences the echo",
			modify:    func(c *Config) { c.StderrThreshold = 10 },
			wantError: "",
		},
		{
			name:      "negative stderr threshold",
			modify:    func(c *Config) { c.StderrThreshold = -1 },
			wantError: "stderr_threshold out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.wantError == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantError)
			}
		})
	}
}

func TestNewConfigFromFile(t *testing.T) {
	t.Run("missing file keeps defaults", func(t *testing.T) {
		cfg, err := NewConfigFromFile(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("values from log table", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "app.toml")
		content := `
[log]
log_dir = "/var/log/app"
max_log_size_mb = 64
stop_on_full_disk = true
stderr_threshold = 1
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		cfg, err := NewConfigFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, "/var/log/app", cfg.LogDir)
		assert.Equal(t, int64(64), cfg.MaxLogSizeMB)
		assert.True(t, cfg.StopOnFullDisk)
		assert.Equal(t, int64(SeverityWarning), cfg.StderrThreshold)
		// Untouched keys keep their defaults
		assert.Equal(t, int64(30), cfg.FlushIntervalSecs)
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.toml")
		require.NoError(t, os.WriteFile(path, []byte("[log]\nclean_overdue_days = -3\n"), 0644))

		_, err := NewConfigFromFile(path)
		assert.Error(t, err)
	})
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.toml")

	cfg := DefaultConfig()
	cfg.LogDir = "/srv/logs"
	cfg.Extension = ".txt"
	cfg.EnableCleaner = true
	cfg.CleanOverdueDays = 3
	require.NoError(t, cfg.SaveConfig(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "[log]")
	assert.Contains(t, string(content), "/srv/logs")

	loaded, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestNewConfigFromDefaults(t *testing.T) {
	cfg, err := NewConfigFromDefaults(map[string]any{
		"log_dir":             "/tmp/x",
		"min_log_level":       SeverityWarning,
		"flush_interval_secs": 5,
		"log_utc_time":        true,
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x", cfg.LogDir)
	assert.Equal(t, int64(SeverityWarning), cfg.MinLogLevel)
	assert.Equal(t, int64(5), cfg.FlushIntervalSecs)
	assert.True(t, cfg.LogUTCTime)

	_, err = NewConfigFromDefaults(map[string]any{"no_such_key": 1})
	assert.ErrorContains(t, err, "unknown config key")

	_, err = NewConfigFromDefaults(map[string]any{"log_dir": 5})
	assert.ErrorContains(t, err, "expected string")

	_, err = NewConfigFromDefaults(map[string]any{"max_log_size_mb": -1})
	assert.ErrorContains(t, err, "max_log_size_mb")
}
