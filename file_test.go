package log

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestDestination returns an INFO destination with an explicit base in a temp dir
func newTestDestination(t *testing.T, modify ...func(*Config)) (*fileDestination, *Logger, string) {
	logger, tmpDir, _, _ := createTestLogger(t, modify...)
	d := newFileDestination(logger, SeverityInfo, filepath.Join(tmpDir, "app.INFO."))
	d.symlinkBase = "app"
	t.Cleanup(d.close)
	return d, logger, tmpDir
}

// rotatedFiles lists the regular files created from base in dir
func rotatedFiles(t *testing.T, dir, prefix string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasPrefix(e.Name(), prefix) {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files
}

func TestFileRotationBySize(t *testing.T) {
	d, logger, tmpDir := newTestDestination(t, func(c *Config) {
		c.MaxLogSizeMB = 1
	})

	chunk := []byte(strings.Repeat("r", 9999) + "\n")
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	written := 0
	for written < 1100000 {
		d.Write(false, ts, chunk)
		written += len(chunk)
		// Distinct names for every file created by the exclusive create
		ts = ts.Add(time.Second)
	}
	d.Flush()

	files := rotatedFiles(t, tmpDir, "app.INFO.")
	require.Len(t, files, 2)

	first, err := os.Stat(files[0])
	require.NoError(t, err)
	assert.Equal(t, int64(105*len(chunk)), first.Size(), "first file closed at the first size check past 1 MiB")
	assert.Equal(t, uint64(5*len(chunk)), d.LogSize(), "counter restarted with the new file")
	assert.Equal(t, uint64(1), logger.state.TotalRotations.Load())
	assert.Equal(t, uint64(2), logger.state.FilesCreated.Load())
}

func TestFileSizeMonotonicUntilRotation(t *testing.T) {
	d, _, _ := newTestDestination(t, func(c *Config) {
		c.MaxLogSizeMB = 1
		c.LogFileHeader = true
	})

	chunk := []byte(strings.Repeat("m", 99999) + "\n")
	ts := time.Now()
	var last uint64
	resets := 0
	for i := 0; i < 25; i++ {
		d.Write(false, ts, chunk)
		size := d.LogSize()
		if size < last {
			resets++
			// After rotation only the header and this record are in the file
			assert.Less(t, size, uint64(len(chunk)+512))
		}
		last = size
		ts = ts.Add(time.Second)
	}
	assert.Equal(t, 2, resets)
}

func TestFileNaming(t *testing.T) {
	t.Run("timestamp and pid", func(t *testing.T) {
		d, _, tmpDir := newTestDestination(t)
		d.SetExtension(".log")

		ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)
		d.Write(true, ts, []byte("x\n"))

		want := filepath.Join(tmpDir, "app.INFO.20240506-070809."+strconv.Itoa(os.Getpid())+".log")
		assert.FileExists(t, want)
	})

	t.Run("without timestamp appends", func(t *testing.T) {
		d, _, tmpDir := newTestDestination(t, func(c *Config) {
			c.TimestampInFilename = false
		})
		name := filepath.Join(tmpDir, "app.INFO.")
		require.NoError(t, os.WriteFile(name, []byte("existing\n"), 0644))

		d.Write(true, time.Now(), []byte("appended\n"))

		content, err := os.ReadFile(name)
		require.NoError(t, err)
		assert.Equal(t, "existing\nappended\n", string(content))
		assert.Equal(t, uint64(len(content)), d.LogSize())
	})

	t.Run("file mode", func(t *testing.T) {
		d, _, tmpDir := newTestDestination(t, func(c *Config) {
			c.FileMode = 0600
		})
		d.Write(true, time.Now(), []byte("x\n"))

		files := rotatedFiles(t, tmpDir, "app.INFO.")
		require.Len(t, files, 1)
		info, err := os.Stat(files[0])
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})
}

func TestAutoNamedFiles(t *testing.T) {
	logger, tmpDir, _, _ := createTestLogger(t)

	logger.Warning("auto")
	logger.FlushLogFiles(SeverityInfo)

	files := logFiles(t, tmpDir, SeverityWarning)
	require.Len(t, files, 1)
	name := filepath.Base(files[0])
	prefix := programName() + "." + hostname() + "." + userName() + ".log.WARNING."
	assert.True(t, strings.HasPrefix(name, prefix), "%s should start with %s", name, prefix)
	assert.Regexp(t, `\.[0-9]{8}-[0-9]{6}\.[0-9]+$`, name)
}

func TestSymlinks(t *testing.T) {
	linkDir := t.TempDir()
	d, _, tmpDir := newTestDestination(t, func(c *Config) {
		c.MaxLogSizeMB = 1
		c.LogLink = linkDir
	})

	big := []byte(strings.Repeat("s", 1<<20) + "\n")
	ts := time.Now()
	d.Write(true, ts, big)
	d.Write(true, ts.Add(time.Second), []byte("second file\n"))

	current := d.fileName()
	require.NotEmpty(t, current)

	target, err := os.Readlink(filepath.Join(tmpDir, "app.INFO"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(current), target, "relative link inside the log directory")

	absTarget, err := os.Readlink(filepath.Join(linkDir, "app.INFO"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(absTarget))
	assert.Equal(t, current, absTarget)

	t.Run("disabled", func(t *testing.T) {
		d2, _, dir2 := newTestDestination(t)
		d2.SetSymlinkBasename("")
		d2.Write(true, time.Now(), []byte("x\n"))
		_, err := os.Lstat(filepath.Join(dir2, "app.INFO"))
		assert.True(t, os.IsNotExist(err))
	})
}

func TestFileHeader(t *testing.T) {
	d, _, tmpDir := newTestDestination(t, func(c *Config) {
		c.LogFileHeader = true
		c.LogUTCTime = true
	})

	ts := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)
	d.Write(true, ts, []byte("first record\n"))

	files := rotatedFiles(t, tmpDir, "app.INFO.")
	require.Len(t, files, 1)
	content, err := os.ReadFile(files[0])
	require.NoError(t, err)

	lines := strings.Split(string(content), "\n")
	require.GreaterOrEqual(t, len(lines), 5)
	assert.Equal(t, "Log file created at: 2024/02/03 04:05:06 UTC", lines[0])
	assert.Equal(t, "Running on machine: "+hostname(), lines[1])
	assert.Regexp(t, `^Running duration \(h:mm:ss\): [0-9]+:[0-9]{2}:[0-9]{2}$`, lines[2])
	assert.Equal(t, "Log line format: [IWEF]yyyy-mm-dd hh:mm:ss.uuuuuu [file:line][severity]: msg", lines[3])
	assert.Equal(t, "first record", lines[4])
	assert.Equal(t, uint64(len(content)), d.LogSize())
}

func TestFileHeaderUptimeFromProcessStart(t *testing.T) {
	saved := processStart
	processStart = time.Now().Add(-2 * time.Hour)
	t.Cleanup(func() { processStart = saved })

	d, _, tmpDir := newTestDestination(t, func(c *Config) {
		c.LogFileHeader = true
	})
	d.Write(true, time.Now(), []byte("record\n"))

	files := rotatedFiles(t, tmpDir, "app.INFO.")
	require.Len(t, files, 1)
	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	lines := strings.Split(string(content), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Regexp(t, `^Running duration \(h:mm:ss\): 2:00:0[0-9]$`, lines[2], "measured from process start, not logger creation")
}

func TestEmptyBasenameDisablesOutput(t *testing.T) {
	d, logger, tmpDir := newTestDestination(t)
	d.SetBasename("")

	d.Write(true, time.Now(), []byte("nowhere\n"))

	assert.Empty(t, rotatedFiles(t, tmpDir, "app.INFO."))
	assert.Equal(t, uint64(0), logger.state.FilesCreated.Load())
}

func TestBasenameChangeReopens(t *testing.T) {
	d, _, tmpDir := newTestDestination(t)
	ts := time.Now()
	d.Write(true, ts, []byte("old\n"))
	require.Len(t, rotatedFiles(t, tmpDir, "app.INFO."), 1)

	d.SetBasename(filepath.Join(tmpDir, "renamed."))
	assert.Empty(t, d.fileName(), "name change closes the current file")

	d.Write(true, ts, []byte("new\n"))
	assert.Len(t, rotatedFiles(t, tmpDir, "renamed."), 1)

	// Same name keeps the file open
	before := d.fileName()
	d.SetBasename(filepath.Join(tmpDir, "renamed."))
	assert.Equal(t, before, d.fileName())
}

func TestPidChangeRotates(t *testing.T) {
	d, logger, tmpDir := newTestDestination(t)

	ts := time.Now()
	d.Write(true, ts, []byte("parent\n"))

	fakePid := os.Getpid() + 100000
	getpid = func() int { return fakePid }
	t.Cleanup(func() { getpid = os.Getpid })

	d.Write(true, ts, []byte("child\n"))

	files := rotatedFiles(t, tmpDir, "app.INFO.")
	require.Len(t, files, 2)
	assert.True(t, strings.HasSuffix(d.fileName(), "."+strconv.Itoa(fakePid)))
	assert.Equal(t, uint64(1), logger.state.TotalRotations.Load())
}

func TestCreationBackoff(t *testing.T) {
	d, logger, tmpDir := newTestDestination(t)
	missing := filepath.Join(tmpDir, "missing")
	d.SetBasename(filepath.Join(missing, "app."))

	ts := time.Now()
	d.Write(true, ts, []byte("lost\n"))
	require.NoError(t, os.Mkdir(missing, 0755))

	// Creation is skipped until the next attempt boundary
	for i := 0; i < rolloverAttemptFrequency-1; i++ {
		d.Write(true, ts, []byte("skipped\n"))
	}
	assert.Empty(t, rotatedFiles(t, missing, "app."))
	assert.Equal(t, uint64(rolloverAttemptFrequency), logger.state.DroppedLogs.Load())

	d.Write(true, ts, []byte("kept\n"))
	files := rotatedFiles(t, missing, "app.")
	require.Len(t, files, 1)
	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "kept\n", string(content))
}

func TestFlushScheduling(t *testing.T) {
	d, _, tmpDir := newTestDestination(t, func(c *Config) {
		c.FlushIntervalSecs = 30
	})

	ts := time.Now()
	d.Write(false, ts, []byte("first\n")) // Deadline starts at zero, so this flushes
	d.Write(false, ts.Add(time.Second), []byte("buffered\n"))

	files := rotatedFiles(t, tmpDir, "app.INFO.")
	require.Len(t, files, 1)
	content, err := os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(content))

	d.Write(false, ts.Add(31*time.Second), []byte("deadline\n"))
	content, err = os.ReadFile(files[0])
	require.NoError(t, err)
	assert.Equal(t, "first\nbuffered\ndeadline\n", string(content))

	d.Write(true, ts.Add(32*time.Second), []byte("forced\n"))
	content, err = os.ReadFile(files[0])
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(content), "forced\n"))
}

func TestFlushByVolume(t *testing.T) {
	d, _, tmpDir := newTestDestination(t, func(c *Config) {
		c.FlushIntervalSecs = 30
	})

	ts := time.Now()
	d.Write(false, ts, []byte("start\n"))
	files := rotatedFiles(t, tmpDir, "app.INFO.")
	require.Len(t, files, 1)

	chunk := []byte(strings.Repeat("v", 999) + "\n")
	for i := 0; i < 999; i++ {
		d.Write(false, ts, chunk)
	}
	info, err := os.Stat(files[0])
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len("start\n")+999*len(chunk)), "below the threshold a tail stays buffered")

	d.Write(false, ts, chunk)
	info, err = os.Stat(files[0])
	require.NoError(t, err)
	assert.Equal(t, int64(len("start\n")+1000*len(chunk)), info.Size())
}

func TestDiskFullBackpressure(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	d, logger, _ := newTestDestination(t, func(c *Config) {
		c.StopOnFullDisk = true
		c.FlushIntervalSecs = 30
	})

	full, err := os.OpenFile("/dev/full", os.O_WRONLY, 0)
	require.NoError(t, err)
	d.mu.Lock()
	d.file = full
	d.w = bufio.NewWriter(full)
	d.mu.Unlock()

	ts := time.Now()
	d.Write(true, ts, []byte("hits the full disk\n"))
	assert.True(t, d.stopWriting)
	assert.Equal(t, uint64(1), logger.state.DiskFullEvents.Load())

	dropped := logger.state.DroppedLogs.Load()
	d.Write(true, ts.Add(10*time.Second), []byte("dropped during cooldown\n"))
	assert.True(t, d.stopWriting)
	assert.Equal(t, dropped+1, logger.state.DroppedLogs.Load())
	assert.Equal(t, uint64(1), logger.state.DiskFullEvents.Load())

	// Past the flush checkpoint writing resumes and fails again
	d.Write(true, ts.Add(31*time.Second), []byte("probe\n"))
	assert.Equal(t, uint64(2), logger.state.DiskFullEvents.Load())
	assert.True(t, d.stopWriting)
}

func TestDiskFullWithoutStopKeepsWriting(t *testing.T) {
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	d, logger, _ := newTestDestination(t)

	full, err := os.OpenFile("/dev/full", os.O_WRONLY, 0)
	require.NoError(t, err)
	d.mu.Lock()
	d.file = full
	d.w = bufio.NewWriter(full)
	d.mu.Unlock()

	d.Write(true, time.Now(), []byte("lost\n"))
	assert.False(t, d.stopWriting)
	assert.Equal(t, uint64(0), logger.state.DiskFullEvents.Load())
	assert.NotEmpty(t, d.fileName(), "file stays open")
}

func TestDropCacheRanges(t *testing.T) {
	d, _, tmpDir := newTestDestination(t)

	f, err := os.Create(filepath.Join(tmpDir, "cache"))
	require.NoError(t, err)
	d.mu.Lock()
	defer d.mu.Unlock()
	d.file = f
	d.w = bufio.NewWriter(f)

	d.fileLength = 2 << 20
	d.dropCache()
	assert.Equal(t, uint64(0), d.droppedMem, "below the minimum length")

	d.fileLength = 5<<20 + 512<<10
	d.dropCache()
	assert.Equal(t, uint64(4<<20), d.droppedMem)

	d.fileLength = 6<<20 + 100
	d.dropCache()
	assert.Equal(t, uint64(4<<20), d.droppedMem, "new range below 2 MiB is not advised")

	d.fileLength = 7 << 20
	d.dropCache()
	assert.Equal(t, uint64(6<<20), d.droppedMem)
}

func TestMaxLogSizeClamp(t *testing.T) {
	tests := []struct {
		configured int64
		want       uint64
	}{
		{0, 1},
		{1, 1},
		{100, 100},
		{4095, 4095},
		{4096, 1},
		{100000, 1},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.MaxLogSizeMB = tt.configured
		assert.Equal(t, tt.want, cfg.maxLogSize(), "configured %d", tt.configured)
	}
}
