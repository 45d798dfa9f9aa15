package log

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestRecord builds a record with a fixed prefix
func newTestRecord(t *testing.T, sev Severity, body string, dest Destination) *Record {
	t.Helper()
	prefix := "PREFIX[" + sev.String() + "]: "
	rec, err := NewRecord(sev, time.Now(), "/src/app/main.go", 42, []byte(prefix+body), len(prefix), dest)
	require.NoError(t, err)
	return rec
}

func TestForceStdout(t *testing.T) {
	logger, tmpDir, stdout, stderr := createTestLogger(t, func(c *Config) {
		c.LogToStdout = true
		c.StderrThreshold = int64(SeverityInfo)
	})

	logger.Error("only on stdout")
	logger.FlushLogFiles(SeverityInfo)

	assert.Equal(t, 1, strings.Count(stdout.String(), "only on stdout"))
	assert.NotContains(t, stderr.String(), "only on stdout")
	for sev := SeverityInfo; sev < NumSeverities; sev++ {
		assert.Empty(t, logFiles(t, tmpDir, sev), "no %s file expected", sev)
	}
}

func TestForceStdoutStillReachesSinks(t *testing.T) {
	logger, _, _, _ := createTestLogger(t, func(c *Config) {
		c.LogToStdout = true
	})
	var events []string
	sink := &recordingSink{name: "s", events: &events}
	logger.AddSink(sink)

	logger.Warning("to sinks")
	require.Len(t, sink.messages, 1)
	assert.Equal(t, "to sinks", sink.messages[0])
}

func TestStderrThreshold(t *testing.T) {
	logger, tmpDir, _, stderr := createTestLogger(t, func(c *Config) {
		c.StderrThreshold = int64(SeverityError)
	})

	logger.Warning("not echoed")
	logger.Error("echoed")

	out := stderr.String()
	assert.NotContains(t, out, "not echoed")
	assert.Equal(t, 1, strings.Count(out, "[ERROR]: echoed\n"))
	// The echo does not replace the files
	assert.Contains(t, readLog(t, logger, tmpDir, SeverityError), "echoed")
}

func TestAlsoLogToStderr(t *testing.T) {
	logger, tmpDir, _, stderr := createTestLogger(t, func(c *Config) {
		c.AlsoLogToStderr = true
	})

	logger.Info("everywhere")

	assert.Contains(t, stderr.String(), "[INFO]: everywhere\n")
	assert.Contains(t, readLog(t, logger, tmpDir, SeverityInfo), "everywhere")
}

func TestConsoleColors(t *testing.T) {
	logger, _, stdout, stderr := createTestLogger(t, func(c *Config) {
		c.StderrThreshold = int64(SeverityInfo)
	})
	logger.console.forceColor = true

	logger.Info("plain")
	logger.Warning("yellow")
	logger.Error("red")

	out := stderr.String()
	assert.NotContains(t, out, "\x1b[33m"+"plain")
	assert.Regexp(t, `\x1b\[33m[^\x1b]*\[WARNING\]: yellow\n\x1b\[0m`, out)
	assert.Regexp(t, `\x1b\[31m[^\x1b]*\[ERROR\]: red\n\x1b\[0m`, out)
	assert.Regexp(t, `(^|\n)[^\x1b\n]*\[INFO\]: plain\n`, out)
	assert.Empty(t, stdout.String())

	t.Run("disabled by config", func(t *testing.T) {
		cfg := logger.GetConfig()
		cfg.ColorLogToStderr = false
		require.NoError(t, logger.ApplyConfig(cfg))

		logger.Error("uncolored")
		assert.Regexp(t, `\x1b\[0m[^\x1b\n]*\[ERROR\]: uncolored\n$`, stderr.String())
	})
}

func TestTerminalSupportsColor(t *testing.T) {
	tests := []struct {
		term string
		want bool
	}{
		{"xterm", true},
		{"xterm-256color", true},
		{"screen", true},
		{"konsole-256color", true},
		{"cygwin", true},
		{"dumb", false},
		{"", false},
		{"vt100", false},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			t.Setenv("TERM", tt.term)
			assert.Equal(t, tt.want, terminalSupportsColor())
		})
	}
}

func TestConsoleNotColorableForPlainWriters(t *testing.T) {
	c := newConsole()
	assert.False(t, c.colorable(&syncBuffer{}))

	f, err := os.CreateTemp(t.TempDir(), "notatty")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, c.colorable(f))
}

func TestNewlineHandling(t *testing.T) {
	logger, tmpDir, _, _ := createTestLogger(t)

	withNewline := newTestRecord(t, SeverityInfo, "has newline\n", ToLog())
	without := newTestRecord(t, SeverityInfo, "no newline", ToLog())
	lenBefore := len(without.Message())

	logger.Log(withNewline)
	logger.Log(without)

	content := readLog(t, logger, tmpDir, SeverityInfo)
	assert.Equal(t, "PREFIX[INFO]: has newline\nPREFIX[INFO]: no newline\n", content)
	assert.Len(t, without.Message(), lenBefore, "caller's buffer length is restored")
}

func TestDestinationLines(t *testing.T) {
	logger, tmpDir, _, stderr := createTestLogger(t, func(c *Config) {
		c.StderrThreshold = int64(SeverityInfo)
	})
	var events []string
	sink := &recordingSink{name: "s", events: &events}
	logger.AddSink(sink)

	var lines []string
	logger.CaptureLines(&lines, SeverityWarning, "first")
	logger.CaptureLines(&lines, SeverityError, "second")

	assert.Equal(t, []string{"first", "second"}, lines)
	assert.Empty(t, logFiles(t, tmpDir, SeverityInfo))
	assert.Empty(t, stderr.String())
	assert.Empty(t, sink.messages)
	assert.Equal(t, uint64(1), logger.NumMessages(SeverityWarning))
}

func TestDestinationString(t *testing.T) {
	logger, tmpDir, _, _ := createTestLogger(t)

	var captured string
	logger.CaptureString(&captured, SeverityInfo, "captured", 7)

	assert.Equal(t, "captured 7", captured)
	assert.Contains(t, readLog(t, logger, tmpDir, SeverityInfo), "[INFO]: captured 7\n")
}

func TestDestinationSink(t *testing.T) {
	logger, tmpDir, _, _ := createTestLogger(t)
	var events []string
	registered := &recordingSink{name: "registered", events: &events}
	target := &recordingSink{name: "target", events: &events}
	logger.AddSink(registered)

	t.Run("sink only", func(t *testing.T) {
		events = events[:0]
		logger.LogTo(target, false, SeverityInfo, "private")

		assert.Equal(t, []string{"target.send", "registered.wait", "target.wait"}, events)
		assert.Empty(t, logFiles(t, tmpDir, SeverityInfo))
	})

	t.Run("sink and log", func(t *testing.T) {
		events = events[:0]
		logger.LogTo(target, true, SeverityInfo, "shared")

		assert.Equal(t, []string{"target.send", "registered.send", "registered.wait", "target.wait"}, events)
		assert.Contains(t, readLog(t, logger, tmpDir, SeverityInfo), "shared")
	})

	assert.Equal(t, []string{"private", "shared"}, target.messages)
}

func TestRecordTruncation(t *testing.T) {
	logger, tmpDir, _, _ := createTestLogger(t)

	logger.Info(strings.Repeat("x", MaxMessageLen+100))

	content := readLog(t, logger, tmpDir, SeverityInfo)
	assert.Len(t, content, MaxMessageLen+1)
	assert.True(t, strings.HasSuffix(content, "x\n"))
}

func TestLogDropsInvalidSeverity(t *testing.T) {
	logger, tmpDir, _, _ := createTestLogger(t)
	var events []string
	sink := &recordingSink{name: "s", events: &events}
	logger.AddSink(sink)

	for _, sev := range []Severity{NumSeverities + 1, -1} {
		rec := newTestRecord(t, SeverityError, "bad severity", ToLog())
		rec.Severity = sev
		assert.NotPanics(t, func() { logger.Log(rec) })
	}

	// The dispatch lock must still be free
	done := make(chan struct{})
	go func() {
		logger.Info("after invalid records")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("logging blocked after an invalid record")
	}

	logger.FlushLogFiles(SeverityInfo)
	assert.Empty(t, logFiles(t, tmpDir, SeverityError))
	assert.Equal(t, uint64(1), logger.NumMessages(SeverityInfo))
	assert.Zero(t, logger.NumMessages(SeverityError))
	require.Len(t, sink.messages, 1)
	assert.Equal(t, "after invalid records", sink.messages[0])
}
