package log

import (
	"os"
	"regexp"
	"strings"
	"sync"
	"time"
)

// rotatedSuffix matches the time/pid segment of a rotated file name.
var rotatedSuffix = regexp.MustCompile(`^[0-9]{8}-[0-9]{6}\.[0-9]+$`)

// logCleaner deletes rotated files older than the retention window. Scans are
// rate limited to one per clean_interval_secs, shared by all severities.
type logCleaner struct {
	logger *Logger

	mu          sync.Mutex
	nextCleanup time.Time

	// Replaced in tests
	now     func() time.Time
	readDir func(string) ([]os.DirEntry, error)
}

func newLogCleaner(l *Logger) *logCleaner {
	return &logCleaner{
		logger:  l,
		now:     time.Now,
		readDir: os.ReadDir,
	}
}

func (c *logCleaner) enabled() bool {
	return c.logger.getConfig().EnableCleaner
}

// reset makes the next run scan immediately.
func (c *logCleaner) reset() {
	c.mu.Lock()
	c.nextCleanup = time.Time{}
	c.mu.Unlock()
}

// run scans for overdue files of one destination. It is a no-op until the next
// scheduled scan time. current is the destination's open file and is never removed.
func (c *logCleaner) run(explicitBase bool, base, ext, current string) {
	cfg := c.logger.getConfig()
	now := c.now()

	c.mu.Lock()
	if now.Before(c.nextCleanup) {
		c.mu.Unlock()
		return
	}
	c.nextCleanup = now.Add(time.Duration(cfg.CleanIntervalSecs) * time.Second)
	c.mu.Unlock()

	c.logger.state.CleanerScans.Add(1)

	var dirs []string
	if !explicitBase {
		dirs = loggingDirectories(cfg)
	} else if i := strings.LastIndexByte(base, '/'); i >= 0 {
		dirs = []string{base[:i+1]}
	} else {
		dirs = []string{"."}
	}

	retention := time.Duration(cfg.CleanOverdueDays) * day
	for _, dir := range dirs {
		for _, path := range c.overdueLogs(dir, now, retention, base, ext) {
			if path == current {
				continue
			}
			if err := os.Remove(path); err == nil {
				c.logger.state.TotalDeletions.Add(1)
			}
		}
	}
}

// overdueLogs lists the files in dir that belong to base/ext and were last modified
// more than retention ago, counted in whole seconds.
func (c *logCleaner) overdueLogs(dir string, now time.Time, retention time.Duration, base, ext string) []string {
	entries, err := c.readDir(dir)
	if err != nil {
		return nil
	}

	var overdue []string
	for _, entry := range entries {
		path := entry.Name()
		if strings.HasSuffix(dir, "/") {
			path = dir + path
		}
		if !isProjectLog(path, base, ext) {
			continue
		}
		info, err := os.Lstat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		if now.Unix()-info.ModTime().Unix() > int64(retention/time.Second) {
			overdue = append(overdue, path)
		}
	}
	return overdue
}

// isProjectLog reports whether path is a rotated file of base. The extension may
// follow the base directly or end the name; what remains must be the
// YYYYMMDD-HHMMSS.pid segment.
func isProjectLog(path, base, ext string) bool {
	cleaned := collapseSlashes(base)
	if !strings.HasPrefix(path, cleaned) {
		return false
	}
	rest := path[len(cleaned):]

	if ext != "" {
		switch {
		case strings.HasPrefix(rest, ext):
			rest = rest[len(ext):]
		case strings.HasSuffix(rest, ext):
			rest = rest[:len(rest)-len(ext)]
		default:
			return false
		}
	}
	return rotatedSuffix.MatchString(rest)
}

func collapseSlashes(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '/' && i > 0 && s[i-1] == '/' {
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
