package log

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// fmtErrorf wrapper
func fmtErrorf(format string, args ...any) error {
	if !strings.HasPrefix(format, "log: ") {
		format = "log: " + format
	}
	return fmt.Errorf(format, args...)
}

// combineErrors helper
func combineErrors(err1, err2 error) error {
	if err1 == nil {
		return err2
	}
	if err2 == nil {
		return err1
	}
	return fmt.Errorf("%v; %w", err1, err2)
}

// parseKeyValue splits a "key=value" string.
func parseKeyValue(arg string) (string, string, error) {
	parts := strings.SplitN(strings.TrimSpace(arg), "=", 2)
	if len(parts) != 2 {
		return "", "", fmtErrorf("invalid format in override string '%s', expected key=value", arg)
	}
	key := strings.TrimSpace(parts[0])
	value := strings.TrimSpace(parts[1])
	if key == "" {
		return "", "", fmtErrorf("key cannot be empty in override string '%s'", arg)
	}
	return key, value, nil
}

// ParseSeverity converts a severity name or its numeric value to a Severity.
func ParseSeverity(s string) (Severity, error) {
	trimmed := strings.TrimSpace(s)
	if n, err := strconv.Atoi(trimmed); err == nil {
		if !Severity(n).valid() {
			return 0, fmtErrorf("severity out of range: %d", n)
		}
		return Severity(n), nil
	}

	switch strings.ToLower(trimmed) {
	case "info":
		return SeverityInfo, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "error":
		return SeverityError, nil
	case "fatal":
		return SeverityFatal, nil
	default:
		return 0, fmtErrorf("invalid severity string: '%s' (use info, warning, error, fatal)", s)
	}
}

// processStart approximates when the process started; file headers report uptime from it.
var processStart time.Time

func init() {
	processStart = time.Now()
}

var (
	hostOnce sync.Once
	hostName string
)

// hostname returns the machine name, "(unknown)" when it cannot be resolved.
func hostname() string {
	hostOnce.Do(func() {
		h, err := os.Hostname()
		if err != nil || h == "" {
			h = "(unknown)"
		}
		hostName = h
	})
	return hostName
}

// programName returns the short invocation name of the running binary.
func programName() string {
	if len(os.Args) == 0 || os.Args[0] == "" {
		return "unknown"
	}
	return filepath.Base(os.Args[0])
}

// userName returns the login of the effective user.
func userName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		// Domain-qualified names would otherwise introduce a separator into file names
		return strings.ReplaceAll(u.Username, string(filepath.Separator), "_")
	}
	if name := os.Getenv("USER"); name != "" {
		return name
	}
	return "invalid-user"
}

// prettyDuration renders a duration as h:mm:ss.
func prettyDuration(d time.Duration) string {
	secs := int(d / time.Second)
	mins := secs / 60
	hours := mins / 60
	return fmt.Sprintf("%d:%02d:%02d", hours, mins%60, secs%60)
}

// basename returns the final path element of a source file path.
func basename(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
