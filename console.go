package log

import (
	"io"
	"os"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// colorTerms are the TERM values known to understand ANSI colors.
var colorTerms = map[string]bool{
	"xterm":            true,
	"xterm-color":      true,
	"xterm-256color":   true,
	"screen-256color":  true,
	"konsole":          true,
	"konsole-16color":  true,
	"konsole-256color": true,
	"screen":           true,
	"linux":            true,
	"cygwin":           true,
}

var severityColors = [NumSeverities]*color.Color{
	SeverityInfo:    nil,
	SeverityWarning: color.New(color.FgYellow),
	SeverityError:   color.New(color.FgRed),
	SeverityFatal:   color.New(color.FgRed),
}

func init() {
	// Color decisions are made per stream below, not by the library's global switch
	for _, c := range severityColors {
		if c != nil {
			c.EnableColor()
		}
	}
}

// terminalSupportsColor checks TERM against the known color terminals.
func terminalSupportsColor() bool {
	term := os.Getenv("TERM")
	return term != "" && colorTerms[term]
}

// console holds the stdout and stderr writers of a Logger.
type console struct {
	mu     sync.RWMutex
	stdout io.Writer
	stderr io.Writer

	// forceColor skips terminal detection; set by tests
	forceColor bool
}

func newConsole() *console {
	return &console{stdout: os.Stdout, stderr: os.Stderr}
}

func (c *console) set(stdout, stderr io.Writer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if stdout != nil {
		c.stdout = stdout
	}
	if stderr != nil {
		c.stderr = stderr
	}
}

func (c *console) writers() (stdout, stderr io.Writer) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stdout, c.stderr
}

// colorable reports whether w is a terminal that renders ANSI colors.
func (c *console) colorable(w io.Writer) bool {
	if c.forceColor {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return false
	}
	return terminalSupportsColor()
}

// write sends msg to w, colored by severity when enabled and supported.
func (c *console) write(w io.Writer, toStdout bool, cfg *Config, sev Severity, msg []byte) {
	enabled := cfg.ColorLogToStderr
	if toStdout {
		enabled = cfg.ColorLogToStdout
	}

	col := severityColors[sev]
	if !enabled || col == nil || !c.colorable(w) {
		_, _ = w.Write(msg)
		return
	}
	_, _ = io.WriteString(w, col.Sprint(string(msg)))
}

// writeStderr writes msg to stderr uncolored.
func (c *console) writeStderr(msg string) {
	_, stderr := c.writers()
	_, _ = io.WriteString(stderr, msg)
}
