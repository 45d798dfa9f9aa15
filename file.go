package log

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// FileWriter is the per-severity file output. The built-in implementation rotates
// files on disk; SetFileWriter replaces it, for example to redirect one severity
// into memory during tests.
type FileWriter interface {
	// Write appends msg. It must not return errors to the caller.
	Write(forceFlush bool, ts time.Time, msg []byte)
	// Flush pushes buffered data to the operating system.
	Flush()
	// LogSize returns the last known size of the current output in bytes.
	LogSize() uint64
}

// getpid is replaced in tests to simulate a fork.
var getpid = os.Getpid

// fileDestination owns the rotating file of one severity.
type fileDestination struct {
	logger *Logger
	sev    Severity

	mu              sync.Mutex
	baseSelected    bool   // base was set explicitly, possibly to "" to disable output
	base            string // directory and name prefix, without time/pid suffix or extension
	ext             string
	symlinkBase     string
	file            *os.File
	w               *bufio.Writer
	fileLength      uint64
	bytesSinceFlush uint64
	droppedMem      uint64
	nextFlush       time.Time
	rollover        uint32
	pid             int
	stopWriting     bool
}

func newFileDestination(l *Logger, sev Severity, base string) *fileDestination {
	d := &fileDestination{
		logger:       l,
		sev:          sev,
		baseSelected: base != "",
		base:         base,
		symlinkBase:  programName(),
		rollover:     rolloverAttemptFrequency - 1,
		pid:          getpid(),
	}
	return d
}

// SetBasename selects an explicit base name. An empty name disables file output
// for this severity.
func (d *fileDestination) SetBasename(base string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.baseSelected = true
	if d.base != base {
		d.closeLocked()
		d.base = base
	}
}

// SetExtension changes the suffix appended after the time/pid segment.
func (d *fileDestination) SetExtension(ext string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ext != ext {
		d.closeLocked()
		d.ext = ext
	}
}

// SetSymlinkBasename changes the name of the symlinks created for new files.
// An empty name disables them.
func (d *fileDestination) SetSymlinkBasename(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.symlinkBase = name
}

// Write appends msg to the current file, creating or rotating it first when needed.
func (d *fileDestination) Write(forceFlush bool, ts time.Time, msg []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.baseSelected && d.base == "" {
		return
	}

	cfg := d.logger.getConfig()

	if d.fileLength>>20 >= cfg.maxLogSize() || getpid() != d.pid {
		if d.file != nil {
			d.logger.state.TotalRotations.Add(1)
		}
		d.closeLocked()
		d.pid = getpid()
	}

	if d.file == nil {
		d.rollover++
		if d.rollover != rolloverAttemptFrequency {
			d.logger.state.DroppedLogs.Add(1)
			return
		}
		d.rollover = 0

		if !d.open(cfg, ts) {
			d.logger.state.DroppedLogs.Add(1)
			return
		}
	}

	if d.stopWriting {
		if ts.Before(d.nextFlush) {
			d.logger.state.DroppedLogs.Add(1)
			return
		}
		// Probe the disk again with this record
		d.stopWriting = false
		d.w.Reset(d.file)
	}

	if _, err := d.w.Write(msg); err != nil {
		d.handleWriteError(cfg, err)
		return
	}
	d.fileLength += uint64(len(msg))
	d.bytesSinceFlush += uint64(len(msg))

	if forceFlush || d.bytesSinceFlush >= flushBytesThreshold || !ts.Before(d.nextFlush) {
		d.flushUnlocked(ts)
		if d.file != nil && cfg.DropLogMemory {
			d.dropCache()
		}
	}

	if d.logger.cleaner.enabled() {
		var current string
		if d.file != nil {
			current = d.file.Name()
		}
		d.logger.cleaner.run(d.baseSelected, d.base, d.ext, current)
	}
}

// Flush writes buffered data and schedules the next automatic flush.
func (d *fileDestination) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.flushUnlocked(time.Now())
}

// flushUnlocked does not take the lock. Outside of Flush and Write it may only be
// reached through Logger.flushAllUnsafe while the process is terminating.
func (d *fileDestination) flushUnlocked(now time.Time) {
	if d.file != nil && d.w != nil {
		if err := d.w.Flush(); err != nil {
			d.handleWriteError(d.logger.getConfig(), err)
		}
		d.bytesSinceFlush = 0
	}
	d.nextFlush = now.Add(time.Duration(d.logger.getConfig().FlushIntervalSecs) * time.Second)
}

// LogSize returns the number of bytes written to the current file.
func (d *fileDestination) LogSize() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fileLength
}

// close flushes and releases the current file.
func (d *fileDestination) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closeLocked()
}

// closeLocked drops the current file and resets the counters so that the next
// write creates a new one immediately.
func (d *fileDestination) closeLocked() {
	if d.file != nil {
		if d.w != nil && !d.stopWriting {
			_ = d.w.Flush()
		}
		if err := d.file.Close(); err != nil {
			d.logger.internalLog("warning - failed to close log file '%s': %v\n", d.file.Name(), err)
		}
	}
	d.file = nil
	d.w = nil
	d.fileLength = 0
	d.bytesSinceFlush = 0
	d.droppedMem = 0
	d.stopWriting = false
	d.rollover = rolloverAttemptFrequency - 1
}

func (d *fileDestination) handleWriteError(cfg *Config, err error) {
	d.logger.state.DroppedLogs.Add(1)

	if isDiskFull(err) {
		// Buffered data is lost either way
		d.w.Reset(d.file)
		if cfg.StopOnFullDisk {
			d.stopWriting = true
			d.logger.state.DiskFullEvents.Add(1)
			d.logger.internalLog("disk full writing %s log, pausing until next flush\n", d.sev)
		}
		return
	}

	d.logger.internalLog("error - failed writing %s log file '%s': %v\n", d.sev, d.file.Name(), err)
	if cerr := d.file.Close(); cerr != nil {
		d.logger.internalLog("warning - failed to close log file '%s': %v\n", d.file.Name(), cerr)
	}
	d.file = nil
	d.w = nil
	d.fileLength = 0
	d.bytesSinceFlush = 0
	d.droppedMem = 0
	d.rollover = rolloverAttemptFrequency - 1
}

// open creates the next file, trying every logging directory when no explicit base
// is configured. It reports creation failures on stderr.
func (d *fileDestination) open(cfg *Config, ts time.Time) bool {
	if cfg.LogUTCTime {
		ts = ts.UTC()
	} else {
		ts = ts.Local()
	}
	timePid := ts.Format(fileTimeLayout) + "." + strconv.Itoa(getpid())

	created := false
	if d.baseSelected {
		created = d.createLogfile(cfg, timePid)
	} else {
		stripped := programName() + "." + hostname() + "." + userName() + ".log." + d.sev.String() + "."
		for _, dir := range loggingDirectories(cfg) {
			d.base = dir + stripped
			if d.createLogfile(cfg, timePid) {
				created = true
				break
			}
		}
	}
	if !created {
		fmt.Fprintf(os.Stderr, "COULD NOT CREATE LOGFILE '%s'!\n", timePid)
		return false
	}

	if cfg.LogFileHeader {
		header := d.header(cfg, ts)
		n, _ := d.w.WriteString(header)
		d.fileLength += uint64(n)
		d.bytesSinceFlush += uint64(n)
	}
	return true
}

// createLogfile opens <base><timePid><ext> and points the symlinks at it.
func (d *fileDestination) createLogfile(cfg *Config, timePid string) bool {
	name := d.base
	flags := os.O_WRONLY | os.O_CREATE | os.O_APPEND
	if cfg.TimestampInFilename {
		name += timePid
		flags |= os.O_EXCL
	}
	name += d.ext

	f, err := os.OpenFile(name, flags, os.FileMode(cfg.FileMode))
	if err != nil {
		d.logger.internalLog("could not create log file '%s': %v\n", name, err)
		return false
	}

	var size uint64
	if info, err := f.Stat(); err == nil {
		size = uint64(info.Size())
	}

	d.file = f
	d.w = bufio.NewWriter(f)
	d.fileLength = size
	d.bytesSinceFlush = 0
	d.droppedMem = 0
	d.pid = getpid()
	d.logger.state.FilesCreated.Add(1)

	if d.symlinkBase != "" {
		d.updateSymlinks(cfg, name)
	}
	return true
}

// updateSymlinks replaces <dir>/<symlink>.<SEV> with a relative link to name and,
// with log_link set, <log_link>/<symlink>.<SEV> with an absolute one. Errors are ignored.
func (d *fileDestination) updateSymlinks(cfg *Config, name string) {
	linkName := d.symlinkBase + "." + d.sev.String()

	dir, file := "", name
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		dir, file = name[:i+1], name[i+1:]
	}
	linkPath := dir + linkName
	_ = os.Remove(linkPath)
	_ = os.Symlink(file, linkPath)

	if cfg.LogLink != "" {
		target := name
		if abs, err := filepath.Abs(name); err == nil {
			target = abs
		}
		linkPath = filepath.Join(cfg.LogLink, linkName)
		_ = os.Remove(linkPath)
		_ = os.Symlink(target, linkPath)
	}
}

func (d *fileDestination) header(cfg *Config, ts time.Time) string {
	var sb strings.Builder
	sb.WriteString("Log file created at: ")
	sb.WriteString(ts.Format(headerTimeLayout))
	if cfg.LogUTCTime {
		sb.WriteString(" UTC")
	}
	sb.WriteString("\nRunning on machine: ")
	sb.WriteString(hostname())
	sb.WriteString("\nRunning duration (h:mm:ss): ")
	sb.WriteString(prettyDuration(time.Since(processStart)))
	sb.WriteString("\nLog line format: [IWEF]")
	if cfg.LogYearInPrefix {
		sb.WriteString("yyyy-mm-dd hh:mm:ss.uuuuuu")
	} else {
		sb.WriteString("mm-dd hh:mm:ss.uuuuuu")
	}
	sb.WriteString(" [file:line][severity]: msg\n")
	return sb.String()
}

// dropCache asks the kernel to evict pages that were written and flushed, keeping
// the most recent window cached.
func (d *fileDestination) dropCache() {
	if d.fileLength < dropCacheMinLength {
		return
	}
	total := d.fileLength&^(dropCacheKeepWindow-1) - dropCacheKeepWindow
	if total-d.droppedMem < dropCacheMinRange {
		return
	}
	if err := fadviseDontNeed(d.file, int64(d.droppedMem), int64(total-d.droppedMem)); err != nil {
		d.logger.internalLog("warning - failed to drop page cache for '%s': %v\n", d.file.Name(), err)
	}
	d.droppedMem = total
}

// fileName returns the path of the current file, empty when none is open.
func (d *fileDestination) fileName() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return ""
	}
	return d.file.Name()
}
