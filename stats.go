package log

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is a snapshot of a Logger's counters.
type Stats struct {
	Messages      [NumSeverities]uint64
	Rotations     uint64
	FilesCreated  uint64
	Dropped       uint64
	DiskFull      uint64
	CleanerScans  uint64
	Deletions     uint64
	Sinks         int
	Uptime        time.Duration
	CurrentSizes  [NumSeverities]uint64 // Bytes in each severity's current file
	FatalRecorded bool
}

// Stats returns the current counters.
func (l *Logger) Stats() Stats {
	s := Stats{
		Rotations:     l.state.TotalRotations.Load(),
		FilesCreated:  l.state.FilesCreated.Load(),
		Dropped:       l.state.DroppedLogs.Load(),
		DiskFull:      l.state.DiskFullEvents.Load(),
		CleanerScans:  l.state.CleanerScans.Load(),
		Deletions:     l.state.TotalDeletions.Load(),
		Sinks:         l.sinks.len(),
		FatalRecorded: l.fatal.reason.Load() != nil,
	}
	if start := l.startTime(); !start.IsZero() {
		s.Uptime = time.Since(start)
	}
	for sev := range s.Messages {
		s.Messages[sev] = l.state.MessageCounts[sev].Load()
	}

	l.dispatchMu.Lock()
	files := l.files
	writers := l.writers
	l.dispatchMu.Unlock()
	for sev := range files {
		if w := writers[sev]; w != nil {
			s.CurrentSizes[sev] = w.LogSize()
		} else if d := files[sev]; d != nil {
			s.CurrentSizes[sev] = d.LogSize()
		}
	}
	return s
}

// statsCollector exports Stats as Prometheus metrics.
type statsCollector struct {
	l *Logger

	messages  *prometheus.Desc
	rotations *prometheus.Desc
	created   *prometheus.Desc
	dropped   *prometheus.Desc
	diskFull  *prometheus.Desc
	scans     *prometheus.Desc
	deletions *prometheus.Desc
	fileBytes *prometheus.Desc
	sinks     *prometheus.Desc
	uptime    *prometheus.Desc
}

// RegisterMetrics registers the logger's counters with reg under the
// "log" namespace. constLabels tell several loggers apart.
func (l *Logger) RegisterMetrics(reg prometheus.Registerer, constLabels prometheus.Labels) error {
	if reg == nil {
		return fmtErrorf("registerer cannot be nil")
	}
	desc := func(name, help string, labels ...string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName("log", "", name), help, labels, constLabels)
	}
	c := &statsCollector{
		l:         l,
		messages:  desc("messages_total", "Records dispatched per severity.", "severity"),
		rotations: desc("rotations_total", "Log files closed because of size or pid change."),
		created:   desc("files_created_total", "Log files created."),
		dropped:   desc("dropped_total", "File writes lost to creation backoff, full disk or write errors."),
		diskFull:  desc("disk_full_total", "Times a destination paused after running out of space."),
		scans:     desc("cleaner_scans_total", "Directory scans performed by the cleaner."),
		deletions: desc("cleaner_deletions_total", "Overdue log files deleted."),
		fileBytes: desc("file_bytes", "Size of the current log file per severity.", "severity"),
		sinks:     desc("sinks", "Registered sinks."),
		uptime:    desc("uptime_seconds", "Time since the logger was created."),
	}
	if err := reg.Register(c); err != nil {
		return fmtErrorf("failed to register metrics: %w", err)
	}
	return nil
}

// Describe implements prometheus.Collector.
func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.messages
	ch <- c.rotations
	ch <- c.created
	ch <- c.dropped
	ch <- c.diskFull
	ch <- c.scans
	ch <- c.deletions
	ch <- c.fileBytes
	ch <- c.sinks
	ch <- c.uptime
}

// Collect implements prometheus.Collector.
func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.l.Stats()
	for sev := SeverityInfo; sev < NumSeverities; sev++ {
		ch <- prometheus.MustNewConstMetric(c.messages, prometheus.CounterValue, float64(s.Messages[sev]), sev.String())
		ch <- prometheus.MustNewConstMetric(c.fileBytes, prometheus.GaugeValue, float64(s.CurrentSizes[sev]), sev.String())
	}
	ch <- prometheus.MustNewConstMetric(c.rotations, prometheus.CounterValue, float64(s.Rotations))
	ch <- prometheus.MustNewConstMetric(c.created, prometheus.CounterValue, float64(s.FilesCreated))
	ch <- prometheus.MustNewConstMetric(c.dropped, prometheus.CounterValue, float64(s.Dropped))
	ch <- prometheus.MustNewConstMetric(c.diskFull, prometheus.CounterValue, float64(s.DiskFull))
	ch <- prometheus.MustNewConstMetric(c.scans, prometheus.CounterValue, float64(s.CleanerScans))
	ch <- prometheus.MustNewConstMetric(c.deletions, prometheus.CounterValue, float64(s.Deletions))
	ch <- prometheus.MustNewConstMetric(c.sinks, prometheus.GaugeValue, float64(s.Sinks))
	ch <- prometheus.MustNewConstMetric(c.uptime, prometheus.GaugeValue, s.Uptime.Seconds())
}
