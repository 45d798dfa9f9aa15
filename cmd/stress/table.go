package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	log "github.com/lizyzzz/lizy-log"
)

func renderSummary(s log.Stats, written int64, payload uint64, elapsed time.Duration) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})

	rate := 0.0
	if elapsed > 0 {
		rate = float64(written) / elapsed.Seconds()
	}
	tw.AppendRows([]table.Row{
		{"Records", humanize.Comma(written)},
		{"Payload", humanize.Bytes(payload)},
		{"Elapsed", elapsed.Round(time.Millisecond).String()},
		{"Records/sec", humanize.CommafWithDigits(rate, 0)},
	})
	tw.AppendSeparator()
	for sev := log.SeverityInfo; sev < log.NumSeverities; sev++ {
		tw.AppendRow(table.Row{
			fmt.Sprintf("%s records", sev),
			humanize.Comma(int64(s.Messages[sev])),
		})
	}
	for sev := log.SeverityInfo; sev < log.NumSeverities; sev++ {
		tw.AppendRow(table.Row{
			fmt.Sprintf("%s file size", sev),
			humanize.Bytes(s.CurrentSizes[sev]),
		})
	}
	tw.AppendSeparator()
	tw.AppendRows([]table.Row{
		{"Files created", humanize.Comma(int64(s.FilesCreated))},
		{"Rotations", humanize.Comma(int64(s.Rotations))},
		{"Dropped", humanize.Comma(int64(s.Dropped))},
		{"Disk full events", humanize.Comma(int64(s.DiskFull))},
		{"Cleaner deletions", humanize.Comma(int64(s.Deletions))},
		{"Sinks", s.Sinks},
	})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
