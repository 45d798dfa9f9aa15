package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/lizyzzz/lizy-log"
	"github.com/lizyzzz/lizy-log/sink/rotating"
	"github.com/lizyzzz/lizy-log/sink/sqlite"
)

const logDirectory = "./temp_logs"

func main() {
	if err := os.RemoveAll(logDirectory); err != nil {
		fmt.Printf("Warning: could not remove old log directory: %v\n", err)
	}

	logger, err := log.NewBuilder().
		Directory(logDirectory).
		StderrThreshold(log.SeverityError).
		ExitOnFatal(false).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Shutdown()

	db, err := sqlite.Open(filepath.Join(logDirectory, "records.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqlite sink: %v\n", err)
		os.Exit(1)
	}
	errorsOnly, err := rotating.New(filepath.Join(logDirectory, "errors", "errors.log"),
		rotating.WithMinSeverity(log.SeverityError),
		rotating.WithMaxSizeMB(10),
		rotating.WithMaxBackups(3),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rotating sink: %v\n", err)
		os.Exit(1)
	}

	// Registered sinks see every record
	logger.AddSink(db)
	logger.AddSink(errorsOnly)

	logger.Info("service starting")
	logger.Warningf("cache at %d%% capacity", 91)
	logger.Error("upstream returned 503")

	// A record routed to one sink only, kept out of the files
	audit, err := rotating.New(filepath.Join(logDirectory, "audit.log"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "audit sink: %v\n", err)
		os.Exit(1)
	}
	logger.LogTo(audit, false, log.SeverityInfo, "user=alice action=login")

	// Capture a formatted record without writing it anywhere
	var lines []string
	logger.CaptureLines(&lines, log.SeverityWarning, "captured", 42)
	fmt.Println("captured:", lines)

	logger.RemoveSink(errorsOnly)
	logger.RemoveSink(db)
	_ = errorsOnly.Close()
	_ = audit.Close()

	rows, err := db.Records(context.Background(), "")
	if err == nil {
		fmt.Printf("session %s stored %d records\n", db.Session(), len(rows))
		for _, r := range rows {
			fmt.Printf("  %s %s:%d %s\n", r.Severity, filepath.Base(r.File), r.Line, r.Message)
		}
	}
	_ = db.Close()

	fmt.Printf("Check the '%s' directory for log files.\n", logDirectory)
}
