package main

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	log "github.com/lizyzzz/lizy-log"
	"github.com/lizyzzz/lizy-log/sink/rotating"
	"github.com/lizyzzz/lizy-log/sink/sqlite"
)

type runOptions struct {
	workers    int
	records    int
	maxMsgSize int
	maxSizeMB  int64
	sqlitePath string
	rotatePath string
	cleaner    bool
	heartbeat  time.Duration
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Log random records from many goroutines and report throughput",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runStress(ctx, cmd, root, opts)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&opts.workers, "workers", "w", 64, "Concurrent logging goroutines")
	flags.IntVarP(&opts.records, "records", "n", 100000, "Total records to log")
	flags.IntVar(&opts.maxMsgSize, "max-message", 2000, "Upper bound of random message sizes in bytes")
	flags.Int64Var(&opts.maxSizeMB, "max-size-mb", 1, "Rotation threshold per log file")
	flags.StringVar(&opts.sqlitePath, "sqlite", "", "Also store records in this SQLite database")
	flags.StringVar(&opts.rotatePath, "rotating", "", "Also write records to this lumberjack-rotated file")
	flags.BoolVar(&opts.cleaner, "cleaner", false, "Enable the log cleaner")
	flags.DurationVar(&opts.heartbeat, "heartbeat", 0, "Log a stats record at this interval; zero disables")
	return cmd
}

func runStress(ctx context.Context, cmd *cobra.Command, root *rootOptions, opts *runOptions) error {
	if opts.workers <= 0 || opts.records <= 0 || opts.maxMsgSize <= 0 {
		return fmt.Errorf("workers, records and max-message must be positive")
	}

	logger, err := newLogger(root, func(cfg *log.Config) {
		cfg.MaxLogSizeMB = opts.maxSizeMB
		cfg.StderrThreshold = int64(log.NumSeverities)
		cfg.ExitOnFatal = false
		cfg.EnableCleaner = opts.cleaner
	})
	if err != nil {
		return err
	}
	defer logger.Shutdown()

	closers, err := attachSinks(logger, opts)
	defer func() {
		for _, c := range closers {
			_ = c()
		}
	}()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logging %d records from %d goroutines into %s\n", opts.records, opts.workers, root.dir)

	var (
		next      atomic.Int64
		written   atomic.Int64
		bytesSent atomic.Int64
		wg        sync.WaitGroup
	)
	start := time.Now()
	if opts.heartbeat > 0 {
		hbCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go heartbeat(hbCtx, logger, opts.heartbeat)
	}
	for w := 0; w < opts.workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewPCG(uint64(worker), uint64(start.UnixNano())))
			for {
				if ctx.Err() != nil {
					return
				}
				seq := next.Add(1)
				if seq > int64(opts.records) {
					return
				}
				msg := randomMessage(rng, rng.IntN(opts.maxMsgSize)+10)
				switch sev := log.Severity(rng.IntN(int(log.SeverityFatal))); sev {
				case log.SeverityInfo:
					logger.Infof("wkr=%d seq=%d %s", worker, seq, msg)
				case log.SeverityWarning:
					logger.Warningf("wkr=%d seq=%d %s", worker, seq, msg)
				default:
					logger.Errorf("wkr=%d seq=%d %s", worker, seq, msg)
				}
				written.Add(1)
				bytesSent.Add(int64(len(msg)))
			}
		}(w)
	}
	wg.Wait()
	logger.FlushLogFiles(log.SeverityInfo)
	elapsed := time.Since(start)

	if ctx.Err() != nil {
		fmt.Fprintln(out, "Interrupted")
	}
	fmt.Fprintln(out, renderSummary(logger.Stats(), written.Load(), uint64(bytesSent.Load()), elapsed))
	return nil
}

// attachSinks registers the optional sinks and returns their close functions,
// which remove the sink from the logger before closing it.
func attachSinks(logger *log.Logger, opts *runOptions) ([]func() error, error) {
	var closers []func() error
	if opts.sqlitePath != "" {
		s, err := sqlite.Open(opts.sqlitePath, sqlite.WithQueueSize(4096))
		if err != nil {
			return closers, err
		}
		logger.AddSink(s)
		closers = append(closers, func() error {
			logger.RemoveSink(s)
			return s.Close()
		})
	}
	if opts.rotatePath != "" {
		s, err := rotating.New(opts.rotatePath, rotating.WithMaxSizeMB(int(opts.maxSizeMB)), rotating.WithMaxBackups(3))
		if err != nil {
			return closers, err
		}
		logger.AddSink(s)
		closers = append(closers, func() error {
			logger.RemoveSink(s)
			return s.Close()
		})
	}
	return closers, nil
}

// heartbeat logs the logger's own counters until ctx is done.
func heartbeat(ctx context.Context, logger *log.Logger, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := logger.Stats()
			logger.Infof("heartbeat uptime=%s info=%d warning=%d error=%d rotations=%d dropped=%d disk_full=%d",
				s.Uptime.Round(time.Second), s.Messages[log.SeverityInfo], s.Messages[log.SeverityWarning],
				s.Messages[log.SeverityError], s.Rotations, s.Dropped, s.DiskFull)
		}
	}
}

func randomMessage(rng *rand.Rand, size int) string {
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "
	var sb strings.Builder
	sb.Grow(size)
	for i := 0; i < size; i++ {
		sb.WriteByte(chars[rng.IntN(len(chars))])
	}
	return sb.String()
}
