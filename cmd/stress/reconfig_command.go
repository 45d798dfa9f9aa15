package main

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	log "github.com/lizyzzz/lizy-log"
)

func newReconfigCommand(root *rootOptions) *cobra.Command {
	var (
		rounds int
		pause  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "reconfig",
		Short: "Reconfigure a logger repeatedly while goroutines keep logging",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(root, func(cfg *log.Config) {
				cfg.StderrThreshold = int64(log.NumSeverities)
				cfg.ExitOnFatal = false
			})
			if err != nil {
				return err
			}
			defer logger.Shutdown()

			var (
				count atomic.Int64
				stop  = make(chan struct{})
				wg    sync.WaitGroup
			)
			for w := 0; w < 4; w++ {
				wg.Add(1)
				go func(worker int) {
					defer wg.Done()
					for i := 0; ; i++ {
						select {
						case <-stop:
							return
						default:
						}
						logger.Warningf("worker %d record %d", worker, i)
						count.Add(1)
						time.Sleep(time.Millisecond)
					}
				}(w)
			}

			// Each round changes a setting that closes and reopens files
			out := cmd.OutOrStdout()
			for i := 0; i < rounds; i++ {
				err := logger.ApplyOverride(
					fmt.Sprintf("extension=.r%d", i%3),
					fmt.Sprintf("timestamp_in_filename=%t", i%2 == 0),
					fmt.Sprintf("max_log_size_mb=%d", 1+i%4),
				)
				if err != nil {
					fmt.Fprintf(out, "Reconfigure error: %v\n", err)
				}
				time.Sleep(pause)
			}
			close(stop)
			wg.Wait()

			s := logger.Stats()
			fmt.Fprintf(out, "Records attempted: %d, dispatched: %d, files created: %d, dropped: %d\n",
				count.Load(), s.Messages[log.SeverityWarning], s.FilesCreated, s.Dropped)
			return nil
		},
	}

	cmd.Flags().IntVarP(&rounds, "rounds", "r", 20, "Number of reconfigurations")
	cmd.Flags().DurationVar(&pause, "pause", 10*time.Millisecond, "Delay between reconfigurations")
	return cmd
}
