package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	log "github.com/lizyzzz/lizy-log"
)

func newFatalCommand(root *rootOptions) *cobra.Command {
	var goroutines int

	cmd := &cobra.Command{
		Use:   "fatal",
		Short: "Log FATAL from several goroutines at once; exactly one terminates the process",
		RunE: func(cmd *cobra.Command, args []string) error {
			if goroutines <= 0 {
				return fmt.Errorf("goroutines must be positive")
			}
			logger, err := newLogger(root, func(cfg *log.Config) {
				cfg.ExitOnFatal = true
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			log.InstallFailureFunction(func() {
				if r := logger.CrashReason(); r != nil {
					fmt.Fprintf(out, "Terminating: %s:%d %s\n", r.File, r.Line, r.Message)
				}
				os.Exit(2)
			})

			var (
				wg    sync.WaitGroup
				ready sync.WaitGroup
				start = make(chan struct{})
			)
			for i := 0; i < goroutines; i++ {
				wg.Add(1)
				ready.Add(1)
				go func(id int) {
					defer wg.Done()
					ready.Done()
					<-start
					logger.Fatalf("goroutine %d gave up", id)
				}(i)
			}
			ready.Wait()
			close(start)
			wg.Wait()
			return fmt.Errorf("fatal records did not terminate the process")
		},
	}

	cmd.Flags().IntVarP(&goroutines, "goroutines", "g", 8, "Goroutines logging FATAL concurrently")
	return cmd
}
