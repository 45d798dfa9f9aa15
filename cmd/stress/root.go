package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	dir        string
	configFile string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "stress",
		Short:         "Load generator for the severity-routed logger",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "d", "./logs", "Log directory")
	rootCmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "TOML configuration file; flags override its log_dir")

	rootCmd.AddCommand(newRunCommand(opts))
	rootCmd.AddCommand(newFatalCommand(opts))
	rootCmd.AddCommand(newReconfigCommand(opts))
	return rootCmd
}
