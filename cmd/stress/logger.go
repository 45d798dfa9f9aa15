package main

import (
	"fmt"

	log "github.com/lizyzzz/lizy-log"
)

// newLogger builds a logger from the config file, if any, with the directory
// flag applied on top.
func newLogger(opts *rootOptions, modify func(*log.Config)) (*log.Logger, error) {
	cfg := log.DefaultConfig()
	if opts.configFile != "" {
		loaded, err := log.NewConfigFromFile(opts.configFile)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", opts.configFile, err)
		}
		cfg = loaded
	}
	cfg.LogDir = opts.dir
	if modify != nil {
		modify(cfg)
	}

	logger := log.NewLogger()
	if err := logger.ApplyConfig(cfg); err != nil {
		return nil, err
	}
	return logger, nil
}
