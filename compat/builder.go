// Package compat adapts a severity-routed Logger to the logging interfaces of
// gnet and fasthttp, so server internals land in the same per-severity files
// as application records.
//
//	appLogger, err := log.NewBuilder().Directory("/var/log/app").Build()
//	if err != nil {
//		return err
//	}
//	adapters := compat.NewBuilder().WithLogger(appLogger)
//
//	gnetLogger, _ := adapters.BuildGnet(compat.WithoutDebug())
//	go gnet.Run(events, "tcp://:9000", gnet.WithLogger(gnetLogger))
//
//	fasthttpLogger, _ := adapters.BuildFastHTTP()
//	server := &fasthttp.Server{Handler: handler, Logger: fasthttpLogger}
package compat

import (
	"fmt"

	log "github.com/lizyzzz/lizy-log"
)

// Builder resolves one Logger and hands out adapters bound to it. The Logger is
// either supplied, or created on the first Build from a Config plus overrides.
type Builder struct {
	logger    *log.Logger
	logCfg    *log.Config
	overrides []string
	sinks     []log.Sink
	err       error
}

// NewBuilder returns a Builder that creates a default-configured Logger unless
// WithLogger or WithConfig says otherwise.
func NewBuilder() *Builder {
	return &Builder{}
}

// WithLogger binds the adapters to l. Config and overrides are then ignored.
func (b *Builder) WithLogger(l *log.Logger) *Builder {
	if l == nil {
		b.err = fmt.Errorf("log/compat: nil logger")
		return b
	}
	b.logger = l
	return b
}

// WithConfig sets the configuration of the Logger the Builder creates.
func (b *Builder) WithConfig(cfg *log.Config) *Builder {
	b.logCfg = cfg
	return b
}

// WithOverrides applies "key=value" settings on top of the configuration of a
// created Logger.
func (b *Builder) WithOverrides(overrides ...string) *Builder {
	b.overrides = append(b.overrides, overrides...)
	return b
}

// WithSink registers s on the resolved Logger, supplied or created.
func (b *Builder) WithSink(s log.Sink) *Builder {
	if s != nil {
		b.sinks = append(b.sinks, s)
	}
	return b
}

// resolve returns the bound Logger, creating and configuring it on first use.
// Pending sinks are registered once.
func (b *Builder) resolve() (*log.Logger, error) {
	if b.err != nil {
		return nil, b.err
	}

	if b.logger == nil {
		cfg := b.logCfg
		if cfg == nil {
			cfg = log.DefaultConfig()
		}
		l := log.NewLogger()
		if err := l.ApplyConfig(cfg); err != nil {
			return nil, err
		}
		if len(b.overrides) > 0 {
			if err := l.ApplyOverride(b.overrides...); err != nil {
				_ = l.Shutdown()
				return nil, err
			}
		}
		b.logger = l
	}

	for _, s := range b.sinks {
		b.logger.AddSink(s)
	}
	b.sinks = nil
	return b.logger, nil
}

// BuildGnet returns a gnet logging.Logger writing to the resolved Logger.
func (b *Builder) BuildGnet(opts ...GnetOption) (*GnetAdapter, error) {
	l, err := b.resolve()
	if err != nil {
		return nil, err
	}
	return NewGnetAdapter(l, opts...), nil
}

// BuildFastHTTP returns a fasthttp.Logger writing to the resolved Logger.
func (b *Builder) BuildFastHTTP(opts ...FastHTTPOption) (*FastHTTPAdapter, error) {
	l, err := b.resolve()
	if err != nil {
		return nil, err
	}
	return NewFastHTTPAdapter(l, opts...), nil
}

// GetLogger returns the resolved Logger, creating it if no Build ran yet.
func (b *Builder) GetLogger() (*log.Logger, error) {
	return b.resolve()
}
