package compat

import (
	"fmt"
	"os"

	"github.com/panjf2000/gnet/v2/pkg/logging"

	log "github.com/lizyzzz/lizy-log"
)

var _ logging.Logger = (*GnetAdapter)(nil)

// GnetAdapter wraps log.Logger to implement the gnet logging.Logger interface.
// Records are attributed to the gnet call site.
type GnetAdapter struct {
	logger       *log.Logger
	debug        bool
	fatalHandler func(msg string) // Runs only when the logger does not end the process itself
}

// NewGnetAdapter creates a new gnet-compatible logger adapter
func NewGnetAdapter(logger *log.Logger, opts ...GnetOption) *GnetAdapter {
	adapter := &GnetAdapter{
		logger: logger,
		debug:  true,
		fatalHandler: func(msg string) {
			os.Exit(1) // gnet expects Fatalf not to return
		},
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// GnetOption allows customizing adapter behavior
type GnetOption func(*GnetAdapter)

// WithFatalHandler sets the handler called after a fatal record when exit_on_fatal is disabled
func WithFatalHandler(handler func(string)) GnetOption {
	return func(a *GnetAdapter) {
		a.fatalHandler = handler
	}
}

// WithoutDebug discards gnet debug output
func WithoutDebug() GnetOption {
	return func(a *GnetAdapter) {
		a.debug = false
	}
}

// Debugf logs at info severity, there is no debug severity
func (a *GnetAdapter) Debugf(format string, args ...any) {
	if !a.debug {
		return
	}
	a.logger.LogDepthf(1, log.SeverityInfo, format, args...)
}

// Infof logs at info severity
func (a *GnetAdapter) Infof(format string, args ...any) {
	a.logger.LogDepthf(1, log.SeverityInfo, format, args...)
}

// Warnf logs at warning severity
func (a *GnetAdapter) Warnf(format string, args ...any) {
	a.logger.LogDepthf(1, log.SeverityWarning, format, args...)
}

// Errorf logs at error severity
func (a *GnetAdapter) Errorf(format string, args ...any) {
	a.logger.LogDepthf(1, log.SeverityError, format, args...)
}

// Fatalf logs at fatal severity. With exit_on_fatal enabled the logger ends the
// process and this call does not return; otherwise the fatal handler runs.
func (a *GnetAdapter) Fatalf(format string, args ...any) {
	a.logger.LogDepthf(1, log.SeverityFatal, format, args...)

	if a.fatalHandler != nil {
		a.fatalHandler(fmt.Sprintf(format, args...))
	}
}
