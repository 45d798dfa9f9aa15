package compat

import (
	"fmt"
	"strings"

	"github.com/valyala/fasthttp"

	log "github.com/lizyzzz/lizy-log"
)

var _ fasthttp.Logger = (*FastHTTPAdapter)(nil)

// FastHTTPAdapter wraps log.Logger to implement the fasthttp Logger interface
type FastHTTPAdapter struct {
	logger          *log.Logger
	defaultSeverity log.Severity
	detector        func(string) (log.Severity, bool) // Detects the severity from message content
}

// NewFastHTTPAdapter creates a new fasthttp-compatible logger adapter
func NewFastHTTPAdapter(logger *log.Logger, opts ...FastHTTPOption) *FastHTTPAdapter {
	adapter := &FastHTTPAdapter{
		logger:          logger,
		defaultSeverity: log.SeverityInfo,
		detector:        DetectSeverity,
	}

	for _, opt := range opts {
		opt(adapter)
	}

	return adapter
}

// FastHTTPOption allows customizing adapter behavior
type FastHTTPOption func(*FastHTTPAdapter)

// WithDefaultSeverity sets the severity of messages the detector does not classify
func WithDefaultSeverity(sev log.Severity) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.defaultSeverity = sev
	}
}

// WithSeverityDetector replaces the content based detection, nil disables it
func WithSeverityDetector(detector func(string) (log.Severity, bool)) FastHTTPOption {
	return func(a *FastHTTPAdapter) {
		a.detector = detector
	}
}

// Printf implements fasthttp's Logger interface
func (a *FastHTTPAdapter) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	sev := a.defaultSeverity
	if a.detector != nil {
		if detected, ok := a.detector(msg); ok {
			sev = detected
		}
	}
	// fasthttp never asks for termination
	if sev == log.SeverityFatal {
		sev = log.SeverityError
	}

	a.logger.LogDepth(1, sev, msg)
}

// DetectSeverity classifies a message by keywords. ok is false when no keyword matches.
func DetectSeverity(msg string) (sev log.Severity, ok bool) {
	msgLower := strings.ToLower(msg)

	// Check for error indicators
	if strings.Contains(msgLower, "error") ||
		strings.Contains(msgLower, "failed") ||
		strings.Contains(msgLower, "fatal") ||
		strings.Contains(msgLower, "panic") {
		return log.SeverityError, true
	}

	// Check for warning indicators
	if strings.Contains(msgLower, "warn") ||
		strings.Contains(msgLower, "deprecated") {
		return log.SeverityWarning, true
	}

	return log.SeverityInfo, false
}
