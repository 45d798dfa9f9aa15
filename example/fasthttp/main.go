package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	log "github.com/lizyzzz/lizy-log"
	"github.com/lizyzzz/lizy-log/compat"
)

func main() {
	logger, err := log.NewBuilder().
		Directory("/var/log/fasthttp").
		StderrThreshold(log.SeverityError).
		FlushIntervalSecs(5).
		Cleaner(7).
		Build()
	if err != nil {
		panic(err)
	}
	defer logger.Shutdown()

	fasthttpAdapter := compat.NewFastHTTPAdapter(
		logger,
		compat.WithDefaultSeverity(log.SeverityInfo),
		compat.WithSeverityDetector(customSeverityDetector),
	)

	server := &fasthttp.Server{
		Handler: requestHandler(logger),
		Logger:  fasthttpAdapter,

		Name:              "MyServer",
		Concurrency:       fasthttp.DefaultConcurrency,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		TCPKeepalive:      true,
		ReduceMemoryUsage: true,
	}

	fmt.Println("Starting server on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}

func requestHandler(logger *log.Logger) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		logger.Infof("%s %s from %s", ctx.Method(), ctx.Path(), ctx.RemoteAddr())
		ctx.SetContentType("text/plain")
		fmt.Fprintf(ctx, "Hello, world! Path: %s\n", ctx.Path())
	}
}

func customSeverityDetector(msg string) (log.Severity, bool) {
	if strings.Contains(msg, "connection cannot be served") {
		return log.SeverityWarning, true
	}
	if strings.Contains(msg, "error when serving connection") {
		return log.SeverityError, true
	}
	return compat.DetectSeverity(msg)
}
