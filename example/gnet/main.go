package main

import (
	"github.com/panjf2000/gnet/v2"

	log "github.com/lizyzzz/lizy-log"
	"github.com/lizyzzz/lizy-log/compat"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	logger := log.NewLogger()
	if err := logger.ApplyConfig(log.DefaultConfig()); err != nil {
		panic(err)
	}
	err := logger.ApplyOverride(
		"log_dir=/var/log/gnet",
		"stderr_threshold=warning",
		"max_log_size_mb=256",
	)
	if err != nil {
		panic(err)
	}
	defer logger.Shutdown()

	// gnet's Fatalf becomes a FATAL record, which flushes the files and ends the process
	gnetAdapter := compat.NewGnetAdapter(logger, compat.WithoutDebug())

	err = gnet.Run(
		&echoServer{},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		logger.Fatalf("gnet stopped: %v", err)
	}
}
