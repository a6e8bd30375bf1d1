package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run wires config, logging, topology, and the router together, and
// returns the process exit code: 0 on graceful shutdown, nonzero on fatal
// startup error.
func run(args []string) int {
	cfg, err := parseFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}

	log := newLogger(cfg.Log)

	top, err := LoadTopology(cfg.TopologyPath)
	if err != nil {
		log.Error("failed to load topology", "error", err)
		return 1
	}

	self, err := DetectSelfID(top, cfg.SelfID)
	if err != nil {
		log.Error("failed to determine self id", "error", err)
		return 1
	}

	var m *metrics
	if cfg.MetricsAddr != "" {
		m = newMetrics("dvrouter")
		srv := serveMetrics(cfg.MetricsAddr)
		defer srv.Close()
	}

	router := NewRouter(top, self, cfg, log, m)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	log.Info("router starting", "self", self, "addr", top.Nodes[self].String(), "interval", cfg.Interval)
	if err := router.Run(ctx); err != nil {
		log.Error("router exited with error", "error", err)
		return 1
	}
	log.Info("router shut down")
	return 0
}
