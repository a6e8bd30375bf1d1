package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "DVROUTER_"

// Config is the fully resolved startup configuration: required flags plus
// optional file/env overrides for the tunables the command-line does not
// expose directly.
type Config struct {
	TopologyPath string        `koanf:"topology_path"`
	Interval     time.Duration `koanf:"interval"`
	SelfID       *NodeID       `koanf:"-"`
	FailureThreshold int       `koanf:"failure_threshold"`
	ConnectTimeout   time.Duration `koanf:"connect_timeout"`
	ReadTimeout      time.Duration `koanf:"read_timeout"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
	DedupCap         int           `koanf:"dedup_cap"`
	Debug            bool          `koanf:"debug"`
	MetricsAddr      string        `koanf:"metrics_addr"`
	Log              LogConfig     `koanf:"-"`
}

// parseFlags defines and parses the process's command-line flags. -t is
// required and -i defaults to 5 seconds; everything else is optional, with
// an optional --config file and DVROUTER_ environment overlay layered on
// top of the built-in defaults for the tunables. Log settings come from
// the --log-level/--log-format flags only.
func parseFlags(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("dvrouter", pflag.ContinueOnError)

	topologyPath := fs.StringP("topology", "t", "", "path to the topology file (required)")
	interval := fs.IntP("interval", "i", 5, "advertisement interval in seconds (>= 5)")
	idFlag := fs.Int("id", -1, "this router's id (explicit, non-magical alternative to auto-detection)")
	configPath := fs.String("config", "", "optional YAML file overriding defaults (failure threshold, timeouts, dedup cap, debug)")
	metricsAddr := fs.String("metrics-addr", "", "optional host:port to expose Prometheus /metrics on")
	debug := fs.Bool("debug", false, "self-check routing invariants after every recompute")
	logLevel := fs.String("log-level", "info", "debug, info, warn, error")
	logFormat := fs.String("log-format", "json", "json or text")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *topologyPath == "" {
		return nil, fmt.Errorf("config: -t/--topology is required")
	}
	if *interval < 5 {
		return nil, fmt.Errorf("config: -i/--interval must be >= 5, got %d", *interval)
	}

	k := koanf.New(".")
	defaults := map[string]any{
		"failure_threshold": 3,
		"connect_timeout":   2 * time.Second,
		"read_timeout":      2 * time.Second,
		"shutdown_timeout":  5 * time.Second,
		"dedup_cap":         256,
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if *configPath != "" {
		if err := k.Load(file.Provider(*configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", *configPath, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("config: load env: %w", err)
	}

	cfg := &Config{
		TopologyPath:     *topologyPath,
		Interval:         time.Duration(*interval) * time.Second,
		FailureThreshold: k.Int("failure_threshold"),
		ConnectTimeout:   k.Duration("connect_timeout"),
		ReadTimeout:      k.Duration("read_timeout"),
		ShutdownTimeout:  k.Duration("shutdown_timeout"),
		DedupCap:         k.Int("dedup_cap"),
		Debug:            *debug || k.Bool("debug"),
		MetricsAddr:      *metricsAddr,
		Log: LogConfig{
			Level:  *logLevel,
			Format: *logFormat,
			Output: "stdout",
		},
	}
	if *idFlag >= 0 {
		id := NodeID(*idFlag)
		cfg.SelfID = &id
	}
	return cfg, nil
}
