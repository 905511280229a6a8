package beapi

import (
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/xyproto/env/v2"
)

// Environment variables read by LoadConfig.
const (
	EnvDoCopy    = "BELOWER_DO_COPY"
	EnvDoStat    = "BELOWER_DO_STAT"
	EnvDebug     = "BELOWER_DEBUG"
	EnvWorkers   = "BELOWER_WORKERS"
	EnvVerbosity = "BELOWER_LOG_LEVEL"
)

// Config holds the policy switches shared by the passes and the engine.
type Config struct {
	// DoCopy makes the lowering pass materialize the copies that repair
	// unhonored register ties. When false the ties are only counted.
	DoCopy bool
	// DoStat enables the rewrite statistics.
	DoStat bool
	// Debug populates diagnostic-only attributes such as the original node name.
	Debug bool
	// Workers is the number of functions compiled concurrently.
	Workers int
	// Verbosity is the logr verbosity; 1 traces every rewrite.
	Verbosity int
}

// DefaultConfig returns the configuration used when nothing is set in the environment.
func DefaultConfig() Config {
	return Config{DoCopy: true, Workers: runtime.GOMAXPROCS(0)}
}

// LoadConfig returns DefaultConfig overridden by the BELOWER_* environment
// variables. The environment is re-read on every call.
func LoadConfig() Config {
	env.Load()
	cfg := DefaultConfig()
	if env.Has(EnvDoCopy) {
		cfg.DoCopy = env.Bool(EnvDoCopy)
	}
	cfg.DoStat = env.Bool(EnvDoStat)
	cfg.Debug = env.Bool(EnvDebug)
	cfg.Workers = env.Int(EnvWorkers, cfg.Workers)
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	cfg.Verbosity = env.Int(EnvVerbosity, 0)
	return cfg
}

// NewLogger returns a logr.Logger backed by a slog text handler writing to w.
// A nil w means os.Stderr.
func NewLogger(w io.Writer, verbosity int) logr.Logger {
	if w == nil {
		w = os.Stderr
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.Level(-verbosity)})
	return logr.FromSlogHandler(h)
}
