// Package portald watches a reference host on the local network (the
// lighthouse) and suspends the machine when the lighthouse stays dark,
// treating its reachability as a proxy for "the environment has power".
package portald

import (
	"log/slog"
	"net/http"
	"time"

	cfg "github.com/portalhq/portald/internal/config"
	"github.com/portalhq/portald/internal/metrics"
	"github.com/portalhq/portald/internal/pause"
	"github.com/portalhq/portald/internal/probe"
	iapi "github.com/portalhq/portald/internal/server"
	"github.com/portalhq/portald/internal/supervisor"
	"github.com/portalhq/portald/internal/suspend"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = supervisor.Config

type Phase = supervisor.Phase

const (
	PhaseIdle       = supervisor.PhaseIdle
	PhaseGraceWait  = supervisor.PhaseGraceWait
	PhaseSuspending = supervisor.PhaseSuspending
	PhasePausedSkip = supervisor.PhasePausedSkip
)

type Supervisor = supervisor.Supervisor

type Prober = probe.Prober

type PingProber = probe.PingProber

type TCPProber = probe.TCPProber

type Suspender = suspend.Suspender

type RTCWake = suspend.RTCWake

type PauseStore = pause.Store

type FileConfig = cfg.FileConfig

// New constructs a supervisor from its collaborators. The configuration is
// validated once here; the returned supervisor never mutates it.
func New(c Config, p Prober, s Suspender, ps *PauseStore, logger *slog.Logger) (*Supervisor, error) {
	return supervisor.New(c, p, s, ps, logger)
}

// NewPauseStore returns a pause store backed by the marker file at path.
func NewPauseStore(path string) *PauseStore { return pause.New(path) }

// LoadConfig reads and validates the TOML configuration document.
func LoadConfig(path string) (*FileConfig, error) { return cfg.Load(path) }

// NewHTTPServer starts the local control API on addr.
func NewHTTPServer(addr, basePath string, src iapi.StatusSource, ps *PauseStore) *http.Server {
	return iapi.NewServer(addr, basePath, src, ps)
}

// RegisterMetricsDefault registers the watch metrics with the default
// Prometheus registry.
func RegisterMetricsDefault() error { return metrics.RegisterDefault() }

// ServeMetrics serves the Prometheus exposition endpoint on addr. It blocks.
func ServeMetrics(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return server.ListenAndServe()
}
