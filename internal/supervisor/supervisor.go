package supervisor

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/portalhq/portald/internal/metrics"
	"github.com/portalhq/portald/internal/pause"
	"github.com/portalhq/portald/internal/probe"
	"github.com/portalhq/portald/internal/suspend"
)

// Phase is the supervisor's in-memory monitoring state. It is never
// persisted; a restarted daemon always begins in PhaseIdle and re-probes.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseGraceWait
	PhaseSuspending
	PhasePausedSkip
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseGraceWait:
		return "grace_wait"
	case PhaseSuspending:
		return "suspending"
	case PhasePausedSkip:
		return "paused_skip"
	default:
		return "unknown"
	}
}

// FailureCooldown is the extra wait after a failed suspend invocation, so a
// misconfigured privileged command is not hammered in a tight loop.
const FailureCooldown = time.Minute

// Config holds the immutable run parameters. It is validated once before the
// loop starts and never mutated afterwards.
type Config struct {
	// Target is the lighthouse address whose reachability stands in for
	// "environment has power".
	Target       string
	PollInterval time.Duration
	GracePeriod  time.Duration
	SuspendFor   time.Duration
	WakeSettle   time.Duration
}

func (c Config) Validate() error {
	if c.Target == "" {
		return errors.New("target address required")
	}
	if c.PollInterval <= 0 {
		return errors.New("poll interval must be positive")
	}
	if c.GracePeriod < 0 {
		return errors.New("grace period cannot be negative")
	}
	if c.SuspendFor <= 0 {
		return errors.New("suspend duration must be positive")
	}
	if c.WakeSettle < 0 {
		return errors.New("wake settle duration cannot be negative")
	}
	return nil
}

// Supervisor runs the monitoring loop: probe the lighthouse, debounce a loss
// through the grace period, suspend the host on confirmed loss, and skip
// everything while an operator pause window is active. There is exactly one
// logical thread of control; every wait is a blocking sleep of that thread.
type Supervisor struct {
	cfg       Config
	prober    probe.Prober
	suspender suspend.Suspender
	pauses    *pause.Store
	logger    *slog.Logger

	phase atomic.Int32
	// sleep blocks for d or until ctx is cancelled; returns false on cancel.
	// Injectable for tests.
	sleep    func(ctx context.Context, d time.Duration) bool
	cooldown time.Duration
}

func New(cfg Config, p probe.Prober, s suspend.Suspender, ps *pause.Store, logger *slog.Logger) (*Supervisor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	sv := &Supervisor{
		cfg:       cfg,
		prober:    p,
		suspender: s,
		pauses:    ps,
		logger:    logger,
		sleep:     sleepCtx,
		cooldown:  FailureCooldown,
	}
	sv.phase.Store(int32(PhaseIdle))
	return sv, nil
}

// Phase returns the current monitoring phase. Safe for concurrent use; the
// status surface reads it while the loop runs.
func (s *Supervisor) Phase() Phase { return Phase(s.phase.Load()) }

// Config returns the immutable run parameters.
func (s *Supervisor) Config() Config { return s.cfg }

// PauseState reports the currently active pause window, if any.
func (s *Supervisor) PauseState() (time.Time, bool) { return s.pauses.Read() }

func (s *Supervisor) setPhase(p Phase) {
	old := Phase(s.phase.Swap(int32(p)))
	if old != p {
		metrics.SetPhase(old.String(), false)
	}
	metrics.SetPhase(p.String(), true)
}

// Run executes the monitoring loop until ctx is cancelled. Per-cycle errors
// (failed probes, failed suspends, stale pause markers) are absorbed into
// log lines and the next scheduled wait; they never end the loop.
func (s *Supervisor) Run(ctx context.Context) error {
	s.logger.Info("watching lighthouse",
		"probe", s.prober.Describe(),
		"poll_interval", s.cfg.PollInterval,
		"grace_period", s.cfg.GracePeriod,
		"suspend_for", s.cfg.SuspendFor,
	)
	for ctx.Err() == nil {
		if until, paused := s.pauses.Read(); paused {
			s.setPhase(PhasePausedSkip)
			metrics.IncPauseSkip()
			s.logger.Debug("pause active, skipping probe", "until", until)
			if !s.sleep(ctx, s.cfg.PollInterval) {
				break
			}
			continue
		}

		if s.probeOnce(ctx) {
			s.setPhase(PhaseIdle)
			if !s.sleep(ctx, s.cfg.PollInterval) {
				break
			}
			continue
		}

		// First loss observed: debounce through the grace period before
		// believing it.
		s.setPhase(PhaseGraceWait)
		metrics.IncGraceEntry()
		s.logger.Warn("lighthouse lost, entering grace period", "grace_period", s.cfg.GracePeriod)
		if !s.sleep(ctx, s.cfg.GracePeriod) {
			break
		}

		// A pause activated mid-grace wins over the in-flight loss.
		if until, paused := s.pauses.Read(); paused {
			s.logger.Info("pause activated during grace period, suspension abandoned", "until", until)
			continue
		}

		if s.probeOnce(ctx) {
			s.logger.Info("lighthouse recovered within grace period")
			s.setPhase(PhaseIdle)
			continue
		}

		s.setPhase(PhaseSuspending)
		s.logger.Info("lighthouse still dark, suspending host",
			"suspend_for", s.cfg.SuspendFor, "method", s.suspender.Describe())
		if err := s.suspender.Suspend(s.cfg.SuspendFor); err != nil {
			metrics.IncSuspend(false)
			s.logger.Error("suspend failed", "error", err, "cooldown", s.cooldown)
			if !s.sleep(ctx, s.cooldown) {
				break
			}
		} else {
			metrics.IncSuspend(true)
		}

		s.setPhase(PhaseIdle)
		s.logger.Info("woke up, waiting for network to settle", "wake_settle", s.cfg.WakeSettle)
		if !s.sleep(ctx, s.cfg.WakeSettle) {
			break
		}
	}
	s.logger.Info("supervisor stopped")
	return nil
}

func (s *Supervisor) probeOnce(ctx context.Context) bool {
	up := s.prober.Reachable(ctx)
	metrics.IncProbe(up)
	return up
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
