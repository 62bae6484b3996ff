package config

import (
	"fmt"
	"time"

	"github.com/portalhq/portald/internal/logger"
	"github.com/portalhq/portald/internal/probe"
	"github.com/portalhq/portald/internal/supervisor"
	"github.com/spf13/viper"
)

// Default locations and run parameters. Everything is overridable in the
// TOML document; nothing reads these as ambient globals at runtime.
const (
	DefaultPath      = "/etc/portald/config.toml"
	DefaultPauseFile = "/tmp/portald.pause"
	DefaultPIDFile   = "/run/portald.pid"
	DefaultBasePath  = "/api"

	DefaultPollIntervalSec = 60
	DefaultGracePeriodSec  = 300
	DefaultSleepMinutes    = 60
	DefaultWakeSettleSec   = 30
	DefaultProbeTimeoutSec = 2
)

// FileConfig represents the top-level TOML structure.
type FileConfig struct {
	Language   string            `toml:"language" mapstructure:"language"`
	Lighthouse LighthouseConfig  `toml:"lighthouse" mapstructure:"lighthouse"`
	Pause      PauseConfig       `toml:"pause" mapstructure:"pause"`
	Daemon     DaemonConfig      `toml:"daemon" mapstructure:"daemon"`
	Log        logger.Config     `toml:"log" mapstructure:"log"`
	Server     *ServerConfig     `toml:"server" mapstructure:"server"`
	Metrics    *MetricsConfig    `toml:"metrics" mapstructure:"metrics"`
}

// LighthouseConfig holds the monitoring parameters. Durations are stored in
// the units operators think in: seconds everywhere except the suspend
// duration, which is minutes.
type LighthouseConfig struct {
	Target          string `toml:"target" mapstructure:"target"`
	Probe           string `toml:"probe" mapstructure:"probe"`
	ProbeTimeoutSec int    `toml:"probe_timeout_sec" mapstructure:"probe_timeout_sec"`
	PollIntervalSec int    `toml:"poll_interval_sec" mapstructure:"poll_interval_sec"`
	GracePeriodSec  int    `toml:"grace_period_sec" mapstructure:"grace_period_sec"`
	SleepMinutes    int    `toml:"sleep_minutes" mapstructure:"sleep_minutes"`
	WakeSettleSec   int    `toml:"wake_settle_sec" mapstructure:"wake_settle_sec"`
}

type PauseConfig struct {
	File string `toml:"file" mapstructure:"file"`
}

type DaemonConfig struct {
	PIDFile string `toml:"pidfile" mapstructure:"pidfile"`
	LogFile string `toml:"logfile" mapstructure:"logfile"`
}

// ServerConfig describes the local control API.
type ServerConfig struct {
	Enabled  bool   `toml:"enabled" mapstructure:"enabled"`
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

// Load reads and validates the TOML config document. A missing or malformed
// document is fatal to the daemon's startup path; remediation (running
// setup) belongs to the caller.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	// The control commands derive their URL from this block, so the daemon
	// and the CLI must agree on the mounted prefix.
	if fc.Server != nil && fc.Server.BasePath == "" {
		fc.Server.BasePath = DefaultBasePath
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &fc, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("language", "en")
	v.SetDefault("lighthouse.probe", "ping")
	v.SetDefault("lighthouse.probe_timeout_sec", DefaultProbeTimeoutSec)
	v.SetDefault("lighthouse.poll_interval_sec", DefaultPollIntervalSec)
	v.SetDefault("lighthouse.grace_period_sec", DefaultGracePeriodSec)
	v.SetDefault("lighthouse.sleep_minutes", DefaultSleepMinutes)
	v.SetDefault("lighthouse.wake_settle_sec", DefaultWakeSettleSec)
	v.SetDefault("pause.file", DefaultPauseFile)
	v.SetDefault("daemon.pidfile", DefaultPIDFile)
}

func (c *FileConfig) Validate() error {
	lh := c.Lighthouse
	if lh.Target == "" {
		return fmt.Errorf("lighthouse.target is required")
	}
	switch lh.Probe {
	case "", "ping", "tcp":
	default:
		return fmt.Errorf("lighthouse.probe must be \"ping\" or \"tcp\", got %q", lh.Probe)
	}
	if lh.PollIntervalSec <= 0 {
		return fmt.Errorf("lighthouse.poll_interval_sec must be positive")
	}
	if lh.GracePeriodSec < 0 {
		return fmt.Errorf("lighthouse.grace_period_sec cannot be negative")
	}
	if lh.SleepMinutes <= 0 {
		return fmt.Errorf("lighthouse.sleep_minutes must be positive")
	}
	if lh.WakeSettleSec < 0 {
		return fmt.Errorf("lighthouse.wake_settle_sec cannot be negative")
	}
	if c.Pause.File == "" {
		return fmt.Errorf("pause.file is required")
	}
	return nil
}

// RunConfig converts the persisted document into the supervisor's immutable
// run parameters.
func (c *FileConfig) RunConfig() supervisor.Config {
	lh := c.Lighthouse
	return supervisor.Config{
		Target:       lh.Target,
		PollInterval: time.Duration(lh.PollIntervalSec) * time.Second,
		GracePeriod:  time.Duration(lh.GracePeriodSec) * time.Second,
		SuspendFor:   time.Duration(lh.SleepMinutes) * time.Minute,
		WakeSettle:   time.Duration(lh.WakeSettleSec) * time.Second,
	}
}

// Prober constructs the configured probe strategy.
func (c *FileConfig) Prober() probe.Prober {
	timeout := time.Duration(c.Lighthouse.ProbeTimeoutSec) * time.Second
	if c.Lighthouse.Probe == "tcp" {
		return probe.TCPProber{Address: c.Lighthouse.Target, Timeout: timeout}
	}
	return probe.PingProber{Address: c.Lighthouse.Target, Timeout: timeout}
}

// Save writes the document as TOML, used by setup to persist wizard results.
func (c *FileConfig) Save(path string) error {
	v := viper.New()
	v.SetConfigType("toml")
	v.Set("language", c.Language)
	v.Set("lighthouse.target", c.Lighthouse.Target)
	v.Set("lighthouse.probe", orDefault(c.Lighthouse.Probe, "ping"))
	v.Set("lighthouse.probe_timeout_sec", orDefaultInt(c.Lighthouse.ProbeTimeoutSec, DefaultProbeTimeoutSec))
	v.Set("lighthouse.poll_interval_sec", orDefaultInt(c.Lighthouse.PollIntervalSec, DefaultPollIntervalSec))
	v.Set("lighthouse.grace_period_sec", c.Lighthouse.GracePeriodSec)
	v.Set("lighthouse.sleep_minutes", orDefaultInt(c.Lighthouse.SleepMinutes, DefaultSleepMinutes))
	v.Set("lighthouse.wake_settle_sec", c.Lighthouse.WakeSettleSec)
	v.Set("pause.file", orDefault(c.Pause.File, DefaultPauseFile))
	v.Set("daemon.pidfile", orDefault(c.Daemon.PIDFile, DefaultPIDFile))
	if c.Log.Level != "" {
		v.Set("log.level", c.Log.Level)
	}
	if c.Log.File.Path != "" {
		v.Set("log.file.path", c.Log.File.Path)
	}
	if c.Server != nil {
		v.Set("server.enabled", c.Server.Enabled)
		v.Set("server.listen", c.Server.Listen)
		v.Set("server.base_path", c.Server.BasePath)
	}
	if c.Metrics != nil {
		v.Set("metrics.enabled", c.Metrics.Enabled)
		v.Set("metrics.listen", c.Metrics.Listen)
	}
	return v.WriteConfigAs(path)
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func orDefaultInt(n, def int) int {
	if n == 0 {
		return def
	}
	return n
}
