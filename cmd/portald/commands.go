package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	portald "github.com/portalhq/portald"
	"github.com/portalhq/portald/internal/config"
	"github.com/portalhq/portald/internal/install"
	"github.com/portalhq/portald/internal/locale"
	"github.com/portalhq/portald/internal/netscan"
	"github.com/portalhq/portald/internal/suspend"
	"github.com/portalhq/portald/pkg/client"
)

type command struct {
	global *GlobalFlags
}

func (c command) configPath(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	if c.global.ConfigPath != "" {
		return c.global.ConfigPath
	}
	return config.DefaultPath
}

func (c command) loadConfig(args []string) (*config.FileConfig, error) {
	path := c.configPath(args)
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w (run 'portald setup' to create one)", err)
	}
	return cfg, nil
}

// Run starts the monitoring loop and blocks until SIGINT/SIGTERM.
func (c command) Run(f RunFlags, args []string) error {
	cfg, err := c.loadConfig(args)
	if err != nil {
		return err
	}

	if f.Daemonize {
		logfile := f.LogFile
		if logfile == "" {
			logfile = cfg.Daemon.LogFile
		}
		return daemonize(cfg.Daemon.PIDFile, logfile)
	}

	log, closer := cfg.Log.Build()
	defer func() { _ = closer.Close() }()
	slog.SetDefault(log)

	pauses := portald.NewPauseStore(cfg.Pause.File)
	sup, err := portald.New(cfg.RunConfig(), cfg.Prober(), suspend.RTCWake{}, pauses, log)
	if err != nil {
		return err
	}

	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		if err := portald.RegisterMetricsDefault(); err != nil {
			log.Warn("failed to register metrics", "error", err)
		}
		if cfg.Metrics.Listen != "" {
			go func() {
				if err := portald.ServeMetrics(cfg.Metrics.Listen); err != nil {
					log.Error("metrics server error", "error", err)
				}
			}()
		}
	}

	if cfg.Server != nil && cfg.Server.Enabled {
		listen := cfg.Server.Listen
		if listen == "" {
			listen = "127.0.0.1:8484"
		}
		srv := portald.NewHTTPServer(listen, cfg.Server.BasePath, sup, pauses)
		defer func() { _ = srv.Close() }()
		log.Info("control API listening", "addr", listen)
	}

	// When started via --daemonize the parent already recorded this pid;
	// rewriting the same value is harmless.
	if cfg.Daemon.PIDFile != "" {
		if err := writePidFile(cfg.Daemon.PIDFile, os.Getpid()); err != nil {
			log.Warn("failed to write pid file", "path", cfg.Daemon.PIDFile, "error", err)
		}
		defer func() { _ = removePidFile(cfg.Daemon.PIDFile) }()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return sup.Run(ctx)
}

// apiURL resolves the control API base URL: explicit flag first, then the
// configured server listen address, then the compiled-in default.
func apiURL(f ControlFlags, cfg *config.FileConfig) string {
	if f.APIUrl != "" {
		return f.APIUrl
	}
	if cfg.Server != nil && cfg.Server.Enabled && cfg.Server.Listen != "" {
		host := cfg.Server.Listen
		if strings.HasPrefix(host, ":") {
			host = "127.0.0.1" + host
		}
		base := cfg.Server.BasePath
		if base == "" {
			base = config.DefaultBasePath
		}
		return "http://" + host + base
	}
	return client.DefaultConfig().BaseURL
}

func controlClient(f ControlFlags, cfg *config.FileConfig) *client.Client {
	return client.New(client.Config{BaseURL: apiURL(f, cfg), Timeout: f.APITimeout})
}

// Pause suppresses suspension for f.Minutes. The running daemon is asked
// first; when unreachable the pause marker is written directly, which the
// daemon picks up on its next cycle.
func (c command) Pause(f ControlFlags) error {
	cfg, err := c.loadConfig(nil)
	if err != nil {
		return err
	}
	msgs := locale.For(cfg.Language)
	if f.Minutes <= 0 {
		return fmt.Errorf("minutes must be positive, got %d", f.Minutes)
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.APITimeout)
	defer cancel()

	var until time.Time
	if cl := controlClient(f, cfg); cl.IsReachable(ctx) {
		until, err = cl.Pause(ctx, f.Minutes)
	} else {
		pauses := portald.NewPauseStore(cfg.Pause.File)
		until, err = pauses.PauseFor(time.Duration(f.Minutes) * time.Minute)
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s %d min (%s)\n", msgs.PauseActivated, f.Minutes, until.Format(time.RFC1123))
	return nil
}

// Resume lifts any active pause window.
func (c command) Resume(f ControlFlags) error {
	cfg, err := c.loadConfig(nil)
	if err != nil {
		return err
	}
	msgs := locale.For(cfg.Language)

	ctx, cancel := context.WithTimeout(context.Background(), f.APITimeout)
	defer cancel()

	if cl := controlClient(f, cfg); cl.IsReachable(ctx) {
		if err := cl.Resume(ctx); err != nil {
			return err
		}
	} else if err := portald.NewPauseStore(cfg.Pause.File).Clear(); err != nil {
		return err
	}
	fmt.Println(msgs.PauseRemoved)
	return nil
}

// Status prints the daemon's phase and pause state.
func (c command) Status(f ControlFlags) error {
	cfg, err := c.loadConfig(nil)
	if err != nil {
		return err
	}
	msgs := locale.For(cfg.Language)

	ctx, cancel := context.WithTimeout(context.Background(), f.APITimeout)
	defer cancel()

	if cl := controlClient(f, cfg); cl.IsReachable(ctx) {
		st, err := cl.Status(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s (%s %s)\n", msgs.StatusPhase, st.Phase, msgs.DaemonTarget, st.Target)
		if st.Paused && st.PausedUntil != nil {
			fmt.Printf("%s %s\n", msgs.StatusPaused, st.PausedUntil.Format(time.RFC1123))
		} else {
			fmt.Println(msgs.StatusActive)
		}
		return nil
	}

	// No control API: fall back to the pid and pause files.
	if !daemonAlive(cfg.Daemon.PIDFile) {
		fmt.Println(msgs.DaemonNotFound)
	}
	if until, paused := portald.NewPauseStore(cfg.Pause.File).Read(); paused {
		fmt.Printf("%s %s\n", msgs.StatusPaused, until.Format(time.RFC1123))
	} else {
		fmt.Println(msgs.StatusActive)
	}
	return nil
}

func daemonAlive(pidFile string) bool {
	pid, err := readPidFile(pidFile)
	if err != nil {
		return false
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// Stop terminates the daemon recorded in the pid file and clears any pause
// marker it left behind.
func (c command) Stop() error {
	cfg, err := c.loadConfig(nil)
	if err != nil {
		return err
	}
	msgs := locale.For(cfg.Language)

	ok, err := terminate(cfg.Daemon.PIDFile)
	if err != nil {
		return err
	}
	if err := portald.NewPauseStore(cfg.Pause.File).Clear(); err != nil {
		return err
	}
	if ok {
		fmt.Println(msgs.DaemonStopped)
	} else {
		fmt.Println(msgs.DaemonNotFound)
	}
	return nil
}

// Setup writes a config document, scanning for a lighthouse candidate when
// no target was given.
func (c command) Setup(f SetupFlags) error {
	msgs := locale.For(f.Language)

	target := f.Target
	if target == "" {
		fmt.Println(msgs.SetupScanning)
		nets, err := netscan.New().ActiveNetworks()
		if err != nil {
			return fmt.Errorf("network scan: %w", err)
		}
		if len(nets) == 0 {
			return errors.New(msgs.SetupNoNetworks)
		}
		sel, err := chooseNetwork(nets)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s (%s)\n", msgs.SetupSelected, sel.Name, sel.Gateway)
		target = sel.Gateway
	}

	cfg := &config.FileConfig{
		Language: f.Language,
		Lighthouse: config.LighthouseConfig{
			Target:          target,
			Probe:           f.Probe,
			PollIntervalSec: f.PollIntervalSec,
			GracePeriodSec:  f.GracePeriodSec,
			SleepMinutes:    f.SleepMinutes,
			WakeSettleSec:   f.WakeSettleSec,
		},
	}

	out := f.Output
	if out == "" {
		out = config.DefaultPath
	}
	if err := cfg.Save(out); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	fmt.Printf("%s %s\n", msgs.SetupSaved, out)
	return nil
}

// chooseNetwork returns the only candidate, or prompts for an index when
// several networks qualify.
func chooseNetwork(nets []netscan.Network) (netscan.Network, error) {
	if len(nets) == 1 {
		return nets[0], nil
	}
	for i, n := range nets {
		fmt.Printf("  [%d] %s (%s, gateway %s)\n", i+1, n.Name, n.Device, n.Gateway)
	}
	fmt.Printf("> ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return netscan.Network{}, err
	}
	idx, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || idx < 1 || idx > len(nets) {
		return netscan.Network{}, fmt.Errorf("invalid selection %q", strings.TrimSpace(line))
	}
	return nets[idx-1], nil
}

// Install bootstraps the service: binary, elevation rule, group, init
// registration. Requires root.
func (c command) Install(f InstallFlags) error {
	if os.Geteuid() != 0 {
		return errors.New("install must run as root")
	}

	opts := install.Defaults()
	if f.BinaryPath != "" {
		opts.BinaryPath = f.BinaryPath
	}
	if f.Group != "" {
		opts.GroupName = f.Group
	}

	fmt.Printf("Installing binary to %s\n", opts.BinaryPath)
	if err := opts.CopyBinary(); err != nil {
		return err
	}
	// SUDO_USER identifies the operator behind sudo; empty means genuine root.
	if err := opts.EnsureGroup(os.Getenv("SUDO_USER")); err != nil {
		return err
	}
	fmt.Printf("Granting group %s passwordless %s\n", opts.GroupName, opts.RTCWakePath)
	if err := opts.EnsureElevationRule(); err != nil {
		return err
	}
	fmt.Println("Registering service")
	if err := opts.InstallService(); err != nil {
		return err
	}
	fmt.Println("Install complete.")
	return nil
}
