package main

import (
	"fmt"
	"os"
	"time"

	"github.com/portalhq/portald/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires all subcommands
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	runFlags := &RunFlags{}
	controlFlags := &ControlFlags{}
	setupFlags := &SetupFlags{}
	installFlags := &InstallFlags{}

	portaldCommand := command{global: globalFlags}

	root := createRootCommand(globalFlags)

	// Add subcommands
	root.AddCommand(
		createRunCommand(portaldCommand, runFlags),
		createPauseCommand(portaldCommand, controlFlags),
		createResumeCommand(portaldCommand, controlFlags),
		createStatusCommand(portaldCommand, controlFlags),
		createStopCommand(portaldCommand),
		createSetupCommand(portaldCommand, setupFlags),
		createInstallCommand(portaldCommand, installFlags),
	)

	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "portald",
		Short: "Lighthouse-driven sleep manager",
		Long: `Portald watches a reference host on the local network (the lighthouse)
and suspends the machine when the lighthouse stays unreachable past a
grace period.

Examples:
  portald run                       # Start monitoring (uses --config)
  portald pause --minutes=120       # Suppress suspension for two hours
  portald resume                    # Lift an active pause
  portald status                    # Show the daemon's current phase`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (default "+config.DefaultPath+")")

	return root
}

// createRunCommand creates the run subcommand
func createRunCommand(portaldCommand command, runFlags *RunFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [config.toml]",
		Short: "Start the portald daemon",
		Long: `Start the monitoring loop. The loop probes the configured lighthouse,
debounces losses through the grace period and suspends the host via
rtcwake when a loss is confirmed.

Examples:
  portald run                       # Run in the foreground
  portald run /etc/portald/config.toml
  portald run --daemonize           # Detach and run in the background`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return portaldCommand.Run(*runFlags, args)
		},
	}

	cmd.Flags().BoolVar(&runFlags.Daemonize, "daemonize", false, "run as daemon in background")
	cmd.Flags().StringVar(&runFlags.LogFile, "logfile", "", "redirect daemon logs to file")

	return cmd
}

// createPauseCommand creates the pause subcommand
func createPauseCommand(portaldCommand command, controlFlags *ControlFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pause",
		Short: "Suppress suspension for a while",
		Long: `Write a pause window so the daemon skips probing and never suspends
until the window expires. The last pause wins; windows replace each
other, they never stack.

Examples:
  portald pause --minutes=60
  portald pause --minutes=480 --api-url=http://127.0.0.1:8484/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return portaldCommand.Pause(*controlFlags)
		},
	}

	cmd.Flags().IntVar(&controlFlags.Minutes, "minutes", 60, "pause duration in minutes")
	cmd.Flags().StringVar(&controlFlags.APIUrl, "api-url", "", "daemon control API URL (e.g. http://127.0.0.1:8484/api)")
	cmd.Flags().DurationVar(&controlFlags.APITimeout, "api-timeout", 5*time.Second, "request timeout")

	return cmd
}

// createResumeCommand creates the resume subcommand
func createResumeCommand(portaldCommand command, controlFlags *ControlFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resume",
		Short: "Lift an active pause",
		Long: `Remove the pause window so monitoring resumes on the next cycle.
Resuming without an active pause is a no-op.

Examples:
  portald resume`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return portaldCommand.Resume(*controlFlags)
		},
	}

	cmd.Flags().StringVar(&controlFlags.APIUrl, "api-url", "", "daemon control API URL (e.g. http://127.0.0.1:8484/api)")
	cmd.Flags().DurationVar(&controlFlags.APITimeout, "api-timeout", 5*time.Second, "request timeout")

	return cmd
}

// createStatusCommand creates the status subcommand
func createStatusCommand(portaldCommand command, controlFlags *ControlFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show monitoring status",
		Long: `Show the daemon's current phase and any active pause window. Asks the
running daemon over its control API when reachable, otherwise reads
the pid and pause files directly.

Examples:
  portald status
  portald status --api-url=http://127.0.0.1:8484/api`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return portaldCommand.Status(*controlFlags)
		},
	}

	cmd.Flags().StringVar(&controlFlags.APIUrl, "api-url", "", "daemon control API URL (e.g. http://127.0.0.1:8484/api)")
	cmd.Flags().DurationVar(&controlFlags.APITimeout, "api-timeout", 5*time.Second, "request timeout")

	return cmd
}

// createStopCommand creates the stop subcommand
func createStopCommand(portaldCommand command) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		Long: `Terminate the daemon addressed by the configured pid file and remove
any pause marker it left behind.

Examples:
  portald stop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return portaldCommand.Stop()
		},
	}
}

// createSetupCommand creates the setup subcommand
func createSetupCommand(portaldCommand command, setupFlags *SetupFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Generate a config file",
		Long: `Write a configuration document. Without --target the active networks
are scanned via NetworkManager and a gateway is offered as the
lighthouse.

Examples:
  portald setup                     # Scan networks, pick a gateway
  portald setup --target=192.168.1.1 --sleep-minutes=120
  portald setup --output=./config.toml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return portaldCommand.Setup(*setupFlags)
		},
	}

	cmd.Flags().StringVar(&setupFlags.Target, "target", "", "lighthouse address (skips the network scan)")
	cmd.Flags().StringVar(&setupFlags.Probe, "probe", "ping", "probe strategy: ping or tcp")
	cmd.Flags().IntVar(&setupFlags.SleepMinutes, "sleep-minutes", config.DefaultSleepMinutes, "suspend duration in minutes")
	cmd.Flags().IntVar(&setupFlags.GracePeriodSec, "grace-period", config.DefaultGracePeriodSec, "grace period in seconds")
	cmd.Flags().IntVar(&setupFlags.WakeSettleSec, "wake-settle", config.DefaultWakeSettleSec, "post-wake settle time in seconds")
	cmd.Flags().IntVar(&setupFlags.PollIntervalSec, "poll-interval", config.DefaultPollIntervalSec, "poll interval in seconds")
	cmd.Flags().StringVar(&setupFlags.Language, "language", "en", "CLI message language (en, ru)")
	cmd.Flags().StringVar(&setupFlags.Output, "output", "", "where to write the config (default "+config.DefaultPath+")")

	return cmd
}

// createInstallCommand creates the install subcommand
func createInstallCommand(portaldCommand command, installFlags *InstallFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Install portald as a system service",
		Long: `Install the binary, grant the service group passwordless rtcwake and
register portald with the host's init system (systemd or OpenRC).
Must run as root.

Examples:
  sudo portald install
  sudo portald install --group=power`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return portaldCommand.Install(*installFlags)
		},
	}

	cmd.Flags().StringVar(&installFlags.BinaryPath, "binary-path", "", "install location for the daemon binary")
	cmd.Flags().StringVar(&installFlags.Group, "group", "", "group granted passwordless rtcwake")

	return cmd
}
