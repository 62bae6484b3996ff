package main

import "time"

// GlobalFlags holds the persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// RunFlags holds flags for the run command.
type RunFlags struct {
	Daemonize bool
	LogFile   string
}

// ControlFlags holds flags for the control commands (pause/resume/status).
type ControlFlags struct {
	Minutes    int
	APIUrl     string
	APITimeout time.Duration
}

// SetupFlags holds flags for the setup command.
type SetupFlags struct {
	Target          string
	Probe           string
	SleepMinutes    int
	GracePeriodSec  int
	WakeSettleSec   int
	PollIntervalSec int
	Language        string
	Output          string
}

// InstallFlags holds flags for the install command.
type InstallFlags struct {
	BinaryPath string
	Group      string
}
