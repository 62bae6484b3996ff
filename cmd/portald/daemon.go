package main

import (
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// daemonize re-execs the current invocation in a new session and exits the
// parent. The child's pid is written to pidFile so control commands can
// address the daemon by an explicit handle instead of matching process
// names.
func daemonize(pidFile string, logFile string) error {
	if os.Getppid() == 1 {
		// Already running as daemon
		return nil
	}

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to get executable path: %w", err)
	}

	newArgs := stripDaemonArgs(os.Args[1:], logFile)

	// #nosec G204 -- re-executing ourselves
	cmd := exec.Command(executable, newArgs...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // new session, detach from the controlling terminal
	}
	cmd.Stdin = nil

	if logFile != "" {
		// #nosec G304 -- operator-provided log path
		logF, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cmd.Stdout = logF
		cmd.Stderr = logF
	} else {
		cmd.Stdout = nil
		cmd.Stderr = nil
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start daemon process: %w", err)
	}

	if pidFile != "" {
		if err := writePidFile(pidFile, cmd.Process.Pid); err != nil {
			return fmt.Errorf("failed to write PID file: %w", err)
		}
	}

	fmt.Printf("Daemon started with PID %d\n", cmd.Process.Pid)

	// Parent process exits
	os.Exit(0)
	return nil
}

// stripDaemonArgs builds the child's argv: the daemonize flags are removed
// in both their space- and =-separated forms so the re-exec runs in the
// foreground, then the resolved log file is re-appended. A surviving
// --daemonize would make the child bail out of daemonize without ever
// starting the loop.
func stripDaemonArgs(args []string, logFile string) []string {
	var out []string
	skipNext := false
	for _, arg := range args {
		if skipNext {
			skipNext = false
			continue
		}
		switch {
		case arg == "--daemonize", strings.HasPrefix(arg, "--daemonize="):
		case arg == "--logfile":
			skipNext = true
		case strings.HasPrefix(arg, "--logfile="):
		default:
			out = append(out, arg)
		}
	}
	if logFile != "" {
		out = append(out, "--logfile", logFile)
	}
	return out
}

// writePidFile records the daemon's process handle.
func writePidFile(pidFile string, pid int) error {
	// #nosec G302 G306 -- pid files are world-readable by convention
	f, err := os.OpenFile(pidFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	_, err = f.WriteString(strconv.Itoa(pid))
	return err
}

// readPidFile returns the recorded daemon pid.
func readPidFile(pidFile string) (int, error) {
	b, err := os.ReadFile(pidFile) // #nosec G304 -- path from validated config
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil {
		return 0, fmt.Errorf("malformed pid file %s: %w", pidFile, err)
	}
	return pid, nil
}

// removePidFile removes the PID file.
func removePidFile(pidFile string) error {
	if pidFile == "" {
		return nil
	}
	err := os.Remove(pidFile)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// terminate sends SIGTERM to the recorded pid. It reports whether a process
// was actually signalled.
func terminate(pidFile string) (bool, error) {
	pid, err := readPidFile(pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, nil
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		// Stale pid file: the process is already gone.
		_ = removePidFile(pidFile)
		return false, nil
	}
	_ = removePidFile(pidFile)
	return true, nil
}
