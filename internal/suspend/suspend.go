package suspend

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

// Suspender places the host into suspend-to-RAM for a fixed wake-after
// duration. A successful call blocks for roughly the whole duration because
// the host is asleep; a failed call returns promptly. Implementations never
// retry; retry policy belongs to the caller.
type Suspender interface {
	Suspend(d time.Duration) error
	Describe() string
}

// Failure causes, usable with errors.Is.
var (
	ErrToolMissing = errors.New("suspend tool not found")
	ErrDenied      = errors.New("suspend command exited non-zero")
)

const DefaultDoasConf = "/etc/doas.conf"

// RTCWake suspends via `rtcwake -m mem -s <seconds>` behind a privilege
// elevation prefix. The prefix is selected per call: doas when the doas
// configuration file exists, sudo otherwise. The selection is a pure
// function of host state so a reconfigured host takes effect without a
// daemon restart.
type RTCWake struct {
	// DoasConf is the path probed for elevation selection; defaults to
	// /etc/doas.conf.
	DoasConf string
	// Doas, Sudo and RTCWake override the invoked binaries, used by tests.
	Doas    string
	Sudo    string
	RTCWake string
}

// Elevation returns the elevation command chosen for the next call.
func (r RTCWake) Elevation() string {
	conf := r.DoasConf
	if conf == "" {
		conf = DefaultDoasConf
	}
	if _, err := os.Stat(conf); err == nil {
		if r.Doas != "" {
			return r.Doas
		}
		return "doas"
	}
	if r.Sudo != "" {
		return r.Sudo
	}
	return "sudo"
}

func (r RTCWake) Suspend(d time.Duration) error {
	secs := int64(d / time.Second)
	if secs <= 0 {
		return fmt.Errorf("suspend duration must be at least one second, got %v", d)
	}
	tool := r.RTCWake
	if tool == "" {
		tool = "rtcwake"
	}
	elev := r.Elevation()
	// #nosec G204 -- fixed binaries, numeric argument
	cmd := exec.Command(elev, tool, "-m", "mem", "-s", strconv.FormatInt(secs, 10))
	cmd.Stdout = nil
	cmd.Stderr = nil
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return fmt.Errorf("%s %s: %w (exit %d)", elev, tool, ErrDenied, ee.ExitCode())
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%s: %w", elev, ErrToolMissing)
	}
	return fmt.Errorf("invoke %s %s: %w", elev, tool, err)
}

func (r RTCWake) Describe() string { return "rtcwake via " + r.Elevation() }
