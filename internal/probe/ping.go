package probe

import (
	"context"
	"os/exec"
	"strconv"
	"time"
)

const DefaultTimeout = 2 * time.Second

// PingProber issues a single ICMP echo via the system ping tool.
type PingProber struct {
	Address string
	Timeout time.Duration
	// Ping overrides the ping binary, used by tests.
	Ping string
}

func (p PingProber) Reachable(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	bin := p.Ping
	if bin == "" {
		bin = "ping"
	}
	// -W takes whole seconds; keep at least one.
	secs := int(timeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	cctx, cancel := context.WithTimeout(ctx, timeout+time.Second)
	defer cancel()
	// #nosec G204 -- binary fixed, address comes from validated config
	cmd := exec.CommandContext(cctx, bin, "-c", "1", "-W", strconv.Itoa(secs), p.Address)
	cmd.Stdout = nil
	cmd.Stderr = nil
	return cmd.Run() == nil
}

func (p PingProber) Describe() string { return "ping:" + p.Address }
