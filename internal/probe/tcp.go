package probe

import (
	"context"
	"net"
	"time"
)

// TCPProber checks reachability with a single bounded TCP dial. Useful when
// the lighthouse filters ICMP but exposes a service port (router admin page,
// SSH). Address must be host:port.
type TCPProber struct {
	Address string
	Timeout time.Duration
}

func (p TCPProber) Reachable(ctx context.Context) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func (p TCPProber) Describe() string { return "tcp:" + p.Address }
