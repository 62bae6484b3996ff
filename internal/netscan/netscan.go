package netscan

import (
	"os/exec"
	"strings"
)

// Network is an active connection with a usable IPv4 gateway, a candidate
// lighthouse for the setup flow.
type Network struct {
	Name    string
	Device  string
	Gateway string
}

// Scanner discovers active networks via NetworkManager's nmcli.
type Scanner struct {
	// run executes a command and returns its stdout; replaceable in tests.
	run func(name string, args ...string) ([]byte, error)
}

func New() *Scanner {
	return &Scanner{
		run: func(name string, args ...string) ([]byte, error) {
			// #nosec G204 -- fixed nmcli invocations
			return exec.Command(name, args...).Output()
		},
	}
}

// ActiveNetworks lists active connections that expose an IPv4 gateway.
// Connections without a gateway (loopback, point-to-point tunnels) are
// skipped rather than reported as errors.
func (s *Scanner) ActiveNetworks() ([]Network, error) {
	out, err := s.run("nmcli", "-t", "-f", "NAME,DEVICE", "connection", "show", "--active")
	if err != nil {
		return nil, err
	}
	var nets []Network
	for _, line := range strings.Split(string(out), "\n") {
		name, device, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok || name == "" || device == "lo" {
			continue
		}
		gw, err := s.gatewayFor(device)
		if err != nil || gw == "" {
			continue
		}
		nets = append(nets, Network{Name: name, Device: device, Gateway: gw})
	}
	return nets, nil
}

func (s *Scanner) gatewayFor(device string) (string, error) {
	out, err := s.run("nmcli", "-t", "dev", "show", device)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(out), "\n") {
		val, ok := strings.CutPrefix(line, "IP4.GATEWAY:")
		if !ok {
			continue
		}
		gw := strings.TrimSpace(val)
		if gw != "" && gw != "--" {
			return gw, nil
		}
	}
	return "", nil
}
