package probe

import "context"

// Prober is a strategy that determines if the lighthouse is reachable.
// Implementations must bound their own latency and be safe for concurrent use.
// An inconclusive or failed check reports false; it is never an error to the
// caller, because loss of reachability is the signal the daemon acts on.
type Prober interface {
	// Reachable returns true only on a conclusive success response.
	Reachable(ctx context.Context) bool
	// Describe returns a human-readable description of the probe method.
	Describe() string
}
