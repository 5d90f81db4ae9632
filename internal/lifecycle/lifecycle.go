// Package lifecycle tracks process phase for the health endpoint.
package lifecycle

import "sync/atomic"

var (
	ready        atomic.Bool
	shuttingDown atomic.Bool
)

// SetReady marks startup work (config, cache warming) as finished.
func SetReady(v bool) {
	ready.Store(v)
}

// IsReady reports whether startup has finished.
func IsReady() bool {
	return ready.Load()
}

// SetShuttingDown sets the shutdown flag. Call when SIGTERM/SIGINT is received.
// Health returns 503 shutting-down while true.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

// IsShuttingDown returns true if the process is draining and should not receive new traffic.
func IsShuttingDown() bool {
	return shuttingDown.Load()
}

// Phase names the current phase: "starting", "serving" or "shutting-down".
func Phase() string {
	switch {
	case shuttingDown.Load():
		return "shutting-down"
	case !ready.Load():
		return "starting"
	default:
		return "serving"
	}
}
