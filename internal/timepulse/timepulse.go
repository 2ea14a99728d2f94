// Package timepulse watches the receiver's timepulse (PPS) output on a GPIO
// line and reports the host timestamp of each rising edge. Captures use the
// marks to relate frame timing to the receiver's time base.
package timepulse

import "time"

// Watcher delivers edge timestamps until closed.
type Watcher interface {
	Close() error
}

// Config selects the GPIO line.
type Config struct {
	// Pin is the BCM GPIO number carrying the timepulse signal.
	Pin int
}

// Watch requests the line and invokes fn from a background goroutine for
// every rising edge. fn must be safe for concurrent use with the caller.
func Watch(cfg Config, fn func(at time.Time)) (Watcher, error) {
	return openWatcher(cfg, fn)
}
