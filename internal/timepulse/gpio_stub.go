//go:build !linux

package timepulse

import (
	"fmt"
	"time"
)

func openWatcher(cfg Config, fn func(at time.Time)) (Watcher, error) {
	return nil, fmt.Errorf("timepulse not supported on this platform")
}
