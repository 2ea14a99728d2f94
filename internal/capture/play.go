package capture

import (
	"errors"
	"fmt"
	"time"
)

type Sleeper interface {
	Sleep(d time.Duration)
}

type realSleeper struct{}

func (realSleeper) Sleep(d time.Duration) { time.Sleep(d) }

// PlayOptions select which records are delivered and at what rate.
type PlayOptions struct {
	// Speed: 1.0 = recorded timing, 2.0 = 2x speed (half waits).
	Speed float64
	// Loop restarts playback from the beginning after the last record.
	Loop bool
	// IncludeTX delivers tx records too; by default only rx records (the
	// receiver's own output, which is what uCenter expects) are played.
	IncludeTX bool
	// Sleeper overrides real sleeping, for tests.
	Sleeper Sleeper
}

// Play replays records with their relative timing, invoking cb for each
// delivered frame. START markers reset the origin; PPS marks only advance
// time.
func Play(records []Record, opts PlayOptions, cb func(frame []byte) error) error {
	if opts.Speed <= 0 {
		return fmt.Errorf("speed must be > 0")
	}
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = realSleeper{}
	}
	if cb == nil {
		return errors.New("callback is nil")
	}
	if len(records) == 0 {
		return errors.New("no records")
	}

	for {
		var origin time.Duration
		var lastAt time.Duration
		var haveLast bool

		for _, r := range records {
			if r.Frame == nil && !r.Pulse {
				// START marker.
				origin = r.At
				lastAt = 0
				haveLast = false
				continue
			}

			at := r.At - origin
			if at < 0 {
				at = 0
			}
			if haveLast {
				wait := at - lastAt
				if wait < 0 {
					wait = 0
				}
				wait = time.Duration(float64(wait) / opts.Speed)
				if wait > 0 {
					sleeper.Sleep(wait)
				}
			}
			lastAt = at
			haveLast = true

			if r.Pulse {
				continue
			}
			if r.Dir == TX && !opts.IncludeTX {
				continue
			}

			if err := cb(r.Frame); err != nil {
				return err
			}
		}

		if !opts.Loop {
			return nil
		}
	}
}
