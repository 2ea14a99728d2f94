//go:build linux

package timepulse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// openWatcher requests the timepulse line for edge events via the Linux
// GPIO character device.
//
// On Pi, line names are commonly "GPIO18", etc. Likely chips are tried
// first; Pi 5 kernel variants can expose header GPIOs on gpiochip0 and
// sometimes additional chips exist.
func openWatcher(cfg Config, fn func(at time.Time)) (Watcher, error) {
	if cfg.Pin <= 0 {
		return nil, fmt.Errorf("timepulse: invalid gpio pin %d", cfg.Pin)
	}
	if fn == nil {
		return nil, fmt.Errorf("timepulse: edge callback is nil")
	}

	lineName := fmt.Sprintf("GPIO%d", cfg.Pin)

	chipCandidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") {
			chipCandidates = append(chipCandidates, filepath.Join("/dev", name))
		}
	}

	handler := func(evt gpiocdev.LineEvent) {
		if evt.Type != gpiocdev.LineEventRisingEdge {
			return
		}
		fn(time.Now())
	}

	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset,
			gpiocdev.AsInput,
			gpiocdev.WithRisingEdge,
			gpiocdev.WithEventHandler(handler),
			gpiocdev.WithConsumer("ubxkit-pps"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &gpiodWatcher{chip: chip, line: line}, nil
	}

	return nil, fmt.Errorf("timepulse: gpio line %q not found (or busy)", lineName)
}

type gpiodWatcher struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (w *gpiodWatcher) Close() error {
	if w == nil || w.line == nil {
		return nil
	}
	err1 := w.line.Close()
	w.line = nil
	if w.chip != nil {
		_ = w.chip.Close()
		w.chip = nil
	}
	return err1
}
