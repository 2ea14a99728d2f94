// Package capture records and replays timestamped UBX traffic.
//
// Log format: line-oriented text.
//
//   - Blank lines ignored.
//   - Lines starting with '#' ignored.
//   - Line "START" resets the origin (next record time is relative to 0 again).
//   - Line "PPS,<t_ns>" marks a timepulse edge at t_ns since START.
//   - Data lines are: <t_ns>,<dir>,<hex>
//     where t_ns is nanoseconds since START (monotonic), dir is "rx" for
//     frames received from the GNSS device or "tx" for frames sent to it,
//     and hex is the raw UBX frame bytes.
//
// The format is deliberately simple and stable so captures stay diffable
// and usable as regression fixtures.
package capture

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Direction of a recorded frame relative to the GNSS device.
type Direction string

const (
	RX Direction = "rx"
	TX Direction = "tx"
)

// Record is one line of a capture log. A nil Frame with Pulse false is a
// START marker; Pulse true is a timepulse mark.
type Record struct {
	At    time.Duration
	Dir   Direction
	Pulse bool
	Frame []byte
}

type Reader struct {
	r io.Reader
}

func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

func (rr *Reader) ReadAll() ([]Record, error) {
	s := bufio.NewScanner(rr.r)
	// Allow reasonably large frames.
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	recs := make([]Record, 0, 1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			continue
		}
		if line == "START" {
			recs = append(recs, Record{At: 0, Frame: nil})
			continue
		}

		if rest, ok := strings.CutPrefix(line, "PPS,"); ok {
			at, err := parseTimestamp(rest)
			if err != nil {
				return nil, fmt.Errorf("invalid PPS line %q: %w", line, err)
			}
			recs = append(recs, Record{At: at, Pulse: true})
			continue
		}

		parts := strings.SplitN(line, ",", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("invalid capture line (want t,dir,hex): %q", line)
		}
		at, err := parseTimestamp(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid capture timestamp in %q: %w", line, err)
		}

		var dir Direction
		switch strings.TrimSpace(parts[1]) {
		case string(RX):
			dir = RX
		case string(TX):
			dir = TX
		default:
			return nil, fmt.Errorf("invalid capture direction %q", parts[1])
		}

		hexStr := strings.ReplaceAll(strings.TrimSpace(parts[2]), " ", "")
		b, err := hex.DecodeString(hexStr)
		if err != nil {
			return nil, fmt.Errorf("invalid capture hex payload: %w", err)
		}
		if len(b) == 0 {
			return nil, fmt.Errorf("invalid capture payload (empty)")
		}

		recs = append(recs, Record{At: at, Dir: dir, Frame: b})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

func parseTimestamp(s string) (time.Duration, error) {
	ns, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if ns < 0 {
		return 0, fmt.Errorf("negative timestamp %d", ns)
	}
	return time.Duration(ns), nil
}

type Writer struct {
	f      *os.File
	w      *bufio.Writer
	start  time.Time
	closed bool
}

func CreateWriter(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	bw := bufio.NewWriterSize(f, 64*1024)
	if _, err := bw.WriteString("START\n"); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{f: f, w: bw, start: time.Now()}, nil
}

func (ww *Writer) WriteFrame(now time.Time, dir Direction, frame []byte) error {
	if ww.closed {
		return errors.New("capture writer is closed")
	}
	if len(frame) == 0 {
		return errors.New("frame is empty")
	}
	if dir != RX && dir != TX {
		return fmt.Errorf("invalid direction %q", dir)
	}

	_, err := fmt.Fprintf(ww.w, "%d,%s,%s\n", ww.since(now), dir, hex.EncodeToString(frame))
	return err
}

// WritePulse records a timepulse edge observed at now.
func (ww *Writer) WritePulse(now time.Time) error {
	if ww.closed {
		return errors.New("capture writer is closed")
	}
	_, err := fmt.Fprintf(ww.w, "PPS,%d\n", ww.since(now))
	return err
}

// since uses the monotonic component of time when available.
func (ww *Writer) since(now time.Time) int64 {
	d := now.Sub(ww.start)
	if d < 0 {
		d = 0
	}
	return d.Nanoseconds()
}

func (ww *Writer) Flush() error {
	if ww.closed {
		return nil
	}
	return ww.w.Flush()
}

func (ww *Writer) Close() error {
	if ww.closed {
		return nil
	}
	ww.closed = true
	if err := ww.w.Flush(); err != nil {
		_ = ww.f.Close()
		return err
	}
	return ww.f.Close()
}
