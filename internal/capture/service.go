package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"ubxkit/internal/ubx"
)

// ServiceConfig controls the serial capture service.
type ServiceConfig struct {
	Device string
	Baud   int

	// LogPath receives the timestamped capture log.
	LogPath string
	// UBXPath, when set, receives the raw concatenated frames as well, in a
	// form uCenter opens directly.
	UBXPath string

	// OnFrame, when set, is invoked for every captured frame (after it has
	// been logged). Used for live UDP forwarding.
	OnFrame func(frame []byte)
}

// Stats is a snapshot of capture progress.
type Stats struct {
	Frames       int64
	FrameBytes   int64
	SkippedBytes int64
	Pulses       int64
	Reopens      int64
}

// Service reads a receiver's raw UBX output from a serial device and writes
// a capture log. Read errors do not stop it; the device is reopened with a
// backoff, since USB GNSS receivers come and go across power saving and
// replugs.
type Service struct {
	cfg ServiceConfig
	log *zap.Logger

	mu     sync.Mutex
	writer *Writer
	ubxOut *os.File
	stats  Stats
}

func NewService(cfg ServiceConfig, log *zap.Logger) (*Service, error) {
	if cfg.Device == "" {
		return nil, errors.New("capture device is required")
	}
	if cfg.LogPath == "" {
		return nil, errors.New("capture log path is required")
	}
	if cfg.Baud == 0 {
		cfg.Baud = 9600
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, log: log}, nil
}

// Stats returns a snapshot of progress counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Pulse records a timepulse edge observed at now. Safe to call from the
// GPIO watcher goroutine while capture runs.
func (s *Service) Pulse(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return
	}
	if err := s.writer.WritePulse(now); err != nil {
		s.log.Warn("pps write failed", zap.Error(err))
		return
	}
	s.stats.Pulses++
}

// Run captures until ctx is cancelled. The capture log is created up front;
// serial open failures are retried.
func (s *Service) Run(ctx context.Context) error {
	w, err := CreateWriter(s.cfg.LogPath)
	if err != nil {
		return fmt.Errorf("create capture log: %w", err)
	}
	var ubxOut *os.File
	if s.cfg.UBXPath != "" {
		ubxOut, err = os.Create(s.cfg.UBXPath)
		if err != nil {
			_ = w.Close()
			return fmt.Errorf("create ubx output: %w", err)
		}
	}

	s.mu.Lock()
	s.writer = w
	s.ubxOut = ubxOut
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.writer = nil
		s.mu.Unlock()
		if ubxOut != nil {
			_ = ubxOut.Close()
		}
		_ = w.Close()
	}()

	const reopenDelay = 2 * time.Second
	first := true
	for {
		if ctx.Err() != nil {
			return nil
		}
		if !first {
			s.mu.Lock()
			s.stats.Reopens++
			s.mu.Unlock()
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(reopenDelay):
			}
		}
		first = false

		f, err := openSerial(s.cfg.Device, s.cfg.Baud)
		if err != nil {
			s.log.Warn("serial open failed",
				zap.String("device", s.cfg.Device),
				zap.Int("baud", s.cfg.Baud),
				zap.Error(err))
			continue
		}
		s.log.Info("capturing",
			zap.String("device", s.cfg.Device),
			zap.Int("baud", s.cfg.Baud),
			zap.String("log", s.cfg.LogPath))

		// Close the device when ctx ends so blocked reads unblock.
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				_ = f.Close()
			case <-done:
			}
		}()

		err = s.captureFrom(f)
		close(done)
		_ = f.Close()

		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.log.Warn("capture stream ended", zap.Error(err))
		}
	}
}

// captureFrom drains one opened stream.
func (s *Service) captureFrom(r io.Reader) error {
	scanner := ubx.NewScanner(r)
	var lastSkipped int64
	for {
		frame, err := scanner.Next()
		if err != nil {
			s.noteSkipped(scanner.Skipped() - lastSkipped)
			if errors.Is(err, io.EOF) {
				return io.EOF
			}
			return err
		}

		s.noteSkipped(scanner.Skipped() - lastSkipped)
		lastSkipped = scanner.Skipped()

		if err := s.record(time.Now(), frame); err != nil {
			return err
		}
		if s.cfg.OnFrame != nil {
			s.cfg.OnFrame(frame)
		}
	}
}

func (s *Service) record(now time.Time, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writer == nil {
		return errors.New("capture writer not open")
	}
	if err := s.writer.WriteFrame(now, RX, frame); err != nil {
		return err
	}
	if s.ubxOut != nil {
		if _, err := s.ubxOut.Write(frame); err != nil {
			return err
		}
	}
	s.stats.Frames++
	s.stats.FrameBytes += int64(len(frame))
	return nil
}

func (s *Service) noteSkipped(n int64) {
	if n <= 0 {
		return
	}
	s.mu.Lock()
	s.stats.SkippedBytes += n
	s.mu.Unlock()
}
