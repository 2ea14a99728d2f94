package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ubxkit/internal/capture"
	"ubxkit/internal/config"
	"ubxkit/internal/timepulse"
	"ubxkit/internal/udp"
)

var captureConfigPath string

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Record a receiver's live UBX output from a serial port",
	Long: `capture reads raw receiver output from a serial device and writes a
timestamped capture log (replayable with ubxkit replay). Optionally it
mirrors the raw frames to a .ubx file, forwards them live over UDP, and
interleaves PPS marks from a timepulse GPIO line. Settings come from a YAML
config file. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCapture(captureConfigPath)
	},
}

func init() {
	captureCmd.Flags().StringVar(&captureConfigPath, "config", "./capture.yaml", "path to YAML config")
}

func runCapture(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svcCfg := capture.ServiceConfig{
		Device:  cfg.Capture.Device,
		Baud:    cfg.Capture.Baud,
		LogPath: cfg.Capture.Log,
		UBXPath: cfg.Capture.UBX,
	}

	var fwd *udp.Forwarder
	if cfg.Capture.Forward.Enable {
		fwd, err = udp.NewForwarder(cfg.Capture.Forward.Dest)
		if err != nil {
			return err
		}
		defer fwd.Close()
		svcCfg.OnFrame = func(frame []byte) {
			if err := fwd.Send(frame); err != nil {
				logger.Debug("udp forward failed", zap.Error(err))
			}
		}
		logger.Info("forwarding frames", zap.String("dest", fwd.Dest()))
	}

	svc, err := capture.NewService(svcCfg, logger)
	if err != nil {
		return err
	}

	if cfg.Capture.PPS.Enable {
		w, err := timepulse.Watch(timepulse.Config{Pin: cfg.Capture.PPS.Pin}, svc.Pulse)
		if err != nil {
			// PPS is an annotation, not the capture itself.
			logger.Warn("timepulse unavailable", zap.Int("pin", cfg.Capture.PPS.Pin), zap.Error(err))
		} else {
			defer w.Close()
			logger.Info("timepulse marks enabled", zap.Int("pin", cfg.Capture.PPS.Pin))
		}
	}

	err = svc.Run(ctx)
	st := svc.Stats()
	logger.Info("capture finished",
		zap.Int64("frames", st.Frames),
		zap.Int64("frame_bytes", st.FrameBytes),
		zap.Int64("skipped_bytes", st.SkippedBytes),
		zap.Int64("pulses", st.Pulses),
		zap.Int64("reopens", st.Reopens))
	return err
}
