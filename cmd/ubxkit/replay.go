package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ubxkit/internal/capture"
	"ubxkit/internal/udp"
)

var (
	replayDest  string
	replaySpeed float64
	replayLoop  bool
	replayTX    bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <capture-log>",
	Short: "Stream a capture to uCenter over UDP with recorded timing",
	Long: `replay sends the frames of a capture log to a UDP destination,
honoring the recorded inter-frame timing. Point uCenter's network
connection at the same port to watch the session as if the receiver were
attached. By default only frames received from the device are sent; --tx
includes the commands that were sent to it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReplay(args[0])
	},
}

func init() {
	replayCmd.Flags().StringVar(&replayDest, "dest", "", "UDP destination host:port (required)")
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "playback speed multiplier")
	replayCmd.Flags().BoolVar(&replayLoop, "loop", false, "restart playback after the last frame")
	replayCmd.Flags().BoolVar(&replayTX, "tx", false, "include frames that were sent to the device")
	_ = replayCmd.MarkFlagRequired("dest")
}

func runReplay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	recs, err := capture.NewReader(f).ReadAll()
	_ = f.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fwd, err := udp.NewForwarder(replayDest)
	if err != nil {
		return err
	}
	defer fwd.Close()

	logger.Info("replaying",
		zap.String("path", path),
		zap.String("dest", fwd.Dest()),
		zap.Float64("speed", replaySpeed),
		zap.Bool("loop", replayLoop))

	sent := 0
	err = capture.Play(recs, capture.PlayOptions{
		Speed:     replaySpeed,
		Loop:      replayLoop,
		IncludeTX: replayTX,
	}, func(frame []byte) error {
		if err := fwd.Send(frame); err != nil {
			return err
		}
		sent++
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("replay finished", zap.Int("frames", sent))
	return nil
}
