package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ubxkit/internal/ubxlog"
)

// Default extension appended when the output name has none.
const outputFileExtension = "ubx"

var extractResponsesOnly bool

var extractCmd = &cobra.Command{
	Use:   "extract <input-log> <output-file>",
	Short: "Recover UBX traffic from ubxlib log output into a .ubx file",
	Long: `extract finds the GNSS traffic in ubxlib log output and writes it to a
file that uCenter can open. The input log must contain the traffic lines
ubxlib emits by default through the uDevice/uNetwork API (otherwise enable
them with uGnssSetUbxMessagePrint). If the output file exists it is
overwritten.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(args[0], args[1], extractResponsesOnly, cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func init() {
	extractCmd.Flags().BoolVarP(&extractResponsesOnly, "responses-only", "r", false,
		"include only the responses from the GNSS device (leave out any commands sent to it)")
}

func runExtract(inputPath, outputPath string, responsesOnly bool, stdout, stderr io.Writer) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	res, err := ubxlog.Extract(in, ubxlog.Options{ResponsesOnly: responsesOnly})
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}
	for _, w := range res.Warnings {
		fmt.Fprintf(stderr, "warning: %s\n", w)
	}
	if len(res.Messages) == 0 {
		return fmt.Errorf("no GNSS traffic found in %s", inputPath)
	}

	if filepath.Ext(outputPath) == "" {
		outputPath += "." + outputFileExtension
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	for _, m := range res.Messages {
		if _, err := out.Write(m.Frame); err != nil {
			_ = out.Close()
			return err
		}
	}
	if err := out.Close(); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "wrote %d UBX message(s) to %s: you may open it in uCenter\n",
		len(res.Messages), outputPath)
	return nil
}
