package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"ubxkit/internal/capture"
	"ubxkit/internal/ubx"
)

var summaryCmd = &cobra.Command{
	Use:   "summary <file>",
	Short: "Print frame statistics for a .ubx file or capture log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return printSummary(args[0], cmd.OutOrStdout())
	},
}

type classID struct {
	class byte
	id    byte
}

type fileSummary struct {
	Format       string
	Frames       int
	Invalid      int
	SkippedBytes int64
	Segments     int
	Pulses       int
	MaxDuration  time.Duration
	Counts       map[classID]int
}

func printSummary(path string, stdout io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, _ := br.Peek(2)

	var s fileSummary
	if len(head) == 2 && head[0] == ubx.Sync1 && head[1] == ubx.Sync2 {
		s, err = summarizeRawUBX(br)
	} else {
		s, err = summarizeCaptureLog(br)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	fmt.Fprintf(stdout, "path: %s\n", path)
	fmt.Fprintf(stdout, "format: %s\n", s.Format)
	fmt.Fprintf(stdout, "frames: %d\n", s.Frames)
	if s.Format == "capture-log" {
		fmt.Fprintf(stdout, "invalid_frames: %d\n", s.Invalid)
		fmt.Fprintf(stdout, "segments: %d\n", s.Segments)
		fmt.Fprintf(stdout, "pulses: %d\n", s.Pulses)
		fmt.Fprintf(stdout, "max_duration: %s\n", s.MaxDuration)
	} else {
		fmt.Fprintf(stdout, "skipped_bytes: %d\n", s.SkippedBytes)
	}

	keys := make([]classID, 0, len(s.Counts))
	for k := range s.Counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].class != keys[j].class {
			return keys[i].class < keys[j].class
		}
		return keys[i].id < keys[j].id
	})
	fmt.Fprintf(stdout, "message_counts:\n")
	for _, k := range keys {
		fmt.Fprintf(stdout, "  %s 0x%02X: %d\n", ubx.ClassName(k.class), k.id, s.Counts[k])
	}
	return nil
}

// summarizeRawUBX scans a raw frame stream, as written by extract or the
// capture mirror.
func summarizeRawUBX(r io.Reader) (fileSummary, error) {
	s := fileSummary{Format: "ubx", Counts: map[classID]int{}}
	scanner := ubx.NewScanner(r)
	for {
		frame, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fileSummary{}, err
		}
		s.Frames++
		if class, id, ok := ubx.ClassID(frame); ok {
			s.Counts[classID{class, id}]++
		}
	}
	s.SkippedBytes = scanner.Skipped()
	return s, nil
}

// summarizeCaptureLog tallies a capture log. Frames that fail validation
// are counted, not rejected: the summary is a diagnostic tool.
func summarizeCaptureLog(r io.Reader) (fileSummary, error) {
	recs, err := capture.NewReader(r).ReadAll()
	if err != nil {
		return fileSummary{}, err
	}
	return summarizeRecords(recs), nil
}

func summarizeRecords(recs []capture.Record) fileSummary {
	s := fileSummary{Format: "capture-log", Counts: map[classID]int{}}

	origin := time.Duration(0)
	hasFrames := false
	segments := 0

	for _, r := range recs {
		if r.Pulse {
			s.Pulses++
			continue
		}
		if r.Frame == nil {
			segments++
			origin = r.At
			continue
		}
		hasFrames = true

		s.Frames++
		at := r.At - origin
		if at < 0 {
			at = 0
		}
		if at > s.MaxDuration {
			s.MaxDuration = at
		}

		if !ubx.Valid(r.Frame) {
			s.Invalid++
			continue
		}
		class, id, _ := ubx.ClassID(r.Frame)
		s.Counts[classID{class, id}]++
	}
	if segments == 0 && hasFrames {
		segments = 1
	}
	s.Segments = segments

	return s
}
