// Package ubxlog recovers UBX frames from ubxlib log output.
//
// ubxlib prints the GNSS traffic it exchanges with a receiver when message
// printing is enabled (on by default through the uDevice/uNetwork API,
// otherwise via uGnssSetUbxMessagePrint). Two line shapes carry traffic:
//
//	U_GNSS: decoded UBX response 0x0a 0x06: 01 05 00 ...[body 120 byte(s)].
//	U_GNSS: sent command b5 62 06 8a 09 00 00 01 00 00 21 00 11 20 08 f4 51.
//
// Decoded responses omit the header, length and checksum, so those are
// reassembled here; sent commands are the complete raw frame.
package ubxlog

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"ubxkit/internal/ubx"
)

// Markers at the start of the traffic portion of a log line.
const (
	fromGNSSMarker = "U_GNSS: decoded UBX response"
	toGNSSMarker   = "U_GNSS: sent command"
)

// Direction of a recovered message relative to the GNSS device.
type Direction int

const (
	FromGNSS Direction = iota // response decoded from the device
	ToGNSS                    // command sent to the device
)

// Message is one recovered UBX frame with its source line number.
type Message struct {
	Line  int
	Dir   Direction
	Frame []byte
}

// Result of an extraction pass over a log.
type Result struct {
	Messages []Message
	// Warnings describe lines that matched a marker but could not be
	// turned into a frame. They are diagnostics, not errors: log files
	// get truncated, edited and pasted around.
	Warnings []string
}

// Options control extraction.
type Options struct {
	// ResponsesOnly drops commands sent to the device, keeping only its
	// responses (the original tool's -r flag).
	ResponsesOnly bool
}

// Extract scans ubxlib log text and recovers the UBX traffic in order of
// appearance. It returns an error only for read failures; malformed traffic
// lines become warnings.
func Extract(r io.Reader, opts Options) (Result, error) {
	var res Result

	s := bufio.NewScanner(r)
	// Long MON-VER or MGA lines can exceed the default token size.
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for s.Scan() {
		lineNo++
		line := s.Text()

		if i := strings.Index(line, fromGNSSMarker); i >= 0 {
			frame, warn := parseDecodedResponse(line[i+len(fromGNSSMarker):])
			if warn != "" {
				res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: %s", lineNo, warn))
				continue
			}
			res.Messages = append(res.Messages, Message{Line: lineNo, Dir: FromGNSS, Frame: frame})
			continue
		}

		if opts.ResponsesOnly {
			continue
		}
		if i := strings.Index(line, toGNSSMarker); i >= 0 {
			frame, warn := parseSentCommand(line[i+len(toGNSSMarker):])
			if warn != "" {
				res.Warnings = append(res.Warnings, fmt.Sprintf("line %d: %s", lineNo, warn))
				continue
			}
			res.Messages = append(res.Messages, Message{Line: lineNo, Dir: ToGNSS, Frame: frame})
		}
	}
	if err := s.Err(); err != nil {
		return Result{}, err
	}

	return res, nil
}

// parseDecodedResponse rebuilds a full frame from the decoded form:
//
//	" 0x0a 0x06: 01 05 00 ...[body 120 byte(s)]."
//
// The class/ID pair precedes the colon, the body follows it, and the
// trailer declares the body length. The checksum is recomputed since the
// decoded form does not carry it.
func parseDecodedResponse(rest string) (frame []byte, warn string) {
	colon := strings.IndexByte(rest, ':')
	if colon < 0 {
		return nil, "couldn't find message class/ID (no colon)"
	}

	var classID []byte
	for _, tok := range strings.Fields(rest[:colon]) {
		v, err := strconv.ParseUint(strings.TrimPrefix(tok, "0x"), 16, 8)
		if err != nil {
			return nil, fmt.Sprintf("bad class/ID token %q", tok)
		}
		classID = append(classID, byte(v))
	}
	if len(classID) != 2 {
		return nil, fmt.Sprintf("expected 2 class/ID bytes, found %d", len(classID))
	}

	after := rest[colon+1:]
	bodyIdx := strings.Index(after, "[body ")
	if bodyIdx < 0 {
		return nil, "couldn't find \"[body\" length trailer"
	}

	declared, err := parseBodyLength(after[bodyIdx:])
	if err != nil {
		return nil, err.Error()
	}

	body, warn := parseHexBytes(after[:bodyIdx])
	if warn != "" {
		return nil, warn
	}
	if len(body) != declared {
		// A short body means the line was truncated; emitting the frame
		// anyway would desynchronize whatever reads the output stream.
		return nil, fmt.Sprintf("body has %d byte(s) but trailer declares %d", len(body), declared)
	}

	frame, err = ubx.Build(classID[0], classID[1], body)
	if err != nil {
		return nil, err.Error()
	}
	return frame, ""
}

// parseSentCommand reads the raw frame from the sent form:
//
//	" b5 62 06 8a 09 00 00 01 00 00 21 00 11 20 08 f4 51."
//
// The line carries the complete frame including checksum; it is passed
// through as observed, valid or not.
func parseSentCommand(rest string) (frame []byte, warn string) {
	frame, warn = parseHexBytes(rest)
	if warn != "" {
		return nil, warn
	}
	if len(frame) == 0 {
		return nil, "no frame bytes on sent line"
	}
	return frame, ""
}

// parseBodyLength extracts N from a "[body N byte(s)]" trailer.
func parseBodyLength(trailer string) (int, error) {
	fields := strings.Fields(trailer)
	for _, f := range fields {
		if n, err := strconv.Atoi(f); err == nil {
			if n < 0 || n > ubx.MaxPayloadLen {
				return 0, fmt.Errorf("implausible body length %d", n)
			}
			return n, nil
		}
	}
	return 0, fmt.Errorf("couldn't find body length in %q", trailer)
}

// parseHexBytes reads whitespace-separated hex byte tokens, tolerating the
// trailing punctuation ubxlib appends to the last one.
func parseHexBytes(s string) ([]byte, string) {
	var out []byte
	for _, tok := range strings.Fields(s) {
		tok = strings.TrimRight(tok, ".")
		if tok == "" {
			continue
		}
		if len(tok) > 2 {
			tok = tok[:2]
		}
		v, err := strconv.ParseUint(tok, 16, 8)
		if err != nil {
			return nil, fmt.Sprintf("non-hex value %q", tok)
		}
		out = append(out, byte(v))
	}
	return out, ""
}
