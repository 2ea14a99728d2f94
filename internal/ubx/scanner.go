package ubx

import (
	"bufio"
	"errors"
	"io"
)

// Scanner extracts checksum-valid UBX frames from a raw byte stream.
//
// Receiver output frequently interleaves UBX with NMEA text and, on a noisy
// serial line, garbage. The scanner hunts for the sync pair, reads the
// declared length, verifies the checksum, and on any mismatch resumes the
// hunt one byte past the false sync so that no real frame is lost.
type Scanner struct {
	r       *bufio.Reader
	skipped int64
}

func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 16*1024)}
}

// Skipped returns the number of bytes discarded so far while resynchronizing.
func (s *Scanner) Skipped() int64 { return s.skipped }

// Next returns the next valid frame, or io.EOF when the stream is exhausted.
// Trailing garbage after the last frame is counted in Skipped, not reported
// as an error.
func (s *Scanner) Next() ([]byte, error) {
	for {
		if err := s.seekSync(); err != nil {
			return nil, err
		}

		header, err := s.r.Peek(HeaderLen)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Partial header at EOF: the sync pair was noise.
				s.discardResync()
				continue
			}
			return nil, err
		}

		n := int(header[4]) | int(header[5])<<8
		if n > MaxPayloadLen {
			s.discardResync()
			continue
		}

		frame, err := s.r.Peek(Overhead + n)
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.discardResync()
				continue
			}
			return nil, err
		}

		if !Valid(frame) {
			s.discardResync()
			continue
		}

		out := make([]byte, len(frame))
		copy(out, frame)
		if _, err := s.r.Discard(len(frame)); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// seekSync discards bytes until the next Sync1 Sync2 pair heads the buffer.
func (s *Scanner) seekSync() error {
	for {
		b, err := s.r.Peek(2)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// Fewer than 2 bytes left; whatever remains is noise.
				if n, _ := s.r.Discard(len(b)); n > 0 {
					s.skipped += int64(n)
				}
				return io.EOF
			}
			return err
		}
		if b[0] == Sync1 && b[1] == Sync2 {
			return nil
		}
		if _, err := s.r.Discard(1); err != nil {
			return err
		}
		s.skipped++
	}
}

// discardResync drops the first byte of a false sync so the hunt resumes at
// the Sync2 position (which may itself start a real frame).
func (s *Scanner) discardResync() {
	if _, err := s.r.Discard(1); err == nil {
		s.skipped++
	}
}
