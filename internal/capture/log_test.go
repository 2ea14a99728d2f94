package capture

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestReaderReadAll(t *testing.T) {
	in := strings.NewReader(`
# comment

START
0,rx,b562
PPS,5
10,tx,0a 0b
`)

	recs, err := NewReader(in).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 records, got %d", len(recs))
	}
	if recs[0].Frame != nil || recs[0].Pulse {
		t.Fatalf("expected START marker, got %+v", recs[0])
	}
	if recs[1].Dir != RX || !reflect.DeepEqual(recs[1].Frame, []byte{0xb5, 0x62}) {
		t.Fatalf("unexpected record 1: %+v", recs[1])
	}
	if !recs[2].Pulse || recs[2].At != 5*time.Nanosecond {
		t.Fatalf("unexpected PPS record: %+v", recs[2])
	}
	if recs[3].Dir != TX || recs[3].At != 10*time.Nanosecond {
		t.Fatalf("unexpected record 3: %+v", recs[3])
	}
	if !reflect.DeepEqual(recs[3].Frame, []byte{0x0a, 0x0b}) {
		t.Fatalf("unexpected frame 3: %x", recs[3].Frame)
	}
}

func TestReaderReadAll_InvalidLines(t *testing.T) {
	cases := map[string]string{
		"missing fields": "10,rx\n",
		"bad direction":  "10,up,0102\n",
		"bad timestamp":  "x,rx,0102\n",
		"negative time":  "-1,rx,0102\n",
		"bad hex":        "10,rx,zz\n",
		"empty payload":  "10,rx,\n",
		"bad pps":        "PPS,x\n",
	}
	for name, in := range cases {
		if _, err := NewReader(strings.NewReader(in)).ReadAll(); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")

	w, err := CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}
	now := time.Now()
	if err := w.WriteFrame(now, RX, []byte{0xb5, 0x62, 0x05, 0x01}); err != nil {
		t.Fatalf("WriteFrame() error: %v", err)
	}
	if err := w.WritePulse(now.Add(time.Millisecond)); err != nil {
		t.Fatalf("WritePulse() error: %v", err)
	}
	if err := w.WriteFrame(now.Add(2*time.Millisecond), TX, []byte{0x01}); err != nil {
		t.Fatalf("WriteFrame() error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer f.Close()

	recs, err := NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error: %v", err)
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 records (START + 3), got %d", len(recs))
	}
	if recs[0].Frame != nil {
		t.Fatalf("expected START first, got %+v", recs[0])
	}
	if recs[1].Dir != RX || !reflect.DeepEqual(recs[1].Frame, []byte{0xb5, 0x62, 0x05, 0x01}) {
		t.Fatalf("unexpected rx record: %+v", recs[1])
	}
	if !recs[2].Pulse {
		t.Fatalf("expected pulse record, got %+v", recs[2])
	}
	if recs[3].Dir != TX {
		t.Fatalf("expected tx record, got %+v", recs[3])
	}
	if recs[3].At < recs[2].At || recs[2].At < recs[1].At {
		t.Fatalf("timestamps not monotonic: %v %v %v", recs[1].At, recs[2].At, recs[3].At)
	}
}

func TestWriterRejectsBadInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.log")
	w, err := CreateWriter(path)
	if err != nil {
		t.Fatalf("CreateWriter() error: %v", err)
	}
	defer w.Close()

	if err := w.WriteFrame(time.Now(), RX, nil); err == nil {
		t.Fatalf("expected error for empty frame")
	}
	if err := w.WriteFrame(time.Now(), Direction("up"), []byte{1}); err == nil {
		t.Fatalf("expected error for bad direction")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := w.WriteFrame(time.Now(), RX, []byte{1}); err == nil {
		t.Fatalf("expected error after close")
	}
}
