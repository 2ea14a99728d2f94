package capture

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

type fakeSleeper struct {
	slept []time.Duration
}

func (fs *fakeSleeper) Sleep(d time.Duration) {
	fs.slept = append(fs.slept, d)
}

func TestPlayRespectsTimingAndStart(t *testing.T) {
	frames := make([][]byte, 0, 3)
	fs := &fakeSleeper{}

	recs := []Record{
		{At: 1 * time.Second, Frame: nil},
		{At: 1 * time.Second, Dir: RX, Frame: []byte{0xAA}},
		{At: 1*time.Second + 100*time.Nanosecond, Dir: RX, Frame: []byte{0xBB}},
		{At: 2 * time.Second, Frame: nil},
		{At: 2*time.Second + 50*time.Nanosecond, Dir: RX, Frame: []byte{0xCC}},
	}

	err := Play(recs, PlayOptions{Speed: 1.0, Sleeper: fs}, func(frame []byte) error {
		cp := append([]byte(nil), frame...)
		frames = append(frames, cp)
		return nil
	})
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}

	if len(frames) != 3 {
		t.Fatalf("delivered %d frames, want 3", len(frames))
	}
	if !reflect.DeepEqual(fs.slept, []time.Duration{100 * time.Nanosecond}) {
		t.Fatalf("slept = %v, want [100ns]", fs.slept)
	}
}

func TestPlaySpeedMultiplier(t *testing.T) {
	fs := &fakeSleeper{}
	recs := []Record{
		{At: 0, Dir: RX, Frame: []byte{0x01}},
		{At: 1000 * time.Nanosecond, Dir: RX, Frame: []byte{0x02}},
	}

	err := Play(recs, PlayOptions{Speed: 2.0, Sleeper: fs}, func([]byte) error { return nil })
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if !reflect.DeepEqual(fs.slept, []time.Duration{500 * time.Nanosecond}) {
		t.Fatalf("slept = %v, want [500ns]", fs.slept)
	}
}

func TestPlaySkipsTXByDefault(t *testing.T) {
	var got [][]byte
	fs := &fakeSleeper{}
	recs := []Record{
		{At: 0, Dir: TX, Frame: []byte{0x01}},
		{At: 10 * time.Nanosecond, Dir: RX, Frame: []byte{0x02}},
	}

	err := Play(recs, PlayOptions{Speed: 1.0, Sleeper: fs}, func(f []byte) error {
		got = append(got, append([]byte(nil), f...))
		return nil
	})
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if len(got) != 1 || got[0][0] != 0x02 {
		t.Fatalf("delivered %v, want only the rx frame", got)
	}
	// The skipped tx record still anchors the timing.
	if !reflect.DeepEqual(fs.slept, []time.Duration{10 * time.Nanosecond}) {
		t.Fatalf("slept = %v, want [10ns]", fs.slept)
	}
}

func TestPlayIncludeTX(t *testing.T) {
	var got int
	recs := []Record{
		{At: 0, Dir: TX, Frame: []byte{0x01}},
		{At: 0, Dir: RX, Frame: []byte{0x02}},
	}
	err := Play(recs, PlayOptions{Speed: 1.0, IncludeTX: true, Sleeper: &fakeSleeper{}}, func([]byte) error {
		got++
		return nil
	})
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if got != 2 {
		t.Fatalf("delivered %d frames, want 2", got)
	}
}

func TestPlayPulseOnlyAdvancesTime(t *testing.T) {
	var got int
	fs := &fakeSleeper{}
	recs := []Record{
		{At: 0, Dir: RX, Frame: []byte{0x01}},
		{At: 100 * time.Nanosecond, Pulse: true},
		{At: 200 * time.Nanosecond, Dir: RX, Frame: []byte{0x02}},
	}
	err := Play(recs, PlayOptions{Speed: 1.0, Sleeper: fs}, func([]byte) error {
		got++
		return nil
	})
	if err != nil {
		t.Fatalf("Play() error: %v", err)
	}
	if got != 2 {
		t.Fatalf("delivered %d frames, want 2", got)
	}
	want := []time.Duration{100 * time.Nanosecond, 100 * time.Nanosecond}
	if !reflect.DeepEqual(fs.slept, want) {
		t.Fatalf("slept = %v, want %v", fs.slept, want)
	}
}

func TestPlayCallbackErrorStops(t *testing.T) {
	recs := []Record{
		{At: 0, Dir: RX, Frame: []byte{0x01}},
		{At: 0, Dir: RX, Frame: []byte{0x02}},
	}
	boom := errors.New("boom")
	err := Play(recs, PlayOptions{Speed: 1.0, Sleeper: &fakeSleeper{}}, func([]byte) error {
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Play() error = %v, want boom", err)
	}
}

func TestPlayRejectsBadArguments(t *testing.T) {
	recs := []Record{{At: 0, Dir: RX, Frame: []byte{0x01}}}
	if err := Play(recs, PlayOptions{Speed: 0}, func([]byte) error { return nil }); err == nil {
		t.Fatalf("expected error for speed 0")
	}
	if err := Play(recs, PlayOptions{Speed: 1}, nil); err == nil {
		t.Fatalf("expected error for nil callback")
	}
	if err := Play(nil, PlayOptions{Speed: 1}, func([]byte) error { return nil }); err == nil {
		t.Fatalf("expected error for no records")
	}
}
