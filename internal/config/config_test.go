package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_RequiresDevice(t *testing.T) {
	path := writeTempConfig(t, "capture:\n  log: out.log\n")
	_, err := Load(path)
	requireErrEq(t, err, "capture.device is required")
}

func TestLoad_RequiresLog(t *testing.T) {
	path := writeTempConfig(t, "capture:\n  device: /dev/ttyACM0\n")
	_, err := Load(path)
	requireErrEq(t, err, "capture.log is required")
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "capture:\n  device: /dev/ttyACM0\n  log: out.log\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Capture.Baud != 9600 {
		t.Fatalf("baud=%d want 9600", cfg.Capture.Baud)
	}
	if cfg.Capture.Forward.Enable || cfg.Capture.PPS.Enable {
		t.Fatalf("expected forward and pps disabled by default")
	}
}

func TestLoad_ForwardRequiresDest(t *testing.T) {
	path := writeTempConfig(t, `capture:
  device: /dev/ttyACM0
  log: out.log
  forward:
    enable: true
`)
	_, err := Load(path)
	requireErrEq(t, err, "capture.forward.dest is required when capture.forward.enable is true")
}

func TestLoad_PPSRequiresPin(t *testing.T) {
	path := writeTempConfig(t, `capture:
  device: /dev/ttyACM0
  log: out.log
  pps:
    enable: true
`)
	_, err := Load(path)
	requireErrEq(t, err, "capture.pps.pin is required when capture.pps.enable is true")
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTempConfig(t, `capture:
  device: /dev/ttyACM0
  baud: 38400
  log: capture.log
  ubx: capture.ubx
  forward:
    enable: true
    dest: 127.0.0.1:9000
  pps:
    enable: true
    pin: 18
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Capture.Baud != 38400 || cfg.Capture.UBX != "capture.ubx" {
		t.Fatalf("unexpected config: %+v", cfg.Capture)
	}
	if cfg.Capture.Forward.Dest != "127.0.0.1:9000" || cfg.Capture.PPS.Pin != 18 {
		t.Fatalf("unexpected config: %+v", cfg.Capture)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeTempConfig(t, "capture: [not a map\n")
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for bad yaml")
	}
}

func TestLoad_NegativeBaud(t *testing.T) {
	path := writeTempConfig(t, "capture:\n  device: /dev/ttyACM0\n  log: out.log\n  baud: -1\n")
	_, err := Load(path)
	requireErrEq(t, err, "capture.baud must be > 0")
}
