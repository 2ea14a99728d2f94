package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the YAML file consumed by `ubxkit capture`.
type Config struct {
	Capture CaptureConfig `yaml:"capture"`
}

type CaptureConfig struct {
	// Device is the serial device path of the GNSS receiver.
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`

	// Log is the capture-log output path.
	Log string `yaml:"log"`
	// UBX, when set, mirrors raw frames to a .ubx file as well.
	UBX string `yaml:"ubx"`

	Forward ForwardConfig `yaml:"forward"`
	PPS     PPSConfig     `yaml:"pps"`
}

type ForwardConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type PPSConfig struct {
	Enable bool `yaml:"enable"`
	Pin    int  `yaml:"pin"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	if cfg.Capture.Device == "" {
		return Config{}, fmt.Errorf("capture.device is required")
	}
	if cfg.Capture.Log == "" {
		return Config{}, fmt.Errorf("capture.log is required")
	}
	if cfg.Capture.Baud == 0 {
		cfg.Capture.Baud = 9600
	}
	if cfg.Capture.Baud < 0 {
		return Config{}, fmt.Errorf("capture.baud must be > 0")
	}

	if cfg.Capture.Forward.Enable && cfg.Capture.Forward.Dest == "" {
		return Config{}, fmt.Errorf("capture.forward.dest is required when capture.forward.enable is true")
	}
	if cfg.Capture.PPS.Enable && cfg.Capture.PPS.Pin <= 0 {
		return Config{}, fmt.Errorf("capture.pps.pin is required when capture.pps.enable is true")
	}

	return cfg, nil
}
