package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/teslashibe/framedigest/pkg/frame"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "framedigest.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDecodeFile(t *testing.T) {
	cfg := Default()
	err := decodeFile(strings.NewReader(`
interval = "1s"
reopen_each_cycle = false

[camera]
index = 3
format = "mjpeg"
width = 640
height = 480

[log]
level = "WARN"
`), &cfg)
	if err != nil {
		t.Fatalf("decodeFile: %v", err)
	}

	if cfg.Interval != time.Second {
		t.Errorf("Interval = %v", cfg.Interval)
	}
	if cfg.ReopenEachCycle {
		t.Error("ReopenEachCycle should be false")
	}
	if cfg.Camera.Index != 3 || cfg.Camera.Format != frame.FormatMJPEG {
		t.Errorf("Camera = %+v", cfg.Camera)
	}
	if cfg.Camera.Width != 640 || cfg.Camera.Height != 480 {
		t.Errorf("Camera size = %dx%d", cfg.Camera.Width, cfg.Camera.Height)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	// Untouched keys keep their defaults.
	if cfg.ListenAddr != Default().ListenAddr || cfg.LogFormat != "text" {
		t.Errorf("defaults overwritten: %q %q", cfg.ListenAddr, cfg.LogFormat)
	}
}

func TestDecodeFile_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "unknown key", body: `colour = "red"`},
		{name: "bad interval", body: `interval = "soon"`},
		{name: "bad format", body: "[camera]\nformat = \"yuyv\""},
		{name: "wrong type", body: "[camera]\nindex = \"zero\""},
		{name: "syntax", body: `interval = `},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := decodeFile(strings.NewReader(tc.body), &cfg); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "listen_addr = \"127.0.0.1:4000\"\n[camera]\nindex = 1\n")
	t.Setenv(EnvCameraIndex, "2")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != "127.0.0.1:4000" {
		t.Errorf("ListenAddr = %q, want file value", cfg.ListenAddr)
	}
	if cfg.Camera.Index != 2 {
		t.Errorf("Camera.Index = %d, want env value 2", cfg.Camera.Index)
	}
}

func TestLoad_PathFromEnv(t *testing.T) {
	path := writeConfig(t, "interval = \"750ms\"\n")
	t.Setenv(EnvConfigFile, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Interval != 750*time.Millisecond {
		t.Errorf("Interval = %v", cfg.Interval)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Load error = %v, want not found", err)
	}
}

func TestLoad_NoFile(t *testing.T) {
	t.Setenv(EnvConfigFile, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Interval != Default().Interval {
		t.Errorf("Interval = %v, want default", cfg.Interval)
	}
}
