package camera

import (
	"errors"
	"testing"

	"github.com/teslashibe/framedigest/pkg/frame"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("default config invalid: %v", errs)
	}
	if !cfg.Request().HighestFrameRate() {
		t.Error("default request should ask for the highest frame rate")
	}
	if cfg.Request().Format != frame.FormatRGB24 {
		t.Errorf("default format = %v, want RGB24", cfg.Request().Format)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(c *Config) {}, wantErr: false},
		{name: "explicit resolution", mutate: func(c *Config) { c.Width, c.Height = 1280, 720 }, wantErr: false},
		{name: "fixed framerate", mutate: func(c *Config) { c.Framerate = 30 }, wantErr: false},
		{name: "negative index", mutate: func(c *Config) { c.Index = -1 }, wantErr: true},
		{name: "unknown format", mutate: func(c *Config) { c.Format = frame.Format(99) }, wantErr: true},
		{name: "width only", mutate: func(c *Config) { c.Width = 640 }, wantErr: true},
		{name: "too wide", mutate: func(c *Config) { c.Width, c.Height = MaxWidth+1, 480 }, wantErr: true},
		{name: "framerate too high", mutate: func(c *Config) { c.Framerate = MaxFramerate + 1 }, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			errs := cfg.Validate()
			if (len(errs) > 0) != tc.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", errs, tc.wantErr)
			}
		})
	}
}

func TestErrors_Match(t *testing.T) {
	cause := errors.New("busy")

	openErr := error(&DeviceOpenError{Index: 2, Err: cause})
	if !errors.Is(openErr, ErrDeviceOpen) {
		t.Error("DeviceOpenError should match ErrDeviceOpen")
	}
	if !errors.Is(openErr, cause) {
		t.Error("DeviceOpenError should unwrap to its cause")
	}
	if errors.Is(openErr, ErrCapture) {
		t.Error("DeviceOpenError should not match ErrCapture")
	}

	capErr := error(&CaptureError{Index: 0, Err: ErrEmptyFrame})
	if !errors.Is(capErr, ErrCapture) || !errors.Is(capErr, ErrEmptyFrame) {
		t.Error("CaptureError should match ErrCapture and its cause")
	}
	if got := capErr.Error(); got != "camera 0: capture: camera: empty frame" {
		t.Errorf("Error() = %q", got)
	}
}

func TestMock_ServesFramesInOrder(t *testing.T) {
	f1 := frame.Frame{Data: []byte{1}, Width: 1, Height: 1, Format: frame.FormatGray8}
	f2 := frame.Frame{Data: []byte{2}, Width: 1, Height: 1, Format: frame.FormatGray8}
	m := NewMock(f1, f2)

	dev, err := m.Open(0, DefaultConfig().Request())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer dev.Close()

	for i, want := range []byte{1, 2} {
		got, err := dev.Capture()
		if err != nil {
			t.Fatalf("Capture %d: %v", i, err)
		}
		if got.Data[0] != want {
			t.Errorf("frame %d data = %d, want %d", i, got.Data[0], want)
		}
	}

	if _, err := dev.Capture(); !errors.Is(err, ErrCapture) {
		t.Errorf("exhausted mock error = %v, want ErrCapture", err)
	}
	if m.Captures() != 3 {
		t.Errorf("Captures = %d, want 3", m.Captures())
	}
}

func TestMock_OpenFailure(t *testing.T) {
	m := NewMock()
	m.OpenFunc = func(index int, req FormatRequest) error {
		return ErrNotOpened
	}

	_, err := m.Open(3, FormatRequest{})
	var oe *DeviceOpenError
	if !errors.As(err, &oe) {
		t.Fatalf("error %T should be *DeviceOpenError", err)
	}
	if oe.Index != 3 {
		t.Errorf("Index = %d, want 3", oe.Index)
	}
	if m.Opens() != 1 || len(m.Requests()) != 1 {
		t.Errorf("Opens = %d, requests = %d", m.Opens(), len(m.Requests()))
	}
}

func TestOpenerFunc(t *testing.T) {
	called := false
	var o Opener = OpenerFunc(func(index int, req FormatRequest) (Device, error) {
		called = true
		return nil, &DeviceOpenError{Index: index, Err: ErrNotOpened}
	})

	if _, err := o.Open(0, FormatRequest{}); !errors.Is(err, ErrDeviceOpen) {
		t.Errorf("err = %v", err)
	}
	if !called {
		t.Error("OpenerFunc was not called")
	}
}
