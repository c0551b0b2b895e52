package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/teslashibe/framedigest/pkg/frame"
)

// EnvConfigFile names a TOML file applied before environment overrides.
const EnvConfigFile = "FRAMEDIGEST_CONFIG"

// fileConfig mirrors the TOML layout. Pointers distinguish "absent" from
// zero so a file only overrides what it names.
//
//	interval = "500ms"
//	reopen_each_cycle = false
//	listen_addr = "127.0.0.1:3030"
//
//	[camera]
//	index = 1
//	format = "GRAY8"
//
//	[log]
//	level = "debug"
//	format = "json"
type fileConfig struct {
	Interval        *string `toml:"interval"`
	ReopenEachCycle *bool   `toml:"reopen_each_cycle"`
	ListenAddr      *string `toml:"listen_addr"`

	Camera struct {
		Index     *int    `toml:"index"`
		Format    *string `toml:"format"`
		Width     *int    `toml:"width"`
		Height    *int    `toml:"height"`
		Framerate *int    `toml:"framerate"`
	} `toml:"camera"`

	Log struct {
		Level  *string `toml:"level"`
		Format *string `toml:"format"`
	} `toml:"log"`
}

// Load builds the configuration in layers: defaults, then the TOML file
// at path (or $FRAMEDIGEST_CONFIG when path is empty), then environment
// overrides. No file at all is fine; a named file that is missing is not.
func Load(path string) (Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}

	cfg := Default()
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return cfg, fmt.Errorf("config file %s not found", path)
			}
			return cfg, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		if err := decodeFile(file, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	return applyEnv(cfg, os.LookupEnv)
}

func decodeFile(r io.Reader, cfg *Config) error {
	var fc fileConfig
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&fc); err != nil {
		return err
	}

	if fc.Interval != nil {
		d, err := time.ParseDuration(*fc.Interval)
		if err != nil {
			return fmt.Errorf("interval: %w", err)
		}
		cfg.Interval = d
	}
	if fc.ReopenEachCycle != nil {
		cfg.ReopenEachCycle = *fc.ReopenEachCycle
	}
	if fc.ListenAddr != nil {
		cfg.ListenAddr = *fc.ListenAddr
	}

	if fc.Camera.Index != nil {
		cfg.Camera.Index = *fc.Camera.Index
	}
	if fc.Camera.Format != nil {
		f, err := frame.ParseFormat(*fc.Camera.Format)
		if err != nil {
			return fmt.Errorf("camera.format: %w", err)
		}
		cfg.Camera.Format = f
	}
	if fc.Camera.Width != nil {
		cfg.Camera.Width = *fc.Camera.Width
	}
	if fc.Camera.Height != nil {
		cfg.Camera.Height = *fc.Camera.Height
	}
	if fc.Camera.Framerate != nil {
		cfg.Camera.Framerate = *fc.Camera.Framerate
	}

	if fc.Log.Level != nil {
		cfg.LogLevel = strings.ToLower(*fc.Log.Level)
	}
	if fc.Log.Format != nil {
		cfg.LogFormat = strings.ToLower(*fc.Log.Format)
	}
	return nil
}
