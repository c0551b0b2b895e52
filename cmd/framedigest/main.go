// framedigest samples a camera, prints each frame's brightness and serves
// a running SHA3-512 digest of every frame captured.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/teslashibe/framedigest/internal/app"
	"github.com/teslashibe/framedigest/internal/config"
	"github.com/teslashibe/framedigest/internal/log"
	"github.com/teslashibe/framedigest/pkg/camera/opencv"
	"github.com/teslashibe/framedigest/pkg/frame"
)

type flags struct {
	config   string
	debug    bool
	check    bool
	addr     string
	camera   int
	format   string
	interval time.Duration
	reopen   bool
}

func main() {
	f := parseFlags()

	cfg, err := config.Load(f.config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "framedigest: %v\n", err)
		os.Exit(2)
	}
	if err := applyFlags(&cfg, f); err != nil {
		fmt.Fprintf(os.Stderr, "framedigest: %v\n", err)
		os.Exit(2)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Fprintf(os.Stderr, "framedigest: invalid configuration:\n  %s\n", strings.Join(errs, "\n  "))
		os.Exit(2)
	}

	logger := log.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if f.check {
		code := runCheck(ctx, cfg)
		cancel()
		os.Exit(code)
	}

	a := app.New(cfg, opencv.NewOpener(logger), app.WithLogger(logger))
	if err := a.Run(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}

// parseFlags parses command line flags. Only flags given explicitly
// override the loaded configuration.
func parseFlags() flags {
	var f flags
	flag.StringVar(&f.config, "config", "", "TOML config file (overrides FRAMEDIGEST_CONFIG)")
	flag.BoolVar(&f.debug, "debug", false, "Enable debug logging and HTTP access logs")
	flag.BoolVar(&f.check, "check", false, "Query a running instance at the listen address and exit")
	flag.StringVar(&f.addr, "addr", "", "Digest server listen address (default 127.0.0.1:3030)")
	flag.IntVar(&f.camera, "camera", 0, "Camera device index")
	flag.StringVar(&f.format, "format", "", "Pixel format: RGB24, BGR24, GRAY8, MJPEG")
	flag.DurationVar(&f.interval, "interval", 0, "Pause between captures (default 200ms)")
	flag.BoolVar(&f.reopen, "reopen", true, "Reopen the camera for every capture")
	flag.Parse()
	return f
}

func applyFlags(cfg *config.Config, f flags) error {
	var err error
	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "addr":
			cfg.ListenAddr = f.addr
		case "camera":
			cfg.Camera.Index = f.camera
		case "format":
			var pf frame.Format
			if pf, err = frame.ParseFormat(f.format); err == nil {
				cfg.Camera.Format = pf
			}
		case "interval":
			cfg.Interval = f.interval
		case "reopen":
			cfg.ReopenEachCycle = f.reopen
		case "debug":
			cfg.Debug = f.debug
			if f.debug {
				cfg.LogLevel = "debug"
			}
		}
	})
	return err
}
