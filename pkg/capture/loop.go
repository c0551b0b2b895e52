// Package capture runs the sampling loop: open the camera, grab a frame,
// print its brightness, fold its bytes into the digest, sleep, repeat.
package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sync/atomic"
	"time"

	"github.com/teslashibe/framedigest/pkg/camera"
	"github.com/teslashibe/framedigest/pkg/digest"
	"github.com/teslashibe/framedigest/pkg/frame"
)

// DefaultInterval is the pause between captures.
const DefaultInterval = 200 * time.Millisecond

// Config holds loop settings. Use the WithXxx options to set them.
type Config struct {
	Camera   camera.Config
	Interval time.Duration

	// ReopenEachCycle opens and closes the device around every capture
	// instead of holding it for the life of the loop.
	ReopenEachCycle bool

	// Sink receives one brightness line per cycle.
	Sink io.Writer

	// Observer is called with a fresh snapshot after every absorb.
	Observer func(digest.Snapshot)

	Logger *slog.Logger
}

// Option is a functional option for configuring the loop.
type Option func(*Config)

// WithCamera sets the device index and requested format.
func WithCamera(cfg camera.Config) Option {
	return func(c *Config) {
		c.Camera = cfg
	}
}

// WithInterval sets the sleep between cycles.
func WithInterval(d time.Duration) Option {
	return func(c *Config) {
		c.Interval = d
	}
}

// WithReopenEachCycle controls whether the device is reacquired every cycle.
func WithReopenEachCycle(reopen bool) Option {
	return func(c *Config) {
		c.ReopenEachCycle = reopen
	}
}

// WithSink sets the diagnostic writer.
func WithSink(w io.Writer) Option {
	return func(c *Config) {
		c.Sink = w
	}
}

// WithObserver registers a callback for post-absorb snapshots.
func WithObserver(fn func(digest.Snapshot)) Option {
	return func(c *Config) {
		c.Observer = fn
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// DefaultConfig returns the loop defaults: first camera, 200ms interval,
// device reopened every cycle, diagnostics on stdout.
func DefaultConfig() *Config {
	return &Config{
		Camera:          camera.DefaultConfig(),
		Interval:        DefaultInterval,
		ReopenEachCycle: true,
		Sink:            os.Stdout,
		Logger:          slog.Default(),
	}
}

// Stats is a point-in-time view of loop progress.
type Stats struct {
	Cycles     uint64  `json:"cycles"`
	Brightness float64 `json:"brightness"`
	Opens      uint64  `json:"opens"`
}

// Loop is the single producer feeding the digest accumulator.
type Loop struct {
	opener camera.Opener
	acc    *digest.Accumulator
	cfg    *Config

	cycles     atomic.Uint64
	opens      atomic.Uint64
	brightness atomic.Uint64 // math.Float64bits
}

// New creates a loop reading from opener into acc.
func New(opener camera.Opener, acc *digest.Accumulator, opts ...Option) *Loop {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Sink == nil {
		cfg.Sink = io.Discard
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Loop{
		opener: opener,
		acc:    acc,
		cfg:    cfg,
	}
}

// Run captures until a device or decode error occurs, or ctx is done.
//
// Errors are fatal: the loop never retries or skips a frame. A frame that
// fails to decode is not absorbed. The sleep is the only point where ctx
// is observed; a capture call that hangs holds the loop with it.
func (l *Loop) Run(ctx context.Context) error {
	log := l.cfg.Logger.With("component", "capture", "camera", l.cfg.Camera.Index)
	log.Info("capture loop started",
		"interval", l.cfg.Interval,
		"reopen_each_cycle", l.cfg.ReopenEachCycle,
		"format", l.cfg.Camera.Format.String(),
	)

	var dev camera.Device
	defer func() {
		if dev != nil {
			dev.Close()
		}
	}()

	timer := time.NewTimer(l.cfg.Interval)
	timer.Stop()
	defer timer.Stop()

	for {
		if dev == nil {
			d, err := l.open()
			if err != nil {
				log.Error("device open failed", "error", err)
				return err
			}
			dev = d
		}

		f, err := dev.Capture()
		if l.cfg.ReopenEachCycle {
			dev.Close()
			dev = nil
		}
		if err != nil {
			log.Error("capture failed", "error", err)
			return fmt.Errorf("capture: %w", err)
		}

		if err := l.step(f); err != nil {
			log.Error("frame rejected", "error", err, "bytes", len(f.Data))
			return err
		}

		timer.Reset(l.cfg.Interval)
		select {
		case <-ctx.Done():
			log.Info("capture loop stopped", "cycles", l.cycles.Load())
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (l *Loop) open() (camera.Device, error) {
	dev, err := l.opener.Open(l.cfg.Camera.Index, l.cfg.Camera.Request())
	if err != nil {
		return nil, fmt.Errorf("open camera: %w", err)
	}
	l.opens.Add(1)
	return dev, nil
}

// step reduces, reports and absorbs one frame.
func (l *Loop) step(f frame.Frame) error {
	b, err := frame.Reduce(f)
	if err != nil {
		return fmt.Errorf("reduce frame: %w", err)
	}
	fmt.Fprintln(l.cfg.Sink, b)

	l.acc.Absorb(f.Data)

	l.brightness.Store(math.Float64bits(float64(b)))
	l.cycles.Add(1)

	if l.cfg.Observer != nil {
		l.cfg.Observer(l.acc.Snapshot())
	}
	return nil
}

// Stats returns cycle counters and the most recent brightness.
func (l *Loop) Stats() Stats {
	return Stats{
		Cycles:     l.cycles.Load(),
		Brightness: math.Float64frombits(l.brightness.Load()),
		Opens:      l.opens.Load(),
	}
}
