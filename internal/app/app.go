// Package app wires the capture loop, the digest server and the live
// feed into one supervised process.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/teslashibe/framedigest/internal/config"
	"github.com/teslashibe/framedigest/pkg/camera"
	"github.com/teslashibe/framedigest/pkg/capture"
	"github.com/teslashibe/framedigest/pkg/digest"
	"github.com/teslashibe/framedigest/pkg/hub"
	"github.com/teslashibe/framedigest/pkg/web"
	"golang.org/x/sync/errgroup"
)

// App owns the shared accumulator and the two units that use it.
type App struct {
	cfg     config.Config
	session string
	logger  *slog.Logger

	acc    *digest.Accumulator
	feed   *hub.Hub
	loop   *capture.Loop
	server *web.Server
}

// Option configures an App.
type Option func(*options)

type options struct {
	sink   io.Writer
	logger *slog.Logger
}

// WithSink redirects the brightness lines. Defaults to stdout.
func WithSink(w io.Writer) Option {
	return func(o *options) {
		o.sink = w
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// New builds the process from cfg. Nothing runs until Run.
func New(cfg config.Config, opener camera.Opener, opts ...Option) *App {
	o := options{sink: os.Stdout, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	session := uuid.NewString()
	logger := o.logger.With("session", session)

	acc := digest.New()
	feed := hub.New("digest", logger)

	loop := capture.New(opener, acc,
		capture.WithCamera(cfg.Camera),
		capture.WithInterval(cfg.Interval),
		capture.WithReopenEachCycle(cfg.ReopenEachCycle),
		capture.WithSink(o.sink),
		capture.WithLogger(logger),
		capture.WithObserver(func(s digest.Snapshot) {
			feed.BroadcastText(s.Hex())
		}),
	)

	server := web.NewServer(cfg.ListenAddr, acc,
		web.WithHub(feed),
		web.WithStats(loop.Stats),
		web.WithSession(session),
		web.WithDebug(cfg.Debug),
		web.WithLogger(logger),
	)

	return &App{
		cfg:     cfg,
		session: session,
		logger:  logger,
		acc:     acc,
		feed:    feed,
		loop:    loop,
		server:  server,
	}
}

// Session returns the ID tagging this process's logs and /health.
func (a *App) Session() string {
	return a.session
}

// Accumulator returns the shared digest.
func (a *App) Accumulator() *digest.Accumulator {
	return a.acc
}

// Run starts the capture loop, the server and the feed hub. The first
// unit to fail stops the others and its error is returned. Cancelling
// ctx stops everything and Run returns nil.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("framedigest starting",
		"camera", a.cfg.Camera.Index,
		"addr", a.server.Addr(),
		"interval", a.cfg.Interval,
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.feed.Run(gctx)
		return nil
	})
	g.Go(func() error {
		return unit(gctx, "capture", a.loop.Run)
	})
	g.Go(func() error {
		return unit(gctx, "server", a.server.Serve)
	})

	err := g.Wait()
	if ctx.Err() != nil && (err == nil || errors.Is(err, ctx.Err())) {
		a.logger.Info("framedigest stopped", "digest", a.acc.Snapshot().Hex())
		return nil
	}
	if err != nil {
		a.logger.Error("framedigest failed", "error", err)
	}
	return err
}

// unit runs fn and treats a return before ctx ends as a failure, so one
// unit stopping always takes the process down with it.
func unit(ctx context.Context, name string, fn func(context.Context) error) error {
	err := fn(ctx)
	if err == nil && ctx.Err() == nil {
		return fmt.Errorf("%s exited unexpectedly", name)
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return err
}
