// Package web serves the current frame digest over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/teslashibe/framedigest/pkg/capture"
	"github.com/teslashibe/framedigest/pkg/digest"
	"github.com/teslashibe/framedigest/pkg/hub"
)

// DefaultAddr is the loopback address the digest is served on.
const DefaultAddr = "127.0.0.1:3030"

// ShutdownTimeout bounds graceful shutdown once Serve's context ends.
const ShutdownTimeout = 5 * time.Second

// Server answers digest queries. Every request takes its own snapshot;
// the only contention between requests is the accumulator's mutex.
type Server struct {
	app  *fiber.App
	addr string
	acc  *digest.Accumulator

	feed    *hub.Hub
	stats   func() capture.Stats
	session string
	debug   bool
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHub enables the /ws/digest feed backed by h.
func WithHub(h *hub.Hub) Option {
	return func(s *Server) {
		s.feed = h
	}
}

// WithStats adds capture loop progress to /health.
func WithStats(fn func() capture.Stats) Option {
	return func(s *Server) {
		s.stats = fn
	}
}

// WithSession tags /health with the process session ID.
func WithSession(id string) Option {
	return func(s *Server) {
		s.session = id
	}
}

// WithDebug enables per-request access logging.
func WithDebug(debug bool) Option {
	return func(s *Server) {
		s.debug = debug
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// NewServer creates a server for acc listening on addr.
func NewServer(addr string, acc *digest.Accumulator, opts ...Option) *Server {
	s := &Server{
		addr:   addr,
		acc:    acc,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.addr == "" {
		s.addr = DefaultAddr
	}

	app := fiber.New(fiber.Config{
		AppName:               "framedigest",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	if s.debug {
		app.Use(logger.New())
	}

	app.Get("/", s.handleDigest)
	app.Get("/health", s.handleHealth)

	if s.feed != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/digest", websocket.New(s.handleDigestWS))
	}

	s.app = app
	return s
}

// App returns the underlying fiber app, mainly for app.Test.
func (s *Server) App() *fiber.App {
	return s.app
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// Serve listens until the listener fails or ctx is done. On cancellation
// it shuts down gracefully and returns ctx.Err().
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.logger.Info("digest server listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listener(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("serve %s: %w", s.addr, err)
		}
		return errors.New("web: server stopped unexpectedly")

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
			s.logger.Warn("shutdown error", "error", err)
		}
		// Shutdown is a no-op if Listener has not started serving yet.
		ln.Close()
		<-errCh
		s.logger.Info("digest server stopped")
		return ctx.Err()
	}
}
