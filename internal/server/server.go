// Package server exposes the signaling hub over HTTP and websockets.
package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/cors"

	"github.com/duet-rtc/duet/internal/config"
	"github.com/duet-rtc/duet/internal/log"
	"github.com/duet-rtc/duet/internal/metrics"
	"github.com/duet-rtc/duet/internal/signaling"
	"github.com/duet-rtc/duet/web"
)

// Server is the relay's HTTP front end.
type Server struct {
	cfg config.ServerConfig
	hub *signaling.Hub
	srv *http.Server
}

// New wires the routes for hub. The hub must be running for /ws and /stats
// to make progress.
func New(cfg config.ServerConfig, hub *signaling.Hub, m *metrics.Metrics) *Server {
	if cfg.AllowsAnyOrigin() {
		log.Warnf("accepting websocket and CORS requests from any origin")
	}
	return &Server{
		cfg: cfg,
		hub: hub,
		srv: &http.Server{
			Addr:              cfg.Listen,
			Handler:           Handler(cfg, hub, m),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Handler builds the full middleware-wrapped route tree.
func Handler(cfg config.ServerConfig, hub *signaling.Hub, m *metrics.Metrics) http.Handler {
	opts := signaling.ClientOptions{
		SendBuffer:     cfg.SendBuffer,
		MaxMessageSize: cfg.MaxMessageBytes,
		PongWait:       cfg.PongWait,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", ServeWs(hub, newUpgrader(cfg), opts))
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /stats", statsHandler(hub, m))
	mux.Handle("GET /metrics", metrics.PrometheusHandler(m))

	mux.Handle("GET /", http.FileServerFS(web.FS))

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	})

	return chain(mux, recoverMiddleware, requestLogger, c.Handler)
}

// Run listens on the configured address and serves until ctx is done, then
// shuts down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return errors.Wrapf(err, "listen on %s", s.cfg.Listen)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		log.Infof("signaling server listening on %s", ln.Addr())
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "serve")
	case <-ctx.Done():
	}

	log.Info("shutting down signaling server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}
