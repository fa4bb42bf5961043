package server

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"go.uber.org/zap"

	"github.com/soar/padbind/backend/internal/hub"
)

// Options configures the HTTP server.
type Options struct {
	Addr   string
	Minify bool
}

type Server struct {
	logger      *zap.Logger
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	ctrl        hub.Controller
	frontendFS  fs.FS
	opts        Options
	httpServer  *http.Server
}

func New(logger *zap.Logger, h *hub.Hub, b *hub.Broadcaster, ctrl hub.Controller, frontendFS fs.FS, opts Options) *Server {
	s := &Server{
		logger:      logger,
		hub:         h,
		broadcaster: b,
		ctrl:        ctrl,
		frontendFS:  frontendFS,
		opts:        opts,
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routes served by the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoveryMiddleware)

	// WebSocket endpoint
	r.Get("/ws", s.handleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.loggingMiddleware)
		r.Get("/bindings", s.handleGetBindings)
		r.Route("/players/{player}", func(r chi.Router) {
			r.Get("/", s.handleGetPlayer)
			r.Delete("/", s.handleUnmapPlayer)
			r.Put("/devices/{id}", s.handleMapDevice)
		})
		r.Delete("/devices/{id}", s.handleUnmapDevice)
	})

	// Static files (frontend)
	var fileServer http.Handler = http.FileServer(http.FS(s.frontendFS))
	if s.opts.Minify {
		fileServer = newMinifier().Middleware(fileServer)
	}
	r.Handle("/*", fileServer)
	return r
}

func newMinifier() *minify.M {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`), js.Minify)
	return m
}

// ListenAndServe binds the configured address and serves until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("HTTP server listening", zap.Stringer("addr", ln.Addr()))
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
