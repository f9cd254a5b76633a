// Package httpserver provides the HTTP/HTTPS server for LinkGate.
//
// It uses the Go standard library net/http for implementation.
package httpserver

import (
	"context"
	"net"
	"net/http"
	"time"
)

// Server timeouts applied when the caller leaves them zero.
const (
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultReadTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 30 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// Options tunes the underlying http.Server.
type Options struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server represents the HTTP server.
//
// @req RQ-0301
// @design DS-0301
type Server struct {
	httpServer *http.Server
	handler    http.Handler
}

// New creates a new HTTP server.
//
// @design DS-0301
func New(addr string, handler http.Handler) *Server {
	return NewWithOptions(addr, handler, Options{})
}

// NewWithOptions creates a new HTTP server with explicit timeouts.
func NewWithOptions(addr string, handler http.Handler, opts Options) *Server {
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			ReadTimeout:       opts.ReadTimeout,
			WriteTimeout:      opts.WriteTimeout,
			IdleTimeout:       opts.IdleTimeout,
			MaxHeaderBytes:    1 << 16,
		},
		handler: handler,
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// ListenAndServe starts the HTTP server.
//
// @design DS-0301
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// ListenAndServeTLS starts the HTTPS server.
//
// @design DS-0301
func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	return s.httpServer.ListenAndServeTLS(certFile, keyFile)
}

// Serve accepts connections on l. Tests use it with an ephemeral listener.
func (s *Server) Serve(l net.Listener) error {
	return s.httpServer.Serve(l)
}

// Shutdown gracefully shuts down the server.
//
// @design DS-0301
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
