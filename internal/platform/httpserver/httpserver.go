// Package httpserver builds the process's *http.Server.
package httpserver

import (
	"net/http"
	"time"
)

const (
	defaultReadHeaderTimeout = 5 * time.Second
	defaultReadTimeout       = 15 * time.Second
	// Longer than the router's per-request timeout so handlers can still
	// write their timeout response.
	defaultWriteTimeout = 45 * time.Second
	defaultIdleTimeout  = 2 * time.Minute
)

type Option func(*http.Server)

func WithWriteTimeout(d time.Duration) Option {
	return func(s *http.Server) { s.WriteTimeout = d }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(s *http.Server) { s.IdleTimeout = d }
}

// New returns a server with bounded header, read, write and idle timeouts.
func New(addr string, handler http.Handler, opts ...Option) *http.Server {
	s := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		ReadTimeout:       defaultReadTimeout,
		WriteTimeout:      defaultWriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		MaxHeaderBytes:    1 << 16,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
