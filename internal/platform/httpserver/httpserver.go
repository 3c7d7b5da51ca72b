// Package httpserver owns the HTTP listener and the shared router
// middleware stack for the comment API.
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Server wraps the underlying net/http server so main only deals with
// Start and Shutdown.
type Server struct {
	HTTP *http.Server

	name string
}

type Options struct {
	Addr        string
	ServiceName string
	Logger      *zap.Logger
	Router      chi.Router
}

func New(opts Options) *Server {
	if opts.Router == nil {
		opts.Router = chi.NewRouter()
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           opts.Router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return &Server{HTTP: srv, name: opts.ServiceName}
}

// Start blocks until the listener stops. It returns
// http.ErrServerClosed after a clean Shutdown.
func (s *Server) Start(log *zap.Logger) error {
	log.Info("http server starting",
		zap.String("service", s.name),
		zap.String("addr", s.HTTP.Addr))
	return s.HTTP.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.HTTP.Shutdown(ctx)
}
