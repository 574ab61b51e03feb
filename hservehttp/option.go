package hservehttp

import (
	"log/slog"
	"time"

	"github.com/hserve-org/hserve/hservepool"
)

// ServerOption is a functional option type that tailors a *Server.
// This type exists primarily to make fx.Provide constructors more concise.
type ServerOption func(*Server) error

// ServerOptions binds several options into one.  Useful when providing
// several options as a component.
func ServerOptions(o ...ServerOption) ServerOption {
	if len(o) == 1 {
		return o[0]
	}

	return func(server *Server) error {
		for _, f := range o {
			if err := f(server); err != nil {
				return err
			}
		}

		return nil
	}
}

// Logger sets the slog.Logger used for the access log and server errors.
// A nil logger leaves the current logger in place.
func Logger(l *slog.Logger) ServerOption {
	return func(s *Server) error {
		if l != nil {
			s.logger = l
		}

		return nil
	}
}

// Instrument attaches prometheus collectors to the server.
func Instrument(m *Metrics) ServerOption {
	return func(s *Server) error {
		s.metrics = m
		return nil
	}
}

// Pool switches the server to pooled dispatch.  The server takes ownership
// of the pool: Shutdown closes it.
func Pool(p *hservepool.Pool) ServerOption {
	return func(s *Server) error {
		s.pool = p
		return nil
	}
}

// DefaultHeaders merges headers that are emitted on every response unless
// the handler set the same key itself.
func DefaultHeaders(h map[string]string) ServerOption {
	return func(s *Server) error {
		for key, value := range h {
			s.header.Set(key, value)
		}

		return nil
	}
}

// ReadTimeout bounds how long a connection may take to deliver its request.
func ReadTimeout(d time.Duration) ServerOption {
	return func(s *Server) error {
		s.readTimeout = d
		return nil
	}
}

// WriteTimeout bounds how long a response may take to write, including any
// streaming body.
func WriteTimeout(d time.Duration) ServerOption {
	return func(s *Server) error {
		s.writeTimeout = d
		return nil
	}
}

// MaxHeaderBytes bounds the request head.  Values <= 0 select the
// hservewire default.
func MaxHeaderBytes(n int) ServerOption {
	return func(s *Server) error {
		s.maxHeaderBytes = n
		return nil
	}
}
