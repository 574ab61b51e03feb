package hservehttp

import (
	"log/slog"
	"net"

	"go.uber.org/fx"
	"go.uber.org/multierr"

	"github.com/hserve-org/hserve"
)

// Module is the name this package uses when prefixing informational output.
const Module = "hservehttp"

// ServerIn describes the set of dependencies for unmarshaling and running
// a *Server inside an fx.App.
type ServerIn struct {
	fx.In

	// Unmarshaler is the required component used to unmarshal a
	// ServerFactory prototype.
	Unmarshaler hserve.Unmarshaler

	// Printer is the optional fx.Printer used to output informational
	// messages about server unmarshaling and configuration.  If unset,
	// hserve.DefaultPrinter() is used.
	Printer fx.Printer `optional:"true"`

	// Lifecycle is the required uber/fx Lifecycle to which the server will
	// be bound.  The server starts when the app starts and gracefully shuts
	// down when the app is stopped.
	Lifecycle fx.Lifecycle

	// Shutdowner is used to guarantee that any server which aborts its
	// accept loop will stop the entire app.
	Shutdowner fx.Shutdowner

	// Logger is the optional slog.Logger for the access log.  If unset,
	// slog.Default() is used.
	Logger *slog.Logger `optional:"true"`

	// Metrics is the optional prometheus instrumentation for the server.
	Metrics *Metrics `optional:"true"`
}

// S is a fluent builder for unmarshaling a *Server.  This type must be
// created with the Server function.
type S struct {
	errs      []error
	options   []ServerOption
	chain     ListenerChain
	prototype ServerFactory
}

// NewServerBuilder starts a fluent builder method chain for creating a
// *Server, binding its lifecycle to the fx.App lifecycle, and producing the
// server as a component for use in dependency injection.  The handler is
// itself taken from dependency injection.
func NewServerBuilder() *S {
	return new(S).
		ServerFactory(ServerConfig{})
}

// ServerFactory sets a custom prototype object that will be unmarshaled and
// used to construct the *Server and associated listen strategy.  By default,
// ServerConfig{} is used as the factory.  This prototype is cloned and
// unmarshaled using hserve.NewTarget.
//
// The prototype may optionally implement ListenerFactory, which will allow
// custom listen behavior.  If the prototype doesn't implement
// ListenerFactory, then DefaultListenerFactory is used to create the
// server's net.Listener.
func (s *S) ServerFactory(prototype ServerFactory) *S {
	s.prototype = prototype
	return s
}

// With adds functional options that tailor the *Server supplied by this
// builder chain.  These options run after any options derived from the
// ServerIn dependencies, so they win conflicts.
func (s *S) With(o ...ServerOption) *S {
	s.options = append(s.options, o...)
	return s
}

// ListenerChain adds a ListenerChain that decorates the listener used to
// accept traffic for this server.
func (s *S) ListenerChain(lc ListenerChain) *S {
	s.chain = s.chain.Extend(lc)
	return s
}

// ListenerConstructors adds several decorators for the listener used to
// accept traffic for this server.
func (s *S) ListenerConstructors(l ...ListenerConstructor) *S {
	s.chain = s.chain.Append(l...)
	return s
}

// CaptureListenAddress decorates the server's listener so that the actual
// address the server listens on is sent to a channel when the fx.App is
// started.
//
// This method is primarily useful during testing when the bind address of
// the server is such that it will bind to an available port, e.g. "", ":0",
// "[::1]:0", etc.
func (s *S) CaptureListenAddress(ch chan<- net.Addr) *S {
	return s.ListenerConstructors(
		CaptureListenAddress(ch),
	)
}

// unmarshal does the heavy lifting of unmarshaling a ServerFactory, creating
// a server, and binding a listener to the fx.App lifecycle.
//
// If this method does not return an error, it will have bound the listener
// to the fx.App's Lifecycle.
func (s *S) unmarshal(u func(hserve.Unmarshaler, interface{}) error, in ServerIn, h Handler) (*Server, error) {
	if len(s.errs) > 0 {
		return nil, multierr.Combine(s.errs...)
	}

	var (
		target = hserve.NewTarget(s.prototype)
		p      = hserve.NewModulePrinter(Module, in.Printer)
	)

	if err := u(in.Unmarshaler, target.UnmarshalTo.Interface()); err != nil {
		return nil, err
	}

	factory := target.Component.Interface().(ServerFactory)
	server, err := factory.NewServer(h)
	if err != nil {
		return nil, err
	}

	options := append(
		[]ServerOption{Logger(in.Logger), Instrument(in.Metrics)},
		s.options...,
	)

	if err := ServerOptions(options...)(server); err != nil {
		return nil, err
	}

	p.Printf("SERVER => %T listening on %q", factory, server.Addr)

	lf, ok := factory.(ListenerFactory)
	if !ok {
		lf = DefaultListenerFactory{}
	}

	in.Lifecycle.Append(fx.Hook{
		OnStart: ServerOnStart(
			server,
			s.chain.Factory(lf),
			// ensure that if this server exits for any reason,
			// the enclosing fx.App is shutdown
			ShutdownOnExit(in.Shutdowner),
		),
		OnStop: server.Shutdown,
	})

	return server, nil
}

// Unmarshal terminates the builder chain and returns a constructor that
// produces a *Server from the whole configuration document.  The server and
// its listener are bound to the lifecycle of the enclosing fx.App.
func (s *S) Unmarshal() func(ServerIn, Handler) (*Server, error) {
	return func(in ServerIn, h Handler) (*Server, error) {
		return s.unmarshal(
			func(u hserve.Unmarshaler, v interface{}) error {
				return u.Unmarshal(v)
			},
			in, h,
		)
	}
}

// UnmarshalKey is like Unmarshal, except that it unmarshals from a
// particular configuration key.
func (s *S) UnmarshalKey(key string) func(ServerIn, Handler) (*Server, error) {
	return func(in ServerIn, h Handler) (*Server, error) {
		return s.unmarshal(
			func(u hserve.Unmarshaler, v interface{}) error {
				return u.UnmarshalKey(key, v)
			},
			in, h,
		)
	}
}

// Provide produces an fx.Provide that does the same thing as Unmarshal.
// This is the typical way to leverage this package to create a *Server.
func (s *S) Provide() fx.Option {
	return fx.Provide(
		s.Unmarshal(),
	)
}

// ProvideKey handles the simple case where a server is built from a given
// configuration key and is exposed as a component of the same name as the
// key.
func (s *S) ProvideKey(key string) fx.Option {
	return fx.Provide(
		fx.Annotated{
			Name:   key,
			Target: s.UnmarshalKey(key),
		},
	)
}
