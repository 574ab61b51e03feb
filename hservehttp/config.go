package hservehttp

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hserve-org/hserve/hservepool"
	"github.com/hserve-org/hserve/hservetls"
)

// ServerFactory is the creation strategy for a *Server.  This interface is
// implemented by any unmarshaled struct which holds server configuration
// fields.
//
// An implementation may optionally implement ListenerFactory to allow
// control over how the net.Listener for a server is created.
type ServerFactory interface {
	// NewServer is responsible for creating a *Server around the supplied
	// Handler using whatever information was unmarshaled into this instance.
	NewServer(Handler) (*Server, error)
}

// Concurrency modes accepted by ServerConfig.
const (
	// ConcurrencySpawn starts one goroutine per accepted connection.
	// This is the default.
	ConcurrencySpawn = "spawn"

	// ConcurrencyPool dispatches accepted connections to a fixed worker
	// pool fed by a bounded queue.
	ConcurrencyPool = "pool"
)

// ServerConfig is the built-in ServerFactory implementation for this package.
// This struct can be unmarshaled via Viper, thus allowing a server to be
// bootstrapped from external configuration.
type ServerConfig struct {
	// Network is the tcp network to listen on.  The default is "tcp".
	Network string

	// Address is the bind address of the server.  If unset, the server
	// binds to the first loopback port available.  In that case,
	// CaptureListenAddress can be used to obtain the bind address.
	Address string

	// ReadTimeout bounds reading the request from a connection.
	ReadTimeout time.Duration

	// WriteTimeout bounds writing the response, including streamed bodies.
	WriteTimeout time.Duration

	// KeepAlive corresponds to net.ListenConfig.KeepAlive.  This value is
	// only used for listeners created via Listen.
	KeepAlive time.Duration

	// MaxHeaderBytes bounds the request line plus headers.
	MaxHeaderBytes int

	// Concurrency selects the dispatch strategy, ConcurrencySpawn or
	// ConcurrencyPool.  Empty means ConcurrencySpawn.
	Concurrency string

	// PoolWorkers is the worker count for ConcurrencyPool.  Non-positive
	// values default to the number of CPUs.
	PoolWorkers int

	// PoolQueue is the queue capacity for ConcurrencyPool.  Non-positive
	// values default to the worker count.
	PoolQueue int

	// Header supplies headers to emit on every response from this server,
	// unless the handler set the same key.
	Header map[string]string

	// TLS is the optional unmarshaled TLS configuration.  If set, the
	// resulting server serves TLS connections.
	TLS *hservetls.Config
}

// NewServer is the built-in implementation of ServerFactory in this package.
// This should serve most needs.  By default, a fluent builder chain begun
// with NewServerBuilder() will use ServerConfig.
func (sc ServerConfig) NewServer(h Handler) (*Server, error) {
	options := []ServerOption{
		ReadTimeout(sc.ReadTimeout),
		WriteTimeout(sc.WriteTimeout),
		MaxHeaderBytes(sc.MaxHeaderBytes),
		DefaultHeaders(sc.Header),
	}

	switch sc.Concurrency {
	case "", ConcurrencySpawn:
		// goroutine per connection, nothing to configure
	case ConcurrencyPool:
		options = append(options, Pool(hservepool.New(sc.PoolWorkers, sc.PoolQueue)))
	default:
		return nil, fmt.Errorf("unrecognized concurrency mode: %q", sc.Concurrency)
	}

	server, err := NewServer(h, options...)
	if err != nil {
		return nil, err
	}

	server.Addr = sc.Address
	server.TLSConfig, err = sc.TLS.New()
	if err != nil {
		return nil, err
	}

	return server, nil
}

// Listen is the ListenerFactory implementation driven by ServerConfig
func (sc ServerConfig) Listen(ctx context.Context, s *Server) (net.Listener, error) {
	return DefaultListenerFactory{
		ListenConfig: net.ListenConfig{
			KeepAlive: sc.KeepAlive,
		},
		Network: sc.Network,
	}.Listen(ctx, s)
}
