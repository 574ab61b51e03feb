package hservehttp

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/hserve-org/hserve/hservepool"
	"github.com/hserve-org/hserve/hservewire"
)

// ErrServerClosed is returned by Serve after Shutdown closes the server's
// listeners.
var ErrServerClosed = errors.New("the server is closed")

// acceptBackoff is the pause before retrying a transient accept failure.
const acceptBackoff = 5 * time.Millisecond

// Server accepts TCP connections and answers one request per connection with
// HTTP/1.0 close semantics.  Create instances with NewServer or, more
// commonly, from an unmarshaled ServerConfig.
type Server struct {
	// Addr is the bind address used by listener factories.  An empty
	// address binds to an ephemeral loopback port.
	Addr string

	// TLSConfig, when set, causes listener factories to wrap the accept
	// listener in a TLS listener.
	TLSConfig *tls.Config

	handler        Handler
	logger         *slog.Logger
	metrics        *Metrics
	header         hservewire.Header
	readTimeout    time.Duration
	writeTimeout   time.Duration
	maxHeaderBytes int
	pool           *hservepool.Pool

	mu         sync.Mutex
	listeners  map[net.Listener]struct{}
	conns      sync.WaitGroup
	inShutdown atomic.Bool
}

// NewServer builds a server around a handler.  With no options the server
// uses slog.Default(), no metrics, no default headers, default header byte
// limits, and one goroutine per connection.
func NewServer(h Handler, o ...ServerOption) (*Server, error) {
	if h == nil {
		return nil, errors.New("a handler is required")
	}

	s := &Server{
		handler:   h,
		logger:    slog.Default(),
		header:    make(hservewire.Header),
		listeners: make(map[net.Listener]struct{}),
	}

	if err := ServerOptions(o...)(s); err != nil {
		return nil, err
	}

	return s, nil
}

// Serve runs the accept loop on the given listener.  It returns
// ErrServerClosed after Shutdown, or the listener error that ended the loop.
// Transient accept timeouts are logged and retried.
func (s *Server) Serve(l net.Listener) error {
	if s.inShutdown.Load() {
		return ErrServerClosed
	}

	s.trackListener(l, true)
	defer s.trackListener(l, false)

	for {
		conn, err := l.Accept()
		if err != nil {
			if s.inShutdown.Load() {
				return ErrServerClosed
			}

			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("transient accept failure", "error", err)
				time.Sleep(acceptBackoff)
				continue
			}

			return err
		}

		if !s.beginConn() {
			conn.Close()
			return ErrServerClosed
		}

		s.dispatch(conn)
	}
}

// beginConn registers an accepted connection with the in-flight wait group.
// Registration and shutdown are serialized on s.mu, so Shutdown's Wait can
// never run concurrently with an Add for a connection it would miss.
func (s *Server) beginConn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inShutdown.Load() {
		return false
	}

	s.conns.Add(1)
	return true
}

// dispatch hands a connection to the configured concurrency strategy.
func (s *Server) dispatch(conn net.Conn) {
	serve := func() {
		s.handleConn(conn)
	}

	if s.pool == nil {
		go serve()
		return
	}

	if err := s.pool.Submit(serve); err != nil {
		// the pool is closed, which only happens during shutdown;
		// handle the straggler inline so it still gets a response
		serve()
	}
}

// Shutdown closes all tracked listeners and waits for in-flight connections
// to complete, up to the context deadline.  When the server owns a worker
// pool, the pool is closed as well.
func (s *Server) Shutdown(ctx context.Context) (err error) {
	s.mu.Lock()
	s.inShutdown.Store(true)
	for l := range s.listeners {
		err = multierr.Append(err, l.Close())
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		if s.pool != nil {
			s.pool.Close()
		}

		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		err = multierr.Append(err, ctx.Err())
	}

	return
}

func (s *Server) trackListener(l net.Listener, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.listeners[l] = struct{}{}
	} else {
		delete(s.listeners, l)
	}
}

// handleConn reads one request, invokes the handler, writes one response,
// and closes the connection.
func (s *Server) handleConn(conn net.Conn) {
	defer s.conns.Done()
	defer conn.Close()

	var (
		start     = time.Now()
		requestID = uuid.NewString()
		remote    = conn.RemoteAddr().String()
	)

	s.metrics.requestStarted()

	if s.readTimeout > 0 {
		conn.SetReadDeadline(start.Add(s.readTimeout))
	}

	if s.writeTimeout > 0 {
		conn.SetWriteDeadline(start.Add(s.writeTimeout))
	}

	var (
		br = bufio.NewReader(conn)
		bw = bufio.NewWriter(conn)
	)

	req, err := hservewire.ReadRequest(br, s.maxHeaderBytes)
	parseDuration := time.Since(start)

	var resp *Response
	switch {
	case err == nil:
		req.RemoteAddr = remote
		resp = s.invoke(WithRequestID(context.Background(), requestID), req, br, requestID)

	case errors.Is(err, hservewire.ErrMalformed):
		s.logger.Debug("malformed request", "id", requestID, "remote", remote, "error", err)
		resp = ErrorPage(hservewire.StatusBadRequest)

	default:
		// transport failure before a request could be read: nothing to answer
		s.logger.Debug("connection dropped", "id", requestID, "remote", remote, "error", err)
		s.metrics.connectionDropped()
		return
	}

	for key, value := range s.header {
		if !resp.Header.Has(key) {
			resp.Header.Set(key, value)
		}
	}

	finalize(resp)

	writeErr := hservewire.WriteResponseHeader(bw, resp.Status, resp.Header)
	headerDuration := time.Since(start)

	if writeErr == nil && resp.Body != nil && (req == nil || req.Method != hservewire.MethodHead) {
		writeErr = resp.Body.WriteTo(bw)
	}

	if writeErr == nil {
		writeErr = bw.Flush()
	}

	totalDuration := time.Since(start)
	s.metrics.requestFinished(resp.Status, totalDuration)

	var (
		method = hservewire.MethodNone
		path   string
	)

	if req != nil {
		method = req.Method
		path = req.Path
	}

	attrs := []any{
		slog.String("id", requestID),
		slog.String("remote", remote),
		slog.String("method", method.String()),
		slog.String("path", path),
		slog.Int("status", int(resp.Status)),
		slog.Duration("parse", parseDuration),
		slog.Duration("header", headerDuration),
		slog.Duration("total", totalDuration),
	}

	if writeErr != nil {
		attrs = append(attrs, slog.Bool("sent", false), slog.Any("error", writeErr))
	}

	s.logger.Info("request", attrs...)
}

// invoke runs the handler, mapping failures onto a 500 error page.  A panic
// in the handler is treated the same as an error so that one bad request
// cannot take down the accept loop or a pool worker.
func (s *Server) invoke(ctx context.Context, req *hservewire.Request, body *bufio.Reader, requestID string) (resp *Response) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", "id", requestID, "panic", r)
			resp = ErrorPage(hservewire.StatusInternalServerError)
		}
	}()

	resp, err := s.handler.Serve(ctx, req, body)
	if err != nil || resp == nil {
		s.logger.Error("handler failed", "id", requestID, "error", err)
		return ErrorPage(hservewire.StatusInternalServerError)
	}

	if resp.Header == nil {
		resp.Header = make(hservewire.Header)
	}

	return resp
}
