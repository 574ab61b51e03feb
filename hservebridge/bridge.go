// Package hservebridge adapts net/http handlers to the hserve handler model.
// This allows the rich net/http middleware ecosystem, e.g. gorilla/mux routers,
// alice chains, and promhttp, to serve traffic behind an hservehttp.Server.
package hservebridge

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/xmidt-org/httpaux"

	"github.com/hserve-org/hserve/hservehttp"
	"github.com/hserve-org/hserve/hservewire"
)

// Wrap adapts a net/http handler so that it can serve requests accepted by an
// hservehttp.Server.  The adapted handler buffers the response produced by
// next, so it is intended for routing, middleware, and modestly sized payloads
// rather than large streamed bodies.
//
// A request whose path cannot be parsed as a request URI yields a 400 without
// invoking next.
func Wrap(next http.Handler) hservehttp.Handler {
	return &bridge{next: next}
}

// WrapWithHeader is like Wrap, but also emits the given header on every
// response produced by next.
func WrapWithHeader(next http.Handler, header http.Header) hservehttp.Handler {
	return Wrap(
		httpaux.NewHeader(header).Then(next),
	)
}

type bridge struct {
	next http.Handler
}

func (b *bridge) Serve(ctx context.Context, req *hservewire.Request, body *bufio.Reader) (*hservehttp.Response, error) {
	hr, err := newStdRequest(ctx, req, body)
	if err != nil {
		return hservehttp.ErrorPage(hservewire.StatusBadRequest), nil
	}

	w := &recorder{header: make(http.Header)}
	b.next.ServeHTTP(w, hr)
	return w.response(), nil
}

// newStdRequest translates a wire-level request into the net/http request
// expected by wrapped handlers.
func newStdRequest(ctx context.Context, req *hservewire.Request, body *bufio.Reader) (*http.Request, error) {
	u, err := url.ParseRequestURI(req.Path)
	if err != nil {
		return nil, err
	}

	major, minor, ok := http.ParseHTTPVersion(req.Proto)
	if !ok {
		major, minor = 1, 0
	}

	hr := &http.Request{
		Method:     req.Method.String(),
		URL:        u,
		Proto:      req.Proto,
		ProtoMajor: major,
		ProtoMinor: minor,
		Header:     make(http.Header, len(req.Header)),
		Host:       req.Header.Get("Host"),
		RemoteAddr: req.RemoteAddr,
		RequestURI: req.Path,
		Body:       http.NoBody,
	}

	for key, value := range req.Header {
		hr.Header.Set(key, value)
	}

	if body != nil {
		if n, err := strconv.ParseInt(req.Header.Get("Content-Length"), 10, 64); err == nil && n > 0 {
			hr.ContentLength = n
			hr.Body = io.NopCloser(io.LimitReader(body, n))
		}
	}

	return hr.WithContext(ctx), nil
}

// recorder is the http.ResponseWriter handed to wrapped handlers.  It buffers
// everything so that the response can be emitted through the hserve wire
// codec afterward.
type recorder struct {
	status int
	header http.Header
	body   bytes.Buffer
}

func (r *recorder) Header() http.Header {
	return r.header
}

func (r *recorder) WriteHeader(statusCode int) {
	if r.status == 0 {
		r.status = statusCode
	}
}

func (r *recorder) Write(p []byte) (int, error) {
	r.WriteHeader(http.StatusOK)
	return r.body.Write(p)
}

// Flush is a no-op.  It exists so that wrapped handlers which probe for
// http.Flusher keep working against the buffered recorder.
func (r *recorder) Flush() {
}

func (r *recorder) response() *hservehttp.Response {
	if r.status == 0 {
		r.status = http.StatusOK
	}

	header := make(hservewire.Header, len(r.header))
	for key, values := range r.header {
		switch http.CanonicalHeaderKey(key) {
		case "Content-Length", "Content-Type":
			// recomputed from the buffered body

		default:
			header.Set(key, strings.Join(values, ", "))
		}
	}

	return &hservehttp.Response{
		Status: hservewire.Status(r.status),
		Header: header,
		Body: &hservehttp.BytesBody{
			Data: r.body.Bytes(),
			Type: r.header.Get("Content-Type"),
		},
	}
}
