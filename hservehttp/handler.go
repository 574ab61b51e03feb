package hservehttp

import (
	"bufio"
	"context"
	"fmt"

	"github.com/hserve-org/hserve/hservewire"
)

// Handler responds to a single parsed request.  The body reader is
// positioned at the first body byte; handlers that do not consume the body
// may simply ignore it, since the connection is closed after the response.
//
// A handler either returns a Response or an error.  Returning an error causes
// the server to answer with a 500 error page and log the failure.  Handlers
// must not retain req or body after returning.
type Handler interface {
	Serve(ctx context.Context, req *hservewire.Request, body *bufio.Reader) (*Response, error)
}

// HandlerFunc is a closure type that implements Handler.
type HandlerFunc func(context.Context, *hservewire.Request, *bufio.Reader) (*Response, error)

// Serve implements Handler
func (hf HandlerFunc) Serve(ctx context.Context, req *hservewire.Request, body *bufio.Reader) (*Response, error) {
	return hf(ctx, req, body)
}

// Response is what a handler produces: a status, optional headers, and a
// Body strategy.  A nil Header is allowed; the server allocates one while
// finalizing the response.  A nil Body produces an empty response.
type Response struct {
	Status hservewire.Status
	Header hservewire.Header
	Body   Body
}

// Body is the strategy for writing a response payload.  The server consults
// ContentLength and ContentType while finalizing headers, then invokes
// WriteTo exactly once.  WriteTo may flush the writer itself to stream data
// incrementally; the server performs a final flush regardless.
type Body interface {
	// ContentLength returns the exact payload size when it is known ahead
	// of writing.  Returning false omits the Content-Length header.
	ContentLength() (int64, bool)

	// ContentType returns the value for the Content-Type header, used only
	// when the handler did not set one explicitly.
	ContentType() string

	// WriteTo produces the payload.  The header block has already been
	// written and flushed by the time this is called.
	WriteTo(bw *bufio.Writer) error
}

// DefaultContentType is assumed for bodies that do not declare a type.
const DefaultContentType = "text/html; charset=utf-8"

// BytesBody is the built-in Body implementation for in-memory payloads.
type BytesBody struct {
	// Data is the complete payload.
	Data []byte

	// Type overrides DefaultContentType when set.
	Type string
}

// ContentLength implements Body
func (b *BytesBody) ContentLength() (int64, bool) {
	return int64(len(b.Data)), true
}

// ContentType implements Body
func (b *BytesBody) ContentType() string {
	if b.Type != "" {
		return b.Type
	}

	return DefaultContentType
}

// WriteTo implements Body
func (b *BytesBody) WriteTo(bw *bufio.Writer) error {
	_, err := bw.Write(b.Data)
	return err
}

// ErrorPage builds the stock HTML error response the server uses for its own
// failures: parse errors, handler errors, and anything a routing handler
// wants to reject.
func ErrorPage(status hservewire.Status) *Response {
	return &Response{
		Status: status,
		Header: make(hservewire.Header),
		Body: &BytesBody{
			Data: []byte(fmt.Sprintf("<h1>%d %s</h1>", int(status), status.Reason())),
		},
	}
}

// finalize fills in the headers the Body can provide when the handler did
// not set them itself.
func finalize(resp *Response) {
	if resp.Header == nil {
		resp.Header = make(hservewire.Header)
	}

	if resp.Body == nil {
		return
	}

	if !resp.Header.Has("Content-Type") {
		resp.Header.Set("Content-Type", resp.Body.ContentType())
	}

	if !resp.Header.Has("Content-Length") {
		if n, ok := resp.Body.ContentLength(); ok {
			resp.Header.Set("Content-Length", fmt.Sprintf("%d", n))
		}
	}
}

// requestIDKey is the context key under which the server stores the request id.
type requestIDKey struct{}

// WithRequestID returns a context carrying the given request id.  The server
// does this for every request before invoking the handler.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFrom extracts the request id the server assigned to this request,
// or the empty string.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
