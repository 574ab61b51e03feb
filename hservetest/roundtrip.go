// Package hservetest provides raw round-trip helpers for exercising hserve
// servers from tests.  Because the server under test implements the wire
// format itself, these helpers deliberately avoid net/http and speak raw
// bytes over a TCP connection.
package hservetest

import (
	"io"
	"net"
	"strings"
	"time"
)

// DefaultTimeout bounds a round trip when the caller does not supply a
// timeout.
const DefaultTimeout = 5 * time.Second

// RoundTrip dials addr, writes raw as the request bytes, and reads until the
// server closes the connection.  The entire response, headers and body, is
// returned as a string.
func RoundTrip(addr net.Addr, raw string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	conn, err := net.DialTimeout(addr.Network(), addr.String(), timeout)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(timeout))
	if _, err := io.WriteString(conn, raw); err != nil {
		return "", err
	}

	response, err := io.ReadAll(conn)
	return string(response), err
}

// Response is a crude decomposition of a raw response, sufficient for test
// assertions.
type Response struct {
	// StatusLine is the first line, e.g. "HTTP/1.0 200 OK".
	StatusLine string

	// Header maps header keys to values exactly as they appeared on the
	// wire.
	Header map[string]string

	// Body is everything after the blank line.
	Body string
}

// ParseResponse splits a raw response into its status line, headers, and
// body.  The second return is false when the input does not look like a
// response at all.
func ParseResponse(raw string) (Response, bool) {
	head, body, ok := strings.Cut(raw, "\r\n\r\n")
	if !ok {
		return Response{}, false
	}

	lines := strings.Split(head, "\r\n")
	r := Response{
		StatusLine: lines[0],
		Header:     make(map[string]string),
		Body:       body,
	}

	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			return Response{}, false
		}

		r.Header[key] = value
	}

	return r, true
}
