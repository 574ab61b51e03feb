package hservewire

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed indicates a request that could not be parsed.  Servers
	// should answer with a 400 and close the connection.  Errors returned by
	// ReadRequest wrap this sentinel when the bytes, rather than the
	// transport, were the problem.
	ErrMalformed = errors.New("malformed http request")

	// ErrHeaderTooLarge indicates the request head exceeded the configured
	// byte limit.  It wraps ErrMalformed, so a single errors.Is check covers
	// both cases.
	ErrHeaderTooLarge = fmt.Errorf("%w: header block too large", ErrMalformed)
)

// DefaultMaxHeaderBytes bounds the request head (request line plus headers)
// when no limit is configured.
const DefaultMaxHeaderBytes = 1 << 16

// lineReader reads CRLF-terminated lines while enforcing a total byte budget
// across the whole request head.
type lineReader struct {
	br        *bufio.Reader
	remaining int
}

// next returns one line with its trailing CRLF removed.  A line that is not
// CRLF-terminated is malformed.  The byte budget is charged per buffered
// fragment, so a peer that never sends a newline is cut off at the limit
// rather than growing an unbounded line.
func (lr *lineReader) next() (string, error) {
	var line []byte
	for {
		fragment, err := lr.br.ReadSlice('\n')

		lr.remaining -= len(fragment)
		if lr.remaining < 0 {
			return "", ErrHeaderTooLarge
		}

		line = append(line, fragment...)
		if err == nil {
			break
		}

		if !errors.Is(err, bufio.ErrBufferFull) {
			return "", err
		}
	}

	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", fmt.Errorf("%w: line not CRLF terminated", ErrMalformed)
	}

	return string(line[:len(line)-2]), nil
}

// ReadRequest parses a request line and headers from br, leaving br
// positioned at the first body byte.  maxHeaderBytes bounds the total size of
// the request head; values <= 0 select DefaultMaxHeaderBytes.
//
// Parse failures wrap ErrMalformed.  Any other error is a transport error
// from the underlying reader, and no response should be written.
func ReadRequest(br *bufio.Reader, maxHeaderBytes int) (*Request, error) {
	if maxHeaderBytes <= 0 {
		maxHeaderBytes = DefaultMaxHeaderBytes
	}

	lr := &lineReader{br: br, remaining: maxHeaderBytes}

	line, err := lr.next()
	if err != nil {
		return nil, err
	}

	req, err := parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	req.Header = make(Header)
	for {
		line, err := lr.next()
		if err != nil {
			return nil, err
		}

		if line == "" {
			break
		}

		if err := parseHeaderLine(req.Header, line); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// parseRequestLine handles "METHOD SP path SP HTTP/1.x".
func parseRequestLine(line string) (*Request, error) {
	methodTok, rest, ok := strings.Cut(line, " ")
	if !ok {
		return nil, fmt.Errorf("%w: bad request line %q", ErrMalformed, line)
	}

	method, ok := ParseMethod(methodTok)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported method %q", ErrMalformed, methodTok)
	}

	path, proto, ok := strings.Cut(rest, " ")
	if !ok || path == "" {
		return nil, fmt.Errorf("%w: bad request line %q", ErrMalformed, line)
	}

	if proto != "HTTP/1.0" && proto != "HTTP/1.1" {
		return nil, fmt.Errorf("%w: unsupported protocol %q", ErrMalformed, proto)
	}

	return &Request{Method: method, Path: path, Proto: proto}, nil
}

// parseHeaderLine handles one "Key: value" line.  Whitespace after the colon
// is skipped; the key must be non-empty.
func parseHeaderLine(h Header, line string) error {
	key, value, ok := strings.Cut(line, ":")
	if !ok || key == "" {
		return fmt.Errorf("%w: bad header line %q", ErrMalformed, line)
	}

	h.Set(key, strings.TrimLeft(value, " \t"))
	return nil
}
