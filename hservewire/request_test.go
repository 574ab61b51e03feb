package hservewire

import (
	"bufio"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reader(s string) *bufio.Reader {
	return bufio.NewReader(strings.NewReader(s))
}

func testReadRequestBasic(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	req, err := ReadRequest(
		reader("GET /index.html HTTP/1.1\r\nHost: example.com\r\nAccept: */*\r\n\r\n"),
		0,
	)

	require.NoError(err)
	assert.Equal(MethodGet, req.Method)
	assert.Equal("/index.html", req.Path)
	assert.Equal("HTTP/1.1", req.Proto)
	assert.Equal("example.com", req.Header.Get("Host"))
	assert.Equal("*/*", req.Header.Get("Accept"))
}

func testReadRequestBodyLeftUnread(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		br = reader("POST /submit HTTP/1.0\r\nContent-Length: 5\r\n\r\nhello")
	)

	req, err := ReadRequest(br, 0)
	require.NoError(err)
	assert.Equal(MethodPost, req.Method)
	assert.Equal("5", req.Header.Get("Content-Length"))

	body, err := io.ReadAll(br)
	require.NoError(err)
	assert.Equal("hello", string(body))
}

func testReadRequestNoSpaceAfterColon(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	// "Key:value" is accepted; the colon alone separates key and value
	req, err := ReadRequest(
		reader("GET / HTTP/1.0\r\nHost:example.com\r\n\r\n"),
		0,
	)

	require.NoError(err)
	assert.Equal("example.com", req.Header.Get("Host"))
}

func testReadRequestValueWhitespace(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	req, err := ReadRequest(
		reader("GET / HTTP/1.0\r\nX-Padded:    lots of space\r\n\r\n"),
		0,
	)

	require.NoError(err)
	assert.Equal("lots of space", req.Header.Get("X-Padded"))
}

func testReadRequestMalformed(t *testing.T) {
	testCases := []struct {
		name string
		raw  string
	}{
		{"UnsupportedMethod", "PUT / HTTP/1.0\r\n\r\n"},
		{"LowercaseMethod", "get / HTTP/1.0\r\n\r\n"},
		{"MissingPath", "GET HTTP/1.0\r\n\r\n"},
		{"BadProtocol", "GET / HTTP/2.0\r\n\r\n"},
		{"NoCRLF", "GET / HTTP/1.0\n\n"},
		{"HeaderWithoutColon", "GET / HTTP/1.0\r\nNotAHeader\r\n\r\n"},
		{"EmptyHeaderKey", "GET / HTTP/1.0\r\n: value\r\n\r\n"},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert := assert.New(t)

			req, err := ReadRequest(reader(testCase.raw), 0)
			assert.Nil(req)
			assert.ErrorIs(err, ErrMalformed)
		})
	}
}

func testReadRequestTransportError(t *testing.T) {
	assert := assert.New(t)

	// truncated input yields the underlying io error, not ErrMalformed
	req, err := ReadRequest(reader("GET / HTTP"), 0)
	assert.Nil(req)
	assert.Error(err)
	assert.NotErrorIs(err, ErrMalformed)
}

func testReadRequestHeaderTooLarge(t *testing.T) {
	assert := assert.New(t)

	raw := "GET / HTTP/1.0\r\nX-Big: " + strings.Repeat("x", 1024) + "\r\n\r\n"
	req, err := ReadRequest(reader(raw), 128)
	assert.Nil(req)
	assert.ErrorIs(err, ErrHeaderTooLarge)
	assert.ErrorIs(err, ErrMalformed)
}

// endlessReader yields bytes forever without ever producing a newline,
// counting how much was consumed.
type endlessReader struct {
	consumed int64
}

func (er *endlessReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'a'
	}

	er.consumed += int64(len(p))
	return len(p), nil
}

func testReadRequestUnterminatedStream(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		source = new(endlessReader)
	)

	req, err := ReadRequest(bufio.NewReader(source), 1024)
	require.Nil(req)
	assert.ErrorIs(err, ErrHeaderTooLarge)

	// consumption stops at the limit plus at most one buffered fragment
	assert.Less(source.consumed, int64(64*1024))
}

func TestReadRequest(t *testing.T) {
	t.Run("Basic", testReadRequestBasic)
	t.Run("BodyLeftUnread", testReadRequestBodyLeftUnread)
	t.Run("NoSpaceAfterColon", testReadRequestNoSpaceAfterColon)
	t.Run("ValueWhitespace", testReadRequestValueWhitespace)
	t.Run("Malformed", testReadRequestMalformed)
	t.Run("TransportError", testReadRequestTransportError)
	t.Run("HeaderTooLarge", testReadRequestHeaderTooLarge)
	t.Run("UnterminatedStream", testReadRequestUnterminatedStream)
}
