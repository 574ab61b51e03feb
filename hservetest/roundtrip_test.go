package hservetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testParseResponseBasic(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	r, ok := ParseResponse("HTTP/1.0 200 OK\r\nContent-Length: 5\r\nContent-Type: text/plain\r\n\r\nhello")
	require.True(ok)
	assert.Equal("HTTP/1.0 200 OK", r.StatusLine)
	assert.Equal("5", r.Header["Content-Length"])
	assert.Equal("text/plain", r.Header["Content-Type"])
	assert.Equal("hello", r.Body)
}

func testParseResponseNoHeaders(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	r, ok := ParseResponse("HTTP/1.0 404 Not Found\r\n\r\n")
	require.True(ok)
	assert.Equal("HTTP/1.0 404 Not Found", r.StatusLine)
	assert.Empty(r.Header)
	assert.Empty(r.Body)
}

func testParseResponseGarbage(t *testing.T) {
	assert := assert.New(t)

	_, ok := ParseResponse("not a response")
	assert.False(ok)

	_, ok = ParseResponse("HTTP/1.0 200 OK\r\ngarbage header\r\n\r\nbody")
	assert.False(ok)
}

func TestParseResponse(t *testing.T) {
	t.Run("Basic", testParseResponseBasic)
	t.Run("NoHeaders", testParseResponseNoHeaders)
	t.Run("Garbage", testParseResponseGarbage)
}
