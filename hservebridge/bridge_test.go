package hservebridge

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hserve-org/hserve/hservehttp"
	"github.com/hserve-org/hserve/hservewire"
)

func testRequest(method hservewire.Method, path string, header hservewire.Header) *hservewire.Request {
	if header == nil {
		header = make(hservewire.Header)
	}

	return &hservewire.Request{
		Method:     method,
		Path:       path,
		Proto:      "HTTP/1.0",
		Header:     header,
		RemoteAddr: "127.0.0.1:12345",
	}
}

func testWrapRouter(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		router = mux.NewRouter()
	)

	router.HandleFunc("/greet/{name}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		io.WriteString(w, "hello, "+mux.Vars(r)["name"])
	}).Methods("GET")

	h := Wrap(router)
	resp, err := h.Serve(
		context.Background(),
		testRequest(hservewire.MethodGet, "/greet/world", nil),
		bufio.NewReader(strings.NewReader("")),
	)

	require.NoError(err)
	require.NotNil(resp)
	assert.Equal(hservewire.StatusOK, resp.Status)
	assert.Equal("text/plain", resp.Body.ContentType())

	body, ok := resp.Body.(*hservehttp.BytesBody)
	require.True(ok)
	assert.Equal("hello, world", string(body.Data))
}

func testWrapNotFound(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		router = mux.NewRouter()
	)

	h := Wrap(router)
	resp, err := h.Serve(
		context.Background(),
		testRequest(hservewire.MethodGet, "/nosuch", nil),
		bufio.NewReader(strings.NewReader("")),
	)

	require.NoError(err)
	require.NotNil(resp)
	assert.Equal(hservewire.StatusNotFound, resp.Status)
}

func testWrapBadPath(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)
	)

	h := Wrap(http.NotFoundHandler())
	resp, err := h.Serve(
		context.Background(),
		testRequest(hservewire.MethodGet, "no-leading-slash", nil),
		bufio.NewReader(strings.NewReader("")),
	)

	require.NoError(err)
	require.NotNil(resp)
	assert.Equal(hservewire.StatusBadRequest, resp.Status)
}

func testWrapBody(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		echo = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b, err := io.ReadAll(r.Body)
			if err != nil {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}

			w.Write(b)
		})

		header = make(hservewire.Header)
	)

	header.Set("Content-Length", "7")

	h := Wrap(echo)
	resp, err := h.Serve(
		context.Background(),
		testRequest(hservewire.MethodPost, "/echo", header),
		bufio.NewReader(strings.NewReader("payload")),
	)

	require.NoError(err)
	require.NotNil(resp)
	assert.Equal(hservewire.StatusOK, resp.Status)

	n, ok := resp.Body.ContentLength()
	assert.True(ok)
	assert.Equal(int64(7), n)
}

func testWrapMiddleware(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		tagged = func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Middleware", "applied")
				next.ServeHTTP(w, r)
			})
		}

		chain = alice.New(tagged).ThenFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "ok")
		})
	)

	h := Wrap(chain)
	resp, err := h.Serve(
		context.Background(),
		testRequest(hservewire.MethodGet, "/", nil),
		bufio.NewReader(strings.NewReader("")),
	)

	require.NoError(err)
	require.NotNil(resp)
	assert.Equal("applied", resp.Header.Get("X-Middleware"))
}

func TestWrap(t *testing.T) {
	t.Run("Router", testWrapRouter)
	t.Run("NotFound", testWrapNotFound)
	t.Run("BadPath", testWrapBadPath)
	t.Run("Body", testWrapBody)
	t.Run("Middleware", testWrapMiddleware)
}

func TestWrapWithHeader(t *testing.T) {
	var (
		assert  = assert.New(t)
		require = require.New(t)

		header = http.Header{
			"X-Static": []string{"always"},
		}
	)

	h := WrapWithHeader(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			io.WriteString(w, "ok")
		}),
		header,
	)

	resp, err := h.Serve(
		context.Background(),
		testRequest(hservewire.MethodGet, "/", nil),
		bufio.NewReader(strings.NewReader("")),
	)

	require.NoError(err)
	require.NotNil(resp)
	assert.Equal("always", resp.Header.Get("X-Static"))
}
