// Package hservewire implements the subset of the HTTP/1.x wire format
// spoken by hserve servers: request-line and header parsing on the way in,
// status-line and header serialization on the way out.  Bodies are left to
// the caller, which receives the buffered reader positioned just past the
// header block.
package hservewire

import (
	"sort"
	"strconv"
	"strings"
)

// Method identifies the request method of a parsed request.
type Method int

const (
	// MethodNone is the zero value, reported for requests whose method
	// could not be recognized.
	MethodNone Method = iota

	MethodGet
	MethodPost
	MethodHead
)

var methodNames = map[Method]string{
	MethodGet:  "GET",
	MethodPost: "POST",
	MethodHead: "HEAD",
}

// String returns the wire spelling of this method, or "NONE" for MethodNone
// and any unrecognized value.
func (m Method) String() string {
	if n, ok := methodNames[m]; ok {
		return n
	}

	return "NONE"
}

// ParseMethod maps a wire token onto a Method.  The second return is false
// when the token is not a supported method.
func ParseMethod(s string) (Method, bool) {
	switch s {
	case "GET":
		return MethodGet, true
	case "POST":
		return MethodPost, true
	case "HEAD":
		return MethodHead, true
	}

	return MethodNone, false
}

// Status is an HTTP response code.
type Status int

const (
	StatusOK                  Status = 200
	StatusMovedPermanently    Status = 301
	StatusFound               Status = 302
	StatusBadRequest          Status = 400
	StatusUnauthorized        Status = 401
	StatusForbidden           Status = 403
	StatusNotFound            Status = 404
	StatusTeapot              Status = 417
	StatusInternalServerError Status = 500
)

var statusReasons = map[Status]string{
	StatusOK:                  "OK",
	StatusMovedPermanently:    "Moved Permanently",
	StatusFound:               "Found",
	StatusBadRequest:          "Bad Request",
	StatusUnauthorized:        "Unauthorized",
	StatusForbidden:           "Forbidden",
	StatusNotFound:            "Not Found",
	StatusTeapot:              "I Am A Teapot",
	StatusInternalServerError: "Internal Server Error",
}

// Reason returns the reason phrase for this status.  Codes this package does
// not know about get the teapot phrase, which an hserve server emits rather
// than inventing reasons for arbitrary codes.
func (s Status) Reason() string {
	if r, ok := statusReasons[s]; ok {
		return r
	}

	return statusReasons[StatusTeapot]
}

// String returns the "<code> <reason>" form used on the status line.
func (s Status) String() string {
	if _, ok := statusReasons[s]; !ok {
		s = StatusTeapot
	}

	return strconv.Itoa(int(s)) + " " + s.Reason()
}

// Header holds request or response headers.  Keys are stored in a canonical
// form so that lookups are case insensitive.  Only a single value per key is
// kept; a repeated key overwrites the previous value, matching the behavior
// of the map this server has always used.
type Header map[string]string

// CanonicalKey normalizes a header key: each dash-separated segment is
// lowercased with its first letter uppercased.
func CanonicalKey(key string) string {
	segments := strings.Split(strings.ToLower(key), "-")
	for i, seg := range segments {
		if len(seg) > 0 {
			segments[i] = strings.ToUpper(seg[:1]) + seg[1:]
		}
	}

	return strings.Join(segments, "-")
}

// Set stores value under the canonical form of key.
func (h Header) Set(key, value string) {
	h[CanonicalKey(key)] = value
}

// Get returns the value stored under the canonical form of key, or the
// empty string.
func (h Header) Get(key string) string {
	return h[CanonicalKey(key)]
}

// Has reports whether a value is stored under the canonical form of key.
func (h Header) Has(key string) bool {
	_, ok := h[CanonicalKey(key)]
	return ok
}

// Del removes the value stored under the canonical form of key.
func (h Header) Del(key string) {
	delete(h, CanonicalKey(key))
}

// Clone returns a copy of this header.  A nil receiver yields an empty,
// non-nil header.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		out[k] = v
	}

	return out
}

// sortedKeys returns the keys of this header in lexical order, so that
// serialized output is deterministic.
func (h Header) sortedKeys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}

	sort.Strings(keys)
	return keys
}

// Request is a parsed request line plus headers.  The body, if any, remains
// unread on the reader that produced this request.
type Request struct {
	Method Method
	Path   string

	// Proto is the protocol version from the request line, either
	// "HTTP/1.0" or "HTTP/1.1".
	Proto string

	Header Header

	// RemoteAddr is the peer address of the connection this request arrived
	// on.  It is filled in by the server, not the parser.
	RemoteAddr string
}
