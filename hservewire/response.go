package hservewire

import "bufio"

// ResponseProto is the protocol version stamped on every status line.  The
// server speaks HTTP/1.0 semantics regardless of the version a client
// requested: one response, then close.
const ResponseProto = "HTTP/1.0"

// WriteResponseHeader serializes a status line, the given headers in lexical
// key order, and the terminating blank line, then flushes.  The flush matters
// for streaming bodies, where the header block must reach the client before
// the first body write.
func WriteResponseHeader(bw *bufio.Writer, status Status, h Header) error {
	if _, err := bw.WriteString(ResponseProto + " " + status.String() + "\r\n"); err != nil {
		return err
	}

	for _, key := range h.sortedKeys() {
		if _, err := bw.WriteString(key + ": " + h[key] + "\r\n"); err != nil {
			return err
		}
	}

	if _, err := bw.WriteString("\r\n"); err != nil {
		return err
	}

	return bw.Flush()
}
