// Package response formats and transmits the HTTP status line and header
// block this server ever emits, then unconditionally tears the connection
// down. There is no keep-alive path: every response, success or failure,
// ends with the connection closed in both directions.
package response

import (
	"fmt"
	"io"
	"net"
	"time"

	"github.com/valyala/bytebufferpool"
	"github.com/avbelov/staticd/internal/protocol"
)

// Product is the value sent in the Server header.
const Product = "staticd/1.0"

// pool backs the response buffers so a busy server doesn't allocate one
// bytes.Buffer per response.
var pool bytebufferpool.Pool

// Outcome is either a successful file (with or without a body) or an
// error kind. Exactly one of File or Kind is meaningful at a time.
type Outcome struct {
	File     *Success
	Kind     protocol.Kind
	hasError bool
}

// Success describes a resolved file ready to be written. Body is nil for
// HEAD; for GET it is the file's full contents, already read into memory
// by the handler so a read failure is caught and reported as an error
// outcome before any response bytes are sent.
type Success struct {
	Length int64
	MIME   string
	Body   []byte
}

// Ok builds a success Outcome.
func Ok(length int64, mime string, body []byte) Outcome {
	return Outcome{File: &Success{Length: length, MIME: mime, Body: body}}
}

// Fail builds a failure Outcome for kind.
func Fail(kind protocol.Kind) Outcome {
	return Outcome{Kind: kind, hasError: true}
}

// Write formats and sends the response for outcome on conn as a single
// logical write, then closes conn in both directions regardless of
// outcome. The header block and the body (when present) are assembled
// into one buffer before anything reaches the wire. Write failures are
// surfaced to the caller for logging only; they are never retried beyond
// the short-write loop below, and the connection is closed either way.
func Write(conn net.Conn, outcome Outcome, now time.Time) error {
	buf := pool.Get()
	defer pool.Put(buf)
	defer conn.Close()

	if outcome.hasError {
		code, reason := outcome.Kind.Status()
		writeErrorHeaders(buf, code, reason, now)
		return flush(conn, buf.Bytes())
	}

	writeSuccessHeaders(buf, outcome.File, now)
	buf.Write(outcome.File.Body)
	return flush(conn, buf.Bytes())
}

func writeSuccessHeaders(buf *bytebufferpool.ByteBuffer, s *Success, now time.Time) {
	fmt.Fprintf(buf, "HTTP/1.0 200 OK\r\n")
	writeCommonHeaders(buf, now)
	fmt.Fprintf(buf, "Content-Length: %d\r\n", s.Length)
	fmt.Fprintf(buf, "Connection: close\r\n")
	fmt.Fprintf(buf, "Content-Type: %s\r\n", s.MIME)
	fmt.Fprintf(buf, "\r\n")
}

func writeErrorHeaders(buf *bytebufferpool.ByteBuffer, code int, reason string, now time.Time) {
	fmt.Fprintf(buf, "HTTP/1.0 %d %s\r\n", code, reason)
	writeCommonHeaders(buf, now)
	fmt.Fprintf(buf, "Connection: close\r\n")
	fmt.Fprintf(buf, "\r\n")
}

func writeCommonHeaders(buf *bytebufferpool.ByteBuffer, now time.Time) {
	fmt.Fprintf(buf, "Date: %s\r\n", now.Format("Mon, 02 Jan 2006 15:04:05 MST"))
	fmt.Fprintf(buf, "Server: %s\r\n", Product)
}

// flush performs a single logical write, retrying on short writes without
// surfacing partial success to the caller.
func flush(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
