package protocol

import (
	"bytes"
	"errors"
	"io"
	"net"
)

// readChunkSize is the maximum number of bytes pulled from the connection
// per Read call while framing a request.
const readChunkSize = 1024

var delimiter = []byte("\r\n\r\n")

// ErrNoRequest signals that the peer closed the connection before a
// complete request arrived. The worker treats this as a silent discard,
// not a failure: it is returned as a plain sentinel error rather than a
// *Error so callers can't accidentally write a response for it.
var ErrNoRequest = errors.New("protocol: peer closed before a request was framed")

// Read accumulates bytes from conn in chunks of up to readChunkSize until
// the CRLFCRLF delimiter appears in the buffer, then returns everything
// read so far, UTF-8 decoded as the raw string it already is.
//
// maxBytes bounds the total number of bytes this call will buffer; the
// bound exists to cap memory per connection, not to reject legitimately
// sized requests. A request that never frames within that ceiling is
// reported as an InternalServerError, not as a rejected request.
func Read(conn net.Conn, maxBytes int) (string, error) {
	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)

	for {
		n, err := conn.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			if buf.Len() > maxBytes {
				return "", NewError(KindInternalServerError, errBufferCeilingExceeded)
			}
			if bytes.Contains(buf.Bytes(), delimiter) {
				return buf.String(), nil
			}
		}
		if err != nil {
			if err == io.EOF {
				return "", ErrNoRequest
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				return "", NewError(KindRequestTimeout, err)
			}
			return "", NewError(KindInternalServerError, err)
		}
	}
}

var errBufferCeilingExceeded = errors.New("buffer ceiling exceeded before CRLFCRLF was found")
