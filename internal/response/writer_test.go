package response

import (
	"bytes"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/avbelov/staticd/internal/protocol"
)

func drain(t *testing.T, server, client net.Conn, outcome Outcome) string {
	t.Helper()
	done := make(chan struct{})
	var out bytes.Buffer
	go func() {
		io.Copy(&out, client)
		close(done)
	}()

	if err := Write(server, outcome, time.Now()); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	<-done
	return out.String()
}

func TestWriteSuccessWithBody(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	out := drain(t, server, client, Ok(12, "text/html", []byte("Hello World!")))

	headers, rest, ok := strings.Cut(out, "\r\n\r\n")
	if !ok {
		t.Fatalf("missing header/body delimiter in %q", out)
	}
	if !strings.HasPrefix(headers, "HTTP/1.0 200 OK\r\n") {
		t.Fatalf("unexpected status line: %q", headers)
	}
	if !strings.Contains(headers, "Content-Length: 12\r\n") {
		t.Fatalf("missing Content-Length: %q", headers)
	}
	// Content-Type is the last header, so the cut above took its CRLF.
	if !strings.Contains(headers+"\r\n", "Content-Type: text/html\r\n") {
		t.Fatalf("missing Content-Type: %q", headers)
	}
	if !strings.Contains(headers, "Connection: close\r\n") {
		t.Fatalf("missing Connection header: %q", headers)
	}
	if rest != "Hello World!" {
		t.Fatalf("unexpected body: %q", rest)
	}
}

func TestWriteHeadHasEmptyBody(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	out := drain(t, server, client, Ok(12, "text/html", nil))
	headers, rest, ok := strings.Cut(out, "\r\n\r\n")
	if !ok {
		t.Fatalf("missing delimiter in %q", out)
	}
	if rest != "" {
		t.Fatalf("expected empty body for HEAD, got %q", rest)
	}
	if !strings.Contains(headers, "Content-Length: 12\r\n") {
		t.Fatalf("HEAD must still report the true content length: %q", headers)
	}
}

func TestWriteErrorHasNoContentHeaders(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	out := drain(t, server, client, Fail(protocol.KindNotFound))
	if !strings.HasPrefix(out, "HTTP/1.0 404 Not Found\r\n") {
		t.Fatalf("unexpected status line: %q", out)
	}
	if strings.Contains(out, "Content-Length") || strings.Contains(out, "Content-Type") {
		t.Fatalf("error response must not carry content headers: %q", out)
	}
	if !strings.HasSuffix(out, "\r\n\r\n") {
		t.Fatalf("error response must end with exactly one blank line: %q", out)
	}
}

func TestWriteExactlyOneBlankLine(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	out := drain(t, server, client, Ok(5, "text/html", []byte("page.")))
	if strings.Count(out, "\r\n\r\n") != 1 {
		t.Fatalf("expected exactly one header/body delimiter, got %q", out)
	}
}

func TestWriteClosesConnection(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	go io.Copy(io.Discard, client)
	Write(server, Fail(protocol.KindBadRequest), time.Now())

	if _, err := server.Write([]byte("x")); err == nil {
		t.Fatalf("expected write on server conn to fail after Write closed it")
	}
}
