package worker

import (
	"bytes"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/avbelov/staticd/internal/metrics"
	"github.com/avbelov/staticd/internal/resolver"
)

func newTestPool(t *testing.T) (*Pool, chan Item) {
	t.Helper()
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "hello.html"), []byte("Hello World!"), 0o644); err != nil {
		t.Fatal(err)
	}
	queue := make(chan Item, 4)
	p := New(queue, resolver.New(root), metrics.New(), zap.NewNop(), 2048)
	return p, queue
}

func exchange(t *testing.T, queue chan Item, request string) string {
	t.Helper()
	server, client := net.Pipe()
	queue <- Item{Conn: server}

	client.SetDeadline(time.Now().Add(2 * time.Second))
	if _, err := client.Write([]byte(request)); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var out bytes.Buffer
	io.Copy(&out, client)
	client.Close()
	return out.String()
}

func TestWorkerServesGet(t *testing.T) {
	p, queue := newTestPool(t)
	go p.Run()
	defer close(queue)

	out := exchange(t, queue, "GET /hello.html HTTP/1.0\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.0 200 OK\r\n") {
		t.Fatalf("unexpected response: %q", out)
	}
	if !strings.HasSuffix(out, "Hello World!") {
		t.Fatalf("unexpected body: %q", out)
	}
}

func TestWorkerRejectsBadMethod(t *testing.T) {
	p, queue := newTestPool(t)
	go p.Run()
	defer close(queue)

	out := exchange(t, queue, "POST /hello.html HTTP/1.0\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.0 405 Method Not Allowed\r\n") {
		t.Fatalf("unexpected response: %q", out)
	}
}

func TestWorkerRejectsBadVersion(t *testing.T) {
	p, queue := newTestPool(t)
	go p.Run()
	defer close(queue)

	out := exchange(t, queue, "GET /hello.html HTTP/2.0\r\n\r\n")
	if !strings.HasPrefix(out, "HTTP/1.0 505 HTTP Version Not Supported\r\n") {
		t.Fatalf("unexpected response: %q", out)
	}
}

func TestWorkerShutdownSentinelStopsLoop(t *testing.T) {
	p, queue := newTestPool(t)
	done := make(chan struct{})
	go func() {
		p.Run()
		close(done)
	}()

	queue <- Item{Shutdown: true}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not terminate on shutdown sentinel")
	}
}
