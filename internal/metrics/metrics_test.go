package metrics

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestObserveStatusExposedOnMetricsEndpoint(t *testing.T) {
	m := New()
	m.ConnectionsAccepted.Inc()
	m.ObserveStatus(200)
	m.ObserveStatus(404)
	m.ObserveStatus(200)

	srv, err := Listen("127.0.0.1:0", m)
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	defer srv.httpServer.Close()

	addr := srv.Addr()
	var body string
	for i := 0; i < 20; i++ {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err == nil {
			b, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			body = string(b)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if !strings.Contains(body, `staticd_responses_total{status="200"} 2`) {
		t.Fatalf("missing 200 sample in exposition:\n%s", body)
	}
	if !strings.Contains(body, `staticd_responses_total{status="404"} 1`) {
		t.Fatalf("missing 404 sample in exposition:\n%s", body)
	}
	if !strings.Contains(body, "staticd_connections_accepted_total 1") {
		t.Fatalf("missing connections_accepted sample in exposition:\n%s", body)
	}
}

func TestStatusLabelUnknownCode(t *testing.T) {
	if got := statusLabel(999); got != "unknown" {
		t.Fatalf("expected unknown, got %q", got)
	}
}
