// Package metrics exposes the small set of Prometheus counters and gauges
// this server tracks, and, when configured, a separate HTTP listener that
// serves them on /metrics. That listener never touches the document root;
// nothing under it is reachable from the file-serving port.
package metrics

import (
	"context"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the full set of counters this server maintains.
type Metrics struct {
	ConnectionsAccepted prometheus.Counter
	ConnectionsQueued   prometheus.Gauge
	Responses           *prometheus.CounterVec
	RequestsDiscarded   prometheus.Counter

	registry *prometheus.Registry
}

// New builds a fresh, isolated registry (not the global default one, so
// tests can create many Metrics instances without collector collisions).
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		ConnectionsAccepted: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "staticd_connections_accepted_total",
			Help: "Total number of TCP connections accepted by the dispatcher.",
		}),
		ConnectionsQueued: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "staticd_connections_queued",
			Help: "Number of connections currently waiting in the work queue.",
		}),
		Responses: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "staticd_responses_total",
			Help: "Total number of responses sent, by status code.",
		}, []string{"status"}),
		RequestsDiscarded: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "staticd_requests_discarded_total",
			Help: "Connections closed because the peer disconnected before framing a request.",
		}),
	}
	return m
}

// ObserveStatus increments the per-status-code response counter.
func (m *Metrics) ObserveStatus(code int) {
	m.Responses.WithLabelValues(statusLabel(code)).Inc()
}

func statusLabel(code int) string {
	switch code {
	case 200:
		return "200"
	case 400:
		return "400"
	case 403:
		return "403"
	case 404:
		return "404"
	case 405:
		return "405"
	case 408:
		return "408"
	case 500:
		return "500"
	case 505:
		return "505"
	default:
		return "unknown"
	}
}

// Server wraps the separate metrics listener's lifecycle.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
}

// Listen starts the metrics HTTP server on addr. Callers should call
// Shutdown when the dispatcher drains.
func Listen(addr string, m *Metrics) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux}

	go func() {
		_ = srv.Serve(ln)
	}()

	return &Server{httpServer: srv, listener: ln}, nil
}

// Addr reports the address the metrics listener is bound to, useful when
// it was started on port 0.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown stops the metrics listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
