// Package worker implements the per-connection pipeline: dequeue, read,
// parse, validate the method, dispatch to a handler, write the response,
// and move on. A worker owns exactly one connection at a time and never
// shares it with another worker.
package worker

import (
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/avbelov/staticd/internal/handler"
	"github.com/avbelov/staticd/internal/metrics"
	"github.com/avbelov/staticd/internal/protocol"
	"github.com/avbelov/staticd/internal/resolver"
	"github.com/avbelov/staticd/internal/response"
)

// Item is what the dispatcher places on the work queue: either a live
// connection to service, or the shutdown sentinel.
type Item struct {
	Conn     net.Conn
	Shutdown bool
}

// Pool is a fixed set of workers draining a single shared queue.
type Pool struct {
	queue    <-chan Item
	resolver *resolver.Resolver
	metrics  *metrics.Metrics
	log      *zap.Logger
	maxBytes int
}

// New builds a Pool that will read Items off queue.
func New(queue <-chan Item, r *resolver.Resolver, m *metrics.Metrics, log *zap.Logger, maxRequestBytes int) *Pool {
	return &Pool{queue: queue, resolver: r, metrics: m, log: log, maxBytes: maxRequestBytes}
}

// Run is the body of a single worker goroutine: it loops until it
// dequeues the shutdown sentinel.
func (p *Pool) Run() {
	for item := range p.queue {
		if item.Shutdown {
			return
		}
		p.serviceOne(item.Conn)
	}
}

func (p *Pool) serviceOne(conn net.Conn) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker recovered from panic servicing a connection", zap.Any("panic", r))
			conn.Close()
		}
	}()

	raw, err := protocol.Read(conn, p.maxBytes)
	if err != nil {
		if err == protocol.ErrNoRequest {
			p.metrics.RequestsDiscarded.Inc()
			conn.Close()
			return
		}
		p.respondError(conn, err)
		return
	}

	req, err := protocol.Parse(raw)
	if err != nil {
		p.respondError(conn, err)
		return
	}

	req.Method = strings.ToUpper(req.Method)
	if !isAllowedMethod(req.Method) {
		p.respondError(conn, protocol.NewError(protocol.KindMethodNotAllowed, nil))
		return
	}

	outcome := handler.Handle(p.resolver, req)
	p.respond(conn, req, outcome)
}

func (p *Pool) respondError(conn net.Conn, err error) {
	perr, ok := err.(*protocol.Error)
	if !ok {
		perr = protocol.NewError(protocol.KindInternalServerError, err)
	}
	outcome := response.Fail(perr.Kind)
	code, _ := perr.Kind.Status()
	p.log.Warn("request failed",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.Int("status", code),
		zap.Error(perr),
	)
	if err := response.Write(conn, outcome, time.Now()); err != nil {
		p.log.Debug("write failed after error", zap.Error(err))
	}
	p.metrics.ObserveStatus(code)
}

func (p *Pool) respond(conn net.Conn, req *protocol.Request, outcome response.Outcome) {
	code, _ := outcome.Kind.Status()
	if outcome.File != nil {
		code = 200
	}
	if err := response.Write(conn, outcome, time.Now()); err != nil {
		p.log.Debug("write failed", zap.Error(err))
	}
	p.log.Info("request served",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.String("method", req.Method),
		zap.String("path", req.Path),
		zap.Int("status", code),
	)
	p.metrics.ObserveStatus(code)
}

func isAllowedMethod(method string) bool {
	switch protocol.Method(method) {
	case protocol.MethodGet, protocol.MethodHead:
		return true
	default:
		return false
	}
}
