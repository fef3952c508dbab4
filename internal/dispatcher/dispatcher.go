// Package dispatcher owns the listening socket and the producer side of
// the work queue. Its lifecycle runs INIT -> RUNNING -> DRAINING ->
// STOPPED, with shutdown triggered by context cancellation and worker
// termination signalled through per-worker sentinels on the queue.
package dispatcher

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/avbelov/staticd/internal/config"
	"github.com/avbelov/staticd/internal/metrics"
	"github.com/avbelov/staticd/internal/resolver"
	"github.com/avbelov/staticd/internal/socketopts"
	"github.com/avbelov/staticd/internal/worker"
)

// State names the dispatcher's position in its lifecycle.
type State int32

const (
	StateInit State = iota
	StateRunning
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateRunning:
		return "running"
	case StateDraining:
		return "draining"
	default:
		return "stopped"
	}
}

// Dispatcher accepts connections and hands them to a fixed worker pool
// over a bounded queue.
type Dispatcher struct {
	cfg     config.ServerConfig
	log     *zap.Logger
	metrics *metrics.Metrics

	listener net.Listener
	queue    chan worker.Item
	pool     *worker.Pool
	group    *errgroup.Group
	state    State
}

// New builds a Dispatcher in the INIT state. The listener is not opened
// until Run is called.
func New(cfg config.ServerConfig, log *zap.Logger, m *metrics.Metrics) *Dispatcher {
	queue := make(chan worker.Item, cfg.Workers*4)
	r := resolver.New(cfg.Root)
	return &Dispatcher{
		cfg:     cfg,
		log:     log,
		metrics: m,
		queue:   queue,
		pool:    worker.New(queue, r, m, log, cfg.MaxRequestSize),
		state:   StateInit,
	}
}

// Run executes INIT, then blocks through RUNNING and DRAINING until ctx is
// cancelled (by an operator signal via signal.NotifyContext, typically),
// returning once STOPPED is reached.
func (d *Dispatcher) Run(ctx context.Context) error {
	lc := socketopts.ListenConfig()
	ln, err := lc.Listen(ctx, "tcp", d.cfg.ListenAddr())
	if err != nil {
		return err
	}
	d.listener = ln
	d.log.Info("listening", zap.String("addr", d.cfg.ListenAddr()), zap.Int("workers", d.cfg.Workers))

	group, _ := errgroup.WithContext(context.Background())
	d.group = group
	for i := 0; i < d.cfg.Workers; i++ {
		group.Go(func() error {
			d.pool.Run()
			return nil
		})
	}

	d.state = StateRunning
	acceptErr := d.acceptLoop(ctx)

	d.state = StateDraining
	d.log.Info("draining")
	d.drain()
	if err := group.Wait(); err != nil {
		d.log.Error("worker pool returned an error", zap.Error(err))
	}

	d.state = StateStopped
	if cerr := d.listener.Close(); cerr != nil && !isAlreadyClosed(cerr) {
		d.log.Warn("error closing listener", zap.Error(cerr))
	}
	d.log.Info("stopped")
	return acceptErr
}

// acceptLoop is the RUNNING state: accept, tune, set the read deadline,
// enqueue, repeat, until ctx is cancelled.
func (d *Dispatcher) acceptLoop(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		d.listener.Close()
	}()

	for {
		conn, err := d.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			d.log.Warn("accept failed", zap.Error(err))
			continue
		}

		socketopts.TuneAccepted(conn)
		conn.SetReadDeadline(time.Now().Add(d.cfg.ReadTimeout))

		d.metrics.ConnectionsAccepted.Inc()
		d.metrics.ConnectionsQueued.Inc()
		d.queue <- worker.Item{Conn: conn}
		d.metrics.ConnectionsQueued.Dec()
	}
}

// drain is the DRAINING state: push one shutdown sentinel per worker.
func (d *Dispatcher) drain() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.queue <- worker.Item{Shutdown: true}
	}
}

func isAlreadyClosed(err error) bool {
	return errors.Is(err, net.ErrClosed)
}
