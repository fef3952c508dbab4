// Command staticd serves a directory tree over plain HTTP/1.x from a fixed
// pool of workers, each serving one connection at a time, closed after
// every response.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/avbelov/staticd/internal/config"
	"github.com/avbelov/staticd/internal/dispatcher"
	"github.com/avbelov/staticd/internal/logging"
	"github.com/avbelov/staticd/internal/metrics"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "staticd:", err)
		return 2
	}

	log, err := logging.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "staticd: building logger:", err)
		return 2
	}
	defer log.Sync()

	m := metrics.New()

	var metricsSrv *metrics.Server
	if cfg.MetricsAddress != "" {
		metricsSrv, err = metrics.Listen(cfg.MetricsAddress, m)
		if err != nil {
			log.Error("failed to start metrics listener", zap.Error(err))
			return 1
		}
		log.Info("metrics listening", zap.String("addr", cfg.MetricsAddress))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := dispatcher.New(cfg, log, m)
	if err := d.Run(ctx); err != nil {
		log.Error("dispatcher exited with error", zap.Error(err))
		if metricsSrv != nil {
			metricsSrv.Shutdown(context.Background())
		}
		return 1
	}

	if metricsSrv != nil {
		metricsSrv.Shutdown(context.Background())
	}
	return 0
}
