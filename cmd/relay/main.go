package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/xavierca1/ligue-funnels/internal/config"
	"github.com/xavierca1/ligue-funnels/internal/infra/database"
	"github.com/xavierca1/ligue-funnels/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-funnels/internal/infra/queue"
	"github.com/xavierca1/ligue-funnels/internal/infra/worker"
	"github.com/xavierca1/ligue-funnels/internal/logger"
)

// relay publica os workers vencidos na fila de disparo.
func main() {
	cfg, err := config.Load()
	if err == nil {
		err = cfg.ValidateRelay()
	}
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDBConnection(ctx, cfg.DB.URL)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	rmq, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("failed to connect to rabbitmq", "error", err)
		os.Exit(1)
	}
	defer rmq.Close()

	relay := worker.NewDispatchRelay(
		database.NewWorkerRepository(db),
		queue.NewProducer(rmq.Ch),
		middleware.Recorder{},
		log,
		cfg.Relay.Interval,
		cfg.Relay.BatchSize,
	)

	relay.Start(ctx)
}
