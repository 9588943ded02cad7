package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/xavierca1/ligue-funnels/internal/config"
	"github.com/xavierca1/ligue-funnels/internal/infra/cache"
	"github.com/xavierca1/ligue-funnels/internal/infra/database"
	"github.com/xavierca1/ligue-funnels/internal/infra/http/handlers"
	"github.com/xavierca1/ligue-funnels/internal/infra/http/middleware"
	"github.com/xavierca1/ligue-funnels/internal/infra/memory"
	"github.com/xavierca1/ligue-funnels/internal/infra/queue"
	"github.com/xavierca1/ligue-funnels/internal/logger"
	"github.com/xavierca1/ligue-funnels/internal/usecase"
)

type repositories struct {
	funnels     usecase.FunnelRepositoryInterface
	funnelStore usecase.FunnelStoreInterface
	users       usecase.UserStoreInterface
	workers     usecase.WorkerRepositoryInterface
	licenses    usecase.LicenseRepositoryInterface
	health      handlers.Pinger
	close       func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Repositórios
	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.Error("failed to open storage", "storage", cfg.Storage, "error", err)
		os.Exit(1)
	}
	defer repos.close()

	// 2. Redis e RabbitMQ são opcionais na API
	var guard usecase.DeliveryGuard
	var redisPing handlers.Pinger
	if cfg.Redis.Addr != "" {
		rdb, err := cache.OpenRedis(ctx, cache.RedisConfig{Addr: cfg.Redis.Addr})
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		g := cache.NewDeliveryGuard(rdb, cfg.Redis.DedupTTL)
		guard, redisPing = g, g
	}

	var broker handlers.BrokerChecker
	if cfg.RabbitMQ.URL != "" {
		rmq, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			log.Warn("rabbitmq unavailable, health will report it down", "error", err)
		} else {
			defer rmq.Close()
			broker = rmq
		}
	}

	// 3. UseCases
	metrics := middleware.Recorder{}
	scheduler := usecase.NewScheduler(repos.workers)
	processWebhookUC := usecase.NewProcessWebhookUseCase(repos.funnels, repos.users, scheduler, guard, metrics, cfg.Webhook.CancelScope)
	multiShotUC := usecase.NewMultiShotUseCase(repos.funnels, repos.users, scheduler, metrics)
	removeLeadUC := usecase.NewRemoveLeadUseCase(repos.funnels, repos.users, cfg.Webhook.CancelScope)
	licenseUC := usecase.NewProvisionLicenseUseCase(repos.licenses, repos.users, cfg.License.Days)
	manageFunnelsUC := usecase.NewManageFunnelsUseCase(repos.funnelStore, repos.users)
	manageUsersUC := usecase.NewManageUsersUseCase(repos.users)

	// 4. Handlers
	webhookHandler := handlers.NewWebhookHandler(processWebhookUC, cfg.Webhook.LegacyStatusCodes)
	funnelHandler := handlers.NewFunnelHandler(multiShotUC, removeLeadUC)
	licenseHandler := handlers.NewLicenseHandler(licenseUC)
	dashboardHandler := handlers.NewDashboardHandler(manageFunnelsUC, manageUsersUC)
	healthHandler := handlers.NewHealthHandler(repos.health, redisPing, broker)

	// 5. Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.App.RequestTimeout))
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.App.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", healthHandler.Handle)
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/webhook", licenseHandler.Handle)
	r.Route("/api", dashboardHandler.Routes)
	r.Post("/{uid}/{fid}", webhookHandler.Handle)
	r.Post("/{uid}/{fid}/multishot", funnelHandler.MultiShot)
	r.Delete("/{uid}/{fid}/leads/{phone}", funnelHandler.RemoveLead)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.App.RequestTimeout,
		WriteTimeout:      cfg.App.RequestTimeout + 5*time.Second,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.App.Env, "storage", cfg.Storage)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
}

func openRepositories(ctx context.Context, cfg config.Config, log *slog.Logger) (*repositories, error) {
	if cfg.Storage == config.StorageMemory {
		store := memory.NewStore()
		if cfg.DB.SeedFile != "" {
			if err := store.LoadSeed(cfg.DB.SeedFile); err != nil {
				return nil, err
			}
		}
		log.Warn("using in-memory storage, data is lost on restart")
		return &repositories{
			funnels:     store.Funnels(),
			funnelStore: store.Funnels(),
			users:       store.Users(),
			workers:     store.Workers(),
			licenses:    store.Licenses(),
			health:      store,
			close:       func() {},
		}, nil
	}

	db, err := database.NewDBConnection(ctx, cfg.DB.URL)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	funnels := database.NewFunnelRepository(db)
	return &repositories{
		funnels:     funnels,
		funnelStore: funnels,
		users:       database.NewUserRepository(db),
		workers:     database.NewWorkerRepository(db),
		licenses:    database.NewLicenseRepository(db),
		health:      handlers.PingFunc(db.PingContext),
		close:       func() { closeDB(db, log) },
	}, nil
}

func closeDB(db *sql.DB, log *slog.Logger) {
	if err := db.Close(); err != nil {
		log.Error("failed to close database", "error", err)
	}
}
