package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"physioflow/internal/audit"
	consenthandler "physioflow/internal/consent/handler"
	"physioflow/internal/consent/integrations"
	"physioflow/internal/consent/metrics"
	"physioflow/internal/consent/models"
	"physioflow/internal/consent/service"
	"physioflow/internal/consent/store"
	"physioflow/internal/platform/config"
	"physioflow/internal/platform/database"
	"physioflow/internal/platform/health"
	"physioflow/internal/platform/httpserver"
	"physioflow/internal/platform/kafka"
	"physioflow/internal/platform/kafka/producer"
	"physioflow/internal/platform/logger"
	"physioflow/internal/platform/middleware"
	"physioflow/internal/platform/redis"
	httptransport "physioflow/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal/consent packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	log.Info("initializing physioflow",
		"addr", cfg.Addr,
		"environment", cfg.Environment,
	)

	m := metrics.New()
	healthHandler := health.New(cfg.Environment)

	storeOpts := []store.Option{store.WithLogger(log), store.WithMetrics(m)}

	// Storage backend selection: postgres, then redis, then in-memory.
	var consentStore service.Store
	switch {
	case cfg.DatabaseURL != "":
		pool, err := database.New(database.DefaultConfig(cfg.DatabaseURL))
		if err != nil {
			log.Error("failed to connect to postgres", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		healthHandler.RegisterCheck("postgres", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return pool.Health(ctx)
		})
		consentStore = store.NewPostgres(pool.DB(), storeOpts...)
		log.Info("using postgres consent store")
	case cfg.RedisURL != "":
		client, err := redis.New(cfg.RedisURL)
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer client.Close()
		healthHandler.RegisterCheck("redis", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return client.Health(ctx)
		})
		consentStore = store.NewRedis(client.Client, storeOpts...)
		log.Info("using redis consent store")

		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for range ticker.C {
				client.RecordPoolStats()
			}
		}()
	default:
		consentStore = store.NewInMemory(storeOpts...)
		log.Warn("using in-memory consent store, decisions will not survive restarts")
	}

	// Audit trail: kafka when brokers are configured, in-memory otherwise.
	var sink audit.Sink
	if cfg.KafkaBrokers != "" {
		p, err := producer.New(producer.DefaultConfig(cfg.KafkaBrokers), log)
		if err != nil {
			log.Error("failed to create kafka producer", "error", err)
			os.Exit(1)
		}
		defer p.Close()
		checker := kafka.NewHealthChecker(cfg.KafkaBrokers)
		healthHandler.RegisterCheck("kafka", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return checker.Check(ctx)
		})
		sink = audit.NewKafkaSink(p, cfg.AuditTopic)
		log.Info("audit events published to kafka", "topic", cfg.AuditTopic)
	} else {
		sink = audit.NewInMemoryStore()
		log.Warn("kafka not configured, audit events kept in memory")
	}
	auditor := audit.NewPublisher(sink,
		audit.WithAsyncBuffer(cfg.AuditBufferSize),
		audit.WithPublisherLogger(log),
	)
	defer auditor.Close()

	registry := integrations.New(log)
	registerIntegrations(registry, log)

	manager := service.NewManager(consentStore, log,
		service.WithMetrics(m),
		service.WithAuditor(auditor),
		service.WithIntegrations(registry),
	)

	handler := consenthandler.New(manager, log, cfg.PrivacyPolicyURL, cfg.BannerDisplayDelay)
	router := httptransport.NewRouter(handler, healthHandler, httptransport.RouterConfig{
		ClientIdentity: middleware.ClientIdentityConfig{
			CookieName: cfg.ClientCookieName,
			SigningKey: []byte(cfg.CookieSigningKey),
			TTL:        cfg.ClientCookieTTL,
			Secure:     cfg.CookieSecure,
		},
	}, log)

	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting http server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// registerIntegrations binds the category hooks. Server-side these are
// enablement signals; the real tag loading happens on the frontend, so the
// hooks record the activation for operations to see.
func registerIntegrations(registry *integrations.Registry, log *slog.Logger) {
	for _, category := range models.OptionalCategories {
		category := category
		if err := registry.Register(category, func(ctx context.Context) error {
			log.DebugContext(ctx, "integration enabled", "category", category)
			return nil
		}); err != nil {
			log.Error("failed to register integration", "category", category, "error", err)
		}
	}
}
