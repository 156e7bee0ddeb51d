package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/utafrali/catalog-admin/internal/config"
	handler "github.com/utafrali/catalog-admin/internal/handler/http"
	"github.com/utafrali/catalog-admin/internal/service/provider"
	"github.com/utafrali/catalog-admin/internal/storage"
	boltstore "github.com/utafrali/catalog-admin/internal/storage/bolt"
	"github.com/utafrali/catalog-admin/internal/storage/memory"
	redisstore "github.com/utafrali/catalog-admin/internal/storage/redis"
	"github.com/utafrali/catalog-admin/pkg/database"
	"github.com/utafrali/catalog-admin/pkg/health"
	pkgkafka "github.com/utafrali/catalog-admin/pkg/kafka"
	"github.com/utafrali/catalog-admin/pkg/middleware"
	"github.com/utafrali/catalog-admin/pkg/tracing"
)

const (
	serviceName    = "catalog-admin"
	serviceVersion = "0.1.0"
)

// App wires together all dependencies and runs the catalog console.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	provider       *provider.Provider
	producer       *pkgkafka.Producer
	closeStore     func() error
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracingCfg := tracing.DefaultConfig(serviceName, serviceVersion)
	tracingCfg.Environment = cfg.Environment
	tracingCfg.OTLPEndpoint = cfg.OTELEndpoint
	tracingCfg.SampleRate = cfg.OTELSampleRate
	tracingCfg.Enabled = cfg.OTELEnabled
	tracerShutdown, err := tracing.InitTracer(ctx, tracingCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	if cfg.SlowOpThresholdMs > 0 {
		database.SetSlowOpLogging(cfg.SlowOpThreshold(), logger)
	}

	a := &App{
		cfg:            cfg,
		logger:         logger,
		tracerShutdown: tracerShutdown,
	}

	healthHandler := health.NewHandler()
	opts := []provider.Option{provider.WithHealth(healthHandler)}

	// The durable store only matters to the local backend.
	if kind, _ := provider.SelectKind(cfg.ProductBackend); kind == provider.KindLocal {
		store, closeStore, err := openStore(ctx, cfg)
		if err != nil {
			_ = a.Shutdown()
			return nil, err
		}
		a.closeStore = closeStore
		if store != nil {
			opts = append(opts, provider.WithStore(store))
			logger.Info("local store opened", slog.String("driver", cfg.LocalStoreDriver))
		} else {
			logger.Warn("local store disabled, products will not persist")
		}
	}

	// Initialize Kafka producer.
	if len(cfg.KafkaBrokers) > 0 {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
		opts = append(opts, provider.WithPublisher(a.producer))
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	a.provider = provider.New(cfg.Provider(serviceName+"/"+serviceVersion), logger, opts...)
	productService := a.provider.Resolve()
	logger.Info("product backend resolved",
		slog.String("backend", string(a.provider.Kind())),
		slog.Any("readiness_checks", healthHandler.Names()),
	)

	cors := middleware.DefaultCORSConfig()
	if len(cfg.CORSAllowedOrigins) > 0 {
		cors.AllowedOrigins = cfg.CORSAllowedOrigins
	}

	router := handler.NewRouter(productService, healthHandler, handler.RouterConfig{
		ServiceName: serviceName,
		CORS:        cors,
	}, logger)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Backend returns the product backend serving requests.
func (a *App) Backend() provider.Kind {
	return a.provider.Kind()
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("backend", string(a.provider.Kind())),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server, Kafka
// producer, local store, tracer.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			a.logger.Error("local store close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.tracerShutdown != nil {
		tracerCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// openStore opens the configured durable store. The "none" driver yields a
// nil store and the local backend then runs without persistence.
func openStore(ctx context.Context, cfg *config.Config) (storage.Store, func() error, error) {
	switch cfg.LocalStoreDriver {
	case config.StoreBolt:
		db, err := database.OpenBolt(database.BoltConfig{Path: cfg.LocalStorePath})
		if err != nil {
			return nil, nil, err
		}
		store, err := boltstore.New(db, boltstore.DefaultBucket)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return store, db.Close, nil

	case config.StoreRedis:
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Addr = cfg.RedisAddr
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB
		client, err := database.NewRedisClient(ctx, redisCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to redis: %w", err)
		}
		return redisstore.New(client, cfg.RedisKeyPrefix), client.Close, nil

	case config.StoreMemory:
		return memory.New(), nil, nil

	default:
		return nil, nil, nil
	}
}
