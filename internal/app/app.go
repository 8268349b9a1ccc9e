package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/mouadelabbassi/dashboard/internal/config"
	"github.com/mouadelabbassi/dashboard/internal/domain"
	"github.com/mouadelabbassi/dashboard/internal/embedding"
	"github.com/mouadelabbassi/dashboard/internal/event"
	handler "github.com/mouadelabbassi/dashboard/internal/handler/http"
	"github.com/mouadelabbassi/dashboard/internal/history"
	"github.com/mouadelabbassi/dashboard/internal/nlp"
	"github.com/mouadelabbassi/dashboard/internal/service"
	"github.com/mouadelabbassi/dashboard/internal/store"
	esstore "github.com/mouadelabbassi/dashboard/internal/store/elasticsearch"
	"github.com/mouadelabbassi/dashboard/internal/store/memory"
	pgstore "github.com/mouadelabbassi/dashboard/internal/store/postgres"
	"github.com/mouadelabbassi/dashboard/migrations"
	"github.com/mouadelabbassi/dashboard/pkg/database"
	"github.com/mouadelabbassi/dashboard/pkg/health"
	pkgkafka "github.com/mouadelabbassi/dashboard/pkg/kafka"
	"github.com/mouadelabbassi/dashboard/pkg/tracing"
)

// CatalogConsumerGroup is the Kafka consumer group that keeps the product
// index in sync with catalogue events.
const CatalogConsumerGroup = "smartsearch-catalog"

const (
	shutdownTimeout  = 10 * time.Second
	idempotencyTTL   = 24 * time.Hour
	maxMessageBytes  = 10e6
	errEmbeddingDown = "embedding service unavailable"
)

// App wires together all dependencies and runs the smart search service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	httpServer *http.Server

	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	consumer       *pkgkafka.Consumer
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
// Redis, Kafka and the embedding service are optional: when unreachable the
// service starts without them.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	a := &App{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.closeResources()
			if a.tracerShutdown != nil {
				_ = a.tracerShutdown(context.Background())
			}
		}
	}()

	traceCfg := tracing.DefaultConfig(handler.ServiceName)
	traceCfg.Environment = cfg.Environment
	traceCfg.OTLPEndpoint = cfg.OTLPEndpoint
	traceCfg.SampleRate = cfg.TraceSampleRate
	a.tracerShutdown, err = tracing.InitTracer(ctx, traceCfg)
	if err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}
	database.SetSlowQueryLogging(cfg.DBSlowQueryThreshold, logger)

	healthHandler := health.NewHandler()

	products, indexer, err := a.openStore(ctx, healthHandler)
	if err != nil {
		return nil, err
	}
	if cfg.CatalogFile != "" {
		if indexer == nil {
			logger.Warn("catalogue file ignored by the postgres store",
				slog.String("file", cfg.CatalogFile),
			)
		} else if err := loadCatalog(ctx, cfg.CatalogFile, indexer, logger); err != nil {
			return nil, err
		}
	}

	lib, err := nlp.NewLibrary()
	if err != nil {
		return nil, fmt.Errorf("build nlp library: %w", err)
	}
	parser := nlp.NewParser(lib, nlp.WithConfidenceNormalizer(cfg.ConfidenceNormalizer))

	opts := []service.Option{service.WithPageSizes(cfg.DefaultPageSize, cfg.MaxPageSize)}
	if cfg.HistoryEnabled {
		client, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("search history disabled", slog.String("error", err.Error()))
		} else {
			a.redis = client
			hist := history.NewStore(client)
			opts = append(opts, service.WithHistory(hist))
			healthHandler.RegisterOptional("redis", hist.Ping)
		}
	}

	if cfg.EventsEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		opts = append(opts, service.WithEvents(event.NewSearchEvents(a.producer)))
		healthHandler.RegisterOptional("kafka", a.producer.Ping)

		if indexer != nil {
			catalog := event.NewCatalogConsumer(indexer, logger)
			a.consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
				Brokers:  cfg.KafkaBrokers,
				GroupID:  CatalogConsumerGroup,
				Topics:   []string{event.TopicProductUpserted, event.TopicProductDeleted},
				MinBytes: 1,
				MaxBytes: maxMessageBytes,
			}, pkgkafka.IdempotentHandler(
				pkgkafka.NewMemoryIdempotencyStore(idempotencyTTL),
				CatalogConsumerGroup,
				catalog.Handle,
				logger,
			), logger)
		}
		logger.Info("kafka events enabled", slog.Any("brokers", cfg.KafkaBrokers))
	}

	if cfg.EmbeddingServiceURL != "" {
		emb := embedding.NewClient(cfg.EmbeddingServiceURL, cfg.EmbeddingTimeout, logger)
		opts = append(opts, service.WithReranker(emb))
		healthHandler.RegisterOptional("embedding", func(ctx context.Context) error {
			if !emb.Available(ctx) {
				return errors.New(errEmbeddingDown)
			}
			return nil
		})
	}

	svc := service.NewSmartSearch(parser, products, logger, opts...)
	healthHandler.Register("product_store", svc.Ready)

	router := handler.NewRouter(svc, healthHandler, handler.RouterConfig{
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RequestTimeout:     cfg.RequestTimeout,
		PprofEnabled:       cfg.PprofEnabled,
		PprofAllowedCIDRs:  cfg.PprofAllowedCIDRs,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	}, logger)

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return a, nil
}

// openStore builds the configured product store. The returned indexer is nil
// when the store does not accept writes.
func (a *App) openStore(ctx context.Context, hh *health.Handler) (store.ProductStore, event.Indexer, error) {
	cfg, logger := a.cfg, a.logger

	switch cfg.ProductStore {
	case config.StorePostgres:
		pgCfg := database.DefaultPostgresConfig(cfg.DatabaseURL)
		pgCfg.MaxConns = cfg.DBMaxConns
		pgCfg.MinConns = cfg.DBMinConns
		pool, err := database.NewPostgresPool(ctx, pgCfg, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.pool = pool
		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			return nil, nil, fmt.Errorf("run migrations: %w", err)
		}
		database.RegisterPoolMetrics(pool, handler.ServiceName)
		hh.Register("postgres", pool.Ping)
		logger.Info("postgres product store initialized")
		return pgstore.New(pool), nil, nil

	case config.StoreElasticsearch:
		es, err := esstore.New(ctx, cfg.ElasticsearchURL, cfg.ElasticsearchIndex, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("init elasticsearch store: %w", err)
		}
		hh.Register("elasticsearch", es.Ping)
		logger.Info("elasticsearch product store initialized",
			slog.String("url", cfg.ElasticsearchURL),
			slog.String("index", cfg.ElasticsearchIndex),
		)
		return es, es, nil

	default:
		mem := memory.New()
		logger.Info("in-memory product store initialized")
		return mem, mem, nil
	}
}

// loadCatalog upserts the products of a JSON array file into indexer.
func loadCatalog(ctx context.Context, path string, indexer event.Indexer, logger *slog.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open catalogue: %w", err)
	}
	defer f.Close()

	var products []domain.Product
	if err := json.NewDecoder(f).Decode(&products); err != nil {
		return fmt.Errorf("decode catalogue %s: %w", path, err)
	}
	if err := indexer.Upsert(ctx, products); err != nil {
		return fmt.Errorf("index catalogue: %w", err)
	}
	logger.Info("catalogue loaded", slog.String("file", path), slog.Int("products", len(products)))
	return nil
}

// Handler returns the HTTP handler served by the application.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and the catalogue consumer, blocking until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(shutdownCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.tracerShutdown = nil
	}
	errs = append(errs, a.closeResources())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

// closeResources releases connections. It is safe to call more than once.
func (a *App) closeResources() error {
	var errs []error
	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.consumer = nil
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
		a.producer = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, err)
		}
		a.redis = nil
	}
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
	return errors.Join(errs...)
}
