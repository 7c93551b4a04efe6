package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/gosplit/internal/adapter/http"
	"github.com/iho/gosplit/internal/adapter/http/handler"
	"github.com/iho/gosplit/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/gosplit/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/gosplit/internal/adapter/repository/redis"
	"github.com/iho/gosplit/internal/domain"
	"github.com/iho/gosplit/internal/infrastructure/config"
	"github.com/iho/gosplit/internal/infrastructure/eventpublisher"
	"github.com/iho/gosplit/internal/infrastructure/logger"
	"github.com/iho/gosplit/internal/infrastructure/metrics"
	"github.com/iho/gosplit/internal/infrastructure/postgres"
	"github.com/iho/gosplit/internal/infrastructure/redis"
	"github.com/iho/gosplit/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "gosplit",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// Run migrations
	if cfg.RunMigrations {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	var redisClient *goredis.Client
	if cfg.RedisEnabled && cfg.RedisURL != "" {
		redisClient, err = redis.NewClient(ctx, redis.Config{
			URL:      cfg.RedisURL,
			PoolSize: cfg.RedisPoolSize,
			Timeout:  cfg.RedisTimeout,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisClient.Close()
		log.Info().Msg("connected to redis")
	} else {
		log.Warn().Msg("redis disabled; caching and idempotency are off")
	}

	m := metrics.New()
	clock := domain.SystemClock{}

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool, postgresRepo.WithTxMetrics(m))
	orderRepo := postgresRepo.NewOrderRepository(pool, m)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator(clock)
	retrier := postgresRepo.NewRetrier(log)

	var (
		cache            usecase.Cache
		idempotencyStore usecase.IdempotencyStore
	)
	if redisClient != nil {
		cache = redisRepo.NewCache(redisClient)
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
	}

	// Initialize use cases
	splitOpts := []usecase.SplitOption{
		usecase.WithRetrier(retrier),
		usecase.WithStrictParticipantMatch(cfg.StrictParticipantMatch),
		usecase.WithMetrics(m),
	}
	if cache != nil {
		splitOpts = append(splitOpts, usecase.WithCache(cache, cfg.CacheTTL))
	}
	splitUC := usecase.NewSplitUseCase(txManager, orderRepo, outboxRepo, idGen, newEngine(cfg), clock, splitOpts...)
	historyUC := usecase.NewHistoryUseCase(txManager, orderRepo, outboxRepo, idGen, clock, cache, m)

	// Start outbox publisher
	publisher, closePublisher, err := newPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer closePublisher()

	ep := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  publisher,
		Logger:     log,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  7 * 24 * time.Hour,
	})
	publisherDone := make(chan struct{})
	go func() {
		defer close(publisherDone)
		if err := ep.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event publisher stopped")
		}
	}()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst).WithMetrics(m)
	go cleanupLimiters(ctx, rateLimiter)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		SplitHandler:     handler.NewSplitHandler(splitUC),
		HistoryHandler:   handler.NewHistoryHandler(historyUC),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Logger:           log,
		Metrics:          m,
		CORSOrigins:      cfg.CORSAllowedOrigins,
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	<-publisherDone

	return nil
}

// newEngine builds the allocation engine from the split settings.
func newEngine(cfg *config.Config) *domain.AllocationEngine {
	return domain.NewAllocationEngine(
		domain.WithRounding(cfg.Rounding()),
		domain.WithRoundingUnit(cfg.RoundingUnit),
		domain.WithDriftSelector(domain.NewRandomSelector()),
	)
}

// newPublisher picks Kafka when brokers are configured and logging otherwise.
// The returned close func is always safe to call.
func newPublisher(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		log.Info().Msg("KAFKA_BROKERS is empty; outbox events will be logged")
		return eventpublisher.NewLogPublisher(log), func() {}, nil
	}

	kp, err := eventpublisher.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
	if err != nil {
		return nil, nil, err
	}
	log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing outbox events to kafka")

	return kp, func() {
		if err := kp.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close kafka publisher")
		}
	}, nil
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(time.Hour)
		}
	}
}
