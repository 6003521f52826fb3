package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/zenscape/internal/api"
	"example.com/zenscape/internal/auth"
	"example.com/zenscape/internal/cache"
	"example.com/zenscape/internal/catalog"
	"example.com/zenscape/internal/chat"
	"example.com/zenscape/internal/config"
	"example.com/zenscape/internal/domain"
	"example.com/zenscape/internal/outbox"
	"example.com/zenscape/internal/persistence/memory"
	"example.com/zenscape/internal/persistence/postgres"
	httptransport "example.com/zenscape/internal/transport/http"
)

// store is the cache surface shared by the streak cache and token revocation.
type store interface {
	domain.StreakCache
	api.TokenRevoker
	Close() error
}

func main() {
	cfg := config.Load()
	logger := log.New(log.Writer(), "[zenscape-api] ", log.LstdFlags|log.Lshortfile)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		repo       domain.Repository
		dispatcher *outbox.Dispatcher
	)
	switch cfg.Store {
	case config.StoreMemory:
		logger.Printf("using in-memory store; data is lost on exit")
		repo = memory.NewRepository()
	default:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			logger.Fatalf("failed to connect to postgres: %v", err)
		}
		defer pool.Close()
		repo = postgres.NewRepository(pool)

		producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
		defer producer.Close()
		registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
		dispatcher = outbox.NewDispatcher(pool, producer, registry, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
		go dispatcher.Start(ctx)
	}

	cacheStore := openCache(ctx, cfg, logger)
	defer cacheStore.Close()

	service := domain.NewService(repo,
		domain.WithLocation(cfg.Location()),
		domain.WithStreakCache(cacheStore),
	)

	cat, err := catalog.Load(cfg.AudioBaseURL)
	if err != nil {
		logger.Fatalf("failed to load catalog: %v", err)
	}

	opts := []api.Option{
		api.WithCatalog(cat),
		api.WithRevoker(cacheStore),
		api.WithChatRateLimit(cfg.Chat.RatePerMinute),
	}
	if cfg.Chat.APIKey != "" {
		generator := chat.NewOpenAIGenerator(chat.OpenAIConfig{
			BaseURL:     cfg.Chat.BaseURL,
			APIKey:      cfg.Chat.APIKey,
			Model:       cfg.Chat.Model,
			MaxTokens:   cfg.Chat.MaxTokens,
			Temperature: cfg.Chat.Temperature,
			HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		})
		opts = append(opts, api.WithCompanion(chat.NewCompanion(generator)))
	} else {
		logger.Printf("CHAT_API_KEY not set; chat is disabled")
	}

	authCfg := auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer, TTL: cfg.JWTTTL}
	handler := api.NewHandler(service, authCfg, opts...)

	serverCfg := httptransport.DefaultServerConfig(cfg.HTTPAddress)
	server := httptransport.NewServer(serverCfg, handler.Routes(cfg.CORSOrigin))
	metricsSrv := httptransport.NewServer(httptransport.DefaultServerConfig(cfg.MetricsAddress), promhttp.Handler())

	go func() {
		if err := httptransport.Run(ctx, metricsSrv, serverCfg.ShutdownTimeout, logger); err != nil {
			logger.Printf("metrics server error: %v", err)
		}
	}()

	if err := httptransport.Run(ctx, server, serverCfg.ShutdownTimeout, logger); err != nil {
		logger.Printf("server error: %v", err)
		cancel()
	}

	if dispatcher != nil {
		dispatcher.Wait()
	}
	logger.Printf("shutdown complete")
}

// openCache prefers Redis and falls back to the in-process store.
func openCache(ctx context.Context, cfg config.Config, logger *log.Logger) store {
	if cfg.Store == config.StoreMemory || cfg.RedisURL == "" {
		return cache.NewLocalStore()
	}
	redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		logger.Printf("redis unavailable, using local cache: %v", err)
		return cache.NewLocalStore()
	}
	return redisStore
}
