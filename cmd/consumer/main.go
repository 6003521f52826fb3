package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/zenscape/internal/cache"
	"example.com/zenscape/internal/config"
	"example.com/zenscape/internal/consumer"
	httptransport "example.com/zenscape/internal/transport/http"
)

func main() {
	cfg := config.Load()
	logger := log.New(log.Writer(), "[zenscape-consumer] ", log.LstdFlags|log.Lshortfile)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	handlers := consumer.MultiHandler{consumer.NewPersistenceHandler(pool)}
	if redisStore, err := cache.NewRedisStore(ctx, cfg.RedisURL); err != nil {
		logger.Printf("redis unavailable, streak invalidation disabled: %v", err)
	} else {
		defer redisStore.Close()
		handlers = append(handlers, consumer.NewStreakInvalidationHandler(redisStore))
	}

	metricsCfg := httptransport.DefaultServerConfig(cfg.MetricsAddress)
	metricsSrv := httptransport.NewServer(metricsCfg, promhttp.Handler())
	go func() {
		if err := httptransport.Run(ctx, metricsSrv, metricsCfg.ShutdownTimeout, logger); err != nil {
			logger.Printf("metrics server error: %v", err)
		}
	}()

	reader := consumer.NewKafkaReader(cfg.KafkaBrokers, cfg.ConsumerGroupID, cfg.ConsumerTopics)
	defer reader.Close()

	logger.Printf("consumer started (topics=%v, group=%s)", cfg.ConsumerTopics, cfg.ConsumerGroupID)
	proc := consumer.NewProcessor(reader, handlers, consumer.WithLogger(logger))
	if err := proc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Printf("consumer stopped with error: %v", err)
	}
	logger.Println("consumer shutdown complete")
}
