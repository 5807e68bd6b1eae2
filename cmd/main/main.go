package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"order_service/internal/api"
	"order_service/internal/cache"
	"order_service/internal/config"
	"order_service/internal/database"
	"order_service/internal/kafka"
	"order_service/internal/repository"
	"order_service/internal/tracing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Info().Msg("starting order service")

	cfg := config.Get()

	// Трассировка
	shutdownTracing := tracing.InitTracerProvider("order-service", cfg.Jaeger.URL)
	defer shutdownTracing()

	// Хранилище (+ миграции)
	storage, err := database.New(cfg.Postgres.URL, cfg.Postgres.MigrationsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init storage")
	}
	defer storage.Close()

	// Кэш + прогрев
	orderCache := cache.NewLRUCache(cfg.Cache.Size)
	if err := cache.WarmUp(context.Background(), storage, orderCache); err != nil {
		log.Error().Err(err).Msg("cache warmup failed")
	}

	// Репозиторий - единственная точка доступа к заказам
	repo := repository.New(storage, orderCache)

	// Kafka consumer
	ctx, cancel := context.WithCancel(context.Background())
	consumer := kafka.NewConsumer(cfg.Kafka, repo)
	go consumer.Run(ctx)

	// HTTP-сервер
	server := api.NewServer(cfg.HTTP.Port, repo)
	go func() {
		if err := server.Run(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Ожидание сигнала для корректного завершения работы
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	log.Info().Msg("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server shutdown failed")
	}
	log.Info().Msg("service stopped")
}
