// Command projector keeps a Postgres copy of the signs in step with the
// sign events topic.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/application/handler"
	"github.com/TemirB/bankid-sign/internal/config"
	"github.com/TemirB/bankid-sign/internal/database"
	"github.com/TemirB/bankid-sign/internal/kafka"
	"github.com/TemirB/bankid-sign/internal/logger"
	"github.com/TemirB/bankid-sign/internal/observability"
	"github.com/TemirB/bankid-sign/internal/pkg/breaker"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.ValidateProjector(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DSN(), log.Named("pgx"))
	if err != nil {
		log.Fatal("can't connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	repo := database.New(pool, cfg.Tables)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatal("can't ensure schema", zap.Error(err))
	}

	if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, 3, 1, log); err != nil {
		log.Fatal("can't ensure topic", zap.Error(err))
	}

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		GroupID:     cfg.Kafka.Group,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})
	defer func() {
		if err := reader.Close(); err != nil {
			log.Warn("can't close reader", zap.Error(err))
		}
	}()

	metrics := observability.NewNoop()
	h := handler.NewHandler(repo, breaker.New(cfg.Breaker), cfg.Retry, metrics, log.Named("handler"))
	consumer := kafka.NewConsumer(h, reader, cfg.Kafka.Workers, metrics, log.Named("consumer"))

	consumer.Start(ctx)
	log.Info("projector stopped")
}
