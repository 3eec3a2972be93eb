package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/application/service"
	"github.com/TemirB/bankid-sign/internal/bankid"
	"github.com/TemirB/bankid-sign/internal/cache"
	"github.com/TemirB/bankid-sign/internal/config"
	"github.com/TemirB/bankid-sign/internal/database"
	"github.com/TemirB/bankid-sign/internal/httpapi"
	"github.com/TemirB/bankid-sign/internal/kafka"
	"github.com/TemirB/bankid-sign/internal/logger"
	"github.com/TemirB/bankid-sign/internal/observability"
	"github.com/TemirB/bankid-sign/internal/session"
	"github.com/TemirB/bankid-sign/internal/signsapi"
)

const metricsWindow = 500

type publisher interface {
	service.Publisher
	Close() error
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config, log *zap.Logger) error {
	metrics := observability.NewInmem(metricsWindow)

	lru, err := cache.New(cfg.CacheCap)
	if err != nil {
		return err
	}

	var storage service.Storage
	switch cfg.Signs.Backend {
	case config.BackendPostgres:
		pool, err := database.Connect(ctx, cfg.DSN(), log.Named("pgx"))
		if err != nil {
			return err
		}
		defer pool.Close()

		repo := database.New(pool, cfg.Tables)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		lru.Warm(ctx, repo)
		log.Info("cache warmed", zap.Int("entries", lru.Len()))
		storage = repo
	default:
		storage = signsapi.New(cfg.Signs.APIURL, log.Named("signsapi"))
	}

	var pub publisher = kafka.Noop{}
	if len(cfg.Kafka.Brokers) > 0 {
		if err := kafka.EnsureTopic(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, 3, 1, log); err != nil {
			log.Warn("can't ensure kafka topic", zap.Error(err))
		}
		pub = kafka.NewPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), log.Named("kafka"))
	}
	defer func() {
		if err := pub.Close(); err != nil {
			log.Warn("can't close publisher", zap.Error(err))
		}
	}()

	client, err := bankid.New(cfg.BankID, log.Named("bankid"))
	if err != nil {
		return err
	}

	signs := service.NewSignService(lru, storage, pub, cfg.Retry, log.Named("signs"), metrics)
	signer := service.NewSigningService(client, signs, service.SigningOptions{
		UserVisibleData: cfg.BankID.UserVisibleData,
		RedirectURL:     cfg.BankID.RedirectURL,
	}, log.Named("signing"), metrics)
	sessions := session.New(cfg.Cookie, cfg.Production())

	srv := httpapi.New(signs, signer, sessions, log.Named("http"), metrics)
	log.Info("starting",
		zap.String("env", cfg.Env),
		zap.String("bankid_url", cfg.BankID.URL),
		zap.String("signs_backend", cfg.Signs.Backend),
		zap.Strings("kafka_brokers", cfg.Kafka.Brokers),
	)
	if err := srv.ListenAndServe(ctx, cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
