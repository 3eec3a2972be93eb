// Command replay publishes a "recorded" event for every sign held by the
// signs API, so a fresh projector database can catch up.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/config"
	"github.com/TemirB/bankid-sign/internal/domain"
	"github.com/TemirB/bankid-sign/internal/kafka"
	"github.com/TemirB/bankid-sign/internal/logger"
	"github.com/TemirB/bankid-sign/internal/signsapi"
)

func main() {
	rate := flag.Int("rate", 50, "events per second")
	search := flag.String("search", "", "only replay signs matching this text")
	dryRun := flag.Bool("dry-run", false, "list what would be published")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if len(cfg.Kafka.Brokers) == 0 && !*dryRun {
		log.Fatal("KAFKA_BROKERS is required")
	}
	if *rate < 1 {
		*rate = 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	signs, err := signsapi.New(cfg.Signs.APIURL, log.Named("signsapi")).List(ctx)
	if err != nil {
		log.Fatal("can't list signs", zap.Error(err))
	}
	signs = domain.FilterSigns(signs, *search)
	log.Info("replaying signs", zap.Int("count", len(signs)), zap.Int("rate", *rate))

	if *dryRun {
		for _, s := range signs {
			log.Info("would publish", zap.Int64("id", s.ID), zap.String("order_ref", s.OrderRef), zap.String("status", s.Status))
		}
		return
	}

	pub := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic), log.Named("kafka"))
	defer func() { _ = pub.Close() }()

	ticker := time.NewTicker(time.Second / time.Duration(*rate))
	defer ticker.Stop()

	sent := 0
	// oldest first, so the projector sees them in creation order
	for i := len(signs) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			log.Info("replay interrupted", zap.Int("sent", sent))
			return
		case <-ticker.C:
		}
		if err := pub.Publish(ctx, domain.NewSignEvent(domain.EventRecorded, signs[i])); err != nil {
			log.Error("publish failed", zap.String("order_ref", signs[i].OrderRef), zap.Error(err))
			continue
		}
		sent++
	}
	log.Info("replay completed", zap.Int("sent", sent), zap.Int("failed", len(signs)-sent))
}
