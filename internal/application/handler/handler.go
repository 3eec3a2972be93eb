// Package handler applies sign events from the stream to the read store.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/config"
	"github.com/TemirB/bankid-sign/internal/domain"
	"github.com/TemirB/bankid-sign/internal/observability"
	"github.com/TemirB/bankid-sign/internal/pkg/retry"
)

//go:generate mockgen -source=handler.go -destination=handler_mock_test.go -package=handler

var (
	ErrBadJSON     = errors.New("bad json")
	ErrUpsert      = errors.New("upsert failed")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

type Store interface {
	Upsert(ctx context.Context, sign *domain.Sign) error
	DeleteByOrderRef(ctx context.Context, orderRef string) error
}

type brk interface {
	Allow() error
	Success()
	Failure()
}

type Handler struct {
	store       Store
	breaker     brk
	metrics     observability.Metrics
	logger      *zap.Logger
	retryPolicy config.Retry
}

func NewHandler(store Store, breaker brk, retryPolicy config.Retry, metrics observability.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		store:       store,
		breaker:     breaker,
		metrics:     metrics,
		logger:      logger,
		retryPolicy: retryPolicy,
	}
}

// Handle applies one sign event. The consumer commits the offset only when
// nil is returned.
func (h *Handler) Handle(ctx context.Context, message kafkago.Message) error {
	if err := h.breaker.Allow(); err != nil {
		h.logger.Warn("circuit breaker is open",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	var ev domain.SignEvent
	if err := json.Unmarshal(message.Value, &ev); err != nil {
		h.logger.Error("bad json format",
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrBadJSON
	}
	if ev.Sign.OrderRef == "" {
		h.logger.Error("missing orderRef",
			zap.String("event_id", ev.ID),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return ErrBadJSON
	}

	var apply func() error
	switch ev.Type {
	case domain.EventRecorded:
		apply = func() error { return h.store.Upsert(ctx, &ev.Sign) }
	case domain.EventDeleted:
		apply = func() error { return h.store.DeleteByOrderRef(ctx, ev.Sign.OrderRef) }
	default:
		h.logger.Warn("skipping unknown event type",
			zap.String("event_id", ev.ID),
			zap.String("type", string(ev.Type)),
		)
		h.breaker.Success()
		return nil
	}

	t0 := time.Now()
	if err := retry.Do(ctx, h.retryPolicy, apply); err != nil {
		h.logger.Error("applying event failed after retries",
			zap.String("event_id", ev.ID),
			zap.String("order_ref", ev.Sign.OrderRef),
			zap.Error(err),
			zap.Int("partition", message.Partition),
			zap.Int64("offset", message.Offset),
		)
		h.breaker.Failure()
		return fmt.Errorf("%w: %v", ErrUpsert, err)
	}
	h.metrics.ObserveUpsert(float64(time.Since(t0).Microseconds()) / 1000)

	h.breaker.Success()
	h.logger.Info("sign event applied",
		zap.String("event_id", ev.ID),
		zap.String("type", string(ev.Type)),
		zap.String("order_ref", ev.Sign.OrderRef),
		zap.Int("partition", message.Partition),
		zap.Int64("offset", message.Offset),
	)
	return nil
}
