package kafka

import (
	"context"
	"errors"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/observability"
	"github.com/TemirB/bankid-sign/internal/pkg/pool"
)

const (
	idleBackoff   = 10 * time.Second
	fetchBackoff  = 500 * time.Millisecond
	handleBackoff = 200 * time.Millisecond
)

//go:generate mockgen -source=consumer.go -destination=consumer_mock_test.go -package=kafka

type MessageHandler interface {
	Handle(ctx context.Context, msg kafkago.Message) error
}

type Reader interface {
	Config() kafkago.ReaderConfig
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
}

// Consumer hands each fetched message to a worker and commits it only after
// the handler succeeded, so offsets advance in fetch order.
type Consumer struct {
	handler MessageHandler
	reader  Reader
	metrics observability.Metrics
	logger  *zap.Logger

	workers int
	backoff func(context.Context, time.Duration)
}

func NewConsumer(handler MessageHandler, reader Reader, workers int, metrics observability.Metrics, logger *zap.Logger) *Consumer {
	if workers < 1 {
		workers = 1
	}
	return &Consumer{
		handler: handler,
		reader:  reader,
		metrics: metrics,
		logger:  logger,
		workers: workers,
		backoff: sleepWithContext,
	}
}

// Start blocks until ctx is done.
func (c *Consumer) Start(ctx context.Context) {
	rc := c.reader.Config()
	c.logger.Info("starting sign events consumer",
		zap.Strings("brokers", rc.Brokers),
		zap.String("group", rc.GroupID),
		zap.String("topic", rc.Topic),
		zap.Int("workers", c.workers),
	)

	p := pool.New(c.workers)
	defer func() {
		p.Close()
		p.Wait()
	}()

	for ctx.Err() == nil {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return
			}
			if isBenignFetchTimeout(err) {
				c.logger.Debug("fetch timeout (idle), backing off", zap.Error(err))
				c.backoff(ctx, idleBackoff)
				continue
			}
			c.logger.Warn("fetch failed, backing off", zap.Error(err))
			c.backoff(ctx, fetchBackoff)
			continue
		}

		done := make(chan error, 1)
		p.Submit(func() { done <- c.handle(ctx, msg) })

		var procErr error
		select {
		case procErr = <-done:
		case <-ctx.Done():
			return
		}

		if procErr != nil {
			c.logger.Error("handler failed; message will not be committed",
				append(msgFields(msg), zap.Error(procErr))...)
			c.backoff(ctx, handleBackoff)
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Warn("commit failed", append(msgFields(msg), zap.Error(err))...)
			c.backoff(ctx, handleBackoff)
			continue
		}
		c.logger.Debug("message committed", msgFields(msg)...)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafkago.Message) error {
	start := time.Now()
	err := c.handler.Handle(ctx, msg)
	elapsed := time.Since(start)
	c.metrics.ObserveKafka(float64(elapsed.Microseconds())/1000, err == nil)

	if err == nil {
		c.logger.Debug("message handled",
			append(msgFields(msg),
				zap.String("key", string(msg.Key)),
				zap.Int("value_bytes", len(msg.Value)),
				zap.Duration("elapsed", elapsed),
			)...)
	}
	return err
}

func msgFields(msg kafkago.Message) []zap.Field {
	return []zap.Field{
		zap.String("topic", msg.Topic),
		zap.Int("partition", msg.Partition),
		zap.Int64("offset", msg.Offset),
	}
}

func sleepWithContext(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func isBenignFetchTimeout(err error) bool {
	s := err.Error()
	return strings.Contains(s, "Request Timed Out") ||
		strings.Contains(s, "no messages received from kafka within the allocated time")
}
