package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/bankid-sign/internal/domain"
)

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher emits sign events keyed by orderRef, so every event for an order
// lands on one partition.
type Publisher struct {
	writer Writer
	logger *zap.Logger
}

func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func NewPublisher(w Writer, logger *zap.Logger) *Publisher {
	return &Publisher{writer: w, logger: logger}
}

func (p *Publisher) Publish(ctx context.Context, ev domain.SignEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal sign event: %w", err)
	}
	msg := kafkago.Message{
		Key:   []byte(ev.Sign.OrderRef),
		Value: value,
		Time:  ev.OccurredAt,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(ev.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	p.logger.Debug("sign event published",
		zap.String("event_id", ev.ID),
		zap.String("type", string(ev.Type)),
		zap.String("order_ref", ev.Sign.OrderRef),
	)
	return nil
}

func (p *Publisher) Close() error { return p.writer.Close() }

// Noop is used when no brokers are configured.
type Noop struct{}

func (Noop) Publish(context.Context, domain.SignEvent) error { return nil }
func (Noop) Close() error { return nil }
