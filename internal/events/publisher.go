package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher drains the outbox into a kafka topic. A service without
// brokers configured runs with a nil Publisher and events stay queued.
type Publisher struct {
	writer *kafka.Writer
	outbox *Outbox
	log    *zap.Logger
}

func NewPublisher(brokers, topic string, outbox *Outbox, log *zap.Logger) *Publisher {
	addrs := strings.Split(strings.TrimSpace(brokers), ",")
	writer := &kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Publisher{
		writer: writer,
		outbox: outbox,
		log:    log.Named("events.publisher"),
	}
}

// Drain publishes pending outbox rows. A delivery failure stops the
// drain; undelivered rows stay pending for the next pass.
func (p *Publisher) Drain(ctx context.Context, limit int) (int, error) {
	rows, err := p.outbox.Pending(ctx, limit)
	if err != nil {
		return 0, err
	}

	published := 0
	for _, row := range rows {
		value, err := json.Marshal(map[string]any{
			"event_id":   row.ID.String(),
			"event_type": row.EventType,
			"payload":    map[string]any(row.Payload),
			"created_at": row.CreatedAt,
		})
		if err != nil {
			p.log.Error("marshal event", zap.String("event_id", row.ID.String()), zap.Error(err))
			continue
		}

		msg := kafka.Message{
			Key:   []byte(row.ID.String()),
			Value: value,
		}
		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.log.Error("publish event",
				zap.String("event_id", row.ID.String()),
				zap.String("event_type", row.EventType),
				zap.Error(err))
			return published, err
		}
		if err := p.outbox.MarkPublished(ctx, row.ID); err != nil {
			return published, err
		}
		published++
	}
	return published, nil
}

// Close flushes and closes the kafka writer.
func (p *Publisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
