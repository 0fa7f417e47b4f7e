package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const orderEventsTopic = "order-events"

type Producer struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewProducer(brokers string, logger *zap.Logger) (*Producer, error) {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers),
		Topic:    orderEventsTopic,
		Balancer: &kafka.LeastBytes{},
	}

	return &Producer{
		writer: writer,
		logger: logger,
	}, nil
}

func (p *Producer) PublishOrderFinalized(event OrderFinalizedEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		p.logger.Error("Failed to marshal order finalized event", zap.Error(err))
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: eventBytes,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish order finalized event",
			zap.String("event_id", event.EventID),
			zap.String("order_id", event.OrderID),
			zap.Error(err))
		return err
	}

	p.logger.Info("Order finalized event published",
		zap.String("event_id", event.EventID),
		zap.String("order_id", event.OrderID),
		zap.String("status", event.Status))

	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
