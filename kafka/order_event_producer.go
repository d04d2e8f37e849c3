package kafka

import (
	"context"
	"encoding/json"

	"github.com/harvestlane/marketplace/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// OrderEventProducer publishes settlement events keyed by order id.
type OrderEventProducer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewOrderEventProducer(brokers []string, topic string, logger *zap.Logger) *OrderEventProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("Kafka order event producer initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers),
	)
	return &OrderEventProducer{writer: w, topic: topic, logger: logger}
}

func (p *OrderEventProducer) SendOrderSettled(event models.OrderSettledEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
	}
	if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
		p.logger.Error("Failed to send order settled event",
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
		return err
	}

	p.logger.Info("Order settled event published",
		zap.String("order_id", event.OrderID),
		zap.String("vendor_id", event.VendorID),
	)
	return nil
}

func (p *OrderEventProducer) Close() {
	_ = p.writer.Close()
}
