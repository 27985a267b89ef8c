package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig configures the Kafka publisher.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes SlotsProposed events as JSON, keyed by run ID so all
// messages for one run land on the same partition.
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	logger  *slog.Logger
}

// NewKafkaPublisher creates a synchronous writer on cfg.Topic.
func NewKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 2 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: cfg.WriteTimeout,
		Async:        false,
	}
	return newKafkaPublisher(w, cfg.WriteTimeout, logger), nil
}

func newKafkaPublisher(w messageWriter, timeout time.Duration, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer:  w,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "kafka-publisher")),
	}
}

// PublishSlotsProposed encodes and writes one event.
func (p *KafkaPublisher) PublishSlotsProposed(ctx context.Context, evt SlotsProposed) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("encode slots proposed: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(evt.RunID),
		Value: payload,
		Time:  evt.GeneratedAt,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte("slots.proposed")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write slots proposed: %w", err)
	}
	p.logger.Debug("slots proposed published", slog.String("run_id", evt.RunID), slog.Int("slots", len(evt.Slots)))
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
