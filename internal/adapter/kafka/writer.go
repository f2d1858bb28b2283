package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/forecast-service/internal/config"
	"github.com/couchcryptid/forecast-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the part of kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes forecast results to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured results topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, topic: cfg.KafkaTopic, logger: logger}
}

// Publish serializes one forecast result and writes it to the topic. Results
// for the same ZIP share a key and therefore a partition.
func (w *Writer) Publish(ctx context.Context, result domain.ForecastResult) error {
	msg, err := serializeToMessage(result)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write forecast result to %s: %w", w.topic, err)
	}
	w.logger.Debug("forecast result published", "topic", w.topic, "key", string(msg.Key))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ForecastResult into a Kafka message.
func serializeToMessage(result domain.ForecastResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast result: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(messageKey(result)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "location", Value: []byte(result.Location)},
			{Key: "retrieved_at", Value: []byte(result.RetrievedAt.Format(time.RFC3339))},
		},
	}, nil
}

// messageKey is the ZIP when known; geocoded places fall back to the display name.
func messageKey(result domain.ForecastResult) string {
	if result.Place.Zip != "" {
		return result.Place.Zip
	}
	return result.Location
}
