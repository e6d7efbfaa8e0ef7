package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/wildfire-data-etl/internal/config"
	"github.com/couchcryptid/wildfire-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes snapshot features to a Kafka topic, one message per detection.
// It implements pipeline.Publisher.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured detections topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes every feature of the snapshot and writes them in a
// single WriteMessages call. An empty snapshot publishes nothing.
func (w *Writer) Publish(ctx context.Context, snap domain.Snapshot, cycleID string) error {
	if len(snap.Features) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(snap.Features))
	for i := range snap.Features {
		msg, err := serializeToMessage(snap.Features[i], snap.Metadata, cycleID)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d detections: %w", len(msgs), err)
	}
	w.logger.Debug("snapshot published", "count", len(msgs), "cycle_id", cycleID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a snapshot feature into a Kafka message keyed
// by detection ID.
func serializeToMessage(f domain.Feature, meta domain.SnapshotMetadata, cycleID string) (kafkago.Message, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize detection: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(f.Properties.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "satellite", Value: []byte(f.Properties.Satellite)},
			{Key: "region", Value: []byte(meta.Region)},
			{Key: "generated_at", Value: []byte(meta.GeneratedAt)},
			{Key: "cycle_id", Value: []byte(cycleID)},
		},
	}, nil
}
