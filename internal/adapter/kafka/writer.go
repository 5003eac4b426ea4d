package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/beachhub-recommender/internal/config"
	"github.com/couchcryptid/beachhub-recommender/internal/domain"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes recommendation snapshots to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured snapshot topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes one snapshot as a single WriteMessages call. Every
// message in the batch shares a snapshot_id header.
func (w *Writer) LoadBatch(ctx context.Context, items []domain.RecommendationItem) error {
	if len(items) == 0 {
		return nil
	}
	snapshotID := uuid.NewString()
	msgs := make([]kafkago.Message, len(items))
	for i := range items {
		msg, err := serializeToMessage(items[i], snapshotID)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snapshotID, err)
	}
	w.logger.Debug("snapshot written", "snapshot_id", snapshotID, "items", len(items))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a RecommendationItem into a Kafka message keyed by beach id.
func serializeToMessage(item domain.RecommendationItem, snapshotID string) (kafkago.Message, error) {
	data, err := json.Marshal(item)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize recommendation: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(item.Beach.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "snapshot_id", Value: []byte(snapshotID)},
			{Key: "safety_score", Value: []byte(strconv.Itoa(int(item.Safety)))},
			{Key: "updated_at", Value: []byte(item.Meta.UpdatedAt.Format(time.RFC3339))},
		},
	}, nil
}
