// Package events publishes fetched highlights to Kafka for archiving.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/goalkick-live/backend/internal/logger"
	"github.com/goalkick-live/backend/internal/models"
)

const providerHeader = "provider"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per highlight, keyed by highlight id.
type KafkaPublisher struct {
	writer messageWriter
	log    *slog.Logger
}

// NewKafkaPublisher creates an asynchronous publisher for topic.
func NewKafkaPublisher(brokers []string, topic string, log *slog.Logger) *KafkaPublisher {
	log = logger.OrDiscard(log)

	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 200 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn("highlight events delivery failed", slog.Int("count", len(messages)), slog.Any("err", err))
			}
		},
	}
	return newKafkaPublisher(w, log)
}

func newKafkaPublisher(w messageWriter, log *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, log: logger.OrDiscard(log)}
}

// PublishHighlights enqueues items for delivery.
func (p *KafkaPublisher) PublishHighlights(ctx context.Context, items []models.Highlight) error {
	if len(items) == 0 {
		return nil
	}

	msgs, err := Encode(items)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write highlight events: %w", err)
	}
	p.log.Debug("highlight events published", slog.Int("count", len(msgs)))
	return nil
}

// Close flushes pending messages.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// Encode converts highlights into Kafka messages.
func Encode(items []models.Highlight) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(items))
	for _, h := range items {
		value, err := json.Marshal(h)
		if err != nil {
			return nil, fmt.Errorf("encode highlight %s: %w", h.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(h.ID),
			Value:   value,
			Headers: []kafka.Header{{Key: providerHeader, Value: []byte(h.Provider)}},
		})
	}
	return msgs, nil
}

// Decode reads a highlight back from a message. The provider header fills in a
// missing provider field.
func Decode(msg kafka.Message) (models.Highlight, error) {
	var h models.Highlight
	if err := json.Unmarshal(msg.Value, &h); err != nil {
		return models.Highlight{}, fmt.Errorf("decode highlight: %w", err)
	}
	if h.Provider == "" {
		for _, hdr := range msg.Headers {
			if hdr.Key == providerHeader {
				h.Provider = models.Provider(hdr.Value)
			}
		}
	}
	if strings.TrimSpace(h.Title) == "" {
		return models.Highlight{}, errors.New("highlight without title")
	}
	return h, nil
}
