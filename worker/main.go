package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/goalkick-live/backend/internal/cache"
	"github.com/goalkick-live/backend/internal/config"
	"github.com/goalkick-live/backend/internal/elasticsearch"
	"github.com/goalkick-live/backend/internal/events"
	"github.com/goalkick-live/backend/internal/logger"
	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/processing"
)

type highlightIndexer interface {
	IndexHighlight(ctx context.Context, doc models.ArchivedHighlight) error
}

func main() {
	log := logger.New("worker")
	cfg, err := config.LoadWorker()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	esClient, err := elasticsearch.New(cfg.ElasticsearchAddr, cfg.ElasticsearchIndex, log)
	if err != nil {
		log.Error("init elasticsearch", slog.Any("err", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := esClient.EnsureIndex(ctx); err != nil {
		log.Warn("ensure archive index", slog.Any("err", err))
	}

	seen := cache.NewMemory(cfg.DedupeCapacity, cfg.DedupeTTL)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.KafkaConsumer,
		QueueCapacity:  cfg.BatchSize,
		MinBytes:       1e3,
		MaxBytes:       10e6,
		CommitInterval: 0,
	})
	defer reader.Close()

	dlqTopic := cfg.Topic + "_dlq"
	dlqWriter := kafka.NewWriter(kafka.WriterConfig{
		Brokers:     cfg.Brokers,
		Topic:       dlqTopic,
		MaxAttempts: 3,
	})
	defer dlqWriter.Close()

	log.Info("worker started",
		slog.String("topic", cfg.Topic),
		slog.String("group", cfg.KafkaConsumer),
		slog.String("dlq_topic", dlqTopic),
	)

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("context canceled, stopping")
				return
			}
			log.Error("fetch message", slog.Any("err", err))
			continue
		}

		if err := processMessage(ctx, log, esClient, seen, cfg, msg); err != nil {
			log.Warn("process message failed, sending to DLQ",
				slog.Any("err", err),
				slog.Int("partition", msg.Partition),
				slog.Int64("offset", msg.Offset),
			)

			if !sendToDLQ(ctx, log, dlqWriter, dlqMessage(msg, err, time.Now())) {
				if ctx.Err() != nil {
					return
				}
				log.Error("DLQ write exhausted retries, leaving message uncommitted",
					slog.Int("partition", msg.Partition),
					slog.Int64("offset", msg.Offset),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit message", slog.Any("err", err))
		}
	}
}

func dlqMessage(msg kafka.Message, cause error, at time.Time) kafka.Message {
	headers := append([]kafka.Header(nil), msg.Headers...)
	headers = append(headers,
		kafka.Header{Key: "original_partition", Value: []byte(fmt.Sprintf("%d", msg.Partition))},
		kafka.Header{Key: "original_offset", Value: []byte(fmt.Sprintf("%d", msg.Offset))},
		kafka.Header{Key: "error", Value: []byte(cause.Error())},
		kafka.Header{Key: "timestamp", Value: []byte(at.UTC().Format(time.RFC3339))},
	)
	return kafka.Message{Key: msg.Key, Value: msg.Value, Headers: headers}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// sendToDLQ retries with exponential backoff and reports whether the write landed.
func sendToDLQ(ctx context.Context, log *slog.Logger, w messageWriter, msg kafka.Message) bool {
	for attempt := 0; attempt < 5; attempt++ {
		err := w.WriteMessages(ctx, msg)
		if err == nil {
			log.Info("message sent to DLQ", slog.Int("attempt", attempt+1))
			return true
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		log.Warn("DLQ write failed, retrying",
			slog.Any("err", err),
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
		)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			log.Info("context canceled during DLQ retry")
			return false
		}
	}
	return false
}

func processMessage(ctx context.Context, log *slog.Logger, indexer highlightIndexer, seen *cache.Memory, cfg *config.Worker, msg kafka.Message) error {
	h, err := events.Decode(msg)
	if err != nil {
		return err
	}

	if h.MatchDate.IsZero() {
		h.MatchDate = msg.Time.UTC()
		if h.MatchDate.IsZero() {
			h.MatchDate = time.Now().UTC()
		}
	}
	if h.ID == "" {
		h.ID = uuid.NewString()
	}

	doc := models.ArchivedHighlight{
		Highlight:  h,
		DocumentID: processing.DedupKey(h.Title, h.Teams.Home, h.Teams.Away, h.MatchDate),
		Keywords: processing.ExtractKeywords(
			h.Title+" "+processing.CleanText(h.Description)+" "+h.Competition,
			cfg.KeywordLimit, cfg.KeywordMinLength,
		),
		ArchivedAt: time.Now().UTC(),
	}

	if seen.IsSeen(doc.DocumentID) {
		log.Debug("duplicate highlight", slog.String("document_id", doc.DocumentID), slog.String("provider", string(h.Provider)))
		return nil
	}

	if err := indexer.IndexHighlight(ctx, doc); err != nil {
		return err
	}

	seen.MarkSeen(doc.DocumentID)
	log.Info("archived highlight",
		slog.String("document_id", doc.DocumentID),
		slog.String("provider", string(h.Provider)),
		slog.String("title", h.Title),
	)
	return nil
}
