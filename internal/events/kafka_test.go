package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/goalkick-live/backend/internal/models"
)

type stubWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *stubWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *stubWriter) Close() error {
	w.closed = true
	return nil
}

func sample() models.Highlight {
	return models.Highlight{
		ID:          "scorebat-v-1",
		Provider:    models.ProviderREST,
		Title:       "Arsenal - Chelsea",
		Competition: "ENGLAND: Premier League",
		Teams:       models.Teams{Home: "Arsenal", Away: "Chelsea"},
		MatchDate:   time.Date(2024, 3, 10, 18, 0, 0, 0, time.UTC),
	}
}

func TestPublishHighlights(t *testing.T) {
	w := &stubWriter{}
	p := newKafkaPublisher(w, nil)

	require.NoError(t, p.PublishHighlights(context.Background(), []models.Highlight{sample()}))
	require.Len(t, w.msgs, 1)
	require.Equal(t, "scorebat-v-1", string(w.msgs[0].Key))
	require.Equal(t, "rest-provider", string(w.msgs[0].Headers[0].Value))

	require.NoError(t, p.PublishHighlights(context.Background(), nil))
	require.Len(t, w.msgs, 1)

	require.NoError(t, p.Close())
	require.True(t, w.closed)
}

func TestPublishHighlightsWrapsWriterError(t *testing.T) {
	w := &stubWriter{err: errors.New("broker gone")}
	p := newKafkaPublisher(w, nil)

	err := p.PublishHighlights(context.Background(), []models.Highlight{sample()})
	require.ErrorIs(t, err, w.err)
}

func TestDecodeRoundTrip(t *testing.T) {
	msgs, err := Encode([]models.Highlight{sample()})
	require.NoError(t, err)

	got, err := Decode(msgs[0])
	require.NoError(t, err)
	require.Equal(t, sample(), got)
}

func TestDecodeUsesProviderHeader(t *testing.T) {
	msg := kafka.Message{
		Value:   []byte(`{"id":"x","title":"Inter - Milan"}`),
		Headers: []kafka.Header{{Key: "provider", Value: []byte("mock-provider")}},
	}
	got, err := Decode(msg)
	require.NoError(t, err)
	require.Equal(t, models.ProviderMock, got.Provider)
}

func TestDecodeRejectsInvalid(t *testing.T) {
	_, err := Decode(kafka.Message{Value: []byte("nope")})
	require.Error(t, err)

	_, err = Decode(kafka.Message{Value: []byte(`{"id":"x","title":"  "}`)})
	require.Error(t, err)
}
