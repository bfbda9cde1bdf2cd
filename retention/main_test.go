package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/goalkick-live/backend/internal/config"
	"github.com/goalkick-live/backend/internal/logger"
)

type stubArchive struct {
	pingErrs []error
	pings    int

	deleted int64
	err     error
	maxAge  time.Duration
	batch   int
}

func (s *stubArchive) Ping(context.Context) error {
	s.pings++
	if len(s.pingErrs) == 0 {
		return nil
	}
	err := s.pingErrs[0]
	s.pingErrs = s.pingErrs[1:]
	return err
}

func (s *stubArchive) DeleteOlderThan(_ context.Context, maxAge time.Duration, batchSize int) (int64, error) {
	s.maxAge = maxAge
	s.batch = batchSize
	return s.deleted, s.err
}

func TestWaitForArchiveRetries(t *testing.T) {
	a := &stubArchive{pingErrs: []error{errors.New("refused"), errors.New("refused")}}

	require.NoError(t, waitForArchive(context.Background(), logger.Discard(), a, time.Millisecond))
	require.Equal(t, 3, a.pings)
}

func TestWaitForArchiveStopsOnCancel(t *testing.T) {
	a := &stubArchive{pingErrs: []error{errors.New("refused")}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := waitForArchive(ctx, logger.Discard(), a, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRunOnce(t *testing.T) {
	cfg := &config.Retention{MaxAge: 90 * 24 * time.Hour, BatchSize: 250}

	a := &stubArchive{deleted: 12}
	require.EqualValues(t, 12, runOnce(context.Background(), logger.Discard(), a, cfg))
	require.Equal(t, cfg.MaxAge, a.maxAge)
	require.Equal(t, 250, a.batch)

	failing := &stubArchive{deleted: 4, err: errors.New("timeout")}
	require.EqualValues(t, 4, runOnce(context.Background(), logger.Discard(), failing, cfg))
}
