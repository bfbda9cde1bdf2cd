package supersport_test

import (
	"context"
	"testing"
	"time"

	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/provider/supersport"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC)

func newAdapter() *supersport.Adapter {
	return supersport.New(supersport.WithClock(func() time.Time { return fixedNow }))
}

func TestHighlightsAreStableAndUnique(t *testing.T) {
	a := newAdapter()

	first, err := a.Highlights(context.Background(), models.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := a.Highlights(context.Background(), models.Filters{})
	require.NoError(t, err)
	require.Equal(t, first, second)

	ids := make(map[string]struct{})
	for _, h := range first {
		require.Equal(t, models.ProviderMock, h.Provider)
		require.NotEmpty(t, h.Title)
		require.NotNil(t, h.Score)
		require.True(t, h.MatchDate.Before(fixedNow))
		_, dup := ids[h.ID]
		require.False(t, dup, "duplicate id %s", h.ID)
		ids[h.ID] = struct{}{}
	}
}

func TestHighlightsIgnoreFilters(t *testing.T) {
	a := newAdapter()

	all, err := a.Highlights(context.Background(), models.Filters{})
	require.NoError(t, err)
	filtered, err := a.Highlights(context.Background(), models.Filters{Team: "nobody"})
	require.NoError(t, err)
	require.Len(t, filtered, len(all))
}

func TestLiveMatches(t *testing.T) {
	live, err := newAdapter().LiveMatches(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, live)
	for _, m := range live {
		require.Equal(t, "live", m.Status)
		require.Equal(t, fixedNow.Add(-time.Duration(m.Minute)*time.Minute), m.StartedAt)
	}
}

func TestCompetitionsAndTeamsAreSortedAndUnique(t *testing.T) {
	a := newAdapter()

	comps, err := a.Competitions(context.Background())
	require.NoError(t, err)
	require.Contains(t, comps, "ENGLAND: Premier League")
	require.IsIncreasing(t, comps)

	teams, err := a.Teams(context.Background())
	require.NoError(t, err)
	require.Contains(t, teams, "Bayern Munich")
	require.IsIncreasing(t, teams)
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newAdapter().Highlights(ctx, models.Filters{})
	require.ErrorIs(t, err, context.Canceled)
}
