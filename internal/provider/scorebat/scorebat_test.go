package scorebat_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/provider/scorebat"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 19, 0, 0, 0, time.UTC)

const feed = `{
  "response": [
    {
      "title": "Arsenal - Chelsea",
      "competition": "ENGLAND: Premier League",
      "matchviewUrl": "https://www.scorebat.com/embed/matchview/1001/",
      "thumbnail": "https://www.scorebat.com/og/m/og1001.jpeg",
      "date": "2024-03-10T18:30:00+0000",
      "videos": [
        {"id": "v-1001", "title": "Highlights", "embed": "<div><iframe src='https://www.scorebat.com/embed/v/v-1001/?utm_source=api' frameborder='0'></iframe></div>"}
      ]
    },
    {
      "title": "Goal of the week",
      "competition": "",
      "matchviewUrl": "",
      "thumbnail": "",
      "date": "2024-03-10T18:45:00Z",
      "videos": []
    },
    {
      "title": "Real Madrid - Barcelona",
      "competition": "SPAIN: La Liga",
      "matchviewUrl": "https://www.scorebat.com/embed/matchview/1002/",
      "thumbnail": "https://www.scorebat.com/og/m/og1002.jpeg",
      "date": "2024-03-08T20:00:00Z",
      "videos": [{"id": "v-1002", "title": "Goals", "embed": ""}]
    },
    {
      "title": "Inter - Milan",
      "competition": "ITALY: Serie A",
      "matchviewUrl": "https://www.scorebat.com/embed/matchview/1003/",
      "thumbnail": "",
      "date": "not a date",
      "videos": []
    }
  ]
}`

func newServer(t *testing.T, status int, body string, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		if r.URL.Path != "/video-api/v3/feed/" || r.URL.Query().Get("token") != "secret" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newAdapter(srv *httptest.Server) *scorebat.Adapter {
	return scorebat.New(
		scorebat.Config{BaseURL: srv.URL + "/", Token: "secret"},
		scorebat.WithHTTPClient(srv.Client()),
		scorebat.WithClock(func() time.Time { return fixedNow }),
	)
}

func TestHighlightsMapping(t *testing.T) {
	var hits atomic.Int32
	a := newAdapter(newServer(t, http.StatusOK, feed, &hits))

	got, err := a.Highlights(context.Background(), models.Filters{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.EqualValues(t, 1, hits.Load())

	first := got[0]
	require.Equal(t, "scorebat-v-1001", first.ID)
	require.Equal(t, "v-1001", first.ProviderID)
	require.Equal(t, models.ProviderREST, first.Provider)
	require.Equal(t, models.Teams{Home: "Arsenal", Away: "Chelsea"}, first.Teams)
	require.Equal(t, "ENGLAND: Premier League", first.Competition)
	require.Equal(t, "https://www.scorebat.com/embed/v/v-1001/?utm_source=api", first.EmbedURL)
	require.Equal(t, "https://www.scorebat.com/embed/matchview/1001/", first.VideoURL)
	require.Equal(t, time.Date(2024, 3, 10, 18, 30, 0, 0, time.UTC), first.MatchDate)
	require.Equal(t, scorebat.DefaultDuration, first.Duration)
	require.Nil(t, first.Score)
	require.Zero(t, first.Views)
	require.Zero(t, first.Likes)
}

func TestHighlightsFallbacks(t *testing.T) {
	a := newAdapter(newServer(t, http.StatusOK, feed, nil))

	got, err := a.Highlights(context.Background(), models.Filters{})
	require.NoError(t, err)

	h := got[1]
	require.Equal(t, "Unknown Competition", h.Competition)
	require.Equal(t, models.Teams{Home: "Home Team", Away: "Away Team"}, h.Teams)
	require.Equal(t, scorebat.DefaultThumbnail, h.ThumbnailURL)
	require.Equal(t, time.Date(2024, 3, 10, 18, 45, 0, 0, time.UTC), h.MatchDate)
	require.NotEmpty(t, h.ProviderID)
	require.NotEqual(t, got[0].ID, h.ID)
}

func TestHighlightsSkipUndatedEntries(t *testing.T) {
	srv := newServer(t, http.StatusOK, feed, nil)

	first, err := newAdapter(srv).Highlights(context.Background(), models.Filters{})
	require.NoError(t, err)
	for _, h := range first {
		require.NotEqual(t, "Inter - Milan", h.Title)
	}

	later := scorebat.New(
		scorebat.Config{BaseURL: srv.URL, Token: "secret"},
		scorebat.WithHTTPClient(srv.Client()),
		scorebat.WithClock(func() time.Time { return fixedNow.Add(6 * time.Hour) }),
	)
	second, err := later.Highlights(context.Background(), models.Filters{})
	require.NoError(t, err)
	require.Len(t, second, len(first))
	for i := range first {
		require.Equal(t, first[i].ID, second[i].ID)
		require.Equal(t, first[i].MatchDate, second[i].MatchDate)
	}
}

func TestHighlightsUpstreamError(t *testing.T) {
	a := newAdapter(newServer(t, http.StatusBadGateway, "upstream down", nil))

	got, err := a.Highlights(context.Background(), models.Filters{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
	require.Nil(t, got)
}

func TestHighlightsMalformedBody(t *testing.T) {
	a := newAdapter(newServer(t, http.StatusOK, "{not json", nil))

	_, err := a.Highlights(context.Background(), models.Filters{})
	require.Error(t, err)
}

func TestLiveMatchesUsesLastHour(t *testing.T) {
	a := newAdapter(newServer(t, http.StatusOK, feed, nil))

	live, err := a.LiveMatches(context.Background())
	require.NoError(t, err)
	require.Len(t, live, 2)

	require.Equal(t, "scorebat-v-1001", live[0].ID)
	require.Equal(t, 30, live[0].Minute)
	require.Equal(t, "live", live[0].Status)
}

func TestCompetitionsAndTeams(t *testing.T) {
	a := newAdapter(newServer(t, http.StatusOK, feed, nil))

	comps, err := a.Competitions(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"ENGLAND: Premier League", "SPAIN: La Liga", "Unknown Competition"}, comps)

	teams, err := a.Teams(context.Background())
	require.NoError(t, err)
	require.Contains(t, teams, "Barcelona")
	require.Contains(t, teams, "Chelsea")
}
