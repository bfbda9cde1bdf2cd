// Package supersport serves a fixed set of SuperSport highlight fixtures.
// Match dates are relative to the adapter clock so the data always looks recent.
package supersport

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/processing"
)

const mediaBase = "https://media.supersport.com/highlights"

var namespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://www.supersport.com/football"))

type fixture struct {
	ref         string
	competition string
	home, away  string
	homeGoals   int
	awayGoals   int
	ago         time.Duration
	duration    int
	views       int
	likes       int
	quality     string
}

var fixtures = []fixture{
	{ref: "ss-1001", competition: "ENGLAND: Premier League", home: "Arsenal", away: "Chelsea", homeGoals: 2, awayGoals: 1, ago: 20 * time.Hour, duration: 312, views: 184200, likes: 9100, quality: "1080p"},
	{ref: "ss-1002", competition: "ENGLAND: Premier League", home: "Liverpool", away: "Manchester City", homeGoals: 1, awayGoals: 1, ago: 44 * time.Hour, duration: 298, views: 251300, likes: 14050, quality: "1080p"},
	{ref: "ss-1003", competition: "ENGLAND: Premier League", home: "Tottenham Hotspur", away: "Newcastle United", homeGoals: 3, awayGoals: 0, ago: 3 * 24 * time.Hour, duration: 265, views: 97400, likes: 4300, quality: "720p"},
	{ref: "ss-1004", competition: "SPAIN: La Liga", home: "Real Madrid", away: "Barcelona", homeGoals: 3, awayGoals: 2, ago: 26 * time.Hour, duration: 341, views: 402800, likes: 26700, quality: "1080p"},
	{ref: "ss-1005", competition: "SPAIN: La Liga", home: "Atletico Madrid", away: "Sevilla", homeGoals: 0, awayGoals: 0, ago: 4 * 24 * time.Hour, duration: 188, views: 41200, likes: 1500, quality: "720p"},
	{ref: "ss-1006", competition: "ITALY: Serie A", home: "Inter", away: "AC Milan", homeGoals: 2, awayGoals: 2, ago: 2 * 24 * time.Hour, duration: 276, views: 158900, likes: 8800, quality: "1080p"},
	{ref: "ss-1007", competition: "GERMANY: Bundesliga", home: "Bayern Munich", away: "Borussia Dortmund", homeGoals: 4, awayGoals: 1, ago: 5 * 24 * time.Hour, duration: 305, views: 133700, likes: 7200, quality: "1080p"},
	{ref: "ss-1008", competition: "EUROPE: Champions League", home: "Paris Saint-Germain", away: "Bayern Munich", homeGoals: 1, awayGoals: 2, ago: 9 * 24 * time.Hour, duration: 330, views: 512600, likes: 31900, quality: "4k"},
	{ref: "ss-1009", competition: "SOUTH AFRICA: Premiership", home: "Kaizer Chiefs", away: "Orlando Pirates", homeGoals: 1, awayGoals: 0, ago: 6 * time.Hour, duration: 214, views: 88100, likes: 6100, quality: "720p"},
	{ref: "ss-1010", competition: "SOUTH AFRICA: Premiership", home: "Mamelodi Sundowns", away: "Stellenbosch", homeGoals: 2, awayGoals: 0, ago: 12 * 24 * time.Hour, duration: 199, views: 36500, likes: 2100, quality: "720p"},
}

type liveFixture struct {
	ref         string
	competition string
	home, away  string
	homeGoals   int
	awayGoals   int
	minute      int
}

var liveFixtures = []liveFixture{
	{ref: "ss-live-01", competition: "ENGLAND: Premier League", home: "Aston Villa", away: "West Ham United", homeGoals: 1, awayGoals: 0, minute: 34},
	{ref: "ss-live-02", competition: "SOUTH AFRICA: Premiership", home: "SuperSport United", away: "Cape Town City", homeGoals: 0, awayGoals: 0, minute: 67},
}

// Adapter is the mock SuperSport provider.
type Adapter struct {
	now func() time.Time
}

// Option customises an Adapter.
type Option func(*Adapter)

// WithClock sets the time source match dates are derived from.
func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

// New creates the mock adapter.
func New(opts ...Option) *Adapter {
	a := &Adapter{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) Name() models.Provider { return models.ProviderMock }

// Highlights returns every fixture. Filters are applied by the caller.
func (a *Adapter) Highlights(ctx context.Context, _ models.Filters) ([]models.Highlight, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := a.now().UTC().Truncate(time.Hour)
	out := make([]models.Highlight, 0, len(fixtures))
	for _, f := range fixtures {
		out = append(out, f.highlight(now))
	}
	return out, nil
}

func (a *Adapter) LiveMatches(ctx context.Context) ([]models.LiveMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := a.now().UTC().Truncate(time.Minute)
	out := make([]models.LiveMatch, 0, len(liveFixtures))
	for _, f := range liveFixtures {
		out = append(out, models.LiveMatch{
			ID:          uuid.NewSHA1(namespace, []byte(f.ref)).String(),
			Provider:    models.ProviderMock,
			Competition: f.competition,
			Teams:       models.Teams{Home: f.home, Away: f.away},
			Score:       &models.Score{Home: f.homeGoals, Away: f.awayGoals},
			Minute:      f.minute,
			Status:      "live",
			StartedAt:   now.Add(-time.Duration(f.minute) * time.Minute),
		})
	}
	return out, nil
}

func (a *Adapter) Competitions(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return unique(func(add func(string)) {
		for _, f := range fixtures {
			add(f.competition)
		}
	}), nil
}

func (a *Adapter) Teams(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return unique(func(add func(string)) {
		for _, f := range fixtures {
			add(f.home)
			add(f.away)
		}
	}), nil
}

func (f fixture) highlight(now time.Time) models.Highlight {
	_, league := processing.SplitCompetition(f.competition)
	title := fmt.Sprintf("%s vs %s", f.home, f.away)

	return models.Highlight{
		ID:           uuid.NewSHA1(namespace, []byte(f.ref)).String(),
		ProviderID:   f.ref,
		Provider:     models.ProviderMock,
		Title:        title,
		Description:  fmt.Sprintf("%s %d-%d %s. All the goals and key moments from the %s.", f.home, f.homeGoals, f.awayGoals, f.away, league),
		ThumbnailURL: fmt.Sprintf("%s/%s/thumbnail.jpg", mediaBase, f.ref),
		VideoURL:     fmt.Sprintf("%s/%s/video.mp4", mediaBase, f.ref),
		EmbedURL:     fmt.Sprintf("https://www.supersport.com/embed/%s", f.ref),
		Duration:     f.duration,
		Competition:  f.competition,
		Teams:        models.Teams{Home: f.home, Away: f.away},
		Score:        &models.Score{Home: f.homeGoals, Away: f.awayGoals},
		MatchDate:    now.Add(-f.ago),
		Views:        f.views,
		Likes:        f.likes,
		Metadata: models.Metadata{
			Quality:  f.quality,
			Language: "en",
			Tags:     []string{processing.Slugify(league), processing.Slugify(f.home), processing.Slugify(f.away)},
		},
	}
}

func unique(each func(add func(string))) []string {
	seen := make(map[string]struct{})
	var out []string
	each(func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	})
	sort.Strings(out)
	return out
}
