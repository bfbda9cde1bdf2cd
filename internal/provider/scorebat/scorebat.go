// Package scorebat adapts the ScoreBat video API feed.
package scorebat

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goalkick-live/backend/internal/logger"
	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/processing"
)

const (
	DefaultBaseURL   = "https://www.scorebat.com"
	DefaultThumbnail = "/images/default-thumbnail.jpg"
	DefaultDuration  = 180

	unknownCompetition = "Unknown Competition"
	defaultHome        = "Home Team"
	defaultAway        = "Away Team"

	// The feed has no live concept; recent kick-offs stand in for live matches.
	liveWindow = 60 * time.Minute
)

var dateLayouts = []string{"2006-01-02T15:04:05-0700", time.RFC3339}

// Config points the adapter at a ScoreBat deployment.
type Config struct {
	BaseURL string
	Token   string
}

// Adapter is the REST provider backed by the ScoreBat feed.
type Adapter struct {
	cfg    Config
	client *http.Client
	now    func() time.Time
	log    *slog.Logger
}

// Option customises an Adapter.
type Option func(*Adapter)

func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		if c != nil {
			a.client = c
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Adapter) {
		if now != nil {
			a.now = now
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) { a.log = logger.OrDiscard(log) }
}

// New creates a ScoreBat adapter.
func New(cfg Config, opts ...Option) *Adapter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	a := &Adapter{
		cfg:    cfg,
		client: &http.Client{Timeout: 8 * time.Second},
		now:    time.Now,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type feedResponse struct {
	Response []feedItem `json:"response"`
}

type feedItem struct {
	Title        string      `json:"title"`
	Competition  string      `json:"competition"`
	MatchviewURL string      `json:"matchviewUrl"`
	Thumbnail    string      `json:"thumbnail"`
	Date         string      `json:"date"`
	Videos       []feedVideo `json:"videos"`
}

type feedVideo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Embed string `json:"embed"`
}

func (a *Adapter) Name() models.Provider { return models.ProviderREST }

// Highlights fetches the feed and maps every dated entry. Filters are applied by the caller.
func (a *Adapter) Highlights(ctx context.Context, _ models.Filters) ([]models.Highlight, error) {
	items, err := a.fetch(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]models.Highlight, 0, len(items))
	for _, item := range items {
		h, ok := a.mapItem(item)
		if !ok {
			a.log.Warn("skipping scorebat entry with unparseable date",
				slog.String("title", item.Title),
				slog.String("date", item.Date),
			)
			continue
		}
		out = append(out, h)
	}
	return out, nil
}

// LiveMatches returns feed entries that kicked off within the last hour.
func (a *Adapter) LiveMatches(ctx context.Context) ([]models.LiveMatch, error) {
	highlights, err := a.Highlights(ctx, models.Filters{})
	if err != nil {
		return nil, err
	}

	now := a.now()
	var out []models.LiveMatch
	for _, h := range highlights {
		elapsed := now.Sub(h.MatchDate)
		if elapsed < 0 || elapsed > liveWindow {
			continue
		}
		out = append(out, models.LiveMatch{
			ID:          h.ID,
			Provider:    models.ProviderREST,
			Competition: h.Competition,
			Teams:       h.Teams,
			Minute:      int(elapsed.Minutes()),
			Status:      "live",
			StartedAt:   h.MatchDate,
		})
	}
	return out, nil
}

func (a *Adapter) Competitions(ctx context.Context) ([]string, error) {
	highlights, err := a.Highlights(ctx, models.Filters{})
	if err != nil {
		return nil, err
	}
	var values []string
	for _, h := range highlights {
		values = append(values, h.Competition)
	}
	return uniqueSorted(values), nil
}

func (a *Adapter) Teams(ctx context.Context) ([]string, error) {
	highlights, err := a.Highlights(ctx, models.Filters{})
	if err != nil {
		return nil, err
	}
	var values []string
	for _, h := range highlights {
		values = append(values, h.Teams.Home, h.Teams.Away)
	}
	return uniqueSorted(values), nil
}

func (a *Adapter) fetch(ctx context.Context) ([]feedItem, error) {
	endpoint := a.cfg.BaseURL + "/video-api/v3/feed/?token=" + url.QueryEscape(a.cfg.Token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scorebat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("scorebat returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var feed feedResponse
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("decoding scorebat feed: %w", err)
	}
	return feed.Response, nil
}

func (a *Adapter) mapItem(item feedItem) (models.Highlight, bool) {
	matchDate, ok := parseDate(item.Date)
	if !ok {
		return models.Highlight{}, false
	}

	title := strings.TrimSpace(item.Title)
	home, away, ok := processing.SplitTeams(title)
	if !ok {
		home, away = defaultHome, defaultAway
	}

	competition := strings.TrimSpace(item.Competition)
	if competition == "" {
		competition = unknownCompetition
	}

	thumbnail := item.Thumbnail
	if thumbnail == "" {
		thumbnail = DefaultThumbnail
	}

	h := models.Highlight{
		Provider:     models.ProviderREST,
		Title:        title,
		Description:  fmt.Sprintf("%s highlights from %s", title, competition),
		ThumbnailURL: thumbnail,
		VideoURL:     item.MatchviewURL,
		Duration:     DefaultDuration,
		Competition:  competition,
		Teams:        models.Teams{Home: home, Away: away},
		MatchDate:    matchDate,
		Metadata:     models.Metadata{Quality: "HD", Language: "en"},
	}

	for _, v := range item.Videos {
		if h.ProviderID == "" && v.ID != "" {
			h.ProviderID = v.ID
		}
		if h.EmbedURL == "" {
			if urls := processing.ExtractURLs(v.Embed); len(urls) > 0 {
				h.EmbedURL = urls[0]
			}
		}
		if v.Title != "" {
			h.Metadata.Tags = append(h.Metadata.Tags, v.Title)
		}
	}

	if h.ProviderID == "" {
		h.ProviderID = uuid.NewSHA1(uuid.NameSpaceURL, []byte(title+"|"+matchDate.Format(time.RFC3339))).String()
	}
	h.ID = "scorebat-" + h.ProviderID
	if h.VideoURL == "" {
		h.VideoURL = h.EmbedURL
	}
	return h, true
}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func uniqueSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
