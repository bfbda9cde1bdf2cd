// Package validation turns raw request parameters into typed, range-checked values.
// Invalid input is rejected with per-field messages, never clamped.
package validation

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/query"
)

const (
	MaxTextLength = 100
	DefaultLimit  = 6
	MaxLimit      = 50
	MaxFrom       = 10000
	MaxPage       = MaxFrom
)

// FieldError describes one rejected parameter.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error carries every field error found in a request.
type Error struct {
	Details []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Details))
	for _, d := range e.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return "invalid parameters: " + strings.Join(parts, "; ")
}

type collector struct {
	details []FieldError
}

func (c *collector) add(field, format string, args ...any) {
	c.details = append(c.details, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) err() error {
	if len(c.details) == 0 {
		return nil
	}
	return &Error{Details: c.details}
}

// ParseFilters validates highlight query parameters.
func ParseFilters(values url.Values) (models.Filters, error) {
	var c collector
	f := models.Filters{Provider: models.ProviderAll}

	f.Page, f.PageSize = parsePaging(&c, values)

	f.Competition = text(&c, values, "competition")
	f.Team = text(&c, values, "team")
	f.Search = text(&c, values, "search")

	f.Date = date(&c, values, "date")
	f.DateFrom = date(&c, values, "dateFrom")
	f.DateTo = date(&c, values, "dateTo")
	if f.DateFrom != nil && f.DateTo != nil && f.DateFrom.After(*f.DateTo) {
		c.add("dateFrom", "must not be after dateTo")
	}

	if raw := strings.TrimSpace(values.Get("provider")); raw != "" {
		p := models.Provider(raw)
		if !p.Valid() {
			c.add("provider", "must be one of %s, %s, %s", models.ProviderAll, models.ProviderMock, models.ProviderREST)
		} else {
			f.Provider = p
		}
	}

	if err := c.err(); err != nil {
		return models.Filters{}, err
	}
	return f, nil
}

// ParsePaging validates only page and pageSize.
func ParsePaging(values url.Values) (page, pageSize int, err error) {
	var c collector
	page, pageSize = parsePaging(&c, values)
	if err := c.err(); err != nil {
		return 0, 0, err
	}
	return page, pageSize, nil
}

// ParseLimit validates the limit parameter of list endpoints.
func ParseLimit(values url.Values) (int, error) {
	var c collector
	limit := integer(&c, values, "limit", DefaultLimit, 1, MaxLimit)
	if err := c.err(); err != nil {
		return 0, err
	}
	return limit, nil
}

// ParseWindow validates the from/size offset pair used by archive search.
func ParseWindow(values url.Values) (from, size int, err error) {
	var c collector
	from = integer(&c, values, "from", 0, 0, MaxFrom)
	size = integer(&c, values, "size", query.DefaultPageSize, 1, query.MaxPageSize)
	if err := c.err(); err != nil {
		return 0, 0, err
	}
	return from, size, nil
}

// ProviderCommand is the body of a provider debug request.
type ProviderCommand struct {
	Provider   models.Provider `json:"provider"`
	Action     string          `json:"action"`
	Parameters models.Filters  `json:"-"`
}

// Provider debug actions.
const (
	ActionHighlights   = "getHighlights"
	ActionLiveMatches  = "getLiveMatches"
	ActionCompetitions = "getCompetitions"
	ActionTeams        = "getTeams"
)

var actions = map[string]struct{}{
	ActionHighlights: {}, ActionLiveMatches: {}, ActionCompetitions: {}, ActionTeams: {},
}

// ParseProviderCommand decodes and validates a provider debug request body.
// Parameters are validated with the same rules as the highlights query string.
func ParseProviderCommand(body []byte) (ProviderCommand, error) {
	var raw struct {
		Provider   string         `json:"provider"`
		Action     string         `json:"action"`
		Parameters map[string]any `json:"parameters"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return ProviderCommand{}, &Error{Details: []FieldError{{Field: "body", Message: "must be a JSON object"}}}
	}

	var c collector
	cmd := ProviderCommand{Provider: models.Provider(strings.TrimSpace(raw.Provider)), Action: strings.TrimSpace(raw.Action)}
	if cmd.Provider == "" {
		c.add("provider", "is required")
	} else if !cmd.Provider.Valid() || cmd.Provider == models.ProviderAll {
		c.add("provider", "must be one of %s, %s", models.ProviderMock, models.ProviderREST)
	}
	if cmd.Action == "" {
		c.add("action", "is required")
	} else if _, ok := actions[cmd.Action]; !ok {
		c.add("action", "must be one of %s, %s, %s, %s", ActionHighlights, ActionLiveMatches, ActionCompetitions, ActionTeams)
	}

	params := url.Values{}
	for k, v := range raw.Parameters {
		switch val := v.(type) {
		case string:
			params.Set(k, val)
		case float64:
			params.Set(k, strconv.FormatFloat(val, 'f', -1, 64))
		case bool:
			params.Set(k, strconv.FormatBool(val))
		case nil:
		default:
			c.add("parameters."+k, "must be a scalar value")
		}
	}
	filters, err := ParseFilters(params)
	if verr, ok := err.(*Error); ok {
		for _, d := range verr.Details {
			c.add("parameters."+d.Field, "%s", d.Message)
		}
	}

	if err := c.err(); err != nil {
		return ProviderCommand{}, err
	}
	cmd.Parameters = filters
	return cmd, nil
}

func parsePaging(c *collector, values url.Values) (int, int) {
	page := integer(c, values, "page", query.DefaultPage, 1, MaxPage)
	size := integer(c, values, "pageSize", query.DefaultPageSize, 1, query.MaxPageSize)
	return page, size
}

// integer parses key within [lo, hi]; hi <= 0 means unbounded.
func integer(c *collector, values url.Values, key string, def, lo, hi int) int {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.add(key, "must be an integer")
		return def
	}
	if n < lo {
		c.add(key, "must be at least %d", lo)
		return def
	}
	if hi > 0 && n > hi {
		c.add(key, "must be at most %d", hi)
		return def
	}
	return n
}

func text(c *collector, values url.Values, key string) string {
	v := strings.TrimSpace(values.Get(key))
	if utf8.RuneCountInString(v) > MaxTextLength {
		c.add(key, "must be at most %d characters", MaxTextLength)
		return ""
	}
	return v
}

func date(c *collector, values url.Values, key string) *time.Time {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		c.add(key, "must be a valid date in YYYY-MM-DD format")
		return nil
	}
	return &t
}
