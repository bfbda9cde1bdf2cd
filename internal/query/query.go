// Package query holds the one implementation of highlight match semantics used by
// the aggregation service, the facade and the provider debug surface.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/processing"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Matches reports whether h satisfies every non-empty field of f.
// Pagination fields are ignored.
func Matches(h models.Highlight, f models.Filters) bool {
	if f.Provider != "" && f.Provider != models.ProviderAll && h.Provider != f.Provider {
		return false
	}
	if f.Competition != "" && !slugContains(h.Competition, f.Competition) {
		return false
	}
	if f.Team != "" && !slugContains(h.Teams.Home, f.Team) && !slugContains(h.Teams.Away, f.Team) {
		return false
	}

	day := dayOf(h.MatchDate)
	if f.Date != nil && !day.Equal(dayOf(*f.Date)) {
		return false
	}
	if f.DateFrom != nil && day.Before(dayOf(*f.DateFrom)) {
		return false
	}
	if f.DateTo != nil && day.After(dayOf(*f.DateTo)) {
		return false
	}

	if f.Search != "" {
		needle := strings.ToLower(strings.TrimSpace(f.Search))
		haystack := strings.ToLower(strings.Join([]string{
			h.Title, h.Description, h.Competition, h.Teams.Home, h.Teams.Away,
		}, " "))
		if !strings.Contains(haystack, needle) {
			return false
		}
	}
	return true
}

// Filter returns the highlights matching f, preserving order.
func Filter(items []models.Highlight, f models.Filters) []models.Highlight {
	out := make([]models.Highlight, 0, len(items))
	for _, h := range items {
		if Matches(h, f) {
			out = append(out, h)
		}
	}
	return out
}

// Dedupe drops highlights describing the same match as an earlier one.
func Dedupe(items []models.Highlight) []models.Highlight {
	seen := make(map[string]struct{}, len(items))
	out := make([]models.Highlight, 0, len(items))
	for _, h := range items {
		key := processing.DedupKey(h.Title, h.Teams.Home, h.Teams.Away, h.MatchDate)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, h)
	}
	return out
}

// SortByDate orders highlights newest first. Equal dates keep their input order.
func SortByDate(items []models.Highlight) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].MatchDate.After(items[j].MatchDate)
	})
}

// Paginate returns the requested 1-based page and whether more items follow it.
// Non-positive page or pageSize fall back to the defaults.
func Paginate(items []models.Highlight, page, pageSize int) ([]models.Highlight, bool) {
	page, pageSize = Normalize(page, pageSize)

	if len(items) == 0 || page-1 > (len(items)-1)/pageSize {
		return []models.Highlight{}, false
	}
	start := (page - 1) * pageSize
	end := start + min(pageSize, len(items)-start)
	return items[start:end], end < len(items)
}

// Normalize applies the default page and page size to unset values.
func Normalize(page, pageSize int) (int, int) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return page, pageSize
}

// CountByProvider tallies highlights per provider tag.
func CountByProvider(items []models.Highlight) map[models.Provider]int {
	counts := make(map[models.Provider]int)
	for _, h := range items {
		counts[h.Provider]++
	}
	return counts
}

// Response assembles one page of a fully filtered, sorted result set.
func Response(all []models.Highlight, page, pageSize int) models.HighlightsResponse {
	page, pageSize = Normalize(page, pageSize)
	items, hasMore := Paginate(all, page, pageSize)
	return models.HighlightsResponse{
		Highlights: items,
		TotalCount: len(all),
		Page:       page,
		PageSize:   pageSize,
		HasMore:    hasMore,
		Providers:  CountByProvider(all),
	}
}

func slugContains(value, want string) bool {
	w := processing.Slugify(want)
	if w == "" {
		return true
	}
	return strings.Contains(processing.Slugify(value), w)
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
