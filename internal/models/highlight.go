package models

import "time"

// Provider tags the upstream a highlight came from.
type Provider string

const (
	ProviderAll  Provider = "all"
	ProviderMock Provider = "mock-provider"
	ProviderREST Provider = "rest-provider"
)

// Valid reports whether p is a concrete provider or the "all" selector.
func (p Provider) Valid() bool {
	switch p {
	case ProviderAll, ProviderMock, ProviderREST:
		return true
	}
	return false
}

// Teams names both sides of a match.
type Teams struct {
	Home string `json:"home"`
	Away string `json:"away"`
}

// Score is only set when the upstream reported one.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Metadata is the free-form bag attached to a highlight.
type Metadata struct {
	Quality  string   `json:"quality,omitempty"`
	Language string   `json:"language,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Highlight is the unified representation of one match highlight video.
type Highlight struct {
	ID           string    `json:"id"`
	ProviderID   string    `json:"providerId"`
	Provider     Provider  `json:"provider"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	VideoURL     string    `json:"videoUrl"`
	EmbedURL     string    `json:"embedUrl,omitempty"`
	Duration     int       `json:"duration"`
	Competition  string    `json:"competition"`
	Teams        Teams     `json:"teams"`
	Score        *Score    `json:"score,omitempty"`
	MatchDate    time.Time `json:"matchDate"`
	Views        int       `json:"views"`
	Likes        int       `json:"likes"`
	Metadata     Metadata  `json:"metadata"`
}

// LiveMatch is a match currently in progress as reported by a provider.
type LiveMatch struct {
	ID          string    `json:"id"`
	Provider    Provider  `json:"provider"`
	Competition string    `json:"competition"`
	Teams       Teams     `json:"teams"`
	Score       *Score    `json:"score,omitempty"`
	Minute      int       `json:"minute,omitempty"`
	Status      string    `json:"status"`
	StartedAt   time.Time `json:"startedAt"`
}

// Filters narrows a highlights query. Zero-valued fields do not filter.
type Filters struct {
	Competition string
	Team        string
	// Date selects a single UTC day; DateFrom/DateTo are inclusive day bounds.
	Date     *time.Time
	DateFrom *time.Time
	DateTo   *time.Time
	Search   string
	Provider Provider
	Page     int
	PageSize int
}

// HighlightsResponse is one page of an aggregated query.
type HighlightsResponse struct {
	Highlights []Highlight      `json:"highlights"`
	TotalCount int              `json:"totalCount"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	HasMore    bool             `json:"hasMore"`
	Providers  map[Provider]int `json:"providers"`
}

// FilterOption is one selectable value in a filter dropdown.
type FilterOption struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Country string `json:"country,omitempty"`
}

// DateRange bounds the match dates currently known.
type DateRange struct {
	Min *time.Time `json:"min"`
	Max *time.Time `json:"max"`
}

// ProviderCount reports how many highlights a provider contributed.
type ProviderCount struct {
	ID    Provider `json:"id"`
	Name  string   `json:"name"`
	Count int      `json:"count"`
}

// FilterOptions is a derived snapshot used to populate filter controls.
type FilterOptions struct {
	Competitions []FilterOption  `json:"competitions"`
	Teams        []FilterOption  `json:"teams"`
	DateRange    DateRange       `json:"dateRange"`
	Providers    []ProviderCount `json:"providers"`
}

// ArchivedHighlight is the document stored in the highlight archive.
type ArchivedHighlight struct {
	Highlight
	DocumentID string    `json:"documentId"`
	Keywords   []string  `json:"keywords"`
	ArchivedAt time.Time `json:"archivedAt"`
}
