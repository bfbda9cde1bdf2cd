// Package provider defines the upstream highlight adapter contract and the
// registry that builds the enabled adapters from configuration.
package provider

import (
	"context"
	"errors"

	"github.com/goalkick-live/backend/internal/models"
)

// ErrUnknownProvider is returned when a provider name is not registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Adapter fetches data from one upstream source and maps it into unified records.
// Adapters do not apply filters; callers match results with the query package.
type Adapter interface {
	Name() models.Provider
	Highlights(ctx context.Context, filters models.Filters) ([]models.Highlight, error)
	LiveMatches(ctx context.Context) ([]models.LiveMatch, error)
	Competitions(ctx context.Context) ([]string, error)
	Teams(ctx context.Context) ([]string, error)
}

// Info describes a known provider for the debug surface.
type Info struct {
	Name        models.Provider `json:"name"`
	DisplayName string          `json:"displayName"`
	Enabled     bool            `json:"enabled"`
}

// Known lists every provider the backend can be configured with, in display order.
var Known = []models.Provider{models.ProviderMock, models.ProviderREST}

// DisplayName returns the human readable name of a provider tag.
func DisplayName(p models.Provider) string {
	switch p {
	case models.ProviderMock:
		return "SuperSport"
	case models.ProviderREST:
		return "ScoreBat"
	case models.ProviderAll:
		return "All providers"
	}
	return string(p)
}
