package validation_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/validation"
	"github.com/stretchr/testify/require"
)

func fields(t *testing.T, err error) []string {
	t.Helper()
	var verr *validation.Error
	require.True(t, errors.As(err, &verr), "expected *validation.Error, got %v", err)
	out := make([]string, 0, len(verr.Details))
	for _, d := range verr.Details {
		out = append(out, d.Field)
	}
	return out
}

func TestParseFiltersDefaults(t *testing.T) {
	f, err := validation.ParseFilters(url.Values{})
	require.NoError(t, err)
	require.Equal(t, 1, f.Page)
	require.Equal(t, 20, f.PageSize)
	require.Equal(t, models.ProviderAll, f.Provider)
	require.Nil(t, f.Date)
}

func TestParseFiltersValid(t *testing.T) {
	f, err := validation.ParseFilters(url.Values{
		"competition": {" premier-league "},
		"team":        {"Arsenal"},
		"dateFrom":    {"2024-03-01"},
		"dateTo":      {"2024-03-31"},
		"provider":    {"rest-provider"},
		"page":        {"2"},
		"pageSize":    {"100"},
	})
	require.NoError(t, err)
	require.Equal(t, "premier-league", f.Competition)
	require.Equal(t, models.ProviderREST, f.Provider)
	require.Equal(t, 2, f.Page)
	require.Equal(t, 100, f.PageSize)
	require.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *f.DateFrom)
}

func TestParseFiltersRejects(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		field  string
	}{
		{name: "non integer page", values: url.Values{"page": {"abc"}}, field: "page"},
		{name: "zero page", values: url.Values{"page": {"0"}}, field: "page"},
		{name: "page too large", values: url.Values{"page": {"10001"}}, field: "page"},
		{name: "page overflows", values: url.Values{"page": {"9223372036854775807"}}, field: "page"},
		{name: "page size too large", values: url.Values{"pageSize": {"101"}}, field: "pageSize"},
		{name: "page size zero", values: url.Values{"pageSize": {"0"}}, field: "pageSize"},
		{name: "bad date format", values: url.Values{"date": {"10/03/2024"}}, field: "date"},
		{name: "impossible date", values: url.Values{"dateTo": {"2024-02-30"}}, field: "dateTo"},
		{name: "inverted range", values: url.Values{"dateFrom": {"2024-03-02"}, "dateTo": {"2024-03-01"}}, field: "dateFrom"},
		{name: "unknown provider", values: url.Values{"provider": {"youtube"}}, field: "provider"},
		{name: "long search", values: url.Values{"search": {strings.Repeat("a", 101)}}, field: "search"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := validation.ParseFilters(tt.values)
			require.Error(t, err)
			require.Equal(t, []string{tt.field}, fields(t, err))
		})
	}
}

func TestParseFiltersCollectsEveryError(t *testing.T) {
	_, err := validation.ParseFilters(url.Values{"page": {"x"}, "provider": {"nope"}})
	require.ElementsMatch(t, []string{"page", "provider"}, fields(t, err))
}

func TestParseLimit(t *testing.T) {
	limit, err := validation.ParseLimit(url.Values{})
	require.NoError(t, err)
	require.Equal(t, 6, limit)

	limit, err = validation.ParseLimit(url.Values{"limit": {"12"}})
	require.NoError(t, err)
	require.Equal(t, 12, limit)

	_, err = validation.ParseLimit(url.Values{"limit": {"51"}})
	require.Equal(t, []string{"limit"}, fields(t, err))
}

func TestParsePaging(t *testing.T) {
	page, size, err := validation.ParsePaging(url.Values{"page": {"3"}, "pageSize": {"5"}})
	require.NoError(t, err)
	require.Equal(t, 3, page)
	require.Equal(t, 5, size)

	_, _, err = validation.ParsePaging(url.Values{"pageSize": {"-1"}})
	require.Equal(t, []string{"pageSize"}, fields(t, err))
}

func TestParseWindow(t *testing.T) {
	from, size, err := validation.ParseWindow(url.Values{})
	require.NoError(t, err)
	require.Equal(t, 0, from)
	require.Equal(t, 20, size)

	from, size, err = validation.ParseWindow(url.Values{"from": {"40"}, "size": {"10"}})
	require.NoError(t, err)
	require.Equal(t, 40, from)
	require.Equal(t, 10, size)

	_, _, err = validation.ParseWindow(url.Values{"from": {"-1"}, "size": {"101"}})
	require.ElementsMatch(t, []string{"from", "size"}, fields(t, err))
}

func TestParseProviderCommand(t *testing.T) {
	cmd, err := validation.ParseProviderCommand([]byte(`{"provider":"mock-provider","action":"getHighlights","parameters":{"team":"Arsenal","page":2}}`))
	require.NoError(t, err)
	require.Equal(t, models.ProviderMock, cmd.Provider)
	require.Equal(t, validation.ActionHighlights, cmd.Action)
	require.Equal(t, "Arsenal", cmd.Parameters.Team)
	require.Equal(t, 2, cmd.Parameters.Page)
}

func TestParseProviderCommandRejects(t *testing.T) {
	_, err := validation.ParseProviderCommand([]byte(`not json`))
	require.Equal(t, []string{"body"}, fields(t, err))

	_, err = validation.ParseProviderCommand([]byte(`{"provider":"all","action":"dance"}`))
	require.ElementsMatch(t, []string{"provider", "action"}, fields(t, err))

	_, err = validation.ParseProviderCommand([]byte(`{"provider":"rest-provider","action":"getTeams","parameters":{"pageSize":500}}`))
	require.Equal(t, []string{"parameters.pageSize"}, fields(t, err))
}
