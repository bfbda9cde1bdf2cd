package provider_test

import (
	"testing"

	"github.com/goalkick-live/backend/internal/config"
	"github.com/goalkick-live/backend/internal/models"
	"github.com/goalkick-live/backend/internal/provider"
	"github.com/goalkick-live/backend/internal/provider/providertest"
	"github.com/stretchr/testify/require"
)

func TestRegistryBuildsEnabledProviders(t *testing.T) {
	r := provider.NewRegistry(config.Providers{
		SupersportEnabled: true,
		ScorebatEnabled:   true,
		ScorebatToken:     "token",
		ScorebatBaseURL:   "http://scorebat.invalid",
	}, nil)

	require.Equal(t, []models.Provider{models.ProviderMock, models.ProviderREST}, r.Names())
}

func TestRegistrySkipsScorebatWithoutToken(t *testing.T) {
	r := provider.NewRegistry(config.Providers{SupersportEnabled: true, ScorebatEnabled: true}, nil)

	require.Equal(t, []models.Provider{models.ProviderMock}, r.Names())

	info := r.Info()
	require.Len(t, info, 2)
	require.True(t, info[0].Enabled)
	require.Equal(t, "SuperSport", info[0].DisplayName)
	require.False(t, info[1].Enabled)
	require.Equal(t, models.ProviderREST, info[1].Name)
}

func TestRegistryWithNoProvidersIsEmpty(t *testing.T) {
	r := provider.NewRegistry(config.Providers{}, nil)

	require.Empty(t, r.Adapters())
	require.Empty(t, r.Names())
}

func TestRegistryGet(t *testing.T) {
	stub := providertest.New(models.ProviderMock)
	r := provider.NewRegistry(config.Providers{}, nil, provider.WithAdapters(stub))

	got, err := r.Get(models.ProviderMock)
	require.NoError(t, err)
	require.Same(t, stub, got)

	_, err = r.Get(models.ProviderREST)
	require.ErrorIs(t, err, provider.ErrUnknownProvider)
}

func TestRegistryInitializeIsIdempotent(t *testing.T) {
	r := provider.NewRegistry(config.Providers{SupersportEnabled: true}, nil)

	r.Initialize()
	first := r.Adapters()
	r.Initialize()
	second := r.Adapters()

	require.Len(t, second, 1)
	require.Same(t, first[0], second[0])
}

func TestRegistryReloadRebuilds(t *testing.T) {
	r := provider.NewRegistry(config.Providers{SupersportEnabled: true}, nil)
	before := r.Adapters()

	r.Reload()
	after := r.Adapters()

	require.Len(t, after, 1)
	require.NotSame(t, before[0], after[0])
}

func TestRegistryClear(t *testing.T) {
	stub := providertest.New(models.ProviderREST)
	r := provider.NewRegistry(config.Providers{}, nil, provider.WithAdapters(stub))
	require.Len(t, r.Adapters(), 1)

	r.Clear()
	require.Len(t, r.Adapters(), 1)
}
