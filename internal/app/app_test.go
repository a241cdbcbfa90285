package app

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer/wayfarer/internal/catalog"
	"github.com/wayfarer/wayfarer/internal/config"
	"github.com/wayfarer/wayfarer/internal/featureflags"
	"github.com/wayfarer/wayfarer/internal/itinerary"
	"github.com/wayfarer/wayfarer/internal/provider/resilience"
)

func TestFlagDefaults_SeedsCacheTTL(t *testing.T) {
	cfg := &config.Config{Redis: config.RedisConfig{TTL: 90 * time.Second}}

	defaults := flagDefaults(cfg)
	assert.Equal(t, 90, defaults[featureflags.FlagFlowCacheTTLSeconds].IntValue(0))

	// The package defaults are not mutated.
	assert.Equal(t, 300, featureflags.DefaultFlags()[featureflags.FlagFlowCacheTTLSeconds].IntValue(0))
}

func TestFlagDefaults_ZeroTTLKeepsDefault(t *testing.T) {
	defaults := flagDefaults(&config.Config{})
	assert.Equal(t, 300, defaults[featureflags.FlagFlowCacheTTLSeconds].IntValue(0))
}

func TestCatalogSources_PostgREST(t *testing.T) {
	a := &App{Sources: resilience.NewRegistry(), logger: zerolog.Nop()}
	cfg := &config.Config{Catalog: config.CatalogConfig{
		Backend: config.CatalogPostgREST,
		BaseURL: "https://store.example",
	}}

	sources, notes := a.catalogSources(cfg, zerolog.Nop())

	require.Len(t, sources, len(itinerary.EntityTypes()))
	for _, typ := range itinerary.EntityTypes() {
		assert.IsType(t, &catalog.RESTSource{}, sources[typ], typ)
	}
	assert.IsType(t, &catalog.RESTSource{}, notes)

	_, ok := a.Sources.Health("catalog." + catalog.NotesTable)
	assert.True(t, ok, "REST clients register with the source registry")
	assert.Len(t, a.Sources.All(), len(itinerary.EntityTypes())+1)
}
