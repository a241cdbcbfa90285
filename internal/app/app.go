// Package app wires the shared services used by the API server and the
// worker from a loaded configuration.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/wayfarer/wayfarer/internal/admission"
	"github.com/wayfarer/wayfarer/internal/catalog"
	"github.com/wayfarer/wayfarer/internal/config"
	"github.com/wayfarer/wayfarer/internal/database"
	"github.com/wayfarer/wayfarer/internal/featureflags"
	"github.com/wayfarer/wayfarer/internal/itinerary"
	"github.com/wayfarer/wayfarer/internal/openinghours"
	"github.com/wayfarer/wayfarer/internal/provider/resilience"
)

// Options selects optional wiring.
type Options struct {
	// PublishEvents connects the save-event publisher. The worker leaves it
	// off since it only consumes events.
	PublishEvents bool
}

// Probe is a named dependency check.
type Probe struct {
	Name  string
	Check func(ctx context.Context) error
}

// App holds the connected dependencies and the services built on them.
type App struct {
	Pool      *pgxpool.Pool
	Cache     *itinerary.RedisCache
	Publisher *itinerary.PubSubPublisher
	Sources   *resilience.Registry

	Flags        *featureflags.Service
	Itineraries  *itinerary.Service
	OpeningHours *openinghours.Service
	Admission    *admission.Service

	logger zerolog.Logger
}

// New connects to the database, the optional flow cache and the optional
// Pub/Sub topic, and builds the services. Close releases everything.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts Options) (*App, error) {
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	a := &App{Pool: pool, Sources: resilience.NewRegistry(), logger: logger}

	if cfg.Redis.Addr != "" {
		a.Cache, err = itinerary.NewRedisCache(ctx, itinerary.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("flow cache connected")
	} else {
		logger.Warn().Msg("REDIS_ADDR not set, flow cache disabled")
	}

	if opts.PublishEvents && cfg.PubSub.ProjectID != "" {
		a.Publisher, err = itinerary.NewPubSubPublisher(ctx, itinerary.PubSubPublisherConfig{
			ProjectID: cfg.PubSub.ProjectID,
			Topic:     cfg.PubSub.Topic,
		})
		if err != nil {
			a.Close()
			return nil, err
		}
		logger.Info().Str("topic", cfg.PubSub.Topic).Msg("save event publisher initialized")
	}

	a.Flags = featureflags.NewService(featureflags.ServiceConfig{
		Repository:   featureflags.NewPostgresRepository(pool),
		Logger:       logger,
		DefaultFlags: flagDefaults(cfg),
	})

	sources, notes := a.catalogSources(cfg, logger)
	hydrator, err := itinerary.NewHydrator(itinerary.HydratorConfig{
		Sources: sources,
		Notes:   notes,
		Logger:  logger,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	svcCfg := itinerary.ServiceConfig{
		Repository: itinerary.NewPostgresRepository(pool),
		Hydrator:   hydrator,
		Logger:     logger,
		Flags:      a.Flags,
	}
	// Typed nils must not reach the interface fields.
	if a.Cache != nil {
		svcCfg.Cache = a.Cache
	}
	if a.Publisher != nil {
		svcCfg.Publisher = a.Publisher
	}
	a.Itineraries = itinerary.NewService(svcCfg)

	a.OpeningHours = openinghours.NewService(openinghours.ServiceConfig{
		Repository: openinghours.NewPostgresRepository(pool),
		Logger:     logger,
	})
	a.Admission = admission.NewService(admission.ServiceConfig{
		Repository: admission.NewPostgresRepository(pool),
		Logger:     logger,
	})

	return a, nil
}

func (a *App) catalogSources(cfg *config.Config, logger zerolog.Logger) (map[itinerary.ItemType]catalog.Source, catalog.NoteSource) {
	if cfg.Catalog.Backend == config.CatalogPostgREST {
		rest := func(table string) *catalog.RESTSource {
			return catalog.NewRESTSource(catalog.RESTConfig{
				BaseURL:       cfg.Catalog.BaseURL,
				APIKey:        cfg.Catalog.APIKey,
				Table:         table,
				Registry:      a.Sources,
				RatePerSecond: cfg.Catalog.RatePerSecond,
				Logger:        logger,
			})
		}
		logger.Info().Str("base_url", cfg.Catalog.BaseURL).Msg("catalog lookups via data store REST API")
		return itinerary.SourcesFor(func(table string) catalog.Source { return rest(table) }), rest(catalog.NotesTable)
	}

	return itinerary.SourcesFor(func(table string) catalog.Source {
		return catalog.NewPostgresSource(a.Pool, table)
	}), catalog.NewPostgresNoteSource(a.Pool)
}

// flagDefaults seeds the flow cache TTL flag from configuration.
func flagDefaults(cfg *config.Config) map[string]*featureflags.Flag {
	defaults := featureflags.DefaultFlags()
	if ttl := cfg.Redis.TTL.Seconds(); ttl > 0 {
		if f, ok := defaults[featureflags.FlagFlowCacheTTLSeconds]; ok {
			seeded := *f
			seeded.Value = ttl
			defaults[featureflags.FlagFlowCacheTTLSeconds] = &seeded
		}
	}
	return defaults
}

// Probes returns readiness checks for the connected dependencies.
func (a *App) Probes() []Probe {
	probes := []Probe{{Name: "database", Check: a.Pool.Ping}}
	if a.Cache != nil {
		probes = append(probes, Probe{Name: "redis", Check: a.Cache.Ping})
	}
	return probes
}

// Close releases every connection. It is safe on a partially built App.
func (a *App) Close() {
	var errs []error
	if a.Publisher != nil {
		errs = append(errs, a.Publisher.Close())
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if err := errors.Join(errs...); err != nil {
		a.logger.Error().Err(err).Msg("failed to close dependencies")
	}
}
