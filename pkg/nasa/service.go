// Package nasa adapts the NASA open data endpoints (APOD, Mars rover photos
// and the NeoWs feed) to the cache-aside fetcher: each adapter validates
// its query, derives a cache key, calls the origin and projects the
// response to the fields the proxy serves.
package nasa

import (
	"context"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/nasa-api-proxy/pkg/client"
	"github.com/Sternrassler/nasa-api-proxy/pkg/fetch"
)

// Default origin endpoints.
const (
	DefaultAPODURL  = "https://api.nasa.gov/planetary/apod"
	DefaultMarsURL  = "https://api.nasa.gov/mars-photos/api/v1/rovers/curiosity/photos"
	DefaultNeoWsURL = "https://api.nasa.gov/neo/rest/v1/feed"
)

// Origin performs a JSON GET against the NASA API.
// *client.Client implements it.
type Origin interface {
	GetJSON(ctx context.Context, endpoint string, params url.Values, dst any) error
}

// Endpoints holds the origin URLs.
type Endpoints struct {
	APOD  string
	Mars  string
	NeoWs string
}

// DefaultEndpoints returns the api.nasa.gov endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		APOD:  DefaultAPODURL,
		Mars:  DefaultMarsURL,
		NeoWs: DefaultNeoWsURL,
	}
}

// Service serves NASA data through the fetcher.
type Service struct {
	origin    Origin
	fetcher   *fetch.Fetcher
	policy    fetch.Policy
	endpoints Endpoints
	logger    zerolog.Logger
}

// Config configures a Service.
type Config struct {
	Endpoints Endpoints
	Policy    fetch.Policy
}

// DefaultConfig returns the default endpoints and fetch policy.
func DefaultConfig() Config {
	return Config{
		Endpoints: DefaultEndpoints(),
		Policy:    fetch.DefaultPolicy(),
	}
}

// NewService creates a Service.
func NewService(origin Origin, fetcher *fetch.Fetcher, cfg Config) *Service {
	if origin == nil || fetcher == nil {
		panic("nasa: origin and fetcher are required")
	}

	defaults := DefaultEndpoints()
	if cfg.Endpoints.APOD == "" {
		cfg.Endpoints.APOD = defaults.APOD
	}
	if cfg.Endpoints.Mars == "" {
		cfg.Endpoints.Mars = defaults.Mars
	}
	if cfg.Endpoints.NeoWs == "" {
		cfg.Endpoints.NeoWs = defaults.NeoWs
	}

	return &Service{
		origin:    origin,
		fetcher:   fetcher,
		policy:    cfg.Policy,
		endpoints: cfg.Endpoints,
		logger:    log.With().Str("component", "nasa").Logger(),
	}
}

// Policy returns the fetch policy used by all adapters.
func (s *Service) Policy() fetch.Policy {
	return s.policy
}

// APOD returns the Astronomy Picture of the Day.
func (s *Service) APOD(ctx context.Context) fetch.Outcome[APOD] {
	return s.apod(ctx, false)
}

func (s *Service) apod(ctx context.Context, refresh bool) fetch.Outcome[APOD] {
	origin := func(ctx context.Context) (APOD, error) {
		var wire apodWire
		if err := s.get(ctx, "apod", s.endpoints.APOD, nil, &wire); err != nil {
			return APOD{}, err
		}
		return projectAPOD(wire), nil
	}
	return load(ctx, s, APODKey(), origin, refresh)
}

// MarsPhotos returns rover photos for q. Invalid queries fail with
// ErrInvalidQuery before any cache or origin access.
func (s *Service) MarsPhotos(ctx context.Context, q MarsQuery) fetch.Outcome[[]Photo] {
	return s.marsPhotos(ctx, q, false)
}

func (s *Service) marsPhotos(ctx context.Context, q MarsQuery, refresh bool) fetch.Outcome[[]Photo] {
	q, err := q.Normalize()
	if err != nil {
		return fetch.Failed[[]Photo](err)
	}

	params := q.Params()
	origin := func(ctx context.Context) ([]Photo, error) {
		var wire marsWire
		if err := s.get(ctx, "mars", s.endpoints.Mars, params, &wire); err != nil {
			return nil, err
		}
		return projectPhotos(wire), nil
	}
	return load(ctx, s, q.Key(), origin, refresh)
}

// NeoWs returns the flattened near earth object feed for q. Invalid
// queries fail with ErrInvalidQuery before any cache or origin access.
func (s *Service) NeoWs(ctx context.Context, q NeoWsQuery) fetch.Outcome[[]NearEarthObject] {
	return s.neoWs(ctx, q, false)
}

func (s *Service) neoWs(ctx context.Context, q NeoWsQuery, refresh bool) fetch.Outcome[[]NearEarthObject] {
	if err := q.Validate(); err != nil {
		return fetch.Failed[[]NearEarthObject](err)
	}

	params := q.Params()
	origin := func(ctx context.Context) ([]NearEarthObject, error) {
		var wire neowsWire
		if err := s.get(ctx, "neows", s.endpoints.NeoWs, params, &wire); err != nil {
			return nil, err
		}
		return projectNeoWs(wire), nil
	}
	return load(ctx, s, q.Key(), origin, refresh)
}

// load reads through the cache, or replaces the entry from origin when
// refresh is set.
func load[T any](ctx context.Context, s *Service, key string, origin fetch.OriginFunc[T], refresh bool) fetch.Outcome[T] {
	if refresh {
		return fetch.Refresh(ctx, s.fetcher, key, origin, s.policy)
	}
	return fetch.Fetch(ctx, s.fetcher, key, origin, s.policy)
}

func (s *Service) get(ctx context.Context, resource, endpoint string, params url.Values, dst any) error {
	if err := s.origin.GetJSON(ctx, endpoint, params, dst); err != nil {
		s.logger.Debug().
			Err(err).
			Str("resource", resource).
			Str("error_class", string(client.ClassOf(err))).
			Msg("Origin call failed")
		return fmt.Errorf("fetch %s: %w", resource, err)
	}
	return nil
}
