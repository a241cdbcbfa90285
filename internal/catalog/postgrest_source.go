package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/wayfarer/wayfarer/internal/provider/resilience"
)

// HTTPDoer executes HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// RESTConfig configures a PostgREST-backed source.
type RESTConfig struct {
	// BaseURL is the data store URL, e.g. https://xyz.supabase.co.
	BaseURL string

	// APIKey is sent as both the apikey header and the bearer token.
	APIKey string

	// Table is the catalog table queried by this source.
	Table string

	// HTTPClient overrides the resilient client. Tests inject one here.
	HTTPClient HTTPDoer

	// Registry tracks breaker health when HTTPClient is nil.
	Registry *resilience.Registry

	// RatePerSecond caps lookups when HTTPClient is nil. Zero is unlimited.
	RatePerSecond float64

	Logger zerolog.Logger
}

// RESTSource looks entities up through the hosted data store's REST API.
type RESTSource struct {
	baseURL    string
	apiKey     string
	table      string
	httpClient HTTPDoer
	logger     zerolog.Logger
}

// NewRESTSource creates a REST source for one table.
func NewRESTSource(cfg RESTConfig) *RESTSource {
	client := cfg.HTTPClient
	if client == nil {
		clientCfg := resilience.DefaultClientConfig("catalog." + cfg.Table)
		clientCfg.Registry = cfg.Registry
		clientCfg.RatePerSecond = cfg.RatePerSecond
		client = resilience.NewClient(clientCfg)
	}

	return &RESTSource{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		table:      cfg.Table,
		httpClient: client,
		logger:     cfg.Logger,
	}
}

type restEntity struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Slug     *string  `json:"slug"`
	Summary  *string  `json:"summary"`
	ImageURL *string  `json:"image_url"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

// Lookup fetches the published row with the given id.
func (s *RESTSource) Lookup(ctx context.Context, id string) (*Entity, error) {
	q := url.Values{}
	q.Set("select", "id,name,slug,summary,image_url,lat,lng")
	q.Set("id", "eq."+id)
	q.Set("status", "eq.published")
	q.Set("limit", "1")

	var rows []restEntity
	if err := s.get(ctx, s.table, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotVisible
	}

	r := rows[0]
	return &Entity{
		ID:       r.ID,
		Table:    s.table,
		Name:     r.Name,
		Slug:     r.Slug,
		Summary:  r.Summary,
		ImageURL: r.ImageURL,
		Lat:      r.Lat,
		Lng:      r.Lng,
	}, nil
}

// LookupNote fetches a stored note. Only valid on a source created for
// NotesTable.
func (s *RESTSource) LookupNote(ctx context.Context, id string) (*Note, error) {
	q := url.Values{}
	q.Set("select", "id,title,details")
	q.Set("id", "eq."+id)
	q.Set("limit", "1")

	var rows []Note
	if err := s.get(ctx, s.table, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotVisible
	}
	return &rows[0], nil
}

func (s *RESTSource) get(ctx context.Context, table string, q url.Values, out any) error {
	endpoint := fmt.Sprintf("%s/rest/v1/%s?%s", s.baseURL, table, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s response: %w", table, err)
	}

	if resp.StatusCode != http.StatusOK {
		s.logger.Debug().
			Str("table", table).
			Int("status", resp.StatusCode).
			Str("body", string(body)).
			Msg("data store rejected lookup")
		return fmt.Errorf("query %s: unexpected status %d", table, resp.StatusCode)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s response: %w", table, err)
	}
	return nil
}

var (
	_ Source     = (*RESTSource)(nil)
	_ NoteSource = (*RESTSource)(nil)
)
