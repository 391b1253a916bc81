package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"autotagger/internal/services"
)

const (
	defaultCacheTTL     = time.Hour
	defaultCacheCleanup = 10 * time.Minute
)

// Show represents a single TMDB TV search match or show detail payload.
type Show struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	OriginalName string   `json:"original_name"`
	Overview     string   `json:"overview"`
	FirstAirDate string   `json:"first_air_date"`
	Popularity   float64  `json:"popularity"`
	Seasons      []Season `json:"seasons,omitempty"`
}

// Label renders the show the way selection prompts display it.
func (s Show) Label() string {
	return fmt.Sprintf("%d: %s (%s)", s.ID, s.Name, s.FirstAirDate)
}

// Season is a season summary as listed on the show details payload.
type Season struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
	AirDate      string `json:"air_date"`
}

// Label renders the season the way selection prompts display it.
func (s Season) Label() string {
	return fmt.Sprintf("%s (%d episodes)", s.Name, s.EpisodeCount)
}

// SearchResponse models the TMDB paginated search response.
type SearchResponse struct {
	Page         int    `json:"page"`
	Results      []Show `json:"results"`
	TotalPages   int    `json:"total_pages"`
	TotalResults int    `json:"total_results"`
}

// Episode describes a single TMDB episode entry.
type Episode struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Overview      string `json:"overview"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	Runtime       int    `json:"runtime"`
	AirDate       string `json:"air_date"`
}

// Label renders the episode the way selection prompts display it.
func (e Episode) Label() string {
	return fmt.Sprintf("Episode %d - %s", e.EpisodeNumber, e.Name)
}

// SeasonDetails captures the full TMDB season payload (episodes included).
type SeasonDetails struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	SeasonNumber int       `json:"season_number"`
	Episodes     []Episode `json:"episodes"`
}

// Searcher defines the TMDB operations used by the tagging workflow.
type Searcher interface {
	SearchTV(ctx context.Context, query string) (*SearchResponse, error)
	GetTVDetails(ctx context.Context, showID int64) (*Show, error)
	GetSeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetails, error)
}

// Client provides access to the TMDB API.
type Client struct {
	apiKey     string
	baseURL    string
	language   string
	httpClient *http.Client
	cache      *cache.Cache
}

var _ Searcher = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithCache overrides the response cache. Passing nil disables caching.
func WithCache(store *cache.Cache) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// New creates a TMDB client.
func New(apiKey, baseURL, language string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "init", "tmdb api key required", nil)
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "init", "tmdb base url required", nil)
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		cache:      cache.New(defaultCacheTTL, defaultCacheCleanup),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// SearchTV searches TMDB for TV shows matching query.
func (c *Client) SearchTV(ctx context.Context, query string) (*SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "search", "query must not be empty", nil)
	}
	params := url.Values{}
	params.Set("query", query)
	var payload SearchResponse
	if err := c.getJSON(ctx, "search", "/search/tv", params, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetTVDetails fetches TV show details, including the season list, by TMDB ID.
func (c *Client) GetTVDetails(ctx context.Context, showID int64) (*Show, error) {
	if showID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "tv details", "show id must be positive", nil)
	}
	var payload Show
	if err := c.getJSON(ctx, "tv details", fmt.Sprintf("/tv/%d", showID), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// GetSeasonDetails fetches the full season metadata for a TV show, including episodes.
// Season zero (specials) is a valid season number.
func (c *Client) GetSeasonDetails(ctx context.Context, showID int64, seasonNumber int) (*SeasonDetails, error) {
	if showID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "season details", "show id must be positive", nil)
	}
	if seasonNumber < 0 {
		return nil, services.Wrap(services.ErrValidation, "tmdb", "season details", "season number must not be negative", nil)
	}
	var payload SeasonDetails
	if err := c.getJSON(ctx, "season details", fmt.Sprintf("/tv/%d/season/%d", showID, seasonNumber), nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, params url.Values, dest any) error {
	if params == nil {
		params = url.Values{}
	}
	if c.language != "" {
		params.Set("language", c.language)
	}
	cacheKey := path + "?" + params.Encode()
	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			if data, ok := cached.([]byte); ok {
				if err := json.Unmarshal(data, dest); err == nil {
					return nil
				}
				c.cache.Delete(cacheKey)
			}
		}
	}

	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "tmdb", op, "parse tmdb url", err)
	}
	query := url.Values{}
	for key, values := range params {
		query[key] = values
	}
	query.Set("api_key", c.apiKey)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return services.Wrap(services.ErrValidation, "tmdb", op, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return services.Wrap(services.ErrNetwork, "tmdb", op, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return services.Wrap(services.ErrAuthentication, "tmdb", op, "tmdb rejected the api key", nil)
	case resp.StatusCode == http.StatusNotFound:
		return services.Wrap(services.ErrNotFound, "tmdb", op, fmt.Sprintf("%s not found", path), nil)
	case resp.StatusCode != http.StatusOK:
		return services.Wrap(services.ErrNetwork, "tmdb", op, fmt.Sprintf("tmdb returned %d (latency=%v)", resp.StatusCode, latency), nil)
	}

	var raw json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return services.Wrap(services.ErrNetwork, "tmdb", op, "decode tmdb response", err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return services.Wrap(services.ErrNetwork, "tmdb", op, "decode tmdb response", err)
	}
	if c.cache != nil {
		c.cache.SetDefault(cacheKey, []byte(raw))
	}
	return nil
}
