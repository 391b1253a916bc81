package tmdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"autotagger/internal/identification/tmdb"
	"autotagger/internal/services"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := tmdb.New("", "https://example.com", "en-US"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error when api key missing, got %v", err)
	}
}

func TestSearchTVSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("api_key") != "key" {
			t.Fatalf("expected api_key query parameter, got %q", r.URL.RawQuery)
		}
		if r.URL.Query().Get("query") != "Example Show" {
			t.Fatalf("unexpected query %q", r.URL.Query().Get("query"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"page":1,"results":[{"id":1399,"name":"Example Show","first_air_date":"2011-04-17"}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "en-US")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	resp, err := client.SearchTV(context.Background(), "Example Show")
	if err != nil {
		t.Fatalf("SearchTV returned error: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Fatalf("unexpected response: %#v", resp)
	}
	if got := resp.Results[0].Label(); got != "1399: Example Show (2011-04-17)" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestResponsesAreCached(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"id":7,"name":"Season 1","season_number":1,"episodes":[{"id":70,"name":"Pilot","season_number":1,"episode_number":1}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	for i := 0; i < 3; i++ {
		season, err := client.GetSeasonDetails(context.Background(), 7, 1)
		if err != nil {
			t.Fatalf("GetSeasonDetails returned error: %v", err)
		}
		if len(season.Episodes) != 1 || season.Episodes[0].Label() != "Episode 1 - Pilot" {
			t.Fatalf("unexpected season payload: %#v", season)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected a single upstream request, got %d", hits.Load())
	}
}

func TestGetTVDetailsSeasons(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/tv/42" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":42,"name":"Show","seasons":[{"id":1,"name":"Specials","season_number":0,"episode_count":2},{"id":2,"name":"Season 1","season_number":1,"episode_count":10}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := tmdb.New("key", server.URL, "", tmdb.WithCache(nil))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	show, err := client.GetTVDetails(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetTVDetails returned error: %v", err)
	}
	if len(show.Seasons) != 2 || show.Seasons[1].Label() != "Season 1 (10 episodes)" {
		t.Fatalf("unexpected seasons: %#v", show.Seasons)
	}
}

func TestHTTPErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name   string
		status int
		marker error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, marker: services.ErrAuthentication},
		{name: "missing", status: http.StatusNotFound, marker: services.ErrNotFound},
		{name: "server", status: http.StatusInternalServerError, marker: services.ErrNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(server.Close)

			client, err := tmdb.New("key", server.URL, "")
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if _, err := client.GetTVDetails(context.Background(), 1); !errors.Is(err, tt.marker) {
				t.Fatalf("expected %v, got %v", tt.marker, err)
			}
		})
	}
}

func TestSearchTVEmptyQuery(t *testing.T) {
	client, err := tmdb.New("key", "https://example.com", "")
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if _, err := client.SearchTV(context.Background(), "  "); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty query, got %v", err)
	}
}
