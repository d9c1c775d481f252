package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/database/search" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("q"); got != "pink floyd" {
			t.Errorf("unexpected query: %q", got)
		}
		if got := r.URL.Query().Get("type"); got != "release" {
			t.Errorf("unexpected type: %q", got)
		}
		if got := r.URL.Query().Get("page"); got != "2" {
			t.Errorf("unexpected page: %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Discogs token=test-token" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": [
			{"id": 101, "title": "Pink Floyd - The Wall", "genre": ["Rock"], "style": ["Prog Rock", "Art Rock"], "label": ["Harvest"], "format": ["Vinyl", "LP"]},
			{"id": 102, "title": "  ", "genre": [], "label": ["", "  "]}
		]}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-token", server.URL)
	candidates, err := client.Search(context.Background(), "pink floyd", 2)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	first := candidates[0]
	if first.ReleaseID != 101 || first.Title != "Pink Floyd - The Wall" {
		t.Errorf("unexpected first candidate: %+v", first)
	}
	if first.Styles != "Prog Rock, Art Rock" {
		t.Errorf("expected joined styles, got %q", first.Styles)
	}
	if first.Formats != "Vinyl, LP" {
		t.Errorf("expected joined formats, got %q", first.Formats)
	}

	// Missing and blank metadata collapses to defaults.
	second := candidates[1]
	if second.Title != "N/A" || second.Genres != "N/A" || second.Labels != "N/A" {
		t.Errorf("expected defaults for missing fields, got %+v", second)
	}
	if second.Formats != "Unknown Format" {
		t.Errorf("expected default format, got %q", second.Formats)
	}
}

func TestSearchNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-token", server.URL)
	if _, err := client.Search(context.Background(), "anything", 1); err == nil {
		t.Error("expected an error for a 429 response")
	}
}

func TestPriceSuggestions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/marketplace/price_suggestions/101" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"Near Mint (NM or M-)": {"currency": "USD", "value": 39.995},
			"Very Good Plus (VG+)": {"currency": "USD", "value": 25.0}
		}`))
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-token", server.URL)
	suggestions := client.PriceSuggestions(context.Background(), 101)
	if len(suggestions) != 2 {
		t.Fatalf("expected 2 suggestions, got %d", len(suggestions))
	}
	if got := suggestions["Near Mint (NM or M-)"].Value.StringFixed(2); got != "40.00" {
		t.Errorf("expected rounded value 40.00, got %s", got)
	}
	if got := suggestions["Very Good Plus (VG+)"].Value.StringFixed(2); got != "25.00" {
		t.Errorf("expected 25.00, got %s", got)
	}
}

func TestPriceSuggestionsDegradeToEmpty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClientWithBaseURL("test-token", server.URL)
	if got := client.PriceSuggestions(context.Background(), 999); len(got) != 0 {
		t.Errorf("expected empty suggestions on failure, got %v", got)
	}

	malformed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	}))
	defer malformed.Close()

	client = NewClientWithBaseURL("test-token", malformed.URL)
	if got := client.PriceSuggestions(context.Background(), 101); len(got) != 0 {
		t.Errorf("expected empty suggestions on malformed body, got %v", got)
	}
}
