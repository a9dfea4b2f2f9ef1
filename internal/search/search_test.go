package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSearchRejectsOutOfRangeMaxResults(t *testing.T) {
	e := New()
	if _, err := e.Search(context.Background(), "q", 0, "us-en"); err == nil {
		t.Fatal("expected error for max_results=0")
	}
	if _, err := e.Search(context.Background(), "q", 21, "us-en"); err == nil {
		t.Fatal("expected error for max_results=21")
	}
}

func TestSearchFallsBackToSyntheticMerchants(t *testing.T) {
	// Providers hit the real internet in this engine's default config, which
	// a unit test must not depend on; exercise the synthetic fallback
	// function directly instead.
	results := syntheticFallback("mechanical keyboard")
	if len(results) == 0 {
		t.Fatal("expected non-empty synthetic fallback")
	}
	for _, r := range results {
		if !strings.HasPrefix(r.URL, "https://") {
			t.Errorf("expected absolute https URL, got %q", r.URL)
		}
	}
}

func TestDedupAndFilterDropsBlockedHosts(t *testing.T) {
	in := []Result{
		{URL: "https://www.bing.com/search?q=x"},
		{URL: "https://example.com/a"},
		{URL: "https://example.com/a"}, // duplicate
	}
	out := dedupAndFilter(in)
	if len(out) != 1 {
		t.Fatalf("expected 1 result after dedup+blocklist, got %d: %+v", len(out), out)
	}
	if out[0].URL != "https://example.com/a" {
		t.Fatalf("unexpected surviving URL: %q", out[0].URL)
	}
}

func TestCooldownSkipsProvider(t *testing.T) {
	now := time.Now()
	e := New(WithClock(func() time.Time { return now }), WithCooldown(30*time.Second))
	e.setDDGCooldown()
	if !e.ddgCoolingDown() {
		t.Fatal("expected ddg to be cooling down")
	}
}

func TestRateLimitDetectionOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	e := New()
	_, err := e.fetchProvider(context.Background(), provider{
		name:     "test",
		fetchURL: func(_, _ string) string { return srv.URL },
		parse:    func(string) []Result { return nil },
	}, "q", "us-en")
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	if !rateLimitRe.MatchString(err.Error()) {
		t.Fatalf("expected rate-limit pattern match, got %q", err.Error())
	}
}
