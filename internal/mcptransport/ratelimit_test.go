package mcptransport

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func newRateLimitedServer(rl *RateLimiter) *httptest.Server {
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return httptest.NewServer(handler)
}

func TestRateLimiterAllowsWithinWindow(t *testing.T) {
	rl := NewRateLimiter(2, 60)
	ts := newRateLimitedServer(rl)
	defer ts.Close()

	for i := 0; i < 2; i++ {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/messages", nil)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, res.StatusCode)
		}
	}
}

func TestRateLimiterBlocksOverWindow(t *testing.T) {
	rl := NewRateLimiter(1, 60)
	ts := newRateLimitedServer(rl)
	defer ts.Close()

	first, _ := http.NewRequest(http.MethodPost, ts.URL+"/messages", nil)
	res, err := http.DefaultClient.Do(first)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", res.StatusCode)
	}

	second, _ := http.NewRequest(http.MethodPost, ts.URL+"/messages", nil)
	res2, err := http.DefaultClient.Do(second)
	if err != nil {
		t.Fatal(err)
	}
	defer res2.Body.Close()
	if res2.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be rate-limited, got %d", res2.StatusCode)
	}
}

func TestRateLimiterIgnoresOtherRoutes(t *testing.T) {
	rl := NewRateLimiter(1, 60)
	ts := newRateLimitedServer(rl)
	defer ts.Close()

	for i := 0; i < 3; i++ {
		res, err := http.Get(ts.URL + "/health")
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("request %d to non-/messages route: expected 200, got %d", i, res.StatusCode)
		}
	}
}

func TestRateLimiterDisabledWhenMaxRequestsNonPositive(t *testing.T) {
	rl := NewRateLimiter(0, 60)
	ts := newRateLimitedServer(rl)
	defer ts.Close()

	for i := 0; i < 5; i++ {
		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/messages", nil)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200 with limiting disabled, got %d", i, res.StatusCode)
		}
	}
}
