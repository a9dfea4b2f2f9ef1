package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopagent/runtime/internal/rpcerr"
)

func TestFetchDetectsChallenge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>Please enable JavaScript and cookies to continue</body></html>"))
	}))
	defer srv.Close()

	f := New(WithURLValidator(func(string) error { return nil }))
	_, err := f.Fetch(context.Background(), srv.URL)
	var blocked *rpcerr.BlockedByChallenge
	if err == nil {
		t.Fatal("expected BlockedByChallenge error")
	}
	if _, ok := err.(*rpcerr.BlockedByChallenge); !ok {
		t.Fatalf("expected *rpcerr.BlockedByChallenge, got %T (%v)", err, err)
	}
	_ = blocked
}

func TestFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := New(WithURLValidator(func(string) error { return nil }))
	_, err := f.Fetch(context.Background(), srv.URL)
	he, ok := err.(*rpcerr.HTTPError)
	if !ok {
		t.Fatalf("expected *rpcerr.HTTPError, got %T (%v)", err, err)
	}
	if he.Status != 404 {
		t.Fatalf("expected status 404, got %d", he.Status)
	}
}

func TestFetchCleansScriptAndReducesText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>  Widget Shop  </title></head><body><script>evil()</script><p>Buy now</p></body></html>`))
	}))
	defer srv.Close()

	f := New(WithURLValidator(func(string) error { return nil }))
	page, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Title != "Widget Shop" {
		t.Errorf("expected normalized title, got %q", page.Title)
	}
	if page.Text != "Widget Shop Buy now" {
		t.Errorf("expected cleaned text, got %q", page.Text)
	}
}
