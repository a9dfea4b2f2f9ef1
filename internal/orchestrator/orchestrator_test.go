package orchestrator

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopagent/runtime/internal/extract"
)

func TestParseConstraintsGBP(t *testing.T) {
	c := ParseConstraints("find headphones under £100")
	if c.Currency != "GBP" {
		t.Fatalf("expected GBP, got %q", c.Currency)
	}
	if c.Region != "uk-en" {
		t.Fatalf("expected uk-en region, got %q", c.Region)
	}
	if c.MaxBudget == nil || *c.MaxBudget != 100 {
		t.Fatalf("expected budget 100, got %v", c.MaxBudget)
	}
}

func TestParseConstraintsBareDollarAmount(t *testing.T) {
	c := ParseConstraints("I want a laptop $500 please")
	if c.Currency != "USD" {
		t.Fatalf("expected USD, got %q", c.Currency)
	}
	if c.MaxBudget == nil || *c.MaxBudget != 500 {
		t.Fatalf("expected budget 500, got %v", c.MaxBudget)
	}
}

func TestParseConstraintsDefaultsToUS(t *testing.T) {
	c := ParseConstraints("find a good blender")
	if c.Currency != "" || c.Region != "us-en" {
		t.Fatalf("expected no currency and us-en region, got %+v", c)
	}
}

func TestCleanQueryDropsStopWordsAndBudget(t *testing.T) {
	q := CleanQuery("please find me a good blender under $50")
	if strings.Contains(q, "50") {
		t.Fatalf("expected budget number stripped, got %q", q)
	}
	if !strings.HasSuffix(q, "buy") {
		t.Fatalf("expected query to end with 'buy', got %q", q)
	}
	if strings.Contains(q, "please") || strings.Contains(q, "good") {
		t.Fatalf("expected stop words dropped, got %q", q)
	}
	if !strings.Contains(q, "blender") {
		t.Fatalf("expected 'blender' kept, got %q", q)
	}
}

func TestExtractExplicitURLsPreservesOrder(t *testing.T) {
	urls := ExtractExplicitURLs("compare https://example.com/p/123 with alternatives")
	if len(urls) != 1 || urls[0] != "https://example.com/p/123" {
		t.Fatalf("unexpected explicit urls: %v", urls)
	}
	urls = ExtractExplicitURLs("see https://b.example/x then https://a.example/y")
	if len(urls) != 2 || urls[0] != "https://b.example/x" || urls[1] != "https://a.example/y" {
		t.Fatalf("expected prompt order preserved, got %v", urls)
	}
}

func TestDiversifyByHostRoundRobinsAndCaps(t *testing.T) {
	var urls []string
	for i := 0; i < 10; i++ {
		urls = append(urls, "https://a.com/p1", "https://a.com/p2", "https://a.com/p3")
	}
	for i := 0; i < 20; i++ {
		urls = append(urls, fmt.Sprintf("https://host%d.com/p", i))
	}
	out := diversifyByHost(urls)
	if len(out) != maxDiversifiedCandidates {
		t.Fatalf("expected cap at %d, got %d", maxDiversifiedCandidates, len(out))
	}
	if hostOf(out[2]) == "a.com" {
		t.Fatalf("expected a.com limited to 2 per pass before other hosts, got %v", out)
	}
	fromA := 0
	for _, u := range out {
		if hostOf(u) == "a.com" {
			fromA++
		}
	}
	if fromA != 2 {
		t.Fatalf("expected 2 a.com urls in first pass, got %d", fromA)
	}
}

func TestIsWeakMissingPrice(t *testing.T) {
	c := &extract.Candidate{URL: "https://shop.example.com/p/1", Name: "Widget", Confidence: 0.5}
	if !isWeak(c) {
		t.Fatal("expected candidate with nil price to be weak")
	}
}

func TestPassesRelevanceGateRequiresQueryTermOverlap(t *testing.T) {
	price := 9.99
	c := &extract.Candidate{
		URL: "https://shop.example.com/p/1", Name: "Blue Widget", Price: &price,
		Confidence: 0.5, Availability: "in_stock",
	}
	if passesRelevanceGate(c, []string{"blender", "buy"}) {
		t.Fatal("expected no overlap with query terms to fail the gate")
	}
	if !passesRelevanceGate(c, []string{"widget", "buy"}) {
		t.Fatal("expected overlap with 'widget' to pass the gate")
	}
}

func TestFinalFilterFallsBackWhenStrictPoolEmpty(t *testing.T) {
	price := 500.0
	budget := 100.0
	pool := []*extract.Candidate{
		{Name: "Pricey", Price: &price, Confidence: 0.5, Currency: "USD"},
	}
	out := finalFilter(pool, Constraints{MaxBudget: &budget, Currency: "USD"})
	if len(out) != 1 {
		t.Fatalf("expected fallback to still return the one named high-confidence candidate, got %d", len(out))
	}
}
