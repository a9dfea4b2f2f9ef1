package compare

import (
	"strings"
	"testing"
)

func f(v float64) *float64 { return &v }

func TestCompareBudgetGate(t *testing.T) {
	a := Product{Name: "A", Price: f(50), Currency: "USD", Specs: map[string]string{"a": "1"}, Features: []string{"f"}}
	b := Product{Name: "B", Price: f(200), Currency: "USD", Specs: map[string]string{"a": "1", "b": "2"}, Features: []string{"f", "g"}}

	entries := Compare([]Product{a, b}, Criteria{MaxBudget: f(100), Currency: "USD", UseCase: "home"})

	if entries[0].Name != "A" {
		t.Fatalf("expected A ranked first, got %+v", entries)
	}
	found := false
	for _, c := range entries[1].Cons {
		if c == "Over budget" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected B to have 'Over budget' in cons, got %+v", entries[1])
	}
}

func TestCompareScoresInRange(t *testing.T) {
	products := []Product{
		{Name: "X", Price: f(10)},
		{Name: "Y"},
	}
	entries := Compare(products, Criteria{})
	if len(entries) != len(products) {
		t.Fatalf("expected %d entries, got %d", len(products), len(entries))
	}
	for _, e := range entries {
		if e.Score < 0 || e.Score > 100 {
			t.Fatalf("score out of range: %d", e.Score)
		}
	}
}

func TestCompareStableOrderOnTie(t *testing.T) {
	products := []Product{
		{Name: "first"},
		{Name: "second"},
	}
	entries := Compare(products, Criteria{})
	if entries[0].Name != "first" || entries[1].Name != "second" {
		t.Fatalf("expected stable tie order, got %+v", entries)
	}
}

func TestCompareBudgetZero(t *testing.T) {
	products := []Product{
		{Name: "cheap", Price: f(0)},
		{Name: "pricey", Price: f(5)},
	}
	entries := Compare(products, Criteria{MaxBudget: f(0)})
	for _, e := range entries {
		// budget bucket must contribute 0 for the over-budget product;
		// other buckets may still contribute.
		if e.Name == "pricey" && !strings.Contains(e.Reason, "+0 Over budget") {
			t.Fatalf("expected pricey to get 0 from the budget bucket, got %q", e.Reason)
		}
	}
	// cheap product at price==budget should pass the budget gate (<=).
	var cheapScore int
	for _, e := range entries {
		if e.Name == "cheap" {
			cheapScore = e.Score
		}
	}
	if cheapScore == 0 {
		t.Fatalf("expected cheap product (price==budget) to pass gate with some score, got 0")
	}
}
