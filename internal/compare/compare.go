// Package compare implements the Comparison Engine: a six-bucket weighted
// score (0-100) per product against budget/preference criteria, with a
// stable-descending ranking.
package compare

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Product is the input shape the Comparison Engine scores.
type Product struct {
	Name     string
	Brand    string
	Price    *float64
	Currency string
	Specs    map[string]string
	Features []string
}

// Criteria parameterizes the scoring.
type Criteria struct {
	MaxBudget   *float64
	Currency    string
	UseCase     string
	Preferences []string
}

// RankedEntry is one scored, ordered output entry.
type RankedEntry struct {
	Name   string   `json:"name"`
	Score  int      `json:"score"`
	Pros   []string `json:"pros"`
	Cons   []string `json:"cons"`
	Reason string   `json:"reason"`
}

// Compare scores every product and returns entries sorted by score
// descending, ties broken by original input order (stable sort).
func Compare(products []Product, criteria Criteria) []RankedEntry {
	unionSpecKeys := unionKeys(products)
	maxFeatures := maxFeatureCount(products)
	pricedMin, pricedMax, pricedCount := priceRange(products)

	entries := make([]RankedEntry, len(products))
	for i, p := range products {
		entries[i] = scoreOne(p, criteria, unionSpecKeys, maxFeatures, pricedMin, pricedMax, pricedCount)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Score > entries[j].Score
	})
	return entries
}

type trace struct {
	pros   []string
	cons   []string
	lines  []string
	total  int
}

func (t *trace) add(bucket string, n int, note string) {
	t.total += n
	sign := "+"
	if n < 0 {
		sign = ""
	}
	t.lines = append(t.lines, fmt.Sprintf("%s%d %s", sign, n, note))
	if n > 0 {
		t.pros = append(t.pros, note)
	} else if n < 0 {
		t.cons = append(t.cons, note)
	}
}

// addCon records a note that is a con regardless of its score delta — a
// zero-weight penalty ("over budget with no price comparison possible")
// still belongs in cons, not just strictly negative ones.
func (t *trace) addCon(bucket string, n int, note string) {
	t.total += n
	sign := "+"
	if n < 0 {
		sign = ""
	}
	t.lines = append(t.lines, fmt.Sprintf("%s%d %s", sign, n, note))
	t.cons = append(t.cons, note)
}

func scoreOne(p Product, c Criteria, unionSpecKeys map[string]bool, maxFeatures int, pricedMin, pricedMax float64, pricedCount int) RankedEntry {
	tr := &trace{}

	scoreCompleteness(p, tr)
	scoreBudget(p, c, tr)
	scoreRelativeValue(p, pricedMin, pricedMax, pricedCount, tr)
	scoreSpecRichness(p, unionSpecKeys, tr)
	scoreFeatureRichness(p, maxFeatures, tr)
	scorePreferenceMatch(p, c, tr)

	total := tr.total
	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}

	reason := fmt.Sprintf("Score %d/100: %s", total, strings.Join(tr.lines, "; "))

	return RankedEntry{
		Name:   p.Name,
		Score:  total,
		Pros:   tr.pros,
		Cons:   tr.cons,
		Reason: reason,
	}
}

func scoreCompleteness(p Product, tr *trace) {
	if p.Price != nil {
		tr.add("completeness", 8, "price known")
	}
	if p.Price != nil && p.Currency != "" {
		tr.add("completeness", 2, "currency known")
	}
	if p.Brand != "" {
		tr.add("completeness", 3, "brand known")
	}
	if len(p.Specs) >= 1 {
		tr.add("completeness", 4, "has specs")
	}
	if len(p.Features) >= 1 {
		tr.add("completeness", 3, "has features")
	}
}

func scoreBudget(p Product, c Criteria, tr *trace) {
	if c.MaxBudget == nil {
		tr.add("budget", 15, "no budget constraint")
		return
	}
	if p.Price == nil {
		tr.addCon("budget", 0, "cannot verify budget")
		return
	}
	if *p.Price <= *c.MaxBudget {
		tr.add("budget", 25, "within budget")
		return
	}
	tr.addCon("budget", 0, "Over budget")
}

func scoreRelativeValue(p Product, min, max float64, count int, tr *trace) {
	if p.Price == nil || count == 0 {
		tr.add("relative value", 0, "no price for relative comparison")
		return
	}
	if count == 1 {
		tr.add("relative value", 10, "only priced product")
		return
	}
	if max == min {
		tr.add("relative value", 10, "all priced products equal")
		return
	}
	n := int(math.Round((1 - (*p.Price-min)/(max-min)) * 20))
	note := "relative price"
	if *p.Price == min {
		note = "lowest price"
	} else if *p.Price == max {
		note = "highest price"
	}
	tr.add("relative value", n, note)
}

func scoreSpecRichness(p Product, unionKeys map[string]bool, tr *trace) {
	if len(unionKeys) == 0 {
		tr.add("spec richness", 0, "no specs across set")
		return
	}
	n := int(math.Round(float64(len(p.Specs)) / float64(len(unionKeys)) * 15))
	tr.add("spec richness", n, "rich specs")
}

func scoreFeatureRichness(p Product, maxFeatures int, tr *trace) {
	if maxFeatures == 0 {
		tr.add("feature richness", 0, "no features across set")
		return
	}
	n := int(math.Round(float64(len(p.Features)) / float64(maxFeatures) * 10))
	tr.add("feature richness", n, "rich features")
}

func scorePreferenceMatch(p Product, c Criteria, tr *trace) {
	if len(c.Preferences) == 0 {
		tr.add("preference match", 5, "no preferences given")
		return
	}
	haystack := strings.ToLower(searchableText(p))
	matched := 0
	for _, pref := range c.Preferences {
		if strings.Contains(haystack, strings.ToLower(pref)) {
			matched++
		}
	}
	if matched == 0 {
		tr.addCon("preference match", 0, "no preferences matched")
		return
	}
	n := int(math.Round(float64(matched) / float64(len(c.Preferences)) * 10))
	tr.add("preference match", n, "matched preferences")
}

func searchableText(p Product) string {
	var b strings.Builder
	b.WriteString(p.Name)
	b.WriteString("|")
	b.WriteString(p.Brand)
	b.WriteString("|")
	b.WriteString(strings.Join(p.Features, "|"))
	for k, v := range p.Specs {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("|")
		b.WriteString(v)
	}
	return b.String()
}

func unionKeys(products []Product) map[string]bool {
	out := make(map[string]bool)
	for _, p := range products {
		for k := range p.Specs {
			out[k] = true
		}
	}
	return out
}

func maxFeatureCount(products []Product) int {
	max := 0
	for _, p := range products {
		if len(p.Features) > max {
			max = len(p.Features)
		}
	}
	return max
}

func priceRange(products []Product) (min, max float64, count int) {
	first := true
	for _, p := range products {
		if p.Price == nil {
			continue
		}
		count++
		if first {
			min, max = *p.Price, *p.Price
			first = false
			continue
		}
		if *p.Price < min {
			min = *p.Price
		}
		if *p.Price > max {
			max = *p.Price
		}
	}
	return min, max, count
}
