package orchestrator

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopagent/runtime/internal/extract"
)

var irrelevantNameRe = regexp.MustCompile(`(?i)^(page not found|404|error|access denied|sign in|login|cart|checkout)\b`)

var boilerplateRe = regexp.MustCompile(`(?i)search results|sort by|filter by|refine by|browse all|showing results`)

// isWeak flags a candidate that the visit protocol should not accept on a
// first pass and should instead keep looking (e.g. follow a listing page's
// product links) rather than settle for.
func isWeak(c *extract.Candidate) bool {
	if c.Name == "" || irrelevantNameRe.MatchString(c.Name) {
		return true
	}
	if c.Price == nil {
		return true
	}
	if c.Confidence < 0.2 {
		return true
	}
	if isListingPage(c.URL) {
		return true
	}
	return false
}

// passesRelevanceGate applies the name/boilerplate/term-overlap/confidence/
// availability checks that gate a candidate into the pool at all.
func passesRelevanceGate(c *extract.Candidate, queryTerms []string) bool {
	if c.Name == "" || irrelevantNameRe.MatchString(c.Name) {
		return false
	}
	featureText := strings.Join(c.KeyFeatures, " ") + " " + c.Category
	if boilerplateRe.MatchString(featureText) {
		return false
	}
	haystack := strings.ToLower(c.Name + " " + c.Category + " " + strings.Join(c.KeyFeatures, " ") + " " + c.URL)
	if !matchesAnyTerm(haystack, strings.Join(queryTerms, " ")) {
		return false
	}
	if c.Confidence < 0.10 {
		return false
	}
	if c.Availability == "out_of_stock" {
		return false
	}
	return true
}

// finalFilter drops out-of-budget/wrong-currency/out-of-stock/low-confidence
// candidates, falling back progressively if the strict pass empties the
// pool.
func finalFilter(pool []*extract.Candidate, constraints Constraints) []*extract.Candidate {
	strict := make([]*extract.Candidate, 0, len(pool))
	for _, c := range pool {
		if constraints.Currency != "" && c.Currency != "" && c.Currency != constraints.Currency {
			continue
		}
		if constraints.MaxBudget != nil && c.Price != nil && *c.Price > *constraints.MaxBudget {
			continue
		}
		if c.Availability == "out_of_stock" {
			continue
		}
		if c.Confidence < 0.10 {
			continue
		}
		strict = append(strict, c)
	}
	if len(strict) > 0 {
		return strict
	}

	var fallback1 []*extract.Candidate
	for _, c := range pool {
		if c.Confidence >= 0.08 && c.Name != "" {
			fallback1 = append(fallback1, c)
		}
	}
	if len(fallback1) > 0 {
		return topByConfidence(fallback1, 3)
	}

	var fallback2 []*extract.Candidate
	for _, c := range pool {
		if c.Name != "" {
			fallback2 = append(fallback2, c)
		}
	}
	return topByConfidence(fallback2, 3)
}

func topByConfidence(candidates []*extract.Candidate, n int) []*extract.Candidate {
	sorted := make([]*extract.Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
