// Package orchestrator implements the Research Orchestrator: parses a
// free-form shopping prompt into search constraints, visits candidate
// pages (HTTP first, browser fallback), extracts and ranks products, and
// emits single-line progress updates as it goes.
package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopagent/runtime/internal/browser"
	"github.com/shopagent/runtime/internal/compare"
	"github.com/shopagent/runtime/internal/extract"
	"github.com/shopagent/runtime/internal/fetch"
	"github.com/shopagent/runtime/internal/htmlutil"
	"github.com/shopagent/runtime/internal/rpcerr"
	"github.com/shopagent/runtime/internal/search"
)

const topN = 3

// ProductOption is one ranked, display-ready result of a research request.
type ProductOption struct {
	Rank        int      `json:"rank"`
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Score       int      `json:"score"`
	WhyPicked   string   `json:"whyPicked"`
	Description string   `json:"description"`
}

// Deps are the collaborators the orchestrator drives. Browser is optional:
// when nil, the browser-fallback step of the visit protocol is skipped.
type Deps struct {
	Search  *search.Engine
	Fetch   *fetch.Fetcher
	Browser *browser.Runtime
}

// Orchestrator runs one research request at a time; it holds no
// cross-request state beyond its collaborators.
type Orchestrator struct {
	deps    Deps
	updates chan<- string
}

// New builds an Orchestrator. updates, if non-nil, receives one
// research-update line per stage; sends are non-blocking best-effort.
func New(deps Deps, updates chan<- string) *Orchestrator {
	return &Orchestrator{deps: deps, updates: updates}
}

func (o *Orchestrator) publish(format string, args ...any) {
	if o.updates == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	select {
	case o.updates <- line:
	default:
	}
}

// Research runs the full pipeline for one user prompt.
func (o *Orchestrator) Research(ctx context.Context, prompt string) ([]ProductOption, error) {
	constraints := ParseConstraints(prompt)
	query := CleanQuery(prompt)
	explicitURLs := ExtractExplicitURLs(prompt)
	queryTerms := strings.Fields(query)

	o.publish("parsed constraints: currency=%s budget=%v region=%s", constraints.Currency, constraints.MaxBudget, constraints.Region)
	o.publish("cleaned query: %q", query)

	results, err := o.runSearch(ctx, query, constraints)
	if err != nil {
		return nil, err
	}
	o.publish("search returned %d results", len(results))

	explicitURLs = dedupePreserveOrder(explicitURLs)
	explicitSet := make(map[string]bool, len(explicitURLs))
	for _, u := range explicitURLs {
		explicitSet[u] = true
	}
	var nonExplicit []string
	for _, u := range dedupePreserveOrder(resultsToURLs(results)) {
		if !explicitSet[u] {
			nonExplicit = append(nonExplicit, u)
		}
	}
	candidateURLs := append(append([]string{}, explicitURLs...), diversifyByHost(nonExplicit)...)

	var pool []*extract.Candidate
	visits := 0
	retriesWithZeroProducts := 0

	for i := 0; i < len(candidateURLs) && visits < maxVisitsPerRequest; i++ {
		u := candidateURLs[i]
		visits++

		candidate, extraURLs, err := o.visitOne(ctx, u, query)
		if err != nil {
			if rpcerr.IsRetryable(err) {
				if len(pool) > 0 {
					o.publish("stopping visits after retryable error with %d products in hand", len(pool))
					break
				}
				if retriesWithZeroProducts < 2 {
					retriesWithZeroProducts++
					backoff := 2 * time.Second
					if retriesWithZeroProducts == 2 {
						backoff = 3 * time.Second
					}
					o.publish("retrying %s after retryable error (attempt %d)", u, retriesWithZeroProducts)
					time.Sleep(backoff)
					i--
					visits--
					continue
				}
			}
			o.publish("visit failed: %s: %v", u, err)
			continue
		}

		if candidate != nil {
			if isWeak(candidate) {
				o.publish("rejected candidate (weak): %s", u)
			} else if passesRelevanceGate(candidate, queryTerms) {
				pool = append(pool, candidate)
				o.publish("accepted candidate: %s", candidate.Name)
			} else {
				o.publish("rejected candidate (relevance gate): %s", u)
			}
		}

		if len(extraURLs) > 0 && visits < maxVisitsPerRequest {
			limit := 5
			if len(extraURLs) < limit {
				limit = len(extraURLs)
			}
			rest := candidateURLs[i+1:]
			candidateURLs = append(append(append([]string{}, candidateURLs[:i+1]...), extraURLs[:limit]...), rest...)
		}
	}

	o.publish("candidate pool size before final filter: %d", len(pool))
	filtered := finalFilter(pool, constraints)
	o.publish("candidate pool size after final filter: %d", len(filtered))

	products := make([]compare.Product, len(filtered))
	for i, c := range filtered {
		products[i] = compare.Product{
			Name:     c.Name,
			Brand:    c.Brand,
			Price:    c.Price,
			Currency: c.Currency,
			Specs:    c.Specs,
			Features: c.KeyFeatures,
		}
	}
	ranked := compare.Compare(products, compare.Criteria{
		MaxBudget: constraints.MaxBudget,
		Currency:  constraints.Currency,
	})

	n := topN
	if len(ranked) < n {
		n = len(ranked)
	}
	options := make([]ProductOption, n)
	for i := 0; i < n; i++ {
		c := filtered[indexOfRanked(filtered, ranked[i].Name, i)]
		options[i] = ProductOption{
			Rank:        i + 1,
			Name:        ranked[i].Name,
			URL:         c.URL,
			Price:       c.Price,
			Currency:    c.Currency,
			Score:       ranked[i].Score,
			WhyPicked:   htmlutil.SanitizeText(ranked[i].Reason),
			Description: htmlutil.SanitizeText(strings.Join(c.KeyFeatures, ". ")),
		}
	}
	o.publish("research complete: %d options", len(options))
	return options, nil
}

// indexOfRanked finds the filtered candidate a ranked entry corresponds
// to. If the candidate at the ranked entry's own index has that name it is
// used; otherwise the first candidate with that name is, and 0 if none has.
func indexOfRanked(filtered []*extract.Candidate, name string, hint int) int {
	if hint < len(filtered) && filtered[hint].Name == name {
		return hint
	}
	for i, c := range filtered {
		if c.Name == name {
			return i
		}
	}
	return 0
}

func (o *Orchestrator) runSearch(ctx context.Context, query string, constraints Constraints) ([]search.Result, error) {
	resp, err := o.deps.Search.Search(ctx, query, 10, constraints.Region)
	if err != nil {
		return nil, &rpcerr.Generic{Cause: err}
	}
	results := resp.Results

	if len(results) < 5 {
		followUp := fmt.Sprintf("%s site:amazon.%s", query, amazonTLD(constraints.Region))
		o.publish("issuing follow-up query: %q", followUp)
		if resp2, err := o.deps.Search.Search(ctx, followUp, 10, constraints.Region); err == nil {
			results = append(results, resp2.Results...)
		}
	}
	return results, nil
}
