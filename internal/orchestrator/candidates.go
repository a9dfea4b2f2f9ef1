package orchestrator

import (
	"regexp"
	"strings"

	"github.com/shopagent/runtime/internal/search"
)

const (
	maxDiversifiedCandidates = 20
	maxVisitsPerRequest      = 15
	diversifyPasses          = 3
	diversifyPerHostPerPass  = 2
)

var listingPageRe = regexp.MustCompile(`(?i)best|top|review|under-|list|guide|comparison|vs|category|blog|amazon\.[^/]+/s\?|walmart\.[^/]+/search|target\.[^/]+/s\?|bestbuy\.[^/]+/searchpage|ebay\.[^/]+/sch|newegg\.[^/]+/p/pl|[?&](q|k|query|search|searchTerm|keyword)=`)

var productLinkRe = regexp.MustCompile(`(?i)/dp/|/gp/product/|/product/|/products/|/shop/p/|/p/[a-z0-9-]+|sku|item=|pid=|asin=|/ip/\d|\.html$`)

func isListingPage(rawURL string) bool {
	return listingPageRe.MatchString(rawURL)
}

func isProductLink(rawURL string) bool {
	return productLinkRe.MatchString(rawURL) && !isListingPage(rawURL)
}

// diversifyByHost buckets URLs by host and round-robins across hosts, up to
// diversifyPasses passes of diversifyPerHostPerPass each, capped overall at
// maxDiversifiedCandidates.
func diversifyByHost(urls []string) []string {
	buckets := make(map[string][]string)
	var hostOrder []string
	for _, u := range urls {
		h := hostOf(u)
		if _, seen := buckets[h]; !seen {
			hostOrder = append(hostOrder, h)
		}
		buckets[h] = append(buckets[h], u)
	}

	var out []string
	taken := make(map[string]int)
	for pass := 0; pass < diversifyPasses; pass++ {
		for _, h := range hostOrder {
			list := buckets[h]
			start := taken[h]
			end := start + diversifyPerHostPerPass
			if end > len(list) {
				end = len(list)
			}
			for i := start; i < end; i++ {
				out = append(out, list[i])
				if len(out) >= maxDiversifiedCandidates {
					return out
				}
			}
			taken[h] = end
		}
	}
	return out
}

func hostOf(rawURL string) string {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(rawURL, "https://"), "http://")
	if i := strings.IndexAny(trimmed, "/?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.ToLower(trimmed)
}

func dedupePreserveOrder(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

func resultsToURLs(results []search.Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.URL
	}
	return out
}

// likelyProductLinks scans anchors for candidates that look like product
// pages rather than further listing pages, matching at least one query
// term unless the host is a preferred retailer.
func likelyProductLinks(anchors []anchor, queryTerms []string, limit int) []string {
	terms := strings.Join(queryTerms, " ")
	var out []string
	for _, a := range anchors {
		if !isProductLink(a.href) {
			continue
		}
		combined := strings.ToLower(a.href + " " + a.text)
		if !matchesAnyTerm(combined, terms) && !isPreferredRetailer(hostOf(a.href)) {
			continue
		}
		out = append(out, a.href)
		if len(out) >= limit {
			break
		}
	}
	return out
}

type anchor struct {
	href string
	text string
}

func matchesAnyTerm(haystack, terms string) bool {
	for _, t := range strings.Fields(terms) {
		if t == "buy" {
			continue
		}
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

var preferredRetailers = map[string]bool{
	"amazon.com": true, "bestbuy.com": true, "walmart.com": true,
	"target.com": true, "newegg.com": true, "ebay.com": true,
}

func isPreferredRetailer(host string) bool {
	for retailer := range preferredRetailers {
		if strings.HasSuffix(host, retailer) {
			return true
		}
	}
	return false
}
