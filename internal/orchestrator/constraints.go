package orchestrator

import (
	"regexp"
	"strconv"
	"strings"
)

// Constraints are the budget/currency/region facts derived from a user
// prompt before any search is issued.
type Constraints struct {
	MaxBudget *float64
	Currency  string
	Region    string
}

var (
	gbpRe    = regexp.MustCompile(`(?i)£|gbp|pound`)
	usdRe    = regexp.MustCompile(`(?i)\$|usd|dollar`)
	eurRe    = regexp.MustCompile(`(?i)€|eur|euro`)
	budgetRe = regexp.MustCompile(`(?i)(?:under|below|less than|max(?:imum)?(?: budget)?)\s*[£$€]?\s*(\d[\d,]*\.?\d*)`)
	bareRe   = regexp.MustCompile(`[£$€](\d[\d,]*\.?\d*)`)
)

// ParseConstraints extracts currency, a budget ceiling, and a search region
// from a lowercased reading of prompt.
func ParseConstraints(prompt string) Constraints {
	lower := strings.ToLower(prompt)

	var c Constraints
	switch {
	case gbpRe.MatchString(lower):
		c.Currency = "GBP"
	case usdRe.MatchString(lower):
		c.Currency = "USD"
	case eurRe.MatchString(lower):
		c.Currency = "EUR"
	}

	if m := budgetRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			c.MaxBudget = &v
		}
	} else if m := bareRe.FindStringSubmatch(lower); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64); err == nil {
			c.MaxBudget = &v
		}
	}

	switch c.Currency {
	case "GBP":
		c.Region = "uk-en"
	case "EUR":
		c.Region = "de-de"
	default:
		c.Region = "us-en"
	}
	return c
}

// amazonTLD maps a search region to the Amazon storefront TLD used by the
// site:amazon.<tld> follow-up query.
func amazonTLD(region string) string {
	switch region {
	case "uk-en":
		return "co.uk"
	case "de-de":
		return "de"
	default:
		return "com"
	}
}

var stopWords = map[string]bool{
	// articles/prepositions
	"a": true, "an": true, "the": true, "of": true, "for": true, "to": true,
	"in": true, "on": true, "at": true, "with": true, "and": true, "or": true,
	"from": true, "by": true, "about": true, "into": true,
	// conversational verbs / filler
	"find": true, "get": true, "want": true, "need": true, "looking": true,
	"look": true, "show": true, "please": true, "help": true, "me": true,
	"my": true, "can": true, "you": true, "could": true, "would": true,
	"should": true, "like": true, "some": true, "something": true, "any": true,
	"good": true, "best": true, "purchase": true, "search": true,
	"also": true, "just": true, "recommend": true, "suggest": true,
	"what": true, "which": true, "that": true, "this": true,
	// budget/price vocabulary
	"under": true, "below": true, "less": true, "than": true, "max": true,
	"maximum": true, "budget": true, "price": true, "cost": true, "cheap": true,
	"cheapest": true, "dollar": true, "dollars": true, "pound": true,
	"pounds": true, "euro": true, "euros": true, "gbp": true, "usd": true, "eur": true,
	// quality adjectives
	"nice": true, "great": true, "quality": true, "top": true, "new": true,
	"latest": true, "premium": true, "affordable": true,
	// gender terms
	"men": true, "mens": true, "women": true, "womens": true, "male": true, "female": true,
}

var tokenRe = regexp.MustCompile(`[a-zA-Z0-9]+`)

// CleanQuery strips budget clauses, tokenizes on non-alphanumerics, drops
// stop words and short/numeric tokens, and appends "buy".
func CleanQuery(prompt string) string {
	stripped := budgetRe.ReplaceAllString(strings.ToLower(prompt), " ")
	stripped = bareRe.ReplaceAllString(stripped, " ")

	tokens := tokenRe.FindAllString(stripped, -1)
	var kept []string
	for _, tok := range tokens {
		if len(tok) < 2 {
			continue
		}
		if _, err := strconv.Atoi(tok); err == nil {
			continue
		}
		if stopWords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	kept = append(kept, "buy")
	return strings.Join(kept, " ")
}

var urlRe = regexp.MustCompile(`https?://[^\s)\]}>]+`)

// ExtractExplicitURLs returns every literal http(s) URL found in prompt, in
// the order they appear.
func ExtractExplicitURLs(prompt string) []string {
	return urlRe.FindAllString(prompt, -1)
}
