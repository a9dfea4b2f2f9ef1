package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	navBoilerplateRe = regexp.MustCompile(`(?i)^(cart|checkout|sign in|log in|menu|search|home|shipping|returns|cookie|privacy policy|terms of service)\b`)
	priceRe          = regexp.MustCompile(`(?i)([$£€]|USD|GBP|EUR)\s?(\d[\d,]*\.?\d*)|(\d[\d,]*\.?\d*)\s?(USD|GBP|EUR)`)
	inStockRe        = regexp.MustCompile(`(?i)\bin stock\b`)
	outOfStockRe     = regexp.MustCompile(`(?i)\bout of stock\b`)
	preorderRe       = regexp.MustCompile(`(?i)\bpre-?order\b`)
	unavailableRe    = regexp.MustCompile(`(?i)\bcurrently unavailable\b`)
	brandLineRe      = regexp.MustCompile(`(?i)^brand\s*[:\-]\s*(.{2,60})$`)
	categoryLineRe   = regexp.MustCompile(`(?i)^category\s*[:\-]\s*(.{2,80})$`)
	featureLineRe    = regexp.MustCompile(`^[-*\x{2022}]\s*(.{8,180})$`)
	specLineRe       = regexp.MustCompile(`^([A-Za-z0-9 /\-]{1,40})\s*:\s*(.{1,200})$`)
	reviewLikeRe     = regexp.MustCompile(`(?i)\b(i|my|we)\b.*\b(love it|bought|received|ordered)\b`)
	promoLikeRe      = regexp.MustCompile(`(?i)free shipping|add to cart|buy now|limited time|% off`)

	preferNearRe  = regexp.MustCompile(`(?i)\b(price|our price|now|sale|buy)\b`)
	penalizeNearRe = regexp.MustCompile(`(?i)\b(list price|msrp|was)\b`)
)

// fillFromTextHeuristics fills only the fields c doesn't already have, from
// the reduced page text.
func fillFromTextHeuristics(c *Candidate, text string) {
	lines := strings.Split(text, "\n")
	var nonEmpty []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}

	if c.Name == "" {
		c.Name = heuristicName(nonEmpty)
	}
	if c.Price == nil {
		if price, currency := heuristicPrice(text); price != nil {
			c.Price = price
			if c.Currency == "" {
				c.Currency = currency
			}
		}
	}
	if c.Availability == "" {
		c.Availability = heuristicAvailability(text)
	}
	if c.Brand == "" {
		c.Brand = heuristicLineMatch(nonEmpty, brandLineRe)
	}
	if c.Category == "" {
		c.Category = heuristicLineMatch(nonEmpty, categoryLineRe)
	}
	if len(c.KeyFeatures) == 0 {
		c.KeyFeatures = heuristicFeatures(nonEmpty)
	}
	if len(c.Specs) == 0 {
		c.Specs = heuristicSpecs(nonEmpty)
	}
}

func heuristicName(lines []string) string {
	limit := len(lines)
	if limit > 30 {
		limit = 30
	}
	for _, l := range lines[:limit] {
		if len(l) < 6 || len(l) > 140 {
			continue
		}
		if navBoilerplateRe.MatchString(l) {
			continue
		}
		return l
	}
	return ""
}

func heuristicPrice(text string) (*float64, string) {
	type hit struct {
		pos      int
		price    float64
		currency string
		bonus    int
	}
	var best *hit
	locs := priceRe.FindAllStringSubmatchIndex(text, -1)
	for _, loc := range locs {
		match := text[loc[0]:loc[1]]
		sub := priceRe.FindStringSubmatch(match)
		symbol, amount, amount2, code := sub[1], sub[2], sub[3], sub[4]
		var numStr, currency string
		if amount != "" {
			numStr, currency = amount, symbolToCode(symbol)
		} else {
			numStr, currency = amount2, code
		}
		num, err := strconv.ParseFloat(strings.ReplaceAll(numStr, ",", ""), 64)
		if err != nil {
			continue
		}
		start := loc[0] - 50
		if start < 0 {
			start = 0
		}
		end := loc[1] + 50
		if end > len(text) {
			end = len(text)
		}
		window := text[start:end]
		bonus := 0
		if preferNearRe.MatchString(window) {
			bonus += 2
		}
		if penalizeNearRe.MatchString(window) {
			bonus -= 1
		}
		h := &hit{pos: loc[0], price: num, currency: currency, bonus: bonus}
		if best == nil || h.bonus > best.bonus || (h.bonus == best.bonus && h.pos < best.pos) {
			best = h
		}
	}
	if best == nil {
		return nil, ""
	}
	return &best.price, best.currency
}

func symbolToCode(sym string) string {
	switch sym {
	case "$":
		return "USD"
	case "£":
		return "GBP"
	case "€":
		return "EUR"
	}
	return strings.ToUpper(sym)
}

func heuristicAvailability(text string) string {
	switch {
	case outOfStockRe.MatchString(text):
		return "out_of_stock"
	case preorderRe.MatchString(text):
		return "preorder"
	case unavailableRe.MatchString(text):
		return "unavailable"
	case inStockRe.MatchString(text):
		return "in_stock"
	}
	return ""
}

func heuristicLineMatch(lines []string, re *regexp.Regexp) string {
	for _, l := range lines {
		if m := re.FindStringSubmatch(l); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func heuristicFeatures(lines []string) []string {
	var out []string
	for _, l := range lines {
		m := featureLineRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		feature := m[1]
		if reviewLikeRe.MatchString(feature) || promoLikeRe.MatchString(feature) {
			continue
		}
		out = append(out, feature)
		if len(out) >= 8 {
			break
		}
	}
	return out
}

func heuristicSpecs(lines []string) map[string]string {
	out := make(map[string]string)
	for _, l := range lines {
		m := specLineRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		out[strings.TrimSpace(m[1])] = strings.TrimSpace(m[2])
		if len(out) >= maxSpecs {
			break
		}
	}
	return out
}
