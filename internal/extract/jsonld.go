package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var numericStrip = regexp.MustCompile(`[^0-9.]`)

// fillFromJSONLD scans every <script type="application/ld+json">, finds the
// highest-scoring Product-typed object (traversing @graph), and fills only
// the fields c doesn't already have.
func fillFromJSONLD(c *Candidate, doc *html.Node) {
	var best map[string]any
	bestScore := -1

	walkScripts(doc, func(raw string) {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return
		}
		for _, cand := range collectProducts(v) {
			s := scoreProduct(cand)
			if s > bestScore {
				bestScore = s
				best = cand
			}
		}
	})

	if best == nil {
		return
	}
	c.usedStructured = true

	if c.Name == "" {
		if n, ok := best["name"].(string); ok {
			c.Name = strings.TrimSpace(n)
		}
	}
	if c.Brand == "" {
		c.Brand = stringOrNameField(best["brand"])
	}
	if c.Category == "" {
		if cat, ok := best["category"].(string); ok {
			c.Category = strings.TrimSpace(cat)
		}
	}
	if len(c.KeyFeatures) == 0 {
		if desc, ok := best["description"].(string); ok {
			c.KeyFeatures = splitFeatures(desc)
		}
	}
	if len(c.Images) == 0 {
		c.Images = append(c.Images, imagesOf(best["image"])...)
	}
	if len(c.Specs) == 0 {
		if specs := additionalProperties(best["additionalProperty"]); len(specs) > 0 {
			c.Specs = specs
		}
	}

	offer := firstOffer(best["offers"])
	if offer != nil {
		if c.Price == nil {
			if p, ok := parsePrice(offer["price"]); ok {
				c.Price = &p
			}
		}
		if c.Currency == "" {
			if cur, ok := offer["priceCurrency"].(string); ok {
				c.Currency = strings.ToUpper(strings.TrimSpace(cur))
			}
		}
		if c.Availability == "" {
			if av, ok := offer["availability"].(string); ok {
				c.Availability = normalizeAvailability(av)
			}
		}
	}
}

func walkScripts(n *html.Node, visit func(raw string)) {
	if n.Type == html.ElementNode && n.DataAtom == atom.Script {
		if attrOf(n, "type") == "application/ld+json" && n.FirstChild != nil {
			visit(n.FirstChild.Data)
		}
	}
	for cc := n.FirstChild; cc != nil; cc = cc.NextSibling {
		walkScripts(cc, visit)
	}
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// collectProducts traverses a JSON-LD document (including @graph) and
// returns every object whose @type is, case-insensitively, "Product".
func collectProducts(v any) []map[string]any {
	var out []map[string]any
	var walk func(any)
	walk = func(v any) {
		switch t := v.(type) {
		case map[string]any:
			if isProductType(t["@type"]) {
				out = append(out, t)
			}
			if graph, ok := t["@graph"]; ok {
				walk(graph)
			}
		case []any:
			for _, e := range t {
				walk(e)
			}
		}
	}
	walk(v)
	return out
}

func isProductType(t any) bool {
	switch v := t.(type) {
	case string:
		return strings.EqualFold(v, "Product")
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok && strings.EqualFold(s, "Product") {
				return true
			}
		}
	}
	return false
}

func scoreProduct(p map[string]any) int {
	score := 0
	if _, ok := p["name"]; ok {
		score += 3
	}
	if _, ok := p["offers"]; ok {
		score += 3
	}
	if _, ok := p["brand"]; ok {
		score++
	}
	if _, ok := p["image"]; ok {
		score++
	}
	if _, ok := p["category"]; ok {
		score++
	}
	return score
}

func stringOrNameField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		if n, ok := t["name"].(string); ok {
			return strings.TrimSpace(n)
		}
	}
	return ""
}

func splitFeatures(desc string) []string {
	parts := regexp.MustCompile(`[.\x{2022}]`).Split(desc, -1)
	var out []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
		if len(out) >= 6 {
			break
		}
	}
	return out
}

func imagesOf(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func additionalProperties(v any) map[string]string {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make(map[string]string)
	for _, e := range arr {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		value := stringifyAny(m["value"])
		if name != "" && value != "" {
			out[name] = value
		}
	}
	return out
}

func stringifyAny(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func firstOffer(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case []any:
		var first map[string]any
		for _, e := range t {
			m, ok := e.(map[string]any)
			if !ok {
				continue
			}
			if first == nil {
				first = m
			}
			if _, has := m["price"]; has {
				return m
			}
		}
		return first
	}
	return nil
}

func parsePrice(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		cleaned := numericStrip.ReplaceAllString(strings.ReplaceAll(t, ",", ""), "")
		if cleaned == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func normalizeAvailability(raw string) string {
	r := strings.ToLower(raw)
	switch {
	case strings.Contains(r, "instock") || strings.Contains(r, "in_stock"):
		return "in_stock"
	case strings.Contains(r, "outofstock") || strings.Contains(r, "out_of_stock"):
		return "out_of_stock"
	case strings.Contains(r, "preorder") || strings.Contains(r, "pre_order"):
		return "preorder"
	case strings.Contains(r, "limitedavailability"):
		return "limited"
	case strings.Contains(r, "discontinued") || strings.Contains(r, "soldout"):
		return "unavailable"
	}
	return raw
}
