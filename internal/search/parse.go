package search

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseDDG extracts result anchors from DuckDuckGo's HTML/Lite result pages.
// Both layouts use anchors classed or id'd around "result" text; we walk all
// <a> tags and keep ones that look like outbound result links (href starting
// with "/l/?" redirect wrapper or an absolute http(s) URL with non-trivial
// anchor text).
func parseDDG(body string) []Result {
	return genericAnchorScan(body)
}

// parseBing extracts result anchors from Bing's HTML result page, same
// generic-anchor strategy — Bing's markup varies by locale/experiment far
// too often for a bespoke selector to stay accurate, so the provider-
// specific parser is effectively the same structural walk as the generic
// fallback; if either it or the fallback misses, there are just no results
// from this provider.
func parseBing(body string) []Result {
	return genericAnchorScan(body)
}

// genericAnchorScan walks every <a href> in body and keeps the ones with
// plausible outbound-result shape: absolute http(s) URL and non-trivial
// anchor text.
func genericAnchorScan(body string) []Result {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil
	}
	var out []Result
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			href := attrOf(n, "href")
			text := strings.TrimSpace(collectText(n))
			if isPlausibleResultLink(href, text) {
				out = append(out, Result{Title: text, URL: href})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func isPlausibleResultLink(href, text string) bool {
	if len(text) < 3 {
		return false
	}
	if strings.HasPrefix(href, "https://") || strings.HasPrefix(href, "http://") {
		return true
	}
	if strings.HasPrefix(href, "/l/?") || strings.HasPrefix(href, "//duckduckgo.com/l/?") {
		return true
	}
	return false
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collectText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(collectText(c))
	}
	return b.String()
}
