package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/shopagent/runtime/internal/extract"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var cookieBannerSelectors = []string{
	"#onetrust-accept-btn-handler",
	"button[aria-label='Accept all']",
	"button[aria-label='Accept cookies']",
	".cookie-consent button.accept",
	"#cookie-accept",
	"button#accept-cookie-notification",
}

var searchInputSelectors = []string{
	"input[type='search']",
	"input[name='q']",
	"input#search",
	"input[placeholder*='Search' i]",
}

// visitOne runs the per-candidate visit protocol: Page Fetcher first,
// Driven Browser fallback on failure. It returns the extracted candidate
// (nil if nothing usable was extracted) plus any product links discovered
// if the page turned out to be a listing page.
func (o *Orchestrator) visitOne(ctx context.Context, u, query string) (*extract.Candidate, []string, error) {
	page, ferr := o.deps.Fetch.Fetch(ctx, u)
	if ferr == nil {
		candidate := extract.Extract(extract.Input{URL: u, HTML: page.HTML, Text: page.Text})
		return candidate, o.scanListingLinks(u, page.HTML, query), nil
	}

	if o.deps.Browser == nil {
		return nil, nil, ferr
	}

	candidate, rawHTML, err := o.browserFallback(ctx, u, query)
	if err != nil {
		return nil, nil, err
	}
	return candidate, o.scanListingLinks(u, rawHTML, query), nil
}

func (o *Orchestrator) browserFallback(ctx context.Context, u, query string) (*extract.Candidate, string, error) {
	rt := o.deps.Browser

	if !rt.HasSession() {
		if _, err := rt.Start(ctx, u, true, 30*time.Second); err != nil {
			return nil, "", err
		}
	} else if _, err := rt.Open(ctx, u, 30*time.Second); err != nil {
		return nil, "", err
	}

	for _, sel := range cookieBannerSelectors {
		if res, err := rt.Click(ctx, sel, false, 2*time.Second); err == nil && res.OK {
			break
		}
	}

	if isListingPage(u) {
		for _, sel := range searchInputSelectors {
			if _, err := rt.Type(ctx, sel, query, false, true, 3*time.Second); err == nil {
				break
			}
		}
	}

	rt.Scroll(ctx, "by", 0, 900)

	snap, err := rt.Snapshot(ctx, true, 100000)
	if err != nil {
		return nil, "", err
	}

	candidate := extract.Extract(extract.Input{URL: u, HTML: snap.HTML, Text: snap.Text})
	return candidate, snap.HTML, nil
}

func (o *Orchestrator) scanListingLinks(u, rawHTML, query string) []string {
	if !isListingPage(u) || strings.TrimSpace(rawHTML) == "" {
		return nil
	}
	anchors := extractAnchors(rawHTML)
	links := likelyProductLinks(anchors, strings.Fields(query), 8)
	if len(links) > 5 {
		links = links[:5]
	}
	return links
}

func extractAnchors(rawHTML string) []anchor {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}
	var out []anchor
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			href := attrValue(n, "href")
			if href != "" {
				out = append(out, anchor{href: href, text: collectText(n)})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return out
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collectText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
