// Package search implements the Search Fallback Engine: a chain of public
// search providers, each skipped while cooling down after a rate-limit
// signal, terminating in a synthetic merchant-link generator that never
// fails.
package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/shopagent/runtime/internal/rpcerr"
	"github.com/shopagent/runtime/internal/safety"
)

// Result is one normalized search hit.
type Result struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	SourceHost string `json:"source_host"`
}

// Attempt records one provider's outcome, including cooldown skips.
type Attempt struct {
	Provider string `json:"provider"`
	OK       bool   `json:"ok"`
	Count    int    `json:"count,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Response is the operation's output.
type Response struct {
	Results  []Result  `json:"results"`
	Provider string    `json:"provider"`
	Attempts []Attempt `json:"attempts"`
}

const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	providerTimeout = 20 * time.Second
)

var blockedHostRe = regexp.MustCompile(`duckduckgo\.com$|bing\.com$|doubleclick|googleadservices|googleads|taboola|outbrain|coldest\.com`)

var rateLimitRe = regexp.MustCompile(`(?i)HTTP 403|HTTP 429|rate.?limit|too many requests`)

var merchantHosts = []string{
	"amazon.com", "bestbuy.com", "walmart.com", "target.com", "newegg.com", "ebay.com",
}

// Engine holds the process-wide provider cooldown state. Cooldown timestamps
// are monotonic — only ever written forward — per the concurrency model.
type Engine struct {
	mu               sync.Mutex
	ddgBlockedUntil  time.Time
	bingBlockedUntil time.Time
	cooldown         time.Duration
	client           *http.Client
	now              func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCooldown overrides the default 60s rate-limit cooldown window.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) { e.cooldown = d }
}

// WithClock overrides the time source, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New builds a Search Fallback Engine.
func New(opts ...Option) *Engine {
	e := &Engine{
		cooldown: 60 * time.Second,
		now:      time.Now,
	}
	e.client = &http.Client{
		Timeout: providerTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Providers themselves are fixed, trusted endpoints; redirect
			// targets are not, so they get the same SSRF guard as any other
			// page this runtime dereferences.
			return safety.ValidateURL(req.URL.String())
		},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

type provider struct {
	name     string
	fetchURL func(query, region string) string
	parse    func(body string) []Result
}

// Search queries providers in order until one yields results, falling back
// to synthetic merchant links, which never fail.
func (e *Engine) Search(ctx context.Context, query string, maxResults int, region string) (*Response, error) {
	if maxResults < 1 || maxResults > 20 {
		return nil, &rpcerr.BadInput{Reason: "max_results must be in [1,20]"}
	}

	resp := &Response{Attempts: []Attempt{}}

	providers := []provider{
		{"ddg-html", ddgHTMLURL, parseDDG},
		{"ddg-lite", ddgLiteURL, parseDDG},
		{"bing-html", bingHTMLURL, parseBing},
	}

	for i, p := range providers {
		if i < 2 && e.ddgCoolingDown() {
			resp.Attempts = append(resp.Attempts, Attempt{Provider: p.name, OK: false, Error: "skipped (rate-limited)"})
			continue
		}
		if i == 2 && e.bingCoolingDown() {
			resp.Attempts = append(resp.Attempts, Attempt{Provider: p.name, OK: false, Error: "skipped (rate-limited)"})
			continue
		}

		results, err := e.fetchProvider(ctx, p, query, region)
		if err != nil {
			resp.Attempts = append(resp.Attempts, Attempt{Provider: p.name, OK: false, Error: err.Error()})
			if rateLimitRe.MatchString(err.Error()) {
				if i < 2 {
					e.setDDGCooldown()
				} else {
					e.setBingCooldown()
				}
			}
			continue
		}

		resp.Attempts = append(resp.Attempts, Attempt{Provider: p.name, OK: true, Count: len(results)})
		if len(results) > 0 {
			resp.Provider = p.name
			resp.Results = capResults(results, maxResults)
			return resp, nil
		}
	}

	fallback := syntheticFallback(query)
	resp.Attempts = append(resp.Attempts, Attempt{Provider: "fallback-merchants", OK: true, Count: len(fallback)})
	resp.Provider = "fallback-merchants"
	resp.Results = capResults(fallback, maxResults)
	return resp, nil
}

func (e *Engine) fetchProvider(ctx context.Context, p provider, query, region string) ([]Result, error) {
	target := p.fetchURL(query, region)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d", res.StatusCode)
	}

	body := readAllString(res)
	results := p.parse(body)
	if len(results) == 0 {
		results = genericAnchorScan(body)
	}
	return dedupAndFilter(results), nil
}

func (e *Engine) ddgCoolingDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now().Before(e.ddgBlockedUntil)
}

func (e *Engine) bingCoolingDown() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now().Before(e.bingBlockedUntil)
}

func (e *Engine) setDDGCooldown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	until := e.now().Add(e.cooldown)
	if until.After(e.ddgBlockedUntil) {
		e.ddgBlockedUntil = until
	}
}

func (e *Engine) setBingCooldown() {
	e.mu.Lock()
	defer e.mu.Unlock()
	until := e.now().Add(e.cooldown)
	if until.After(e.bingBlockedUntil) {
		e.bingBlockedUntil = until
	}
}

func ddgHTMLURL(query, _ string) string {
	return "https://html.duckduckgo.com/html/?q=" + url.QueryEscape(query)
}

func ddgLiteURL(query, _ string) string {
	return "https://lite.duckduckgo.com/lite/?q=" + url.QueryEscape(query)
}

func bingHTMLURL(query, _ string) string {
	return "https://www.bing.com/search?q=" + url.QueryEscape(query)
}

func capResults(results []Result, max int) []Result {
	if len(results) > max {
		return results[:max]
	}
	return results
}

func syntheticFallback(query string) []Result {
	q := url.QueryEscape(query)
	out := make([]Result, 0, len(merchantHosts))
	for _, host := range merchantHosts {
		out = append(out, Result{
			Title:      fmt.Sprintf("Search %s for %s", host, query),
			URL:        fmt.Sprintf("https://%s/search?q=%s", host, q),
			Snippet:    "",
			SourceHost: host,
		})
	}
	return out
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func isBlockedHost(host string) bool {
	return blockedHostRe.MatchString(strings.ToLower(host))
}

// unwrapDDGRedirect resolves DuckDuckGo's `uddg` redirect wrapper to the
// real target URL.
func unwrapDDGRedirect(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if uddg := u.Query().Get("uddg"); uddg != "" {
		if decoded, err := url.QueryUnescape(uddg); err == nil {
			return decoded
		}
	}
	return raw
}

func dedupAndFilter(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := make([]Result, 0, len(results))
	for _, r := range results {
		u := unwrapDDGRedirect(r.URL)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			continue
		}
		if seen[u] {
			continue
		}
		host := hostOf(u)
		if isBlockedHost(host) {
			continue
		}
		seen[u] = true
		r.URL = u
		r.SourceHost = host
		out = append(out, r)
	}
	return out
}

func readAllString(res *http.Response) string {
	var b strings.Builder
	buf := make([]byte, 32*1024)
	for {
		n, err := res.Body.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
		}
		if err != nil {
			break
		}
	}
	return b.String()
}
