// Package fetch implements the Page Fetcher: plain HTTP GET with timeout,
// anti-bot challenge detection, HTML cleaning, and HTML-to-text reduction.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/shopagent/runtime/internal/htmlutil"
	"github.com/shopagent/runtime/internal/rpcerr"
	"github.com/shopagent/runtime/internal/safety"
)

const (
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
	timeout    = 12 * time.Second
	maxRedirects = 5
)

var challengeRe = regexp.MustCompile(`(?i)enable javascript and cookies|verify you are human|checking your browser|access denied|request blocked`)

// Page is the fetcher's output.
type Page struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	HTML  string `json:"html"`
	Text  string `json:"text"`
}

// Fetcher performs HTTP GETs with SSRF-guarded redirects.
type Fetcher struct {
	client   *http.Client
	validate func(string) error
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithURLValidator overrides the default safety.ValidateURL SSRF guard,
// for tests that exercise a loopback httptest.Server.
func WithURLValidator(v func(string) error) Option {
	return func(f *Fetcher) { f.validate = v }
}

// New builds a Fetcher.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{validate: safety.ValidateURL}
	for _, o := range opts {
		o(f)
	}
	f.client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects (%d)", len(via))
			}
			return f.validate(req.URL.String())
		},
	}
	return f
}

// Fetch retrieves url and returns its title, cleaned HTML, and reduced text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	if err := f.validate(rawURL); err != nil {
		return nil, &rpcerr.BadInput{Reason: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &rpcerr.Timeout{Op: "fetch " + rawURL}
		}
		return nil, &rpcerr.Generic{Cause: err}
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &rpcerr.HTTPError{Status: res.StatusCode, URL: rawURL}
	}

	bodyBytes, err := io.ReadAll(io.LimitReader(res.Body, safety.MaxResponseBody))
	if err != nil {
		return nil, &rpcerr.Generic{Cause: err}
	}
	body := string(bodyBytes)

	if challengeRe.MatchString(body) {
		return nil, &rpcerr.BlockedByChallenge{URL: rawURL}
	}

	doc := htmlutil.CleanBody(body)
	title := htmlutil.ExtractTitle(doc)
	text := htmlutil.ReduceText(doc)
	cleanedHTML := htmlutil.Render(doc)

	return &Page{
		URL:   rawURL,
		Title: title,
		HTML:  cleanedHTML,
		Text:  text,
	}, nil
}
