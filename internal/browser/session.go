package browser

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopagent/runtime/internal/rpcerr"
)

const defaultStartTimeout = 30 * time.Second

// Runtime is the process-wide driven-browser session. At most one Tab is
// open at a time; every operation before Start returns NoSession.
type Runtime struct {
	mu      sync.Mutex
	mgr     *Manager
	tab     *Tab
	headful bool
	logger  *slog.Logger
}

// NewRuntime builds a Runtime. The manager is built up front, but no browser
// process is launched until Start, so a runtime that is never started never
// spawns one.
func NewRuntime(cfg Config) *Runtime {
	return &Runtime{logger: cfg.Logger, mgr: NewManager(cfg)}
}

// Result is the common operation envelope: every Driven Browser Runtime
// operation reports ok plus the tab's current URL.
type Result struct {
	OK    bool   `json:"ok"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// SnapshotResult extends Result with page content for the snapshot op.
type SnapshotResult struct {
	Result
	Title string `json:"title,omitempty"`
	Text  string `json:"text,omitempty"`
	HTML  string `json:"html,omitempty"`
}

func (r *Runtime) requireTab() (*Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tab == nil {
		return nil, &rpcerr.NoSession{}
	}
	return r.tab, nil
}

// HasSession reports whether a tab is currently open, so callers can decide
// between Start and Open without inspecting internal state.
func (r *Runtime) HasSession() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tab != nil
}

// Start launches the browser (if not already running) and opens the single
// session tab, optionally navigating to startURL.
func (r *Runtime) Start(ctx context.Context, startURL string, headless bool, timeout time.Duration) (Result, error) {
	if timeout <= 0 {
		timeout = defaultStartTimeout
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tab != nil {
		r.tab.close()
		r.tab = nil
	}

	level := LevelHeadless
	if !headless {
		level = LevelHeadful
	}
	r.mgr.cfg.Stealth = level

	if r.mgr.Browser() == nil {
		if _, err := r.mgr.Start(ctx); err != nil {
			return Result{}, &rpcerr.Generic{Cause: err}
		}
	}

	tab, err := openTab(ctx, r.mgr, startURL, level, timeout)
	if err != nil {
		return Result{}, &rpcerr.Generic{Cause: err}
	}
	r.tab = tab

	return Result{OK: true, URL: tab.URL}, nil
}

// Close tears down the active tab. Idempotent: closing twice in a row is a
// no-op on the second call.
func (r *Runtime) Close() Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.tab == nil {
		return Result{OK: true}
	}
	r.tab.close()
	r.tab = nil
	return Result{OK: true}
}
