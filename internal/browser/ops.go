package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"
	"github.com/shopagent/runtime/internal/htmlutil"
	"github.com/shopagent/runtime/internal/rpcerr"
)

const (
	minSnapshotChars = 500
	maxSnapshotChars = 500000
	defaultSnapshotChars = 25000
)

// Open navigates the active tab to url.
func (r *Runtime) Open(ctx context.Context, url string, timeout time.Duration) (Result, error) {
	tab, err := r.requireTab()
	if err != nil {
		return Result{}, err
	}
	if timeout <= 0 {
		timeout = defaultStartTimeout
	}
	if err := tab.navigate(ctx, url, timeout); err != nil {
		return Result{}, &rpcerr.Generic{Cause: err}
	}
	return Result{OK: true, URL: tab.URL}, nil
}

// Click clicks the first element matching selector.
func (r *Runtime) Click(ctx context.Context, selector string, waitForNavigation bool, timeout time.Duration) (Result, error) {
	tab, err := r.requireTab()
	if err != nil {
		return Result{}, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	el, err := tab.Page.Context(waitCtx).Element(selector)
	if err != nil {
		return Result{}, &rpcerr.Timeout{Op: fmt.Sprintf("click %s", selector)}
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return Result{}, &rpcerr.Generic{Cause: err}
	}
	if waitForNavigation {
		if err := tab.Page.Context(waitCtx).WaitLoad(); err != nil {
			tab.manager.cfg.Logger.Warn("browser: click wait navigation timeout", "selector", selector)
		}
		tab.URL = tab.Page.MustInfo().URL
	}
	tab.manager.Touch()
	return Result{OK: true, URL: tab.URL}, nil
}

// Type focuses selector and sets its text, optionally appending to existing
// content and pressing Enter afterward.
func (r *Runtime) Type(ctx context.Context, selector, text string, append bool, pressEnter bool, timeout time.Duration) (Result, error) {
	tab, err := r.requireTab()
	if err != nil {
		return Result{}, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := tab.Page.Context(waitCtx).Element(selector); err != nil {
		return Result{}, &rpcerr.Timeout{Op: fmt.Sprintf("type into %s", selector)}
	}

	script := `(sel, text, append) => {
		const el = document.querySelector(sel);
		if (!el) { return; }
		el.focus();
		if (!append) { el.value = ''; }
		el.value += text;
		el.dispatchEvent(new Event('input', {bubbles: true}));
		el.dispatchEvent(new Event('change', {bubbles: true}));
	}`
	if _, err := tab.Page.Context(waitCtx).Eval(script, selector, text, append); err != nil {
		return Result{}, &rpcerr.Generic{Cause: err}
	}

	if pressEnter {
		if err := tab.Page.Keyboard.Type(input.Enter); err != nil {
			return Result{}, &rpcerr.Generic{Cause: err}
		}
	}
	tab.manager.Touch()
	return Result{OK: true, URL: tab.URL}, nil
}

// SelectBy identifies how Select picks an option.
type SelectBy struct {
	Value string
	Label string
	Index *int
}

// Select sets a <select> element's chosen option by value, label, or index.
func (r *Runtime) Select(ctx context.Context, selector string, by SelectBy, timeout time.Duration) (Result, error) {
	tab, err := r.requireTab()
	if err != nil {
		return Result{}, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := tab.Page.Context(waitCtx).Element(selector); err != nil {
		return Result{}, &rpcerr.Timeout{Op: fmt.Sprintf("select %s", selector)}
	}

	script := `(sel, value, label, index) => {
		const el = document.querySelector(sel);
		if (!el) { return; }
		if (index !== null && index >= 0 && index < el.options.length) {
			el.selectedIndex = index;
		} else if (label !== '') {
			for (const opt of el.options) { if (opt.text === label) { opt.selected = true; break; } }
		} else {
			el.value = value;
		}
		el.dispatchEvent(new Event('change', {bubbles: true}));
	}`
	idx := -1
	if by.Index != nil {
		idx = *by.Index
	}
	if _, err := tab.Page.Context(waitCtx).Eval(script, selector, by.Value, by.Label, idx); err != nil {
		return Result{}, &rpcerr.Generic{Cause: err}
	}
	tab.manager.Touch()
	return Result{OK: true, URL: tab.URL}, nil
}

// Scroll scrolls the page either by a relative delta or to an absolute
// position, defaulting to scrolling down 700px.
func (r *Runtime) Scroll(ctx context.Context, mode string, x, y int) (Result, error) {
	tab, err := r.requireTab()
	if err != nil {
		return Result{}, err
	}
	if mode != "to" {
		mode = "by"
	}
	if y == 0 && x == 0 {
		y = 700
	}

	var script string
	if mode == "to" {
		script = `(x, y) => window.scrollTo(x, y)`
	} else {
		script = `(x, y) => window.scrollBy(x, y)`
	}
	if _, err := tab.Page.Context(ctx).Eval(script, x, y); err != nil {
		return Result{}, &rpcerr.Generic{Cause: err}
	}
	tab.manager.Touch()
	return Result{OK: true, URL: tab.URL}, nil
}

// WaitFor blocks until selector appears or timeout elapses.
func (r *Runtime) WaitFor(ctx context.Context, selector string, timeout time.Duration) (Result, error) {
	tab, err := r.requireTab()
	if err != nil {
		return Result{}, err
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if _, err := tab.Page.Context(waitCtx).Element(selector); err != nil {
		return Result{}, &rpcerr.Timeout{Op: fmt.Sprintf("wait for %s", selector)}
	}
	return Result{OK: true, URL: tab.URL}, nil
}

// Snapshot captures the current tab's title, reduced text, and optionally
// its cleaned HTML, truncated to maxTextChars.
func (r *Runtime) Snapshot(ctx context.Context, includeHTML bool, maxTextChars int) (SnapshotResult, error) {
	tab, err := r.requireTab()
	if err != nil {
		return SnapshotResult{}, err
	}
	if maxTextChars < minSnapshotChars || maxTextChars > maxSnapshotChars {
		maxTextChars = defaultSnapshotChars
	}

	res, err := tab.Page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return SnapshotResult{}, &rpcerr.Generic{Cause: err}
	}
	rawHTML := res.Value.Str()

	doc := htmlutil.CleanBody(rawHTML)
	title := htmlutil.ExtractTitle(doc)
	text := htmlutil.ReduceText(doc)
	if len(text) > maxTextChars {
		text = text[:maxTextChars]
	}

	out := SnapshotResult{
		Result: Result{OK: true, URL: tab.URL},
		Title:  title,
		Text:   text,
	}
	if includeHTML {
		out.HTML = htmlutil.Render(doc)
	}
	return out, nil
}
