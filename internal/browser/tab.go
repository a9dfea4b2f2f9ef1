package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// Tab wraps a single Rod page opened by a Runtime session.
type Tab struct {
	Page    *rod.Page
	URL     string
	manager *Manager
}

// openTab creates a new tab, applies stealth and resource blocking, and
// navigates to pageURL.
func openTab(ctx context.Context, mgr *Manager, pageURL string, level StealthLevel, timeout time.Duration) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	var page *rod.Page
	var err error
	if level >= LevelHeadless {
		page, err = stealth.Page(b)
	} else {
		page, err = b.Page(proto.TargetCreateTarget{URL: ""})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	if len(mgr.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, mgr.cfg.ResourceBlocking); err != nil {
			mgr.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	t := &Tab{Page: page, manager: mgr}
	if pageURL != "" {
		if err := t.navigate(ctx, pageURL, timeout); err != nil {
			page.Close()
			return nil, err
		}
	}
	return t, nil
}

func (t *Tab) navigate(ctx context.Context, pageURL string, timeout time.Duration) error {
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := t.Page.Context(navCtx).Navigate(pageURL); err != nil {
		return fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := t.Page.Context(navCtx).WaitLoad(); err != nil {
		t.manager.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	t.URL = pageURL
	t.manager.Touch()
	return nil
}

func (t *Tab) close() error {
	if t.Page == nil {
		return nil
	}
	err := t.Page.Close()
	t.Page = nil
	return err
}
