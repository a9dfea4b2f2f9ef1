// Package browser implements the Driven Browser Runtime: a single-session
// browser driver exposing navigate/interact/snapshot operations, with at
// most one active page at a time.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// StealthLevel controls the browser automation mode.
type StealthLevel int

const (
	LevelHTTP     StealthLevel = 0
	LevelHeadless StealthLevel = 1
	LevelHeadful  StealthLevel = 2
)

// Config configures the browser manager.
type Config struct {
	RemoteURL        string
	MemoryLimit      int64
	IdleRecycleAfter time.Duration
	ResourceBlocking []string
	Stealth          StealthLevel
	XvfbDisplay      string
	Logger           *slog.Logger
}

func (c *Config) defaults() {
	if c.MemoryLimit <= 0 {
		c.MemoryLimit = 1 << 30
	}
	if c.IdleRecycleAfter <= 0 {
		c.IdleRecycleAfter = 30 * time.Minute
	}
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns the single Chrome process for the process's lifetime. Unlike
// the time/memory-driven recycling its ancestor performs, this Manager
// recycles only on idleness: once IdleRecycleAfter passes with no Touch, the
// browser is torn down whether or not a tab is still open, and a later Start
// launches a fresh one.
type Manager struct {
	cfg        Config
	mu         sync.RWMutex
	browser    *rod.Browser
	lnch       *launcher.Launcher
	xvfb       *exec.Cmd
	startAt    time.Time
	lastActive time.Time
	closed     bool
}

// NewManager creates a Manager. Call Start to launch Chrome.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start launches Chrome (or connects to a remote instance) and begins the
// idle-recycle monitor.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("browser: manager is closed")
	}

	b, err := m.launch(ctx)
	if err != nil {
		return nil, err
	}
	m.browser = b
	m.startAt = time.Now()
	m.lastActive = time.Now()

	go m.monitorLoop(ctx)
	return b, nil
}

// Browser returns the current Rod browser handle, or nil if not started.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Touch records activity so the idle monitor doesn't recycle a browser
// backing a live session.
func (m *Manager) Touch() {
	m.mu.Lock()
	m.lastActive = time.Now()
	m.mu.Unlock()
}

// Close tears down Chrome and Xvfb. Idempotent.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return m.cleanup()
}

func (m *Manager) launch(ctx context.Context) (*rod.Browser, error) {
	log := m.cfg.Logger

	if m.cfg.Stealth == LevelHeadful {
		if err := m.startXvfb(); err != nil {
			return nil, fmt.Errorf("browser: xvfb: %w", err)
		}
	}

	var wsURL string
	if m.cfg.RemoteURL != "" {
		wsURL = m.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New()
		if m.cfg.Stealth == LevelHeadful {
			l = l.Headless(false).Env("DISPLAY", m.cfg.XvfbDisplay)
		} else {
			l = l.Headless(true)
		}
		l = l.Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		m.lnch = l
		log.Info("browser: launched local chrome", "url", wsURL, "stealth", m.cfg.Stealth)
	}

	b := rod.New().ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	if err := b.IgnoreCertErrors(true); err != nil {
		log.Warn("browser: ignore cert errors failed", "error", err)
	}
	return b, nil
}

func (m *Manager) cleanup() error {
	if m.browser != nil {
		m.browser.Close()
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	m.stopXvfb()
	return nil
}

func (m *Manager) monitorLoop(ctx context.Context) {
	log := m.cfg.Logger
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.RLock()
			if m.closed || m.browser == nil {
				m.mu.RUnlock()
				return
			}
			idleSince := m.lastActive
			m.mu.RUnlock()

			if time.Since(idleSince) > m.cfg.IdleRecycleAfter {
				log.Info("browser: idle recycle interval reached")
				m.mu.Lock()
				m.cleanup()
				m.mu.Unlock()
				return
			}
		}
	}
}
