package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopagent/runtime/internal/browser"
	"github.com/shopagent/runtime/internal/cart"
	"github.com/shopagent/runtime/internal/config"
	"github.com/shopagent/runtime/internal/fetch"
	"github.com/shopagent/runtime/internal/mcptransport"
	"github.com/shopagent/runtime/internal/obs"
	"github.com/shopagent/runtime/internal/orchestrator"
	"github.com/shopagent/runtime/internal/search"
	"github.com/shopagent/runtime/internal/toolreg"
)

func main() {
	cfgPath := env("CONFIG_FILE", "config.yaml")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := obs.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	auditLog, err := obs.Open(cfg.AuditDBPath)
	if err != nil {
		slog.Error("open audit log", "error", err)
		os.Exit(1)
	}
	defer auditLog.Close()

	searchEngine := search.New()
	fetcher := fetch.New()
	browserRuntime := browser.NewRuntime(browser.Config{
		Logger:           logger,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
	})
	shoppingCart := cart.New()
	updates := make(chan string, 64)

	deps := orchestrator.Deps{Search: searchEngine, Fetch: fetcher, Browser: browserRuntime}
	research := orchestrator.New(deps, updates)

	registry, err := toolreg.New(tools(research, shoppingCart, browserRuntime, auditLog)...)
	if err != nil {
		slog.Error("build tool registry", "error", err)
		os.Exit(1)
	}

	dispatch := newDispatcher(registry, auditLog)
	transport := mcptransport.New(dispatch,
		mcptransport.WithLogger(logger),
		mcptransport.WithHealthCheck(func() bool { return auditLog.Ping(context.Background()) }),
	)

	go func() {
		for line := range updates {
			logger.Debug("research-update", "line", line)
			transport.Notify("research-update", map[string]string{"line": line})
		}
	}()

	rateLimiter := mcptransport.NewRateLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.WindowSeconds)

	r := chi.NewRouter()
	r.Use(mcptransport.CORS)
	r.Use(mcptransport.SecurityHeaders)
	r.Use(rateLimiter.Middleware)
	transport.Routes(r)

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")
	close(updates)
	browserRuntime.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
