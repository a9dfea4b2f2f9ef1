package browser

import (
	"testing"

	"github.com/shopagent/runtime/internal/rpcerr"
)

func TestOpsRequireSessionBeforeStart(t *testing.T) {
	rt := NewRuntime(Config{})

	if _, err := rt.requireTab(); err == nil {
		t.Fatal("expected NoSession error before Start")
	} else if _, ok := err.(*rpcerr.NoSession); !ok {
		t.Fatalf("expected *rpcerr.NoSession, got %T", err)
	}
}

func TestCloseIsIdempotentBeforeStart(t *testing.T) {
	rt := NewRuntime(Config{})

	r1 := rt.Close()
	if !r1.OK {
		t.Fatalf("expected first close to report ok, got %+v", r1)
	}
	r2 := rt.Close()
	if !r2.OK {
		t.Fatalf("expected second close to report ok (idempotent), got %+v", r2)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.defaults()
	if cfg.MemoryLimit != 1<<30 {
		t.Fatalf("expected default memory limit, got %d", cfg.MemoryLimit)
	}
	if cfg.XvfbDisplay != ":99" {
		t.Fatalf("expected default xvfb display, got %q", cfg.XvfbDisplay)
	}
	if cfg.Logger == nil {
		t.Fatal("expected default logger to be set")
	}
}
