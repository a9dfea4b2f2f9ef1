package obs

import (
	"context"
	"path/filepath"
	"testing"
)

func TestLogEventAndPing(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer l.Close()

	l.LogEvent(context.Background(), AuditEvent{Kind: "tool_call", Tool: "web_search", OK: true})

	if !l.Ping(context.Background()) {
		t.Fatal("expected audit db to be reachable")
	}
}

func TestNilLogIsNoop(t *testing.T) {
	var l *Log
	l.LogEvent(context.Background(), AuditEvent{Kind: "tool_call"})
	if l.Ping(context.Background()) {
		t.Fatal("expected nil log to report unreachable")
	}
}
