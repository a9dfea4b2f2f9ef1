package mcptransport

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopagent/runtime/internal/rpcerr"
)

func newTestServer(dispatch Dispatch) (*Server, *httptest.Server) {
	s := New(dispatch)
	r := chi.NewRouter()
	s.Routes(r)
	return s, httptest.NewServer(r)
}

func TestSSEEmitsEndpointEventFirst(t *testing.T) {
	_, ts := newTestServer(func(ctx context.Context, method string, params json.RawMessage) (any, error) {
		return map[string]string{"ok": "true"}, nil
	})
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/mcp", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /mcp: %v", err)
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	line1, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read first line: %v", err)
	}
	if strings.TrimSpace(line1) != "event: endpoint" {
		t.Fatalf("expected first SSE event to be 'event: endpoint', got %q", line1)
	}
}

func TestHandleDeleteWithNoSessionIsNoop(t *testing.T) {
	_, ts := newTestServer(nil)
	defer ts.Close()

	resp, err := http.NewRequest(http.MethodDelete, ts.URL+"/mcp", nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := http.DefaultClient.Do(resp)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", res.StatusCode)
	}
}

func TestWaitForSessionReturnsNilWhenContextCancelled(t *testing.T) {
	s := New(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sess := s.waitForSession(ctx); sess != nil {
		t.Fatal("expected nil session when context already cancelled")
	}
}

func TestRPCCodeMapping(t *testing.T) {
	if rpcCode(&rpcerr.BadInput{Reason: "x"}) != -32602 {
		t.Fatal("expected BadInput to map to -32602")
	}
	if rpcCode(&rpcerr.UnknownTool{Name: "x"}) != -32601 {
		t.Fatal("expected UnknownTool to map to -32601")
	}
}

func TestHealthEndpointReportsStatus(t *testing.T) {
	s := New(nil, WithHealthCheck(func() bool { return true }))
	r := chi.NewRouter()
	s.Routes(r)
	ts := httptest.NewServer(r)
	defer ts.Close()

	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["ok"] != true || body["auditDbOk"] != true {
		t.Fatalf("unexpected health body: %+v", body)
	}
	if body["hasActiveTransport"] != false || body["sseConnectionAlive"] != false {
		t.Fatalf("expected no active transport with no connected session: %+v", body)
	}
	if body["activeSessionId"] != nil {
		t.Fatalf("expected nil activeSessionId with no connected session: %+v", body)
	}
}

func TestHealthEndpointReportsActiveSession(t *testing.T) {
	s, ts := newTestServer(nil)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/mcp", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /mcp: %v", err)
	}
	defer resp.Body.Close()

	var sessID string
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if sess := s.getActive(); sess != nil {
			sessID = sess.id
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if sessID == "" {
		t.Fatal("expected a session to become active")
	}

	res, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["activeSessionId"] != sessID {
		t.Fatalf("expected activeSessionId %q, got %+v", sessID, body["activeSessionId"])
	}
	if body["hasActiveTransport"] != true || body["sseConnectionAlive"] != true {
		t.Fatalf("expected an active, alive transport: %+v", body)
	}
}
