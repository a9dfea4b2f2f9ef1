package toolreg

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func echoDef() Definition {
	return Definition{
		Name:        "echo",
		Description: "echoes the message field back",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"message": {Type: "string"},
			},
		},
		Required: []string{"message"},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"message": args["message"]}, nil
		},
	}
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := New(echoDef(), echoDef())
	if err == nil {
		t.Fatal("expected error for duplicate tool name")
	}
}

func TestCallUnknownTool(t *testing.T) {
	r, err := New(echoDef())
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Call(context.Background(), "nope", map[string]any{})
	if err == nil {
		t.Fatal("expected UnknownTool error")
	}
}

func TestCallMissingRequiredField(t *testing.T) {
	r, err := New(echoDef())
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Call(context.Background(), "echo", map[string]any{})
	if err == nil {
		t.Fatal("expected BadInput error for missing message")
	}
}

func TestCallRejectsEmptyRequiredField(t *testing.T) {
	r, err := New(echoDef())
	if err != nil {
		t.Fatal(err)
	}
	_, err = r.Call(context.Background(), "echo", map[string]any{"message": ""})
	if err == nil {
		t.Fatal("expected BadInput error for empty message")
	}
}

func TestCallSuccess(t *testing.T) {
	r, err := New(echoDef())
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Call(context.Background(), "echo", map[string]any{"message": "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("expected success result, got error content: %+v", res.Content)
	}
	text := res.Content[0].(*mcp.TextContent).Text
	if !strings.Contains(text, "\n  \"message\"") {
		t.Fatalf("expected pretty-printed JSON with two-space indent, got %q", text)
	}
}

func TestCallHandlerErrorBecomesErrorResult(t *testing.T) {
	def := echoDef()
	def.Handler = func(_ context.Context, _ map[string]any) (any, error) {
		return nil, errors.New("boom")
	}
	r, err := New(def)
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Call(context.Background(), "echo", map[string]any{"message": "hi"})
	if err != nil {
		t.Fatalf("handler errors should not bubble as Call errors: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected IsError result for handler failure")
	}
}
