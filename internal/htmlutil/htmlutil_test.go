package htmlutil

import "testing"

func TestCleanBodyStripsScript(t *testing.T) {
	doc := CleanBody(`<html><body><script>evil()</script><p>hello</p></body></html>`)
	text := ReduceText(doc)
	if text != "hello" {
		t.Fatalf("expected %q, got %q", "hello", text)
	}
}

func TestReduceTextInsertsNewlines(t *testing.T) {
	doc := CleanBody(`<div><p>one</p><p>two</p></div>`)
	text := ReduceText(doc)
	if text != "one\ntwo" {
		t.Fatalf("unexpected reduction: %q", text)
	}
}

func TestExtractTitle(t *testing.T) {
	doc := CleanBody(`<html><head><title>  My   Page  </title></head><body></body></html>`)
	if got := ExtractTitle(doc); got != "My Page" {
		t.Fatalf("expected normalized title, got %q", got)
	}
}

func TestSanitizeTextStripsMarkup(t *testing.T) {
	if got := SanitizeText("<b>bold</b> text"); got != "bold text" {
		t.Fatalf("expected stripped text, got %q", got)
	}
}

func TestToMarkdownFallback(t *testing.T) {
	if got := ToMarkdown("", "https://example.com", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
