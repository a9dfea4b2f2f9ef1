package htmlutil

import "github.com/microcosm-cc/bluemonday"

var descriptionPolicy = bluemonday.StrictPolicy()

// SanitizeText strips any HTML markup from text the orchestrator lifts out
// of a scraped page (product descriptions, "why picked" summaries) before
// it is attached to a tool result. StrictPolicy removes all tags, leaving
// plain text, since these strings are rendered as JSON text content, not
// HTML.
func SanitizeText(s string) string {
	return descriptionPolicy.Sanitize(s)
}
