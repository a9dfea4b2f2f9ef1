// Package htmlutil holds shared HTML parsing, cleaning, sanitization, and
// markdown-conversion helpers used by the fetcher, extractor, and
// orchestrator.
package htmlutil

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	whitespaceRun = regexp.MustCompile(`[ \t]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
)

// blockAtoms are the block-level elements after whose end tag the text
// reducer inserts a newline.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Article: true,
	atom.Header: true, atom.Footer: true, atom.Li: true, atom.Ul: true,
	atom.Ol: true, atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true,
	atom.H5: true, atom.H6: true, atom.Tr: true, atom.Table: true,
}

var stripAtoms = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Noscript: true, atom.Iframe: true,
}

// CleanBody parses rawHTML and returns the parsed document with script,
// style, noscript, and iframe subtrees removed. It never returns an error:
// a malformed document parses into whatever html.Parse can salvage, which
// matches the extractor's "always returns a record" posture.
func CleanBody(rawHTML string) *html.Node {
	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		doc = &html.Node{Type: html.DocumentNode}
	}
	stripNodes(doc)
	return doc
}

func stripNodes(n *html.Node) {
	var next *html.Node
	for c := n.FirstChild; c != nil; c = next {
		next = c.NextSibling
		if c.Type == html.ElementNode && stripAtoms[c.DataAtom] {
			n.RemoveChild(c)
			continue
		}
		stripNodes(c)
	}
}

// ReduceText renders a cleaned document to text using the block-newline
// insertion rule from the fetcher's text-reduction contract: a newline
// after every block-level end tag and after <br>, tags removed, whitespace
// collapsed, runs of 3+ newlines collapsed to 2.
func ReduceText(doc *html.Node) string {
	var b strings.Builder
	reduceWalk(doc, &b)
	text := b.String()
	text = whitespaceRun.ReplaceAllString(text, " ")
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	text = strings.Join(lines, "\n")
	text = blankLineRun.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

func reduceWalk(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.Br {
		b.WriteString("\n")
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		reduceWalk(c, b)
	}
	if n.Type == html.ElementNode && blockAtoms[n.DataAtom] {
		b.WriteString("\n")
	}
}

// Render serializes doc back to an HTML string.
func Render(doc *html.Node) string {
	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return ""
	}
	return b.String()
}

// ExtractTitle returns the whitespace-normalized contents of the first
// <title> element, or "" if absent.
func ExtractTitle(doc *html.Node) string {
	var find func(*html.Node) string
	find = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			if n.FirstChild != nil {
				return strings.Join(strings.Fields(n.FirstChild.Data), " ")
			}
			return ""
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := find(c); t != "" {
				return t
			}
		}
		return ""
	}
	return find(doc)
}
