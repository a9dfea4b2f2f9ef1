package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	productContextRe = regexp.MustCompile(`(?i)product|hero|main|gallery|primary|detail`)
	junkImageRe       = regexp.MustCompile(`(?i)logo|icon|sprite|pixel|tracking|banner|avatar|\.gif($|\?)|\.svg($|\?)|data:image|1x1|placeholder`)
)

// fillImagesFromHTML fills c.Images (if still empty) from OpenGraph/Twitter
// meta tags first, then contextual <img> tags, falling back to any
// non-junk <img>.
func fillImagesFromHTML(c *Candidate, doc *html.Node) {
	if len(c.Images) > 0 {
		return
	}

	var metaImages, contextual, fallback []string

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Meta:
				prop := attrOf(n, "property")
				name := attrOf(n, "name")
				if prop == "og:image" || name == "twitter:image" {
					if v := attrOf(n, "content"); v != "" {
						metaImages = append(metaImages, v)
					}
				}
			case atom.Img:
				src := attrOf(n, "src")
				if src == "" {
					break
				}
				if junkImageRe.MatchString(src) {
					break
				}
				class := attrOf(n, "class") + " " + attrOf(n, "id")
				alt := attrOf(n, "alt")
				if productContextRe.MatchString(class) || len(strings.TrimSpace(alt)) > 3 {
					contextual = append(contextual, src)
				} else {
					fallback = append(fallback, src)
				}
			}
		}
		for cc := n.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(doc)

	var images []string
	images = append(images, metaImages...)
	images = append(images, contextual...)
	images = append(images, fallback...)
	c.Images = images
}
