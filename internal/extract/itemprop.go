package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// fillFromItemprops scans every itemprop-annotated tag and fills only the
// fields c doesn't already have. Value precedence per tag: content, value,
// href, src, then inner text.
func fillFromItemprops(c *Candidate, doc *html.Node) {
	props := make(map[string]string)
	var specs []string // ordered "name: value" pairs from itemprop="additionalProperty" groups

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if prop := attrOf(n, "itemprop"); prop != "" {
				val := itempropValue(n)
				if val != "" {
					if _, exists := props[prop]; !exists {
						props[prop] = val
					}
					if prop == "additionalProperty" {
						name := attrOf(n, "data-name")
						if name != "" {
							specs = append(specs, name+": "+val)
						}
					}
				}
			}
		}
		for cc := n.FirstChild; cc != nil; cc = cc.NextSibling {
			walk(cc)
		}
	}
	walk(doc)

	if len(props) == 0 {
		return
	}
	c.usedStructured = true

	if c.Name == "" {
		c.Name = props["name"]
	}
	if c.Brand == "" {
		c.Brand = props["brand"]
	}
	if c.Category == "" {
		c.Category = props["category"]
	}
	if c.Currency == "" {
		c.Currency = strings.ToUpper(props["priceCurrency"])
	}
	if c.Price == nil {
		if p, ok := parsePrice(props["price"]); ok {
			c.Price = &p
		}
	}
	if c.Availability == "" && props["availability"] != "" {
		c.Availability = normalizeAvailability(props["availability"])
	}
	if len(c.Images) == 0 && props["image"] != "" {
		c.Images = append(c.Images, props["image"])
	}
	if len(c.KeyFeatures) == 0 && props["description"] != "" {
		c.KeyFeatures = splitFeatures(props["description"])
	}
	if len(c.Specs) == 0 && len(specs) > 0 {
		c.Specs = make(map[string]string, len(specs))
		for _, pair := range specs {
			if k, v, ok := strings.Cut(pair, ": "); ok {
				c.Specs[k] = v
			}
		}
	}
}

func itempropValue(n *html.Node) string {
	for _, key := range []string{"content", "value", "href", "src"} {
		if v := attrOf(n, key); v != "" {
			return v
		}
	}
	return strings.TrimSpace(collectInnerText(n))
}

func collectInnerText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(collectInnerText(c))
	}
	return b.String()
}
