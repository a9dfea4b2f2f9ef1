// Package extract implements the Product Extractor: merges JSON-LD,
// microdata-like itemprops, and text heuristics into a normalized
// ProductCandidate with a confidence score. Extraction never fails — an
// input with no usable structure still yields a record with nulls/empties
// and a low confidence.
package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Candidate is the normalized extraction output.
type Candidate struct {
	URL          string            `json:"url"`
	Source       string            `json:"source"`
	Name         string            `json:"name,omitempty"`
	Brand        string            `json:"brand,omitempty"`
	Category     string             `json:"category,omitempty"`
	KeyFeatures  []string          `json:"key_features,omitempty"`
	Images       []string          `json:"images,omitempty"`
	Specs        map[string]string `json:"specs,omitempty"`
	Price        *float64          `json:"price,omitempty"`
	Currency     string            `json:"currency,omitempty"`
	Availability string            `json:"availability,omitempty"`
	Confidence   float64           `json:"confidence"`

	usedStructured bool
}

const (
	maxFeatures = 10
	maxImages   = 12
	maxSpecs    = 25
)

// Input is the extractor's input: a fetched page's URL, raw HTML, and
// reduced text.
type Input struct {
	URL  string
	HTML string
	Text string
}

// Extract always returns a Candidate.
func Extract(in Input) *Candidate {
	c := &Candidate{URL: in.URL, Source: hostOf(in.URL)}

	doc, err := html.Parse(strings.NewReader(in.HTML))
	if err != nil {
		doc = nil
	}

	if doc != nil {
		fillFromJSONLD(c, doc)
		fillFromItemprops(c, doc)
	}
	fillFromTextHeuristics(c, in.Text)
	if doc != nil {
		fillImagesFromHTML(c, doc)
	}

	c.dedupLists()
	c.capLists()
	c.Confidence = c.computeConfidence()
	return c
}

func (c *Candidate) dedupLists() {
	c.KeyFeatures = dedupStrings(c.KeyFeatures)
	c.Images = dedupStrings(c.Images)
}

func (c *Candidate) capLists() {
	if len(c.KeyFeatures) > maxFeatures {
		c.KeyFeatures = c.KeyFeatures[:maxFeatures]
	}
	if len(c.Images) > maxImages {
		c.Images = c.Images[:maxImages]
	}
	if len(c.Specs) > maxSpecs {
		kept := make(map[string]string, maxSpecs)
		i := 0
		for k, v := range c.Specs {
			if i >= maxSpecs {
				break
			}
			kept[k] = v
			i++
		}
		c.Specs = kept
	}
}

func (c *Candidate) computeConfidence() float64 {
	var score float64
	if c.Name != "" {
		score += 0.20
	}
	if c.Price != nil {
		if c.Currency != "" {
			score += 0.25
		} else {
			score += 0.15
		}
	}
	if c.Availability != "" {
		score += 0.10
	}
	if c.Brand != "" {
		score += 0.10
	}
	if c.Category != "" {
		score += 0.05
	}
	if len(c.KeyFeatures) >= 1 {
		score += 0.10
	}
	if len(c.Images) >= 1 {
		score += 0.10
	}
	if len(c.Specs) >= 1 {
		score += 0.10
	}
	if c.usedStructured {
		score += 0.10
	}
	if score > 1 {
		score = 1
	}
	if score < 0 {
		score = 0
	}
	return roundTo2(score)
}

func roundTo2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		norm := strings.Join(strings.Fields(s), " ")
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, norm)
	}
	return out
}

func hostOf(rawURL string) string {
	i := strings.Index(rawURL, "://")
	if i < 0 {
		return rawURL
	}
	rest := rawURL[i+3:]
	if j := strings.IndexAny(rest, "/?#"); j >= 0 {
		rest = rest[:j]
	}
	return rest
}
