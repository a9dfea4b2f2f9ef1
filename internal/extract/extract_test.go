package extract

import "testing"

func TestExtractJSONLDOnly(t *testing.T) {
	html := `<html><body><script type="application/ld+json">
	{"@type":"Product","name":"X1","offers":{"price":"49.99","priceCurrency":"USD","availability":"https://schema.org/InStock"},"brand":{"name":"Acme"}}
	</script></body></html>`

	c := Extract(Input{URL: "https://example.com/p/1", HTML: html, Text: ""})

	if c.Name != "X1" {
		t.Errorf("expected name X1, got %q", c.Name)
	}
	if c.Price == nil || *c.Price != 49.99 {
		t.Errorf("expected price 49.99, got %v", c.Price)
	}
	if c.Currency != "USD" {
		t.Errorf("expected currency USD, got %q", c.Currency)
	}
	if c.Availability != "in_stock" {
		t.Errorf("expected in_stock, got %q", c.Availability)
	}
	if c.Brand != "Acme" {
		t.Errorf("expected brand Acme, got %q", c.Brand)
	}
	if c.Confidence < 0.75 {
		t.Errorf("expected confidence >= 0.75, got %v", c.Confidence)
	}
}

func TestExtractNeverFails(t *testing.T) {
	c := Extract(Input{URL: "https://example.com/p/2", HTML: "<html><body>nothing useful here</body></html>", Text: "nothing useful here"})
	if c == nil {
		t.Fatal("expected non-nil candidate")
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", c.Confidence)
	}
}

func TestExtractCapsLists(t *testing.T) {
	text := ""
	for i := 0; i < 30; i++ {
		text += "- feature line number here that is long enough to match\n"
	}
	c := Extract(Input{URL: "https://example.com/p/3", HTML: "<html></html>", Text: text})
	if len(c.KeyFeatures) > 10 {
		t.Fatalf("expected at most 10 features, got %d", len(c.KeyFeatures))
	}
}

func TestExtractPriceWithoutCurrencyCapsConfidenceLower(t *testing.T) {
	text := "Widget\nPrice now $19.99\n"
	c := Extract(Input{URL: "https://example.com/p/4", HTML: "<html></html>", Text: text})
	if c.Price == nil {
		t.Fatal("expected a price to be found")
	}

	withCurrency := Extract(Input{URL: "https://example.com/p/5", HTML: `<html><body><span itemprop="price" content="19.99"></span><span itemprop="priceCurrency" content="USD"></span></body></html>`})
	withoutCurrency := Extract(Input{URL: "https://example.com/p/6", HTML: `<html><body><span itemprop="price" content="19.99"></span></body></html>`})
	if withoutCurrency.Price == nil || withoutCurrency.Currency != "" {
		t.Fatalf("expected a price with no currency, got %v %q", withoutCurrency.Price, withoutCurrency.Currency)
	}
	if withoutCurrency.Confidence >= withCurrency.Confidence {
		t.Fatalf("expected lower confidence without currency: %v vs %v", withoutCurrency.Confidence, withCurrency.Confidence)
	}
}
