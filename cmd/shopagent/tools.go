package main

import (
	"context"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/shopagent/runtime/internal/browser"
	"github.com/shopagent/runtime/internal/cart"
	"github.com/shopagent/runtime/internal/compare"
	"github.com/shopagent/runtime/internal/extract"
	"github.com/shopagent/runtime/internal/fetch"
	"github.com/shopagent/runtime/internal/htmlutil"
	"github.com/shopagent/runtime/internal/obs"
	"github.com/shopagent/runtime/internal/orchestrator"
	"github.com/shopagent/runtime/internal/rpcerr"
	"github.com/shopagent/runtime/internal/search"
	"github.com/shopagent/runtime/internal/toolreg"
)

func strField(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func floatField(args map[string]any, key string, def float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return def
}

func boolField(args map[string]any, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func durationMsField(args map[string]any, key string, defMs int) time.Duration {
	return time.Duration(floatField(args, key, float64(defMs))) * time.Millisecond
}

func tools(research *orchestrator.Orchestrator, shoppingCart *cart.Cart, browserRuntime *browser.Runtime, auditLog *obs.Log) []toolreg.Definition {
	return []toolreg.Definition{
		researchTool(research),
		webSearchTool(),
		openPageTool(),
		extractProductTool(),
		compareProductsTool(),
		pageToMarkdownTool(),
		browserStartTool(browserRuntime),
		browserOpenTool(browserRuntime),
		browserClickTool(browserRuntime),
		browserTypeTool(browserRuntime),
		browserSelectTool(browserRuntime),
		browserScrollTool(browserRuntime),
		browserWaitForTool(browserRuntime),
		browserSnapshotTool(browserRuntime),
		browserCloseTool(browserRuntime),
		addToCartTool(shoppingCart),
		listCartTool(shoppingCart),
		removeFromCartTool(shoppingCart),
		clearCartTool(shoppingCart),
	}
}

func researchTool(o *orchestrator.Orchestrator) toolreg.Definition {
	return toolreg.Definition{
		Name:        "research",
		Description: "run the full research pipeline for a free-form shopping prompt: parse constraints, search, visit and extract candidates, rank, and return up to 3 ranked product options",
		Schema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"prompt": {Type: "string"}},
		},
		Required: []string{"prompt"},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return o.Research(ctx, strField(args, "prompt"))
		},
	}
}

func webSearchTool() toolreg.Definition {
	engine := search.New()
	return toolreg.Definition{
		Name:        "web_search",
		Description: "search the web across provider fallbacks for shopping-relevant pages",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query":       {Type: "string"},
				"max_results": {Type: "integer"},
				"region":      {Type: "string"},
			},
		},
		Required: []string{"query"},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			maxResults := int(floatField(args, "max_results", 5))
			return engine.Search(ctx, strField(args, "query"), maxResults, strField(args, "region"))
		},
	}
}

func openPageTool() toolreg.Definition {
	fetcher := fetch.New()
	return toolreg.Definition{
		Name:        "open_page",
		Description: "fetch a page over HTTP and return cleaned HTML, reduced text, and title",
		Schema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"url": {Type: "string"}},
		},
		Required: []string{"url"},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return fetcher.Fetch(ctx, strField(args, "url"))
		},
	}
}

func extractProductTool() toolreg.Definition {
	return toolreg.Definition{
		Name:        "extract_product",
		Description: "extract a normalized product candidate from a page's HTML and text",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"url":  {Type: "string"},
				"html": {Type: "string"},
				"text": {Type: "string"},
			},
		},
		Required: []string{"url", "html", "text"},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return extract.Extract(extract.Input{
				URL:  strField(args, "url"),
				HTML: strField(args, "html"),
				Text: strField(args, "text"),
			}), nil
		},
	}
}

func compareProductsTool() toolreg.Definition {
	return toolreg.Definition{
		Name:        "compare_products",
		Description: "score and rank a set of products against budget and preference criteria",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"products": {Type: "array"},
				"criteria": {Type: "object"},
			},
		},
		Required: []string{"products", "criteria"},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			products, criteria, err := decodeCompareArgs(args)
			if err != nil {
				return nil, err
			}
			return compare.Compare(products, criteria), nil
		},
	}
}

func pageToMarkdownTool() toolreg.Definition {
	return toolreg.Definition{
		Name:        "page_to_markdown",
		Description: "convert a page's HTML to markdown, falling back to its reduced text",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"url":  {Type: "string"},
				"html": {Type: "string"},
			},
		},
		Required: []string{"url", "html"},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			rawHTML := strField(args, "html")
			doc := htmlutil.CleanBody(rawHTML)
			fallback := htmlutil.ReduceText(doc)
			return map[string]string{
				"markdown": htmlutil.ToMarkdown(rawHTML, strField(args, "url"), fallback),
			}, nil
		},
	}
}

func browserStartTool(rt *browser.Runtime) toolreg.Definition {
	return toolreg.Definition{
		Name:        "browser_start",
		Description: "launch the driven browser session, optionally navigating to a start URL",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"start_url":  {Type: "string"},
				"headless":   {Type: "boolean"},
				"timeout_ms": {Type: "integer"},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return rt.Start(ctx, strField(args, "start_url"), boolField(args, "headless", true), durationMsField(args, "timeout_ms", 30000))
		},
	}
}

func browserOpenTool(rt *browser.Runtime) toolreg.Definition {
	return toolreg.Definition{
		Name:        "browser_open",
		Description: "navigate the active browser session to a URL",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"url":        {Type: "string"},
				"timeout_ms": {Type: "integer"},
			},
		},
		Required: []string{"url"},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return rt.Open(ctx, strField(args, "url"), durationMsField(args, "timeout_ms", 30000))
		},
	}
}

func browserClickTool(rt *browser.Runtime) toolreg.Definition {
	return toolreg.Definition{
		Name:        "browser_click",
		Description: "click the first element matching a selector in the active browser session",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"selector":            {Type: "string"},
				"wait_for_navigation": {Type: "boolean"},
				"timeout_ms":          {Type: "integer"},
			},
		},
		Required: []string{"selector"},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return rt.Click(ctx, strField(args, "selector"), boolField(args, "wait_for_navigation", false), durationMsField(args, "timeout_ms", 15000))
		},
	}
}

func browserTypeTool(rt *browser.Runtime) toolreg.Definition {
	return toolreg.Definition{
		Name:        "browser_type",
		Description: "type text into an element in the active browser session",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"selector":     {Type: "string"},
				"text":         {Type: "string"},
				"append":       {Type: "boolean"},
				"press_enter":  {Type: "boolean"},
				"timeout_ms":   {Type: "integer"},
			},
		},
		Required: []string{"selector", "text"},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return rt.Type(ctx, strField(args, "selector"), strField(args, "text"), boolField(args, "append", false), boolField(args, "press_enter", false), durationMsField(args, "timeout_ms", 15000))
		},
	}
}

func browserSelectTool(rt *browser.Runtime) toolreg.Definition {
	return toolreg.Definition{
		Name:        "browser_select",
		Description: "set a select element's chosen option by value, label, or index",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"selector": {Type: "string"},
				"value":    {Type: "string"},
				"label":    {Type: "string"},
				"index":    {Type: "integer"},
			},
		},
		Required: []string{"selector"},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			by := browser.SelectBy{Value: strField(args, "value"), Label: strField(args, "label")}
			if idx, ok := args["index"].(float64); ok {
				i := int(idx)
				by.Index = &i
			}
			return rt.Select(ctx, strField(args, "selector"), by, 10*time.Second)
		},
	}
}

func browserScrollTool(rt *browser.Runtime) toolreg.Definition {
	return toolreg.Definition{
		Name:        "browser_scroll",
		Description: "scroll the active browser session's page by a delta or to an absolute position",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"mode": {Type: "string"},
				"x":    {Type: "number"},
				"y":    {Type: "number"},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			mode := strField(args, "mode")
			if mode == "" {
				mode = "by"
			}
			return rt.Scroll(ctx, mode, int(floatField(args, "x", 0)), int(floatField(args, "y", 700)))
		},
	}
}

func browserWaitForTool(rt *browser.Runtime) toolreg.Definition {
	return toolreg.Definition{
		Name:        "browser_wait_for",
		Description: "wait for a selector to appear in the active browser session",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"selector":   {Type: "string"},
				"timeout_ms": {Type: "integer"},
			},
		},
		Required: []string{"selector"},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return rt.WaitFor(ctx, strField(args, "selector"), durationMsField(args, "timeout_ms", 15000))
		},
	}
}

func browserSnapshotTool(rt *browser.Runtime) toolreg.Definition {
	return toolreg.Definition{
		Name:        "browser_snapshot",
		Description: "capture the active browser session's current title, text, and optionally HTML",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"include_html":   {Type: "boolean"},
				"max_text_chars": {Type: "integer"},
			},
		},
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			return rt.Snapshot(ctx, boolField(args, "include_html", false), int(floatField(args, "max_text_chars", 25000)))
		},
	}
}

func browserCloseTool(rt *browser.Runtime) toolreg.Definition {
	return toolreg.Definition{
		Name:        "browser_close",
		Description: "close the active browser session; a no-op if none is open",
		Schema:      &jsonschema.Schema{Type: "object"},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return rt.Close(), nil
		},
	}
}

func addToCartTool(c *cart.Cart) toolreg.Definition {
	return toolreg.Definition{
		Name:        "add_to_cart",
		Description: "add an item to the cart, rejecting duplicates by URL",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"name":     {Type: "string"},
				"url":      {Type: "string"},
				"price":    {Type: "number"},
				"currency": {Type: "string"},
				"source":   {Type: "string"},
				"imageUrl": {Type: "string"},
				"category": {Type: "string"},
			},
		},
		Required: []string{"name", "url", "price", "currency", "source"},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return c.Add(cart.Item{
				Name:     strField(args, "name"),
				URL:      strField(args, "url"),
				Price:    floatField(args, "price", 0),
				Currency: strField(args, "currency"),
				Source:   strField(args, "source"),
				ImageURL: strField(args, "imageUrl"),
				Category: strField(args, "category"),
			}), nil
		},
	}
}

func listCartTool(c *cart.Cart) toolreg.Definition {
	return toolreg.Definition{
		Name:        "list_cart",
		Description: "list the current cart contents",
		Schema:      &jsonschema.Schema{Type: "object"},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return c.List(), nil
		},
	}
}

func removeFromCartTool(c *cart.Cart) toolreg.Definition {
	return toolreg.Definition{
		Name:        "remove_from_cart",
		Description: "remove a cart item by id",
		Schema: &jsonschema.Schema{
			Type:       "object",
			Properties: map[string]*jsonschema.Schema{"id": {Type: "string"}},
		},
		Required: []string{"id"},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return c.Remove(strField(args, "id")), nil
		},
	}
}

func clearCartTool(c *cart.Cart) toolreg.Definition {
	return toolreg.Definition{
		Name:        "clear_cart",
		Description: "empty the cart",
		Schema:      &jsonschema.Schema{Type: "object"},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return c.Clear(), nil
		},
	}
}

func decodeCompareArgs(args map[string]any) ([]compare.Product, compare.Criteria, error) {
	rawProducts, _ := args["products"].([]any)
	if len(rawProducts) == 0 {
		return nil, compare.Criteria{}, &rpcerr.BadInput{Reason: "products must be a non-empty array"}
	}

	products := make([]compare.Product, 0, len(rawProducts))
	for _, raw := range rawProducts {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		p := compare.Product{
			Name:     strField(m, "name"),
			Brand:    strField(m, "brand"),
			Currency: strField(m, "currency"),
		}
		if price, ok := m["price"].(float64); ok {
			p.Price = &price
		}
		if specs, ok := m["specs"].(map[string]any); ok {
			p.Specs = make(map[string]string, len(specs))
			for k, v := range specs {
				if s, ok := v.(string); ok {
					p.Specs[k] = s
				}
			}
		}
		if features, ok := m["features"].([]any); ok {
			for _, f := range features {
				if s, ok := f.(string); ok {
					p.Features = append(p.Features, s)
				}
			}
		}
		products = append(products, p)
	}

	criteriaRaw, _ := args["criteria"].(map[string]any)
	criteria := compare.Criteria{
		Currency: strField(criteriaRaw, "currency"),
		UseCase:  strField(criteriaRaw, "useCase"),
	}
	if maxBudget, ok := criteriaRaw["maxBudget"].(float64); ok {
		criteria.MaxBudget = &maxBudget
	}
	if prefs, ok := criteriaRaw["preferences"].([]any); ok {
		for _, p := range prefs {
			if s, ok := p.(string); ok {
				criteria.Preferences = append(criteria.Preferences, s)
			}
		}
	}

	return products, criteria, nil
}
