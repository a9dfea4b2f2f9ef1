package htmlutil

import (
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var (
	mdOnce sync.Once
	mdConv *converter.Converter
)

func markdownConverter() *converter.Converter {
	mdOnce.Do(func() {
		mdConv = converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		)
	})
	return mdConv
}

// ToMarkdown converts rawHTML to Markdown, resolving relative links/images
// against sourceURL. Empty output or a conversion error yields fallback.
func ToMarkdown(rawHTML, sourceURL, fallback string) string {
	if strings.TrimSpace(rawHTML) == "" {
		return fallback
	}
	out, err := markdownConverter().ConvertString(rawHTML, converter.WithDomain(sourceURL))
	if err != nil || strings.TrimSpace(out) == "" {
		return fallback
	}
	return strings.TrimSpace(out)
}
