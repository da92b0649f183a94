// Package sanitize strips Substack boilerplate from raw post HTML before
// compilation. The transform is pure and idempotent.
package sanitize

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Boilerplate element categories removed from every post.
var removeSelectors = []string{
	".subscription-widget-wrap",
	".share-dialog",
	".share-button",
	".post-footer",
	".comments-section",
	".subscribe-footer",
	`div[class*="subscribe"]`,
	`div[class*="share"]`,
	"button",
}

// Clean removes subscription prompts, share widgets, footers, comment
// sections and button elements from post HTML. All other structural and
// inline elements pass through verbatim. Empty input yields an empty string.
func Clean(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("Failed to parse HTML for cleaning, passing through", "error", err)
		return html
	}

	for _, selector := range removeSelectors {
		doc.Find(selector).Remove()
	}

	// Subscribe links styled as buttons or dropped bare into a div are
	// boilerplate too; ordinary inline subscribe mentions are kept.
	doc.Find("a").Each(func(_ int, sel *goquery.Selection) {
		if !strings.Contains(strings.ToLower(sel.Text()), "subscribe") {
			return
		}
		if isDivParent(sel) || hasButtonClass(sel) {
			sel.Remove()
		}
	})

	out, err := doc.Find("body").Html()
	if err != nil {
		slog.Warn("Failed to serialize cleaned HTML, passing through", "error", err)
		return html
	}
	return out
}

func isDivParent(sel *goquery.Selection) bool {
	return goquery.NodeName(sel.Parent()) == "div"
}

func hasButtonClass(sel *goquery.Selection) bool {
	class, _ := sel.Attr("class")
	for _, name := range strings.Fields(class) {
		if strings.Contains(name, "button") {
			return true
		}
	}
	return false
}
