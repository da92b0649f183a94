package archive

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// contentSelectors are tried in priority order against a post page. The
// class-specific wrappers come first, generic containers last.
var contentSelectors = []string{
	"div.available-content",
	"div.body.markup",
	"article",
	"div.post-content",
	"main",
}

// FetchContent retrieves one post page and extracts its main content region.
// All failures degrade to an empty string; callers never see an error.
func (c *Client) FetchContent(ctx context.Context, link string) string {
	if c.cache != nil {
		if content, ok := c.cache.Get(link); ok {
			slog.Debug("Using cached content", "url", link)
			return content
		}
	}

	resp, err := c.get(ctx, link)
	if err != nil {
		slog.Error("Error fetching content", "url", link, "error", err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("Content fetch returned non-OK status", "url", link, "status", resp.StatusCode)
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Error("Error parsing content page", "url", link, "error", err)
		return ""
	}

	content := extractContent(doc, link)

	if c.cache != nil && content != "" {
		c.cache.Set(link, content)
	}

	return content
}

func extractContent(doc *goquery.Document, link string) string {
	for _, selector := range contentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		html, err := goquery.OuterHtml(sel)
		if err != nil {
			slog.Warn("Failed to serialize content region", "url", link, "selector", selector, "error", err)
			continue
		}
		return html
	}

	// None of the structural selectors matched. Let readability take a pass
	// before falling back to the raw body.
	if pageHTML, err := doc.Html(); err == nil {
		article, err := readability.FromReader(strings.NewReader(pageHTML), nil)
		if err == nil && article.Content != "" {
			slog.Warn("Structural selectors failed, using readability extraction", "url", link)
			return article.Content
		}
	}

	body := doc.Find("body").First()
	if body.Length() > 0 {
		if html, err := goquery.OuterHtml(body); err == nil {
			slog.Warn("Could not find expected content structure, using body", "url", link)
			return html
		}
	}

	slog.Warn("No content found", "url", link)
	return ""
}

// FetchAllContent fans out content fetching over a bounded worker pool. Each
// worker owns exactly one slot of the posts slice, so there is no shared
// mutation; the input ordering is preserved. A failure on one post leaves its
// content empty without affecting the others.
func (c *Client) FetchAllContent(ctx context.Context, posts []Post, maxWorkers int) []Post {
	if len(posts) == 0 {
		return posts
	}

	workers := maxWorkers
	if workers <= 0 {
		workers = c.workers
	}
	slog.Info("Fetching content", "posts", len(posts), "workers", workers)

	// Politeness: the per-completion delay is split across workers so the
	// aggregate request rate matches the sequential rate limit.
	delay := c.rateDelay / time.Duration(max(workers, 1))

	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i := range posts {
		wg.Add(1)
		sem <- struct{}{}

		go func(slot *Post) {
			defer wg.Done()
			defer func() { <-sem }()

			slot.Content = c.FetchContent(ctx, slot.Link)
			if slot.Content == "" {
				slog.Warn("No content retrieved", "url", slot.Link)
			}
			time.Sleep(delay)
		}(&posts[i])
	}

	wg.Wait()
	return posts
}
