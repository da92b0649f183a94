package archive

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// FetchMetadataFeed reads the publication's RSS feed and normalizes its items
// to Posts. Substack exposes a feed even when the archive API is disabled, so
// this serves as a metadata fallback. The feed only carries recent posts, so
// the archive API remains the primary source.
func (c *Client) FetchMetadataFeed(ctx context.Context, limit int) []Post {
	slog.Info("Falling back to RSS feed", "url", c.feedURL)

	resp, err := c.get(ctx, c.feedURL)
	if err != nil {
		slog.Error("Feed request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("Feed returned non-OK status", "status", resp.StatusCode)
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Error("Failed to read feed response", "error", err)
		return nil
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		slog.Error("Failed to parse feed", "error", err)
		return nil
	}

	posts := make([]Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		post := postFromFeedItem(item)
		if post == nil {
			continue
		}

		posts = append(posts, *post)
		if limit > 0 && len(posts) >= limit {
			break
		}
	}

	slog.Info("Found posts in feed", "count", len(posts))
	return posts
}

func postFromFeedItem(item *gofeed.Item) *Post {
	if item == nil || item.Link == "" {
		slog.Warn("Skipping feed item: no valid URL")
		return nil
	}

	title := item.Title
	if title == "" {
		title = "No Title"
	}

	pubDate := time.Now()
	if item.PublishedParsed != nil {
		pubDate = *item.PublishedParsed
	} else {
		slog.Warn("Feed item has no parseable date, using current time", "post", title)
	}

	return &Post{
		Title:       title,
		Link:        item.Link,
		PubDate:     pubDate,
		Description: item.Description,
	}
}
