package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

// FetchMetadata pages through the archive API and returns posts sorted
// ascending by publication date. A limit of 0 means unbounded. Page-level
// failures end pagination with whatever was accumulated so far; they are
// never fatal. When the archive API yields nothing at all, the publication's
// RSS feed is tried as a fallback.
func (c *Client) FetchMetadata(ctx context.Context, limit int) []Post {
	slog.Info("Fetching archive", "url", c.apiURL)

	var posts []Post
	offset := 0

	for {
		items, err := c.fetchPage(ctx, offset)
		if err != nil {
			slog.Error("Archive API request failed", "offset", offset, "error", err)
			break
		}

		if len(items) == 0 {
			break
		}

		for _, item := range items {
			post := postFromAPI(item)
			if post == nil {
				continue
			}

			posts = append(posts, *post)
			if limit > 0 && len(posts) >= limit {
				posts = posts[:limit]
				sortByDate(posts)
				return posts
			}
		}

		offset += len(items)
		if len(items) < c.pageSize {
			break
		}

		select {
		case <-ctx.Done():
			slog.Warn("Metadata fetch cancelled", "offset", offset)
			sortByDate(posts)
			return posts
		case <-time.After(c.rateDelay):
		}
	}

	if len(posts) == 0 {
		posts = c.FetchMetadataFeed(ctx, limit)
	}

	sortByDate(posts)
	slog.Info("Found posts in archive", "count", len(posts))
	return posts
}

func (c *Client) fetchPage(ctx context.Context, offset int) ([]any, error) {
	pageURL := fmt.Sprintf("%s?sort=new&search=&offset=%d&limit=%d", c.apiURL, offset, c.pageSize)

	resp, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("archive API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive API response: %w", err)
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("archive API returned invalid JSON: %w", err)
	}

	return parseAPIResponse(data), nil
}

// parseAPIResponse tolerates both response shapes the archive endpoint is
// known to produce: a bare list, or an object with a "posts" list field.
// Anything else yields zero items for the page.
func parseAPIResponse(data any) []any {
	switch v := data.(type) {
	case []any:
		return v
	case map[string]any:
		posts, ok := v["posts"]
		if !ok {
			slog.Warn("Unexpected archive API response format")
			return nil
		}
		list, ok := posts.([]any)
		if !ok {
			slog.Warn("Archive API 'posts' field is not a list")
			return nil
		}
		return list
	default:
		slog.Warn("Unexpected archive API response format")
		return nil
	}
}

func sortByDate(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].PubDate.Before(posts[j].PubDate)
	})
}
