package archive

import (
	"log/slog"
	"time"

	"github.com/araddon/dateparse"
)

// Post is one archived newsletter article. Link is the canonical URL and the
// sole identity key for deduplication and tracking.
type Post struct {
	Title       string
	Link        string
	PubDate     time.Time
	Description string
	Content     string
}

// postFromAPI builds a Post from one archive API record. Returns nil for
// records that cannot be used (not an object, or no usable canonical URL).
func postFromAPI(item any) *Post {
	record, ok := item.(map[string]any)
	if !ok {
		slog.Warn("Post item is not an object, skipping")
		return nil
	}

	title := stringField(record, "title")
	if title == "" {
		title = "No Title"
	}

	link := stringField(record, "canonical_url")
	if link == "" {
		slog.Warn("Skipping post: no valid URL", "title", title)
		return nil
	}

	return &Post{
		Title:       title,
		Link:        link,
		PubDate:     parsePostDate(stringField(record, "post_date"), title),
		Description: stringField(record, "description"),
	}
}

// parsePostDate parses the API's ISO-8601 Z-suffixed date convention, with a
// lenient second attempt before falling back to the current time.
func parsePostDate(value, title string) time.Time {
	if value != "" {
		if ts, err := time.Parse(time.RFC3339, value); err == nil {
			return ts
		}
		if ts, err := dateparse.ParseAny(value); err == nil {
			return ts
		}
	}

	slog.Warn("Invalid post date, using current time", "date", value, "post", title)
	return time.Now()
}

func stringField(record map[string]any, key string) string {
	value, ok := record[key].(string)
	if !ok {
		return ""
	}
	return value
}
