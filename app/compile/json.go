package compile

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/Automatic365/substack-downloader/app/archive"
)

type jsonPost struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	PubDate     string `json:"pub_date"`
	Description string `json:"description"`
	Content     string `json:"content"`
}

// CompileJSON writes the posts as an array of records with RFC 3339 date
// strings. An empty post list produces an empty array, not an error.
func (c *Compiler) CompileJSON(posts []archive.Post, filename string) (string, error) {
	path := c.outputPath(filename, "json")

	records := make([]jsonPost, 0, len(posts))
	for _, post := range posts {
		records = append(records, jsonPost{
			Title:       post.Title,
			Link:        post.Link,
			PubDate:     post.PubDate.Format(time.RFC3339),
			Description: post.Description,
			Content:     post.Content,
		})
	}

	raw, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return "", fmt.Errorf("failed to encode posts: %w", err)
	}

	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("failed to write JSON: %w", err)
	}

	slog.Info("Generating JSON", "path", path)
	return path, nil
}
