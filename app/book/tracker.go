// Package book maintains the sidecar ledger that records which posts are
// already embedded in a compiled EPUB, enabling incremental updates.
package book

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Automatic365/substack-downloader/app/archive"
)

// TrackerData is the persisted ledger shape. PostLinks is a membership set;
// insertion order carries no meaning.
type TrackerData struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	URL         string   `json:"url"`
	PostLinks   []string `json:"post_links"`
	LastUpdated *string  `json:"last_updated"`
}

// Tracker is bound 1:1 to an EPUB artifact path. The ledger file sits next to
// the EPUB with a _tracker.json suffix.
type Tracker struct {
	epubPath    string
	trackerPath string
}

func NewTracker(epubPath string) *Tracker {
	return &Tracker{
		epubPath:    epubPath,
		trackerPath: strings.TrimSuffix(epubPath, ".epub") + "_tracker.json",
	}
}

// Path returns the ledger file location.
func (t *Tracker) Path() string {
	return t.trackerPath
}

// Load reads the ledger. A missing or corrupt file yields an empty ledger,
// never an error.
func (t *Tracker) Load() TrackerData {
	empty := TrackerData{PostLinks: []string{}}

	raw, err := os.ReadFile(t.trackerPath)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("Error loading tracker file", "path", t.trackerPath, "error", err)
		}
		return empty
	}

	var data TrackerData
	if err := json.Unmarshal(raw, &data); err != nil {
		slog.Error("Error parsing tracker file", "path", t.trackerPath, "error", err)
		return empty
	}

	if data.PostLinks == nil {
		data.PostLinks = []string{}
	}
	return data
}

// Save rewrites the ledger with the given metadata and full link set,
// stamping the update time.
func (t *Tracker) Save(title, author, url string, postLinks []string) error {
	now := time.Now().Format(time.RFC3339)
	data := TrackerData{
		Title:       title,
		Author:      author,
		URL:         url,
		PostLinks:   postLinks,
		LastUpdated: &now,
	}

	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode tracker data: %w", err)
	}

	if err := os.WriteFile(t.trackerPath, raw, 0o644); err != nil {
		return fmt.Errorf("failed to save tracker file: %w", err)
	}

	slog.Info("Tracker saved", "path", t.trackerPath, "posts", len(postLinks))
	return nil
}

// NewPosts filters out posts whose canonical link is already recorded in the
// ledger. A recorded post is never re-added.
func (t *Tracker) NewPosts(allPosts []archive.Post) []archive.Post {
	data := t.Load()

	existing := make(map[string]bool, len(data.PostLinks))
	for _, link := range data.PostLinks {
		existing[link] = true
	}

	newPosts := make([]archive.Post, 0, len(allPosts))
	for _, post := range allPosts {
		if !existing[post.Link] {
			newPosts = append(newPosts, post)
		}
	}

	slog.Info("Diffed posts against tracker",
		"total", len(allPosts), "included", len(existing), "new", len(newPosts))
	return newPosts
}

// Exists reports whether both the EPUB artifact and its ledger are present.
// Either one missing forces create-first behavior.
func (t *Tracker) Exists() bool {
	if _, err := os.Stat(t.epubPath); err != nil {
		return false
	}
	if _, err := os.Stat(t.trackerPath); err != nil {
		return false
	}
	return true
}
