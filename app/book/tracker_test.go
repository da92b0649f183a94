package book

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Automatic365/substack-downloader/app/archive"
)

func TestTrackerPath(t *testing.T) {
	tracker := NewTracker("/out/My_Newsletter.epub")
	if tracker.Path() != "/out/My_Newsletter_tracker.json" {
		t.Errorf("Unexpected tracker path: %s", tracker.Path())
	}
}

func TestTrackerRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker(filepath.Join(dir, "book.epub"))

	links := []string{
		"https://x.substack.com/p/a",
		"https://x.substack.com/p/b",
	}
	if err := tracker.Save("My Newsletter", "Jane Doe", "https://x.substack.com", links); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data := tracker.Load()
	if data.Title != "My Newsletter" {
		t.Errorf("Expected title to round-trip, got '%s'", data.Title)
	}
	if data.Author != "Jane Doe" {
		t.Errorf("Expected author to round-trip, got '%s'", data.Author)
	}
	if data.URL != "https://x.substack.com" {
		t.Errorf("Expected URL to round-trip, got '%s'", data.URL)
	}
	if len(data.PostLinks) != 2 || data.PostLinks[0] != links[0] || data.PostLinks[1] != links[1] {
		t.Errorf("Expected post links to round-trip, got %v", data.PostLinks)
	}
	if data.LastUpdated == nil || *data.LastUpdated == "" {
		t.Error("Expected last updated timestamp to be set")
	}
}

func TestTrackerLoadMissing(t *testing.T) {
	tracker := NewTracker(filepath.Join(t.TempDir(), "never-saved.epub"))

	data := tracker.Load()
	if data.PostLinks == nil || len(data.PostLinks) != 0 {
		t.Errorf("Expected empty ledger for missing file, got %+v", data)
	}
	if data.LastUpdated != nil {
		t.Errorf("Expected nil last updated, got %v", *data.LastUpdated)
	}
}

func TestTrackerLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker(filepath.Join(dir, "book.epub"))

	if err := os.WriteFile(tracker.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to write corrupt file: %v", err)
	}

	data := tracker.Load()
	if len(data.PostLinks) != 0 || data.Title != "" {
		t.Errorf("Expected empty ledger for corrupt file, got %+v", data)
	}
}

func TestNewPosts(t *testing.T) {
	dir := t.TempDir()
	tracker := NewTracker(filepath.Join(dir, "book.epub"))

	if err := tracker.Save("T", "A", "https://x.substack.com", []string{
		"https://x.substack.com/p/a",
		"https://x.substack.com/p/b",
	}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	all := []archive.Post{
		{Title: "A", Link: "https://x.substack.com/p/a"},
		{Title: "B", Link: "https://x.substack.com/p/b"},
		{Title: "C", Link: "https://x.substack.com/p/c"},
		{Title: "D", Link: "https://x.substack.com/p/d"},
	}

	fresh := tracker.NewPosts(all)
	if len(fresh) != 2 {
		t.Fatalf("Expected 2 new posts, got %d", len(fresh))
	}
	if fresh[0].Title != "C" || fresh[1].Title != "D" {
		t.Errorf("Expected posts C and D, got %s and %s", fresh[0].Title, fresh[1].Title)
	}
}

func TestNewPostsEmptyLedger(t *testing.T) {
	tracker := NewTracker(filepath.Join(t.TempDir(), "book.epub"))

	all := []archive.Post{{Title: "A", Link: "https://x.substack.com/p/a"}}
	if fresh := tracker.NewPosts(all); len(fresh) != 1 {
		t.Errorf("Expected every post to be new, got %d", len(fresh))
	}
}

func TestTrackerExists(t *testing.T) {
	dir := t.TempDir()
	epubPath := filepath.Join(dir, "book.epub")
	tracker := NewTracker(epubPath)

	if tracker.Exists() {
		t.Error("Expected false with neither file present")
	}

	if err := os.WriteFile(epubPath, []byte("zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if tracker.Exists() {
		t.Error("Expected false with only the EPUB present")
	}

	if err := tracker.Save("T", "A", "https://x.substack.com", nil); err != nil {
		t.Fatal(err)
	}
	if !tracker.Exists() {
		t.Error("Expected true with both files present")
	}

	os.Remove(epubPath)
	if tracker.Exists() {
		t.Error("Expected false with only the tracker present")
	}
}
