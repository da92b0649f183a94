package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/Automatic365/substack-downloader/app/archive"
	"github.com/Automatic365/substack-downloader/app/book"
	"github.com/Automatic365/substack-downloader/app/cfg"
	"github.com/Automatic365/substack-downloader/app/compile"
)

// newsletterServer simulates a newsletter site: a homepage with title and
// author metadata, the archive API, and individual post pages. The post set
// can grow between runs to exercise update mode.
type newsletterServer struct {
	server       *httptest.Server
	slugs        []string
	contentHits  atomic.Int64
	metadataHits atomic.Int64
}

func newNewsletterServer(t *testing.T, slugs ...string) *newsletterServer {
	t.Helper()
	ns := &newsletterServer{slugs: slugs}

	ns.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			w.Write([]byte(`<html><head><title>Test Letter</title>` +
				`<meta name="author" content="Jane Doe"></head><body></body></html>`))
		case r.URL.Path == "/api/v1/archive":
			ns.metadataHits.Add(1)
			items := make([]map[string]any, 0, len(ns.slugs))
			for i, slug := range ns.slugs {
				items = append(items, map[string]any{
					"title":         "Post " + slug,
					"canonical_url": ns.server.URL + "/p/" + slug,
					"post_date":     fmt.Sprintf("2024-01-%02dT00:00:00Z", i+1),
				})
			}
			if r.URL.Query().Get("offset") != "0" {
				items = nil
			}
			json.NewEncoder(w).Encode(items)
		case strings.HasPrefix(r.URL.Path, "/p/"):
			ns.contentHits.Add(1)
			slug := strings.TrimPrefix(r.URL.Path, "/p/")
			w.Write([]byte(`<html><body><div class="available-content">` +
				`<p>Body of ` + slug + `</p>` +
				`<div class="subscription-widget-wrap">Subscribe now</div>` +
				`</div></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ns.server.Close)
	return ns
}

func testOrchestrator(t *testing.T, ns *newsletterServer, mutate func(c *cfg.Cfg)) (*Orchestrator, *cfg.Cfg) {
	t.Helper()
	c := &cfg.Cfg{
		Timeout:      5,
		MaxRetries:   1,
		RetryBackoff: 0.01,
		UserAgent:    "test-agent",
		PageSize:     50,
		WorkerCount:  2,
		MaxImageSize: 1024 * 1024,
		OutputDir:    t.TempDir(),
		Format:       cfg.FormatJSON,
		URL:          ns.server.URL,
	}
	if mutate != nil {
		mutate(c)
	}

	client, err := archive.NewClient(ns.server.URL, "", c)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	compiler, err := compile.NewCompiler(ns.server.URL, c)
	if err != nil {
		t.Fatalf("NewCompiler failed: %v", err)
	}

	return NewOrchestrator(client, compiler, c), c
}

func TestRunCreateWorkflow(t *testing.T) {
	ns := newNewsletterServer(t, "first", "second")
	orchestrator, _ := testOrchestrator(t, ns, nil)

	result := orchestrator.Run(context.Background())

	if result.Status != StatusOK {
		t.Fatalf("Expected ok status, got %s: %s", result.Status, result.Message)
	}
	if result.Title != "Test Letter" || result.Author != "Jane Doe" {
		t.Errorf("Unexpected metadata: %s / %s", result.Title, result.Author)
	}
	if result.PostCount != 2 {
		t.Errorf("Expected 2 posts, got %d", result.PostCount)
	}
	if result.Filename != "Test_Letter.json" {
		t.Errorf("Expected derived filename, got '%s'", result.Filename)
	}
	if result.MimeType != "application/json" {
		t.Errorf("Unexpected mime type: %s", result.MimeType)
	}

	raw, err := os.ReadFile(result.OutputPath)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	out := string(raw)
	if !strings.Contains(out, "Body of first") || !strings.Contains(out, "Body of second") {
		t.Errorf("Expected post content in output, got: %s", out)
	}
	if strings.Contains(out, "Subscribe now") {
		t.Errorf("Expected boilerplate to be cleaned, got: %s", out)
	}
}

func TestRunCreateNoPosts(t *testing.T) {
	ns := newNewsletterServer(t)
	orchestrator, _ := testOrchestrator(t, ns, nil)

	result := orchestrator.Run(context.Background())

	if result.Status != StatusNoPosts {
		t.Fatalf("Expected no_posts status, got %s", result.Status)
	}
	if ns.contentHits.Load() != 0 {
		t.Error("Expected no content fetches without posts")
	}
}

func TestRunCreateHonorsLimit(t *testing.T) {
	ns := newNewsletterServer(t, "a", "b", "c")
	orchestrator, _ := testOrchestrator(t, ns, func(c *cfg.Cfg) { c.Limit = 1 })

	result := orchestrator.Run(context.Background())

	if result.Status != StatusOK {
		t.Fatalf("Expected ok status, got %s: %s", result.Status, result.Message)
	}
	if result.PostCount != 1 {
		t.Errorf("Expected 1 post with limit, got %d", result.PostCount)
	}
}

func TestRunUpdateMissingEPUB(t *testing.T) {
	ns := newNewsletterServer(t, "first")
	orchestrator, _ := testOrchestrator(t, ns, func(c *cfg.Cfg) { c.Update = true })

	result := orchestrator.Run(context.Background())

	if result.Status != StatusMissingEPUB {
		t.Fatalf("Expected missing_epub status, got %s", result.Status)
	}
	if !strings.Contains(result.Message, "Test_Letter.epub") {
		t.Errorf("Expected message to name the expected artifact, got: %s", result.Message)
	}
	// Without an artifact there is nothing to diff against
	if ns.metadataHits.Load() != 0 {
		t.Error("Expected no archive API calls")
	}
	if ns.contentHits.Load() != 0 {
		t.Error("Expected no content fetches")
	}
}

func TestRunUpdateNoNewPosts(t *testing.T) {
	ns := newNewsletterServer(t, "first", "second")

	// First run creates the EPUB and its ledger
	createOrch, c := testOrchestrator(t, ns, func(c *cfg.Cfg) { c.Format = cfg.FormatEPUB })
	if result := createOrch.Run(context.Background()); result.Status != StatusOK {
		t.Fatalf("Create run failed: %s", result.Message)
	}

	updateOrch, _ := testOrchestrator(t, ns, func(uc *cfg.Cfg) {
		uc.Update = true
		uc.OutputDir = c.OutputDir
	})
	result := updateOrch.Run(context.Background())

	if result.Status != StatusNoNewPosts {
		t.Fatalf("Expected no_new_posts status, got %s: %s", result.Status, result.Message)
	}
}

func TestRunUpdateAppendsNewPosts(t *testing.T) {
	ns := newNewsletterServer(t, "first", "second")

	createOrch, c := testOrchestrator(t, ns, func(c *cfg.Cfg) { c.Format = cfg.FormatEPUB })
	if result := createOrch.Run(context.Background()); result.Status != StatusOK {
		t.Fatalf("Create run failed: %s", result.Message)
	}

	ns.slugs = append(ns.slugs, "third")

	updateOrch, _ := testOrchestrator(t, ns, func(uc *cfg.Cfg) {
		uc.Update = true
		uc.OutputDir = c.OutputDir
	})
	result := updateOrch.Run(context.Background())

	if result.Status != StatusOK {
		t.Fatalf("Expected ok status, got %s: %s", result.Status, result.Message)
	}
	if result.PostCount != 1 {
		t.Errorf("Expected 1 new post, got %d", result.PostCount)
	}
	if result.Filename != "Test_Letter.epub" {
		t.Errorf("Expected stable artifact filename, got '%s'", result.Filename)
	}

	// Ledger records all three posts after the update
	tracker := book.NewTracker(filepath.Join(c.OutputDir, "Test_Letter.epub"))
	data := tracker.Load()
	if len(data.PostLinks) != 3 {
		t.Errorf("Expected 3 recorded links, got %d: %v", len(data.PostLinks), data.PostLinks)
	}
}

func TestRunCreateEPUBRecordsLedger(t *testing.T) {
	ns := newNewsletterServer(t, "first", "second")
	orchestrator, c := testOrchestrator(t, ns, func(c *cfg.Cfg) { c.Format = cfg.FormatEPUB })

	result := orchestrator.Run(context.Background())
	if result.Status != StatusOK {
		t.Fatalf("Expected ok status, got %s: %s", result.Status, result.Message)
	}

	tracker := book.NewTracker(filepath.Join(c.OutputDir, "Test_Letter.epub"))
	if !tracker.Exists() {
		t.Fatal("Expected EPUB and ledger to exist after create")
	}
	data := tracker.Load()
	if data.Title != "Test Letter" || data.Author != "Jane Doe" {
		t.Errorf("Unexpected ledger metadata: %s / %s", data.Title, data.Author)
	}
	if len(data.PostLinks) != 2 {
		t.Errorf("Expected 2 recorded links, got %d", len(data.PostLinks))
	}
}

func TestRunExplicitOutputFilename(t *testing.T) {
	ns := newNewsletterServer(t, "first")
	orchestrator, _ := testOrchestrator(t, ns, func(c *cfg.Cfg) { c.Output = "custom-name" })

	result := orchestrator.Run(context.Background())

	if result.Status != StatusOK {
		t.Fatalf("Expected ok status, got %s: %s", result.Status, result.Message)
	}
	if filepath.Base(result.OutputPath) != "custom-name.json" {
		t.Errorf("Expected custom filename, got %s", result.OutputPath)
	}
}

func TestSafeFilename(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"plain", "My Newsletter", "My Newsletter"},
		{"path separators", "a/b\\c", "a_b_c"},
		{"unsafe characters", `What? A "Title": <here>|*`, "What A Title here"},
		{"control characters", "tab\there", "tabhere"},
		{"leading trailing dots and spaces", " .title. ", "title"},
		{"empty", "", "unnamed"},
		{"whitespace only", "   ", "unnamed"},
		{"only unsafe", `<>:"|?*`, "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeFilename(tt.in); got != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, got)
			}
		})
	}
}

func TestSafeFilenameTruncates(t *testing.T) {
	long := strings.Repeat("x", 300)
	if got := SafeFilename(long); len(got) != 255 {
		t.Errorf("Expected 255-character filename, got %d", len(got))
	}
}
