package sync

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Automatic365/substack-downloader/app/archive"
	"github.com/Automatic365/substack-downloader/app/book"
	"github.com/Automatic365/substack-downloader/app/cfg"
	"github.com/Automatic365/substack-downloader/app/compile"
	"github.com/Automatic365/substack-downloader/app/sanitize"
)

// Orchestrator wires the archive client, sanitizer, compiler and tracker into
// one run of the download pipeline.
type Orchestrator struct {
	client   *archive.Client
	compiler *compile.Compiler
	cfg      *cfg.Cfg
}

func NewOrchestrator(client *archive.Client, compiler *compile.Compiler, c *cfg.Cfg) *Orchestrator {
	return &Orchestrator{
		client:   client,
		compiler: compiler,
		cfg:      c,
	}
}

// Run executes one create or update workflow and reports a structured
// outcome. Per-post failures are absorbed upstream; only fetch-level or
// I/O-level failures surface as an error result.
func (o *Orchestrator) Run(ctx context.Context) Result {
	c := o.cfg

	slog.Info("Fetching newsletter information")
	title := o.client.FetchTitle(ctx)
	author := o.client.FetchAuthor(ctx)

	safeTitle := strings.ReplaceAll(SafeFilename(title), " ", "_")
	epubFilename := safeTitle + ".epub"
	epubPath := filepath.Join(c.OutputDir, epubFilename)

	var posts []archive.Post
	tracker := book.NewTracker(epubPath)

	if c.Update {
		if !tracker.Exists() {
			return Result{
				Status: StatusMissingEPUB,
				Message: fmt.Sprintf(
					"No existing EPUB found at %s. Please create one first.", epubPath),
				Title:  title,
				Author: author,
			}
		}

		slog.Info("Checking for new posts", "newsletter", title)
		all := o.client.FetchMetadata(ctx, 0)
		posts = tracker.NewPosts(all)

		if len(posts) == 0 {
			return Result{
				Status:  StatusNoNewPosts,
				Message: "No new posts found! Your EPUB is up to date.",
				Title:   title,
				Author:  author,
			}
		}
	} else {
		slog.Info("Fetching post list from archive API")
		posts = o.client.FetchMetadata(ctx, c.Limit)

		if len(posts) == 0 {
			return Result{
				Status:  StatusNoPosts,
				Message: "No posts found. Please check the URL.",
				Title:   title,
				Author:  author,
			}
		}
	}

	slog.Info("Downloading and cleaning content", "posts", len(posts))
	posts = o.client.FetchAllContent(ctx, posts, c.WorkerCount)
	for i := range posts {
		posts[i].Content = sanitize.Clean(posts[i].Content)
	}

	format := c.Format
	if c.Update {
		format = cfg.FormatEPUB
	}

	filename := c.Output
	if filename == "" {
		filename = safeTitle + "." + format
	}
	if format == cfg.FormatEPUB {
		// The tracker is keyed to the derived artifact path; EPUB output
		// always uses it so create and update runs agree on the filename.
		filename = epubFilename
	}

	var outputPath string
	var err error
	if format == cfg.FormatEPUB {
		outputPath, err = o.compiler.CompileEPUB(posts, filename, title, author, c.Update)
		if err == nil {
			err = o.recordInclusions(tracker, title, author, posts)
		}
	} else {
		outputPath, err = o.compiler.Compile(format, posts, filename, title, author)
	}
	if err != nil {
		slog.Error("Compilation failed", "format", format, "error", err)
		return errorResult(err.Error())
	}

	return Result{
		Status:     StatusOK,
		Message:    "Success",
		OutputPath: outputPath,
		Filename:   filename,
		MimeType:   cfg.MimeType(format),
		Title:      title,
		Author:     author,
		PostCount:  len(posts),
	}
}

// recordInclusions rewrites the ledger as the union of previously recorded
// links and the posts just compiled in. Runs only after a successful compile,
// so an interrupted run never records posts that were never written.
func (o *Orchestrator) recordInclusions(tracker *book.Tracker, title, author string, posts []archive.Post) error {
	links := tracker.Load().PostLinks
	for _, post := range posts {
		links = append(links, post.Link)
	}
	return tracker.Save(title, author, o.cfg.URL, links)
}

var (
	pathSeparatorRe = regexp.MustCompile(`[/\\]`)
	unsafeCharRe    = regexp.MustCompile(`[<>:"|?*]`)
	controlCharRe   = regexp.MustCompile("[\x00-\x1f\x7f]")
)

const maxFilenameLength = 255

// SafeFilename makes a newsletter title usable as a cross-platform filename.
func SafeFilename(name string) string {
	if strings.TrimSpace(name) == "" {
		return "unnamed"
	}

	name = pathSeparatorRe.ReplaceAllString(name, "_")
	name = unsafeCharRe.ReplaceAllString(name, "")
	name = controlCharRe.ReplaceAllString(name, "")
	name = strings.Trim(name, ". ")

	if len(name) > maxFilenameLength {
		name = name[:maxFilenameLength]
	}

	if name == "" {
		return "unnamed"
	}
	return name
}
