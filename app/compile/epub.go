package compile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-shiori/go-epub"

	"github.com/Automatic365/substack-downloader/app/archive"
	"github.com/Automatic365/substack-downloader/app/media"
)

const epubStyle = "body { font-family: Times, serif; } img { max-width: 100%; }"

// CompileEPUB builds a chaptered book. With updateExisting set and a prior
// artifact present at the target path, the existing chapters and images are
// carried over and new chapters continue the numbering sequence, so chapter
// filenames never collide.
func (c *Compiler) CompileEPUB(posts []archive.Post, filename, title, author string, updateExisting bool) (string, error) {
	path := c.outputPath(filename, "epub")

	var existing *existingBook
	if updateExisting {
		if _, err := os.Stat(path); err == nil {
			slog.Info("Loading existing EPUB", "path", path)
			loaded, err := readBook(path)
			if err != nil {
				return "", fmt.Errorf("failed to read existing EPUB: %w", err)
			}
			existing = loaded
			slog.Info("Found existing chapters", "count", len(existing.Chapters))
		}
	}

	// The artifact path stays stable across runs even if the newsletter was
	// retitled, so an update keeps the title the book was created with.
	if existing != nil && existing.Title != "" {
		title = existing.Title
	}

	book, err := epub.NewEpub(title)
	if err != nil {
		return "", fmt.Errorf("failed to create EPUB: %w", err)
	}
	book.SetAuthor(author)
	book.SetLang("en")
	book.SetIdentifier("substack-" + strings.ToLower(strings.ReplaceAll(title, " ", "-")))

	// go-epub pulls file sources in at Write time, so the stylesheet file
	// must outlive the build.
	cssPath, cleanup, err := c.addStylesheet(book)
	if err != nil {
		slog.Warn("Failed to add EPUB stylesheet", "error", err)
		cssPath = ""
	}
	if cleanup != nil {
		defer cleanup()
	}

	nextChapter := 1
	if existing != nil {
		if err := c.restoreBook(book, existing, cssPath); err != nil {
			return "", err
		}
		nextChapter = len(existing.Chapters) + 1
		slog.Info("Appending new chapters", "starting_from", nextChapter)
	}

	for i, post := range posts {
		content := c.resolver.ProcessVideos(post.Content, c.baseURL)
		content, refs, _ := c.resolver.ProcessImages(content, media.TargetArchive)
		content = c.embedImages(book, content, refs)

		body := fmt.Sprintf("<h1>%s</h1><p><i>%s</i></p>%s",
			post.Title, post.PubDate.Format("January 2, 2006"), content)

		chapterFile := fmt.Sprintf("chap_%d.xhtml", nextChapter+i)
		if _, err := book.AddSection(body, post.Title, chapterFile, cssPath); err != nil {
			return "", fmt.Errorf("failed to add chapter %s: %w", chapterFile, err)
		}
	}

	if err := book.Write(path); err != nil {
		return "", fmt.Errorf("failed to write EPUB: %w", err)
	}

	if existing != nil {
		slog.Info("Updated EPUB", "new_chapters", len(posts), "path", path)
	} else {
		slog.Info("Generated EPUB", "chapters", len(posts), "path", path)
	}
	return path, nil
}

// embedImages registers downloaded images with the book and points the
// chapter body at their in-book locations.
func (c *Compiler) embedImages(book *epub.Epub, content string, refs []media.ImageRef) string {
	for _, ref := range refs {
		internalPath, err := book.AddImage(ref.LocalPath, ref.Filename)
		if err != nil {
			slog.Warn("Error adding image to EPUB", "image", ref.Filename, "error", err)
			continue
		}
		content = strings.ReplaceAll(content, `src="images/`+ref.Filename+`"`, `src="`+internalPath+`"`)
		slog.Debug("Added image to EPUB", "image", ref.Filename)
	}
	return content
}

// restoreBook re-adds the chapters and images extracted from a prior
// artifact. Image filenames are preserved so the old chapter bodies keep
// resolving their references.
func (c *Compiler) restoreBook(book *epub.Epub, existing *existingBook, cssPath string) error {
	for _, img := range existing.Images {
		tmpPath := filepath.Join(c.imagesDir, img.Filename)
		if err := os.WriteFile(tmpPath, img.Data, 0o644); err != nil {
			slog.Warn("Failed to restore EPUB image", "image", img.Filename, "error", err)
			continue
		}
		if _, err := book.AddImage(tmpPath, img.Filename); err != nil {
			slog.Warn("Failed to re-add EPUB image", "image", img.Filename, "error", err)
		}
	}

	for _, chapter := range existing.Chapters {
		if _, err := book.AddSection(chapter.Body, chapter.Title, chapter.Filename, cssPath); err != nil {
			return fmt.Errorf("failed to restore chapter %s: %w", chapter.Filename, err)
		}
	}
	return nil
}

func (c *Compiler) addStylesheet(book *epub.Epub) (string, func(), error) {
	tmp, err := os.CreateTemp("", "epub-style-*.css")
	if err != nil {
		return "", nil, err
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := tmp.WriteString(epubStyle); err != nil {
		tmp.Close()
		return "", cleanup, err
	}
	if err := tmp.Close(); err != nil {
		return "", cleanup, err
	}

	internalPath, err := book.AddCSS(tmp.Name(), "style.css")
	return internalPath, cleanup, err
}
