// Package media localizes remote images and neutralizes unplayable video
// embeds so compiled artifacts are self-contained.
package media

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"github.com/Automatic365/substack-downloader/app/cfg"
)

// Target selects how rewritten image references are expressed.
type Target int

const (
	// TargetDocument rewrites image sources to absolute local paths, for
	// compilers that read files from disk while rendering (PDF).
	TargetDocument Target = iota
	// TargetArchive rewrites image sources to artifact-relative
	// "images/<name>" paths, for container formats that embed media (EPUB).
	TargetArchive
)

// ImageRef describes one successfully downloaded image.
type ImageRef struct {
	LocalPath string
	Filename  string
}

// ImageStats aggregates the outcome of one ProcessImages pass.
type ImageStats struct {
	Downloaded int
	Failed     int
}

// Resolver downloads images into a local directory and rewrites media
// references in post HTML.
type Resolver struct {
	imagesDir    string
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	maxImageSize int64
}

func NewResolver(imagesDir, baseURL string, c *cfg.Cfg) (*Resolver, error) {
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}

	return &Resolver{
		imagesDir:    imagesDir,
		baseURL:      baseURL,
		httpClient:   &http.Client{Timeout: time.Duration(c.Timeout) * time.Second},
		userAgent:    c.UserAgent,
		maxImageSize: c.MaxImageSize,
	}, nil
}

// DownloadImage streams a remote image to the images directory under a
// generated unique filename. The size budget is enforced both via the
// declared Content-Length and a running total during streaming. On any
// failure the partial file is removed and empty strings are returned.
func (r *Resolver) DownloadImage(imgURL string) (string, string) {
	req, err := http.NewRequest(http.MethodGet, imgURL, nil)
	if err != nil {
		slog.Error("Invalid image URL", "url", imgURL, "error", err)
		return "", ""
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		slog.Error("Failed to download image", "url", imgURL, "error", err)
		return "", ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("Image download returned non-OK status", "url", imgURL, "status", resp.StatusCode)
		return "", ""
	}

	if resp.ContentLength > r.maxImageSize {
		slog.Warn("Skipping image, declared size exceeds limit",
			"url", imgURL, "size", resp.ContentLength, "limit", r.maxImageSize)
		return "", ""
	}

	filename := uuid.NewString() + "." + imageExtension(resp.Header.Get("Content-Type"), imgURL)
	filepath_ := filepath.Join(r.imagesDir, filename)

	out, err := os.Create(filepath_)
	if err != nil {
		slog.Error("Failed to create image file", "path", filepath_, "error", err)
		return "", ""
	}

	written, err := io.Copy(out, io.LimitReader(resp.Body, r.maxImageSize+1))
	closeErr := out.Close()

	switch {
	case err != nil:
		slog.Error("Failed to write image", "url", imgURL, "error", err)
	case closeErr != nil:
		slog.Error("Failed to finalize image file", "url", imgURL, "error", closeErr)
	case written > r.maxImageSize:
		slog.Warn("Skipping image, download exceeded limit", "url", imgURL, "limit", r.maxImageSize)
	default:
		return filepath_, filename
	}

	os.Remove(filepath_)
	return "", ""
}

// imageExtension derives a file extension from the declared content type,
// falling back to sniffing the URL, defaulting to jpg.
func imageExtension(contentType, imgURL string) string {
	contentType = strings.ToLower(contentType)
	switch {
	case strings.Contains(contentType, "image/png"):
		return "png"
	case strings.Contains(contentType, "image/gif"):
		return "gif"
	case strings.Contains(contentType, "image/svg"):
		return "svg"
	case strings.Contains(contentType, "image/jpeg"), strings.Contains(contentType, "image/jpg"):
		return "jpg"
	}

	switch {
	case strings.Contains(imgURL, ".png"):
		return "png"
	case strings.Contains(imgURL, ".gif"):
		return "gif"
	case strings.Contains(imgURL, ".svg"):
		return "svg"
	default:
		return "jpg"
	}
}

// ProcessImages downloads every remote image referenced in the HTML and
// rewrites its src per the target. Embedded data URIs are left untouched.
// Failed downloads keep the original remote src so the reference still works
// as a hyperlink when reopened online.
func (r *Resolver) ProcessImages(html string, target Target) (string, []ImageRef, ImageStats) {
	var refs []ImageRef
	var stats ImageStats

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("Failed to parse HTML for image processing", "error", err)
		return html, nil, stats
	}

	images := doc.Find("img")
	if images.Length() == 0 {
		return html, nil, stats
	}
	slog.Info("Found images to download", "count", images.Length())

	images.Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			return
		}
		if strings.HasPrefix(src, "data:") {
			slog.Debug("Skipping embedded data URI image")
			return
		}

		localPath, filename := r.DownloadImage(src)
		if localPath == "" {
			stats.Failed++
			slog.Warn("Failed to download image, keeping original URL", "url", src)
			return
		}

		stats.Downloaded++
		refs = append(refs, ImageRef{LocalPath: localPath, Filename: filename})

		newSrc := localPath
		if target == TargetArchive {
			newSrc = "images/" + filename
		}

		alt, _ := img.Attr("alt")
		stripAttributes(img)
		img.SetAttr("src", newSrc)
		if alt != "" {
			img.SetAttr("alt", alt)
		}
	})

	if stats.Downloaded > 0 || stats.Failed > 0 {
		slog.Info("Image processing complete", "downloaded", stats.Downloaded, "failed", stats.Failed)
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		slog.Warn("Failed to serialize processed HTML", "error", err)
		return html, refs, stats
	}
	return out, refs, stats
}

func stripAttributes(sel *goquery.Selection) {
	for _, node := range sel.Nodes {
		node.Attr = node.Attr[:0]
	}
}
