// Package compile assembles cleaned posts into one of the supported output
// artifacts: PDF, EPUB, JSON, HTML, plain text or Markdown.
package compile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Automatic365/substack-downloader/app/archive"
	"github.com/Automatic365/substack-downloader/app/cfg"
	"github.com/Automatic365/substack-downloader/app/media"
)

// Compiler owns the output directory and the media resolver shared by the
// format paths that localize images.
type Compiler struct {
	outputDir string
	imagesDir string
	baseURL   string
	resolver  *media.Resolver
}

func NewCompiler(baseURL string, c *cfg.Cfg) (*Compiler, error) {
	outputDir := c.OutputDir
	imagesDir := filepath.Join(outputDir, "images")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	resolver, err := media.NewResolver(imagesDir, baseURL, c)
	if err != nil {
		return nil, err
	}

	return &Compiler{
		outputDir: outputDir,
		imagesDir: imagesDir,
		baseURL:   baseURL,
		resolver:  resolver,
	}, nil
}

// Compile dispatches to the format-specific path and returns the artifact
// path. EPUB callers needing update mode use CompileEPUB directly.
func (c *Compiler) Compile(format string, posts []archive.Post, filename, title, author string) (string, error) {
	switch format {
	case cfg.FormatPDF:
		return c.CompilePDF(posts, filename)
	case cfg.FormatEPUB:
		return c.CompileEPUB(posts, filename, title, author, false)
	case cfg.FormatJSON:
		return c.CompileJSON(posts, filename)
	case cfg.FormatHTML:
		return c.CompileHTML(posts, filename)
	case cfg.FormatTXT:
		return c.CompileTXT(posts, filename)
	case cfg.FormatMarkdown:
		return c.CompileMarkdown(posts, filename)
	}
	return "", fmt.Errorf("unsupported output format: %s", format)
}

// outputPath normalizes the filename extension and anchors it in the output
// directory.
func (c *Compiler) outputPath(filename, ext string) string {
	if !strings.HasSuffix(filename, "."+ext) {
		filename += "." + ext
	}
	return filepath.Join(c.outputDir, filename)
}
