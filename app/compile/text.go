package compile

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/Automatic365/substack-downloader/app/archive"
)

// CompileTXT writes a sequential plain-text dump. Link and image markup is
// stripped entirely; anchor text survives.
func (c *Compiler) CompileTXT(posts []archive.Post, filename string) (string, error) {
	path := c.outputPath(filename, "txt")
	converter := newTextConverter()

	var b strings.Builder
	for _, post := range posts {
		content, err := converter.ConvertString(post.Content)
		if err != nil {
			slog.Warn("Failed to convert post to text", "post", post.Title, "error", err)
			content = ""
		}

		b.WriteString(post.Title + "\n")
		b.WriteString(post.PubDate.Format("January 2, 2006") + "\n")
		b.WriteString(strings.Repeat("=", len(post.Title)) + "\n\n")
		b.WriteString(content)
		b.WriteString("\n\n" + strings.Repeat("-", 50) + "\n\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write TXT: %w", err)
	}

	slog.Info("Generating TXT", "path", path)
	return path, nil
}

// CompileMarkdown converts each post's HTML to Markdown, preserving
// structure, with a horizontal rule between posts.
func (c *Compiler) CompileMarkdown(posts []archive.Post, filename string) (string, error) {
	path := c.outputPath(filename, "md")
	converter := md.NewConverter("", true, nil)

	var b strings.Builder
	b.WriteString("# Substack Archive\n\n")

	for _, post := range posts {
		content, err := converter.ConvertString(post.Content)
		if err != nil {
			slog.Warn("Failed to convert post to markdown", "post", post.Title, "error", err)
			content = ""
		}

		fmt.Fprintf(&b, "## %s\n", post.Title)
		fmt.Fprintf(&b, "*%s*\n\n", post.PubDate.Format("January 2, 2006"))
		b.WriteString(content)
		b.WriteString("\n\n---\n\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write Markdown: %w", err)
	}

	slog.Info("Generating Markdown", "path", path)
	return path, nil
}

// newTextConverter builds a Markdown converter tuned for flat text output:
// images are dropped and anchors collapse to their visible text.
func newTextConverter() *md.Converter {
	converter := md.NewConverter("", true, nil)
	converter.Remove("img")
	converter.AddRules(md.Rule{
		Filter: []string{"a"},
		Replacement: func(content string, _ *goquery.Selection, _ *md.Options) *string {
			return md.String(content)
		},
	})
	return converter
}
