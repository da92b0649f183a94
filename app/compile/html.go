package compile

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Automatic365/substack-downloader/app/archive"
)

const htmlHeader = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Substack Archive</title>
<style>
body { font-family: sans-serif; max-width: 800px; margin: 0 auto; padding: 20px; }
article { margin-bottom: 50px; border-bottom: 1px solid #ccc; padding-bottom: 20px; }
h1 { color: #333; }
.meta { color: #666; font-style: italic; }
img { max-width: 100%; height: auto; }
</style>
</head>
<body>
<h1>Substack Archive</h1>
`

// CompileHTML writes a single self-contained page with one article per post.
// Remote media references stay as live links; nothing is relocated.
func (c *Compiler) CompileHTML(posts []archive.Post, filename string) (string, error) {
	path := c.outputPath(filename, "html")

	var b strings.Builder
	b.WriteString(htmlHeader)

	for _, post := range posts {
		fmt.Fprintf(&b, `
<article>
<h2>%s</h2>
<p class="meta">%s</p>
<div>%s</div>
</article>
`, post.Title, post.PubDate.Format("January 2, 2006"), post.Content)
	}

	b.WriteString("</body></html>\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write HTML: %w", err)
	}

	slog.Info("Generating HTML", "path", path)
	return path, nil
}
