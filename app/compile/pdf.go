package compile

import (
	"fmt"
	"log/slog"

	"github.com/go-pdf/fpdf"

	"github.com/Automatic365/substack-downloader/app/archive"
	"github.com/Automatic365/substack-downloader/app/media"
)

const renderFailureNotice = "(Content could not be rendered due to complex HTML formatting)"

// CompilePDF builds a paginated document: title page, table of contents,
// then one section per post. A post whose content defeats the basic HTML
// renderer is replaced with a placeholder notice instead of aborting the
// whole document.
func (c *Compiler) CompilePDF(posts []archive.Post, filename string) (string, error) {
	path := c.outputPath(filename, "pdf")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 24)
	pdf.CellFormat(0, 20, "Substack Archive", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Table of Contents", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)

	for _, post := range posts {
		entry := fmt.Sprintf("%s - %s", post.PubDate.Format("2006-01-02"), sanitizeText(post.Title))
		pdf.CellFormat(0, 8, entry, "", 1, "L", false, 0, "")
	}

	pdf.AddPage()

	for _, post := range posts {
		// Raw video and iframe tags are not renderable here; replace them
		// with links before the page renderer sees the HTML.
		content := c.resolver.ProcessVideos(post.Content, c.baseURL)
		content, _, _ = c.resolver.ProcessImages(content, media.TargetDocument)

		pdf.SetFont("Helvetica", "B", 18)
		pdf.MultiCell(0, 10, sanitizeText(post.Title), "", "L", false)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(0, 10, post.PubDate.Format("January 2, 2006"), "", 1, "L", false, 0, "")
		pdf.Ln(5)

		renderPost(pdf, sanitizeText(content), post.Title)

		pdf.AddPage()
	}

	slog.Info("Generating PDF", "path", path)
	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write PDF: %w", err)
	}

	slog.Info("Compiled posts to PDF", "posts", len(posts), "path", path)
	return path, nil
}

// renderPost writes one post body through the basic HTML renderer, degrading
// to a placeholder on panic or renderer error.
func renderPost(pdf *fpdf.Fpdf, content, title string) {
	defer func() {
		failed := recover() != nil
		if pdf.Err() {
			pdf.ClearError()
			failed = true
		}
		if failed {
			slog.Warn("Could not render HTML for post", "post", title)
			pdf.SetFont("Helvetica", "", 12)
			pdf.MultiCell(0, 5, renderFailureNotice, "", "L", false)
		}
	}()

	html := pdf.HTMLBasicNew()
	html.Write(5, content)
}
