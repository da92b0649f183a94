package archive

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	fallbackTitle  = "Substack Archive"
	fallbackAuthor = "Unknown Author"
)

// FetchTitle scrapes the newsletter's page title. Any network or parse
// failure yields the fallback title; this never returns an error.
func (c *Client) FetchTitle(ctx context.Context) string {
	doc, ok := c.fetchHomepage(ctx)
	if !ok {
		return fallbackTitle
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		return fallbackTitle
	}
	return title
}

// authorStrategy is one independent extraction attempt; it returns an empty
// string when it has nothing to offer.
type authorStrategy func(doc *goquery.Document, baseURL string) string

var authorStrategies = []authorStrategy{
	authorFromMetaTag,
	authorFromPublisherTag,
	authorFromAuthorLink,
	authorFromSubdomain,
}

// FetchAuthor tries each author extraction strategy in order and returns the
// first non-empty result, falling back to a fixed sentinel. Never errors.
func (c *Client) FetchAuthor(ctx context.Context) string {
	doc, ok := c.fetchHomepage(ctx)
	if !ok {
		return fallbackAuthor
	}

	for _, strategy := range authorStrategies {
		if author := strategy(doc, c.baseURL); author != "" {
			return author
		}
	}
	return fallbackAuthor
}

func (c *Client) fetchHomepage(ctx context.Context) (*goquery.Document, bool) {
	resp, err := c.get(ctx, c.baseURL)
	if err != nil {
		slog.Error("Error fetching newsletter homepage", "url", c.baseURL, "error", err)
		return nil, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("Newsletter homepage returned non-OK status", "url", c.baseURL, "status", resp.StatusCode)
		return nil, false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		slog.Error("Error parsing newsletter homepage", "url", c.baseURL, "error", err)
		return nil, false
	}
	return doc, true
}

func authorFromMetaTag(doc *goquery.Document, _ string) string {
	content, _ := doc.Find(`meta[name="author"]`).First().Attr("content")
	return strings.TrimSpace(content)
}

func authorFromPublisherTag(doc *goquery.Document, _ string) string {
	content, _ := doc.Find(`meta[property="article:publisher"]`).First().Attr("content")
	return strings.TrimSpace(content)
}

func authorFromAuthorLink(doc *goquery.Document, _ string) string {
	var author string
	doc.Find("a[class]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		class, _ := sel.Attr("class")
		if strings.Contains(strings.ToLower(class), "author") {
			author = strings.TrimSpace(sel.Text())
			return author == ""
		}
		return true
	})
	return author
}

// authorFromSubdomain derives a display name from the newsletter subdomain,
// e.g. "jane-doe.substack.com" becomes "Jane Doe".
func authorFromSubdomain(_ *goquery.Document, baseURL string) string {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}

	subdomain, _, _ := strings.Cut(parsed.Host, ".")
	if subdomain == "" || subdomain == "www" {
		return ""
	}

	words := strings.Split(subdomain, "-")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
