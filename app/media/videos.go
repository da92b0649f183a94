package media

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Domains whose iframes are treated as video embeds.
var videoPlatforms = []string{
	"youtube.com",
	"youtube-nocookie.com",
	"youtu.be",
	"vimeo.com",
	"wistia.com",
	"loom.com",
	"substack.com/embed",
}

const (
	videoLinkStyle = "background: #f0f0f0; padding: 10px; border-left: 4px solid #FF6B6B;"
	videoNoteStyle = "background: #fff3cd; padding: 10px;"
)

// ProcessVideos replaces <video> elements and recognized video-embed iframes
// with clickable link placeholders, since none of the output formats can play
// embedded media. Must run before the HTML reaches a page-rendering layer
// that cannot cope with raw video/iframe tags.
func (r *Resolver) ProcessVideos(html, baseURL string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("Failed to parse HTML for video processing", "error", err)
		return html
	}

	converted := 0

	doc.Find("video").Each(func(_ int, video *goquery.Selection) {
		converted++
		r.replaceVideoElement(video, baseURL)
	})

	doc.Find("iframe").Each(func(_ int, iframe *goquery.Selection) {
		src, ok := iframe.Attr("src")
		if !ok || src == "" {
			return
		}
		if !isVideoEmbed(src) {
			return
		}

		converted++
		watchURL := canonicalWatchURL(src)
		platform := platformName(src)

		placeholder := "<p style=\"" + videoLinkStyle + " margin: 10px 0;\">" +
			"<a href=\"" + watchURL + "\" target=\"_blank\">🎬 Watch on " + platform + "</a><br/>" +
			"<small style=\"color: #666;\">Link: " + truncate(watchURL, 70) + "...</small></p>"
		iframe.ReplaceWithHtml(placeholder)

		slog.Info("Converted embed to link", "platform", platform, "url", truncate(watchURL, 60))
	})

	if converted > 0 {
		slog.Info("Converted videos to clickable links", "count", converted)
	}

	out, err := doc.Find("body").Html()
	if err != nil {
		slog.Warn("Failed to serialize processed HTML", "error", err)
		return html
	}
	return out
}

func (r *Resolver) replaceVideoElement(video *goquery.Selection, baseURL string) {
	videoURL := videoSourceURL(video)

	if videoURL == "" {
		video.ReplaceWithHtml("<p style=\"" + videoNoteStyle + "\">📹 Video content (URL not available)</p>")
		return
	}

	videoURL = r.resolveRelative(videoURL, baseURL, video)

	linkText := "🎬 Click to watch video"
	note := ""
	if strings.Contains(videoURL, "/api/v1/video/") {
		linkText = "🎬 Click to watch Substack video"
		note = "<br/><small style=\"color: #666;\">(May require login to view)</small>"
	}

	video.ReplaceWithHtml("<p style=\"" + videoLinkStyle + "\">" +
		"<a href=\"" + videoURL + "\">" + linkText + "</a>" + note + "</p>")

	slog.Info("Converted video to link", "url", truncate(videoURL, 60))
}

// videoSourceURL picks the best source for a <video>: an mp4 source first,
// then any source, then the element's own src attribute.
func videoSourceURL(video *goquery.Selection) string {
	var mp4, any_ string
	video.Find("source").Each(func(_ int, source *goquery.Selection) {
		src, ok := source.Attr("src")
		if !ok || src == "" {
			return
		}
		if mp4 == "" && strings.Contains(src, "type=mp4") {
			mp4 = src
		}
		if any_ == "" {
			any_ = src
		}
	})

	if mp4 != "" {
		return mp4
	}
	if any_ != "" {
		return any_
	}
	src, _ := video.Attr("src")
	return src
}

// resolveRelative resolves root-relative video URLs against the configured
// base URL, or infers an origin from a sibling poster image as a last resort.
func (r *Resolver) resolveRelative(videoURL, baseURL string, video *goquery.Selection) string {
	if !strings.HasPrefix(videoURL, "/") {
		return videoURL
	}

	if baseURL != "" {
		return strings.TrimRight(baseURL, "/") + videoURL
	}
	if r.baseURL != "" {
		return strings.TrimRight(r.baseURL, "/") + videoURL
	}

	if poster, ok := video.Attr("poster"); ok && strings.HasPrefix(poster, "http") {
		if parsed, err := url.Parse(poster); err == nil {
			return parsed.Scheme + "://" + parsed.Host + videoURL
		}
	}

	return videoURL
}

func isVideoEmbed(src string) bool {
	for _, platform := range videoPlatforms {
		if strings.Contains(src, platform) {
			return true
		}
	}
	return false
}

// canonicalWatchURL rewrites YouTube embed URLs to their watch-page
// equivalents; other platforms keep their original URL.
func canonicalWatchURL(src string) string {
	for _, marker := range []string{"youtube.com/embed/", "youtube-nocookie.com/embed/"} {
		if idx := strings.Index(src, marker); idx >= 0 {
			videoID := src[idx+len(marker):]
			videoID, _, _ = strings.Cut(videoID, "?")
			return "https://www.youtube.com/watch?v=" + videoID
		}
	}
	if strings.Contains(src, "youtu.be/") {
		return strings.Replace(src, "youtu.be/", "youtube.com/watch?v=", 1)
	}
	return src
}

func platformName(src string) string {
	switch {
	case strings.Contains(src, "youtube"), strings.Contains(src, "youtu.be"):
		return "YouTube"
	case strings.Contains(src, "vimeo"):
		return "Vimeo"
	case strings.Contains(src, "loom"):
		return "Loom"
	case strings.Contains(src, "wistia"):
		return "Wistia"
	default:
		return "Video"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
