package compile

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
)

// existingBook is the relevant content of a previously written EPUB: enough
// to rebuild it with its chapters and images intact before appending.
type existingBook struct {
	Title    string
	Author   string
	Chapters []existingChapter
	Images   []existingImage
}

type existingChapter struct {
	Title    string
	Filename string
	Body     string
}

type existingImage struct {
	Filename string
	Data     []byte
}

type opfPackage struct {
	Metadata struct {
		Title   string `xml:"title"`
		Creator string `xml:"creator"`
	} `xml:"metadata"`
	Manifest struct {
		Items []opfItem `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type containerXML struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath string `xml:"full-path,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

var (
	titleTagRe = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	bodyTagRe  = regexp.MustCompile(`(?is)<body[^>]*>(.*)</body>`)
	h1TagRe    = regexp.MustCompile(`(?is)<h1[^>]*>(.*?)</h1>`)
	tagRe      = regexp.MustCompile(`<[^>]+>`)
)

// readBook opens an EPUB archive and extracts its spine chapters and image
// assets in reading order.
func readBook(epubPath string) (*existingBook, error) {
	reader, err := zip.OpenReader(epubPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB archive: %w", err)
	}
	defer reader.Close()

	entries := make(map[string]*zip.File, len(reader.File))
	for _, file := range reader.File {
		entries[file.Name] = file
	}

	opfPath, err := findRootfile(entries)
	if err != nil {
		return nil, err
	}

	raw, err := readEntry(entries, opfPath)
	if err != nil {
		return nil, err
	}

	var pkg opfPackage
	if err := xml.Unmarshal(raw, &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse EPUB package document: %w", err)
	}

	items := make(map[string]opfItem, len(pkg.Manifest.Items))
	for _, item := range pkg.Manifest.Items {
		items[item.ID] = item
	}

	opfDir := path.Dir(opfPath)
	book := &existingBook{
		Title:  pkg.Metadata.Title,
		Author: pkg.Metadata.Creator,
	}

	for _, ref := range pkg.Spine.ItemRefs {
		item, ok := items[ref.IDRef]
		if !ok || item.MediaType != "application/xhtml+xml" {
			continue
		}
		if strings.Contains(item.Properties, "nav") {
			continue
		}

		data, err := readEntry(entries, path.Join(opfDir, item.Href))
		if err != nil {
			return nil, err
		}

		book.Chapters = append(book.Chapters, existingChapter{
			Title:    chapterTitle(data),
			Filename: path.Base(item.Href),
			Body:     chapterBody(data),
		})
	}

	for _, item := range pkg.Manifest.Items {
		if !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		data, err := readEntry(entries, path.Join(opfDir, item.Href))
		if err != nil {
			return nil, err
		}
		book.Images = append(book.Images, existingImage{
			Filename: path.Base(item.Href),
			Data:     data,
		})
	}

	return book, nil
}

func findRootfile(entries map[string]*zip.File) (string, error) {
	raw, err := readEntry(entries, "META-INF/container.xml")
	if err != nil {
		return "", err
	}

	var container containerXML
	if err := xml.Unmarshal(raw, &container); err != nil {
		return "", fmt.Errorf("failed to parse EPUB container: %w", err)
	}
	if len(container.Rootfiles.Rootfile) == 0 {
		return "", fmt.Errorf("EPUB container declares no rootfile")
	}
	return container.Rootfiles.Rootfile[0].FullPath, nil
}

func readEntry(entries map[string]*zip.File, name string) ([]byte, error) {
	file, ok := entries[name]
	if !ok {
		return nil, fmt.Errorf("EPUB entry not found: %s", name)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open EPUB entry %s: %w", name, err)
	}
	defer rc.Close()

	return io.ReadAll(rc)
}

func chapterTitle(data []byte) string {
	for _, re := range []*regexp.Regexp{titleTagRe, h1TagRe} {
		if m := re.FindSubmatch(data); m != nil {
			title := strings.TrimSpace(tagRe.ReplaceAllString(string(m[1]), ""))
			if title != "" {
				return title
			}
		}
	}
	return "Untitled"
}

func chapterBody(data []byte) string {
	if m := bodyTagRe.FindSubmatch(data); m != nil {
		return strings.TrimSpace(string(m[1]))
	}
	return string(data)
}
