package compile

import "strings"

var latin1Replacer = strings.NewReplacer(
	"‘", "'", "’", "'", // smart quotes
	"“", `"`, "”", `"`, // smart double quotes
	"–", "-", "—", "-", // dashes
	"…", "...", // ellipsis
	" ", " ", // non-breaking space
)

// sanitizeText maps text into the single-byte character set the PDF core
// fonts can encode. Typographic punctuation gets plain equivalents; anything
// else outside Latin-1 is replaced rather than erroring.
func sanitizeText(text string) string {
	text = latin1Replacer.Replace(text)

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r > 0xFF {
			b.WriteByte('?')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
