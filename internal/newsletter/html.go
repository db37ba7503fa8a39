package newsletter

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxParseContent bounds how much newsletter text goes into a prompt.
const maxParseContent = 8000

// StripHTML reduces newsletter markup to whitespace-normalized text.
// Script, style, and noscript bodies are dropped entirely.
func StripHTML(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Not HTML at all; treat the input as plain text.
		return normalizeSpace(html)
	}
	doc.Find("script, style, noscript").Remove()
	return normalizeSpace(doc.Text())
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
