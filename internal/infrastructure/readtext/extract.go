package readtext

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"smartreader/internal/ports"
)

// Extractor reduces article bodies to plain text before they reach the
// speech device. Bodies arrive either as plain text or with embedded HTML.
type Extractor struct{}

var _ ports.TextExtractor = (*Extractor)(nil)

// New builds a stateless extractor.
func New() *Extractor {
	return &Extractor{}
}

// PlainText strips markup and collapses runs of whitespace into single
// spaces. Script, style, and noscript content is dropped entirely. Input
// without markup comes back unchanged apart from whitespace normalization.
func (e *Extractor) PlainText(content string) string {
	if !strings.ContainsRune(content, '<') {
		return collapse(content)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return collapse(content)
	}
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	for _, node := range doc.Selection.Nodes {
		appendText(node, &b)
	}
	return collapse(b.String())
}

// appendText writes every text node followed by a separator, so adjacent
// block elements do not run their words together.
func appendText(n *html.Node, b *strings.Builder) {
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteByte(' ')
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		appendText(c, b)
	}
}

func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
