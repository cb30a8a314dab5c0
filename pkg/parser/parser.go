// pkg/parser/parser.go
package parser

import (
	"bytes"
	"mime"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

type Parser struct{}

func New() *Parser {
	return &Parser{}
}

// ExtractText returns the human-readable text of content. HTML is reduced
// to its text nodes, separated by spaces so words from adjacent elements do
// not merge; script, style and noscript contents are dropped. Any other
// content type is returned as is.
func (p *Parser) ExtractText(content []byte, contentType string) (string, error) {
	if !IsHTML(contentType) {
		return string(content), nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()

	var b strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	for _, n := range doc.Nodes {
		extractText(n)
	}

	return strings.TrimSpace(b.String()), nil
}

// IsHTML reports whether contentType denotes an HTML document.
func IsHTML(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
