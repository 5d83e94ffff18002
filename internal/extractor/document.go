package extractor

import (
	"bytes"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// parseDocument turns raw HTML bytes into a queryable tree. Both
// extractors go through this single boundary so the cascade logic stays
// decoupled from the parsing library and testable with fixed fixtures.
func parseDocument(htmlBytes []byte) (*goquery.Document, error) {
	node, err := html.Parse(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	if !hasHTMLElement(node) {
		return nil, fmt.Errorf("input is not a valid HTML document")
	}

	return goquery.NewDocumentFromNode(node), nil
}

// hasHTMLElement checks that the parsed tree contains a proper <html>
// element rather than a text blob the tolerant parser accepted.
func hasHTMLElement(node *html.Node) bool {
	var find func(*html.Node) bool
	find = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "html" {
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if find(c) {
				return true
			}
		}
		return false
	}
	return find(node)
}
