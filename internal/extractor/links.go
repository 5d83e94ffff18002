package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/memescout/memescout/pkg/urlutil"
)

/*
Responsibilities
- Parse a search-results page into detail-page links
- Keep only plausible /meme/<slug> paths
- Deduplicate while preserving first-seen order

An empty result is a legitimate "no results" outcome, never an error.
*/

// memePathPrefix is the path every detail page lives under.
const memePathPrefix = "/meme/"

// LinkExtractor scans search-results HTML for detail-page links.
type LinkExtractor struct{}

func NewLinkExtractor() LinkExtractor {
	return LinkExtractor{}
}

// Extract returns the absolute detail-page URLs referenced by the given
// search-results HTML, deduplicated, in first-seen order. Unparseable
// input yields an empty slice: a page we cannot read has no links.
func (l *LinkExtractor) Extract(htmlBytes []byte) []string {
	doc, err := parseDocument(htmlBytes)
	if err != nil {
		return nil
	}

	seen := newSet[string]()
	var links []string

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}

		if !strings.HasPrefix(href, memePathPrefix) {
			return
		}

		// Guard against empty or near-empty slugs.
		if len(href) <= len(memePathPrefix) {
			return
		}

		full := urlutil.SiteRoot + href
		if seen.Contains(full) {
			return
		}
		seen.Add(full)
		links = append(links, full)
	})

	return links
}
