package extractor

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/memescout/memescout/pkg/failure"
	"github.com/memescout/memescout/pkg/urlutil"
)

/*
Responsibilities
- Parse one detail page into a title and a blank-template media URL
- Apply the extraction cascade in strict priority order
- Validate the winning URL before producing a record

Extraction strategy
- Priority order:
  - Anchor labeled as a blank-template link, first nested image
  - First image whose src mentions "blank" or "template"
  - First image with a recognized static-image extension
  - First video source with a recognized video extension

Upstream markup is inconsistent, so correctness requires ranked
heuristics with an explicit quality order, not a single selector.
Exactly one authoritative media item is selected per page: the first
match of the winning strategy. A title with no valid media is not a
usable result.
*/

// minBodyBytes is the sanity floor below which a detail-page body is
// treated as a malformed or blocked fetch rather than "no template".
const minBodyBytes = 100

// titleMaxLen caps extracted titles.
const titleMaxLen = 100

// blankTemplateLabel is the accessible-label phrase marking the official
// blank-template anchor on a detail page.
const blankTemplateLabel = "blank meme template"

const unknownTitle = "Unknown Meme"

type TemplateExtractor struct {
	metadataSink metadata.Sink
}

func NewTemplateExtractor(metadataSink metadata.Sink) TemplateExtractor {
	return TemplateExtractor{
		metadataSink: metadataSink,
	}
}

// Extract parses one detail page and returns its record. Parse misses
// (cascade exhausted, or winning URL invalid) return an ExtractionError
// whose IsParseMiss is true; the caller discards the record.
func (t *TemplateExtractor) Extract(memeURL string, htmlBytes []byte) (MemeRecord, failure.ClassifiedError) {
	record, err := t.extract(memeURL, htmlBytes)
	if err != nil {
		// Parse misses are an expected outcome on pages without a
		// template; only malformed fetches are worth an error event.
		if !err.IsParseMiss() {
			t.metadataSink.RecordError(
				time.Now(),
				"extractor",
				"TemplateExtractor.Extract",
				mapExtractionErrorToMetadataCause(err),
				err.Error(),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrURL, memeURL),
				},
			)
		}
		return MemeRecord{}, err
	}
	return record, nil
}

func (t *TemplateExtractor) extract(memeURL string, htmlBytes []byte) (MemeRecord, *ExtractionError) {
	if len(htmlBytes) < minBodyBytes {
		return MemeRecord{}, &ExtractionError{
			Message:   fmt.Sprintf("body of %d bytes is below the %d byte floor", len(htmlBytes), minBodyBytes),
			Retryable: false,
			Cause:     ErrCauseBodyTooShort,
		}
	}

	doc, err := parseDocument(htmlBytes)
	if err != nil {
		return MemeRecord{}, &ExtractionError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		}
	}

	rawSrc, kind := selectTemplateMedia(doc)
	if rawSrc == "" {
		return MemeRecord{}, &ExtractionError{
			Message:   "extraction cascade exhausted with no candidate",
			Retryable: false,
			Cause:     ErrCauseNoTemplate,
		}
	}

	normalized := urlutil.NormalizeMediaURL(rawSrc)
	if !urlutil.IsValidMediaURL(normalized) {
		return MemeRecord{}, &ExtractionError{
			Message:   fmt.Sprintf("candidate %q failed media validation", normalized),
			Retryable: false,
			Cause:     ErrCauseNoTemplate,
		}
	}

	return MemeRecord{
		Title:   extractTitle(doc),
		MemeURL: memeURL,
		Template: TemplateMedia{
			URL:  normalized,
			Kind: kind,
		},
	}, nil
}

// selectTemplateMedia runs the cascade. The first strategy that yields a
// non-empty src wins; later strategies are fallbacks, never merged.
func selectTemplateMedia(doc *goquery.Document) (string, MediaKind) {
	if src := labeledTemplateImage(doc); src != "" {
		return src, MediaKindImage
	}

	if src := keywordImage(doc); src != "" {
		return src, MediaKindImage
	}

	if src := firstStaticImage(doc); src != "" {
		return src, MediaKindImage
	}

	if src := firstVideoSource(doc); src != "" {
		return src, MediaKindVideo
	}

	return "", ""
}

// labeledTemplateImage finds an anchor whose title attribute carries the
// blank-template label and returns the src of the first image nested in
// it. Matching is case-insensitive and tolerant of extra whitespace
// between the label words.
func labeledTemplateImage(doc *goquery.Document) string {
	var src string
	doc.Find("a.meme-link[title]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		title, _ := sel.Attr("title")
		if !containsLabel(title, blankTemplateLabel) {
			return true
		}

		if img, ok := sel.Find("img[src]").First().Attr("src"); ok && img != "" {
			src = img
			return false
		}
		return true
	})
	return src
}

// keywordImage returns the first image whose src mentions "blank" or
// "template".
func keywordImage(doc *goquery.Document) string {
	var src string
	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		candidate, _ := sel.Attr("src")
		lower := strings.ToLower(candidate)
		if strings.Contains(lower, "blank") || strings.Contains(lower, "template") {
			src = candidate
			return false
		}
		return true
	})
	return src
}

// firstStaticImage returns the first image with a recognized
// static-image extension.
func firstStaticImage(doc *goquery.Document) string {
	var src string
	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		candidate, _ := sel.Attr("src")
		if urlutil.HasImageExtension(candidate) {
			src = candidate
			return false
		}
		return true
	})
	return src
}

// firstVideoSource returns the first video source element with a
// recognized video extension.
func firstVideoSource(doc *goquery.Document) string {
	var src string
	doc.Find("video source[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		candidate, _ := sel.Attr("src")
		if urlutil.HasVideoExtension(candidate) {
			src = candidate
			return false
		}
		return true
	})
	return src
}

// extractTitle takes the document title, drops the " - <site branding>"
// suffix, trims and truncates. Pages without a title element get a
// placeholder.
func extractTitle(doc *goquery.Document) string {
	titleSel := doc.Find("title").First()
	if titleSel.Length() == 0 {
		return unknownTitle
	}

	title := titleSel.Text()
	if idx := strings.Index(title, " - "); idx >= 0 {
		title = title[:idx]
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return unknownTitle
	}

	runes := []rune(title)
	if len(runes) > titleMaxLen {
		title = string(runes[:titleMaxLen])
	}
	return title
}

// containsLabel checks whether haystack contains the label phrase,
// ignoring case and collapsing runs of whitespace.
func containsLabel(haystack, label string) bool {
	collapsed := strings.Join(strings.Fields(strings.ToLower(haystack)), " ")
	return strings.Contains(collapsed, label)
}
