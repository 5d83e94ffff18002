package extractor_test

import (
	"strings"
	"testing"
	"time"

	"github.com/memescout/memescout/internal/extractor"
	"github.com/memescout/memescout/internal/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockSink captures recorded errors so tests can verify observability
// without a real logger.
type mockSink struct {
	metadata.NoopSink
	causes []metadata.ErrorCause
}

func (m *mockSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.causes = append(m.causes, cause)
}

func setupExtractor() (*extractor.TemplateExtractor, *mockSink) {
	sink := &mockSink{}
	te := extractor.NewTemplateExtractor(sink)
	return &te, sink
}

// page wraps a body fragment in enough boilerplate to pass the body
// sanity floor.
func page(title, body string) []byte {
	var b strings.Builder
	b.WriteString("<html><head>")
	if title != "" {
		b.WriteString("<title>" + title + "</title>")
	}
	b.WriteString("</head><body>")
	b.WriteString(body)
	b.WriteString(strings.Repeat("<!-- padding -->", 10))
	b.WriteString("</body></html>")
	return []byte(b.String())
}

const memeURL = "https://imgflip.com/meme/Drake-Hotline-Bling"

func TestExtract_LabeledAnchorOutranksEarlierImages(t *testing.T) {
	te, _ := setupExtractor()

	// A non-matching image precedes the labeled anchor in the document.
	html := page("Drake Hotline Bling Meme - Imgflip", `
		<img src="/site/logo.png">
		<img src="//i.imgflip.com/unrelated.jpg">
		<a class="meme-link" href="/memetemplate/Drake" title="Drake Hotline Bling Blank Meme Template">
			<img src="//i.imgflip.com/30b1gx.jpg">
		</a>`)

	record, err := te.Extract(memeURL, html)

	require.Nil(t, err)
	assert.Equal(t, "Drake Hotline Bling Meme", record.Title)
	assert.Equal(t, memeURL, record.MemeURL)
	assert.Equal(t, "https://i.imgflip.com/30b1gx.jpg", record.Template.URL)
	assert.Equal(t, extractor.MediaKindImage, record.Template.Kind)
}

func TestExtract_LabelMatchingToleratesCaseAndWhitespace(t *testing.T) {
	te, _ := setupExtractor()

	html := page("Two Buttons - Imgflip", `
		<a class="meme-link" title="Two Buttons  BLANK   meme
		Template">
			<img src="/s/meme/two-buttons.jpg">
		</a>`)

	record, err := te.Extract(memeURL, html)

	require.Nil(t, err)
	assert.Equal(t, "https://imgflip.com/s/meme/two-buttons.jpg", record.Template.URL)
}

func TestExtract_KeywordImageFallback(t *testing.T) {
	te, _ := setupExtractor()

	html := page("Some Meme - Imgflip", `
		<img src="//i.imgflip.com/blank-template-4abc.jpg">`)

	record, err := te.Extract(memeURL, html)

	require.Nil(t, err)
	assert.Equal(t, "https://i.imgflip.com/blank-template-4abc.jpg", record.Template.URL)
	assert.Equal(t, extractor.MediaKindImage, record.Template.Kind)
}

func TestExtract_FirstStaticImageFallback(t *testing.T) {
	te, _ := setupExtractor()

	html := page("Some Meme - Imgflip", `
		<img src="//i.imgflip.com/1bij.jpg">
		<img src="//i.imgflip.com/other.png">`)

	record, err := te.Extract(memeURL, html)

	require.Nil(t, err)
	assert.Equal(t, "https://i.imgflip.com/1bij.jpg", record.Template.URL, "first image wins")
}

func TestExtract_VideoFallback(t *testing.T) {
	te, _ := setupExtractor()

	html := page("GIF Meme - Imgflip", `
		<video controls>
			<source src="//i.imgflip.com/4fun.mp4" type="video/mp4">
		</video>`)

	record, err := te.Extract(memeURL, html)

	require.Nil(t, err)
	assert.Equal(t, "https://i.imgflip.com/4fun.mp4", record.Template.URL)
	assert.Equal(t, extractor.MediaKindVideo, record.Template.Kind)
}

func TestExtract_CascadeExhaustedIsParseMiss(t *testing.T) {
	te, sink := setupExtractor()

	html := page("No Media Here - Imgflip", `<p>just text, no images</p>`)

	_, err := te.Extract(memeURL, html)

	require.NotNil(t, err)
	var extractionErr *extractor.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.True(t, extractionErr.IsParseMiss())
	assert.Empty(t, sink.causes, "parse misses are not recorded as errors")
}

func TestExtract_InvalidHostDiscardsRecord(t *testing.T) {
	te, _ := setupExtractor()

	html := page("Hotlinked Meme - Imgflip", `
		<a class="meme-link" title="Blank Meme Template">
			<img src="https://evil.com/steal.jpg">
		</a>`)

	_, err := te.Extract(memeURL, html)

	require.NotNil(t, err)
	var extractionErr *extractor.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.True(t, extractionErr.IsParseMiss(), "a title with no valid media is not a usable result")
}

func TestExtract_BodyTooShortIsMalformedFetch(t *testing.T) {
	te, sink := setupExtractor()

	_, err := te.Extract(memeURL, []byte("<html></html>"))

	require.NotNil(t, err)
	var extractionErr *extractor.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.False(t, extractionErr.IsParseMiss(), "short body signals a blocked fetch, not a missing template")

	require.Len(t, sink.causes, 1)
	assert.Equal(t, metadata.CauseContentInvalid, sink.causes[0])
}

func TestExtract_TitleHandling(t *testing.T) {
	tests := []struct {
		name      string
		title     string
		wantTitle string
	}{
		{
			name:      "branding suffix stripped at first separator",
			title:     "Drake Hotline Bling Meme - Imgflip - Meme Generator",
			wantTitle: "Drake Hotline Bling Meme",
		},
		{
			name:      "no separator keeps full title",
			title:     "Plain Title",
			wantTitle: "Plain Title",
		},
		{
			name:      "surrounding whitespace trimmed",
			title:     "  Spaced Out  - Imgflip",
			wantTitle: "Spaced Out",
		},
		{
			name:      "long title truncated to 100 chars",
			title:     strings.Repeat("x", 150),
			wantTitle: strings.Repeat("x", 100),
		},
		{
			name:      "missing title falls back to placeholder",
			title:     "",
			wantTitle: "Unknown Meme",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te, _ := setupExtractor()
			html := page(tt.title, `<img src="//i.imgflip.com/a.jpg">`)

			record, err := te.Extract(memeURL, html)

			require.Nil(t, err)
			assert.Equal(t, tt.wantTitle, record.Title)
		})
	}
}
