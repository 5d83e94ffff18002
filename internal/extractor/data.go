package extractor

// MediaKind distinguishes image templates from video templates.
type MediaKind string

const (
	MediaKindImage MediaKind = "image"
	MediaKindVideo MediaKind = "video"
)

// TemplateMedia is the authoritative blank-template media item selected
// from one detail page. URL is always normalized and validated.
type TemplateMedia struct {
	URL  string
	Kind MediaKind
}

// MemeRecord is the extraction outcome for one detail page.
// A record without valid template media is never produced; the
// extraction fails instead.
type MemeRecord struct {
	Title    string
	MemeURL  string
	Template TemplateMedia
}
