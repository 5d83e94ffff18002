package urlutil

import (
	"net/url"
	"strings"
)

// Upstream site constants. Every link and media URL the scraper produces
// is anchored to these.
const (
	SiteScheme = "https"
	SiteHost   = "imgflip.com"
	SiteRoot   = SiteScheme + "://" + SiteHost
)

// allowedMediaHosts is the fixed allow-list of hosts a template media URL
// may point at: the main site and its image CDN. Matching accepts the host
// itself or any subdomain of it.
var allowedMediaHosts = []string{
	"imgflip.com",
	"i.imgflip.com",
}

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}
var videoExtensions = []string{".mp4", ".webm", ".ogg"}

// NormalizeMediaURL produces an absolute URL from whatever spelling the
// upstream markup used.
//
// Rules, in order:
//   - empty input stays empty
//   - protocol-relative ("//host/...") gets the https scheme
//   - site-relative ("/path") gets the site scheme and host
//   - already absolute (http:// or https://) is returned unchanged
//   - anything else is treated as a path relative to the site root
//
// Properties:
//   - Pure: no state, no memory
//   - Deterministic: same input always produces same output
//   - Idempotent: NormalizeMediaURL(NormalizeMediaURL(s)) == NormalizeMediaURL(s)
func NormalizeMediaURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if strings.HasPrefix(raw, "//") {
		return SiteScheme + ":" + raw
	}

	if strings.HasPrefix(raw, "/") {
		return SiteRoot + raw
	}

	if strings.HasPrefix(raw, "https://") || strings.HasPrefix(raw, "http://") {
		return raw
	}

	return SiteRoot + "/" + raw
}

// IsValidMediaURL reports whether a normalized URL is acceptable as
// template media: parseable, on an allow-listed host, and carrying a
// recognized image or video extension somewhere in its path.
//
// Extension matching is substring containment, so query strings or cache
// suffixes after the extension do not invalidate an otherwise good URL.
func IsValidMediaURL(raw string) bool {
	if raw == "" {
		return false
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return false
	}

	if !isAllowedHost(parsed.Hostname()) {
		return false
	}

	path := strings.ToLower(parsed.Path)
	return containsAnyExtension(path, imageExtensions) ||
		containsAnyExtension(path, videoExtensions)
}

// HasImageExtension reports whether the raw src carries a recognized
// static-image extension.
func HasImageExtension(src string) bool {
	return containsAnyExtension(strings.ToLower(src), imageExtensions)
}

// HasVideoExtension reports whether the raw src carries a recognized
// video extension.
func HasVideoExtension(src string) bool {
	return containsAnyExtension(strings.ToLower(src), videoExtensions)
}

func isAllowedHost(hostname string) bool {
	hostname = strings.ToLower(hostname)
	for _, allowed := range allowedMediaHosts {
		if hostname == allowed || strings.HasSuffix(hostname, "."+allowed) {
			return true
		}
	}
	return false
}

func containsAnyExtension(path string, extensions []string) bool {
	for _, ext := range extensions {
		if strings.Contains(path, ext) {
			return true
		}
	}
	return false
}
