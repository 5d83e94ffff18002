package urlutil

import "testing"

func TestNormalizeMediaURL(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "empty input stays empty",
			raw:  "",
			want: "",
		},
		{
			name: "whitespace only stays empty",
			raw:  "   \t",
			want: "",
		},
		{
			name: "protocol relative gets https",
			raw:  "//i.imgflip.com/a.png",
			want: "https://i.imgflip.com/a.png",
		},
		{
			name: "site relative gets scheme and host",
			raw:  "/meme/x",
			want: "https://imgflip.com/meme/x",
		},
		{
			name: "absolute https unchanged",
			raw:  "https://a.com/b",
			want: "https://a.com/b",
		},
		{
			name: "absolute http unchanged",
			raw:  "http://a.com/b",
			want: "http://a.com/b",
		},
		{
			name: "bare path treated as relative to site root",
			raw:  "s/meme/Drake.jpg",
			want: "https://imgflip.com/s/meme/Drake.jpg",
		},
		{
			name: "surrounding whitespace trimmed",
			raw:  "  //i.imgflip.com/a.png  ",
			want: "https://i.imgflip.com/a.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMediaURL(tt.raw)
			if got != tt.want {
				t.Errorf("NormalizeMediaURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeMediaURL_Idempotent(t *testing.T) {
	inputs := []string{
		"//i.imgflip.com/a.png",
		"/meme/x",
		"https://i.imgflip.com/a.png",
		"s/meme/Drake.jpg",
	}

	for _, raw := range inputs {
		once := NormalizeMediaURL(raw)
		twice := NormalizeMediaURL(once)
		if once != twice {
			t.Errorf("NormalizeMediaURL not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}

func TestIsValidMediaURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{
			name: "cdn image is valid",
			url:  "https://i.imgflip.com/img.jpg",
			want: true,
		},
		{
			name: "main site image is valid",
			url:  "https://imgflip.com/s/meme/x.png",
			want: true,
		},
		{
			name: "video on cdn is valid",
			url:  "https://i.imgflip.com/clip.mp4",
			want: true,
		},
		{
			name: "query string after extension still valid",
			url:  "https://i.imgflip.com/img.jpg?width=300",
			want: true,
		},
		{
			name: "disallowed host rejected",
			url:  "https://evil.com/img.jpg",
			want: false,
		},
		{
			name: "lookalike host rejected",
			url:  "https://evilimgflip.com/img.jpg",
			want: false,
		},
		{
			name: "disallowed extension rejected",
			url:  "https://i.imgflip.com/doc.pdf",
			want: false,
		},
		{
			name: "empty rejected",
			url:  "",
			want: false,
		},
		{
			name: "unparseable rejected",
			url:  "https://i.imgflip.com/%zz.jpg",
			want: false,
		},
		{
			name: "relative path rejected (no host)",
			url:  "/meme/x.jpg",
			want: false,
		},
		{
			name: "subdomain of allowed host accepted",
			url:  "https://cdn.imgflip.com/x.gif",
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidMediaURL(tt.url)
			if got != tt.want {
				t.Errorf("IsValidMediaURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

func TestExtensionHelpers(t *testing.T) {
	if !HasImageExtension("/s/meme/Drake.JPG") {
		t.Error("expected uppercase image extension to match")
	}
	if HasImageExtension("/clip.mp4") {
		t.Error("video extension must not count as image")
	}
	if !HasVideoExtension("/clip.webm?x=1") {
		t.Error("expected video extension to match with query suffix")
	}
	if HasVideoExtension("/img.png") {
		t.Error("image extension must not count as video")
	}
}
