package saveservice

import (
	"testing"

	"saveit/internal/core"
)

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "remove utm parameters",
			input:    "https://example.com/article?utm_source=twitter&utm_campaign=promo",
			expected: "https://example.com/article",
		},
		{
			name:     "strip www",
			input:    "https://www.instagram.com/p/abc123/",
			expected: "https://instagram.com/p/abc123",
		},
		{
			name:     "force https",
			input:    "http://example.com/path",
			expected: "https://example.com/path",
		},
		{
			name:     "lowercase host",
			input:    "https://EXAMPLE.com/Path",
			expected: "https://example.com/Path",
		},
		{
			name:     "keep non-tracking query params",
			input:    "https://example.com/watch?v=abc123&utm_source=x",
			expected: "https://example.com/watch?v=abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeURL(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("NormalizeURL(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeURLRejectsNoHost(t *testing.T) {
	if _, err := NormalizeURL("not-a-url"); err == nil {
		t.Errorf("expected error for URL missing host")
	}
}

func TestURLHashIsDeterministic(t *testing.T) {
	a, _ := NormalizeURL("https://example.com/a?utm_source=x")
	b, _ := NormalizeURL("https://www.example.com/a")
	if URLHash(a) != URLHash(b) {
		t.Errorf("expected equivalent URLs to hash identically")
	}
}

func TestDetectPlatform(t *testing.T) {
	cases := []struct {
		url  string
		want core.SourcePlatform
	}{
		{"https://instagram.com/p/abc", core.PlatformInstagram},
		{"https://youtube.com/watch?v=abc", core.PlatformYouTube},
		{"https://youtu.be/abc", core.PlatformYouTube},
		{"https://example.com/article", core.PlatformUnknown},
	}
	for _, c := range cases {
		if got := DetectPlatform(c.url); got != c.want {
			t.Errorf("DetectPlatform(%q) = %q, want %q", c.url, got, c.want)
		}
	}
}
