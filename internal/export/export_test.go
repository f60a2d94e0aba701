package export

import (
	"strings"
	"testing"
	"time"
)

func TestRenderDocumentHTML(t *testing.T) {
	html, err := RenderDocumentHTML(TemplateData{
		Title:          "Launch Plan",
		Author:         "Avery",
		TeamName:       "Design",
		CollectionName: "Q3",
		UpdatedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		BannerURL:      "https://objects.example.com/banner.jpg",
		BannerPosition: "25% 60%",
		ContentHTML:    "<p>Hello <strong>world</strong></p>",
	})
	if err != nil {
		t.Fatalf("RenderDocumentHTML() error = %v", err)
	}

	for _, want := range []string{
		"Launch Plan",
		"Design / Q3",
		"Avery",
		"Aug 1, 2026",
		"object-position: 25% 60%",
		"https://objects.example.com/banner.jpg",
		"<p>Hello <strong>world</strong></p>",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered HTML missing %q", want)
		}
	}
}

func TestRenderDocumentHTMLDefaultsBannerPosition(t *testing.T) {
	html, err := RenderDocumentHTML(TemplateData{
		Title:     "Untitled",
		BannerURL: "https://objects.example.com/b.jpg",
	})
	if err != nil {
		t.Fatalf("RenderDocumentHTML() error = %v", err)
	}
	if !strings.Contains(html, "object-position: 50% 50%") {
		t.Error("missing centered default banner position")
	}
}

func TestRenderDocumentHTMLOmitsBannerWhenUnset(t *testing.T) {
	html, err := RenderDocumentHTML(TemplateData{Title: "No banner"})
	if err != nil {
		t.Fatalf("RenderDocumentHTML() error = %v", err)
	}
	if strings.Contains(html, "<div class=\"banner\">") {
		t.Error("banner markup rendered without a banner URL")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Launch Plan", "Launch-Plan"},
		{"a/b\\c", "abc"},
		{"", "document"},
		{strings.Repeat("x", 80), strings.Repeat("x", 50)},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	got := percentEncodeForDataURL("a b&c")
	if got != "a%20b%26c" {
		t.Fatalf("percentEncodeForDataURL() = %q", got)
	}
}
