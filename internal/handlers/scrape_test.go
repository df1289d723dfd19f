package handlers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		max      int
		expected string
	}{
		{"under limit", "hello", 10, "hello"},
		{"no limit", "hello", 0, "hello"},
		{"ascii cut", "hello world", 5, "hello" + truncationMarker},
		// "é" is two bytes; cutting after its first byte backs off to before it
		{"backs off to rune start", "cafés", 4, "caf" + truncationMarker},
		{"cut on rune boundary", "cafés", 5, "café" + truncationMarker},
		// "🏠" is four bytes
		{"four byte rune", "a\U0001F3E0b", 3, "a" + truncationMarker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.max)
			assert.Equal(t, tt.expected, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestBuildContent_KeepsValidUTF8(t *testing.T) {
	pages := []ScrapedPage{{URL: "https://acme.com", Markdown: strings.Repeat("Zürich 東京 ", 50)}}

	for max := 1; max < 200; max++ {
		content := buildContent(pages, max)
		assert.True(t, utf8.ValidString(content), "max=%d", max)
	}
}
