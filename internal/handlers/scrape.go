package handlers

import (
	"encoding/json"
	"net/url"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxContentChars caps the scraped content handed to the AI stages
	DefaultMaxContentChars = 60000
	truncationMarker       = "\n\n[Content truncated...]"
)

// ScrapedPage represents the scraped content from a single URL
type ScrapedPage struct {
	URL      string `json:"url"`
	Title    string `json:"title,omitempty"`
	Markdown string `json:"markdown,omitempty"`
}

// ScrapeResult is everything a scraper collected for one website
type ScrapeResult struct {
	URL      string        `json:"url"`
	Provider string        `json:"provider"`
	Pages    []ScrapedPage `json:"pages"`
	// Content is the serialized page list fed to the analysis and generation prompts
	Content string `json:"-"`
}

// NormalizeURL trims whitespace and adds an https scheme when none is present
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	return raw
}

func validateTarget(target string) (string, bool) {
	normalized := NormalizeURL(target)
	parsed, err := url.Parse(normalized)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	return normalized, true
}

// buildContent serializes pages as indented JSON, truncated to maxChars
func buildContent(pages []ScrapedPage, maxChars int) string {
	data, err := json.MarshalIndent(pages, "", "  ")
	if err != nil {
		return ""
	}
	return truncate(string(data), maxChars)
}

// truncate cuts s to at most maxChars bytes without splitting a UTF-8 sequence
func truncate(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	cut := maxChars
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + truncationMarker
}
