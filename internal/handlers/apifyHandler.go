package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// DefaultApifyBaseURL is the Apify API root
	DefaultApifyBaseURL = "https://api.apify.com/v2"
	// DefaultApifyActor crawls a site and returns page text
	DefaultApifyActor = "apify~website-content-crawler"
	// DefaultApifyTimeout matches the synchronous run limit we are willing to wait for
	DefaultApifyTimeout = 120 * time.Second
	// DefaultApifyMaxPages bounds the crawl per website
	DefaultApifyMaxPages = 5
)

// ApifyConfig configures the ApifyHandler
type ApifyConfig struct {
	Token           string
	BaseURL         string
	Actor           string
	MaxPages        int
	MaxContentChars int
	Timeout         time.Duration
	HTTPClient      *http.Client
}

// ApifyHandler crawls websites with Apify's website content crawler actor
type ApifyHandler struct {
	config     ApifyConfig
	httpClient *http.Client
	logger     *zap.Logger
}

type apifyStartURL struct {
	URL string `json:"url"`
}

type apifyRunInput struct {
	StartURLs     []apifyStartURL `json:"startUrls"`
	MaxCrawlPages int             `json:"maxCrawlPages"`
	CrawlerType   string          `json:"crawlerType"`
}

type apifyDatasetItem struct {
	URL      string `json:"url"`
	Text     string `json:"text"`
	Markdown string `json:"markdown"`
	Metadata struct {
		Title string `json:"title"`
	} `json:"metadata"`
}

// NewApifyHandler creates a new ApifyHandler instance
func NewApifyHandler(cfg ApifyConfig) (*ApifyHandler, error) {
	if cfg.Token == "" {
		return nil, eris.New("apify token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultApifyBaseURL
	}
	if cfg.Actor == "" {
		cfg.Actor = DefaultApifyActor
	}
	if cfg.MaxPages == 0 {
		cfg.MaxPages = DefaultApifyMaxPages
	}
	if cfg.MaxContentChars == 0 {
		cfg.MaxContentChars = DefaultMaxContentChars
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultApifyTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &ApifyHandler{
		config:     cfg,
		httpClient: client,
		logger:     zap.L().Named("ApifyHandler"),
	}, nil
}

// Scrape runs the crawler synchronously and returns the dataset items as pages
func (h *ApifyHandler) Scrape(ctx context.Context, target string) (*ScrapeResult, error) {
	normalized, ok := validateTarget(target)
	if !ok {
		return nil, eris.Errorf("invalid URL: %q", target)
	}

	body, err := json.Marshal(apifyRunInput{
		StartURLs:     []apifyStartURL{{URL: normalized}},
		MaxCrawlPages: h.config.MaxPages,
		CrawlerType:   "playwright:firefox",
	})
	if err != nil {
		return nil, eris.Wrap(err, "failed to marshal apify input")
	}

	endpoint := h.config.BaseURL + "/acts/" + h.config.Actor + "/run-sync-get-dataset-items?token=" + url.QueryEscape(h.config.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "failed to create apify request")
	}
	req.Header.Set("Content-Type", "application/json")

	h.logger.Info("crawling", zap.String("url", normalized), zap.Int("max_pages", h.config.MaxPages))
	start := time.Now()

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "apify request failed for %s", normalized)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, eris.Errorf("apify error (status %d): %s", resp.StatusCode, string(msg))
	}

	var items []apifyDatasetItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, eris.Wrap(err, "failed to decode apify dataset")
	}
	if len(items) == 0 {
		return nil, eris.Errorf("apify returned no pages for %s", normalized)
	}

	pages := make([]ScrapedPage, 0, len(items))
	for _, item := range items {
		content := item.Markdown
		if content == "" {
			content = item.Text
		}
		pages = append(pages, ScrapedPage{URL: item.URL, Title: item.Metadata.Title, Markdown: content})
	}

	h.logger.Info("crawled",
		zap.String("url", normalized),
		zap.Int("pages", len(pages)),
		zap.Duration("elapsed", time.Since(start)))

	return &ScrapeResult{
		URL:      normalized,
		Provider: "apify",
		Pages:    pages,
		Content:  buildContent(pages, h.config.MaxContentChars),
	}, nil
}
