package handlers

import (
	"context"
	"time"

	"github.com/mendableai/firecrawl-go/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	// DefaultScrapeTimeout is the timeout for scraping a single URL
	DefaultScrapeTimeout = 60 * time.Second
)

// FirecrawlHandler scrapes a website homepage using the Firecrawl API
type FirecrawlHandler struct {
	app             *firecrawl.FirecrawlApp
	timeout         time.Duration
	maxContentChars int
	logger          *zap.Logger
}

// NewFirecrawlHandler creates a new FirecrawlHandler instance
// apiKey is required, apiURL can be empty to use the default Firecrawl API
func NewFirecrawlHandler(apiKey string, apiURL string) (*FirecrawlHandler, error) {
	logger := zap.L().Named("FirecrawlHandler")
	logger.Info("initializing", zap.String("api_url", apiURL))

	app, err := firecrawl.NewFirecrawlApp(apiKey, apiURL)
	if err != nil {
		return nil, eris.Wrap(err, "failed to create FirecrawlApp")
	}

	return &FirecrawlHandler{
		app:             app,
		timeout:         DefaultScrapeTimeout,
		maxContentChars: DefaultMaxContentChars,
		logger:          logger,
	}, nil
}

// SetTimeout allows customizing the scrape timeout
func (h *FirecrawlHandler) SetTimeout(timeout time.Duration) {
	h.timeout = timeout
}

// SetMaxContentChars caps the serialized content length
func (h *FirecrawlHandler) SetMaxContentChars(n int) {
	h.maxContentChars = n
}

// Scrape fetches the target page as markdown
func (h *FirecrawlHandler) Scrape(ctx context.Context, target string) (*ScrapeResult, error) {
	normalized, ok := validateTarget(target)
	if !ok {
		return nil, eris.Errorf("invalid URL: %q", target)
	}
	h.logger.Info("scraping", zap.String("url", normalized))

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	type scrapeResult struct {
		data *firecrawl.FirecrawlDocument
		err  error
	}
	resultChan := make(chan scrapeResult, 1)

	// the SDK takes no context, so the call runs in a goroutine to honor the timeout
	go func() {
		scraped, err := h.app.ScrapeURL(normalized, nil)
		resultChan <- scrapeResult{data: scraped, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, eris.Wrapf(ctx.Err(), "scrape timeout exceeded for %s", normalized)
	case res := <-resultChan:
		if res.err != nil {
			return nil, eris.Wrapf(res.err, "firecrawl scrape failed for %s", normalized)
		}
		if res.data == nil || res.data.Markdown == "" {
			return nil, eris.Errorf("firecrawl returned no content for %s", normalized)
		}

		pages := []ScrapedPage{{URL: normalized, Markdown: res.data.Markdown}}
		h.logger.Info("scraped", zap.String("url", normalized), zap.Int("markdown_len", len(res.data.Markdown)))

		return &ScrapeResult{
			URL:      normalized,
			Provider: "firecrawl",
			Pages:    pages,
			Content:  buildContent(pages, h.maxContentChars),
		}, nil
	}
}
