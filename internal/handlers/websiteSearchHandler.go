package handlers

import (
	"context"
	"net/url"
	"strings"

	"github.com/rotisserie/eris"
	g "github.com/serpapi/google-search-results-golang"
	"go.uber.org/zap"
)

// DefaultSearchResults is how many organic results are inspected per lookup
const DefaultSearchResults = 10

// excludedSearchDomains never count as a company's own website
var excludedSearchDomains = []string{
	"linkedin.com", "facebook.com", "instagram.com", "twitter.com", "x.com",
	"youtube.com", "yelp.com", "bbb.org", "crunchbase.com", "zoominfo.com",
	"wikipedia.org", "glassdoor.com", "indeed.com", "bloomberg.com",
}

// searchFunc runs one SerpAPI query and returns the decoded JSON
type searchFunc func(params map[string]string, apiKey string) (map[string]interface{}, error)

// WebsiteSearchHandler finds a company's website from its name using Google results
type WebsiteSearchHandler struct {
	apiKey string
	search searchFunc
	logger *zap.Logger
}

// NewWebsiteSearchHandler creates a new WebsiteSearchHandler instance
func NewWebsiteSearchHandler(apiKey string) *WebsiteSearchHandler {
	return &WebsiteSearchHandler{
		apiKey: apiKey,
		search: func(params map[string]string, apiKey string) (map[string]interface{}, error) {
			search := g.NewGoogleSearch(params, apiKey)
			return search.GetJSON()
		},
		logger: zap.L().Named("WebsiteSearchHandler"),
	}
}

// FindWebsite returns the first organic result that looks like the company's own site
func (h *WebsiteSearchHandler) FindWebsite(ctx context.Context, companyName string) (string, error) {
	companyName = strings.TrimSpace(companyName)
	if companyName == "" || strings.EqualFold(companyName, "unknown") {
		return "", eris.New("company name is required for website lookup")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := map[string]string{
		"engine": "google",
		"q":      companyName + " official website",
		"num":    "10",
	}

	h.logger.Info("looking up website", zap.String("company", companyName))
	resp, err := h.search(params, h.apiKey)
	if err != nil {
		return "", eris.Wrapf(err, "search failed for %q", companyName)
	}

	organicResults, _ := resp["organic_results"].([]interface{})
	for i, item := range organicResults {
		if i >= DefaultSearchResults {
			break
		}
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		link := getString(itemMap, "link")
		if link == "" || isExcludedDomain(link) {
			continue
		}
		h.logger.Info("website found", zap.String("company", companyName), zap.String("website", link))
		return link, nil
	}

	return "", eris.Errorf("no website found for %q", companyName)
}

func isExcludedDomain(link string) bool {
	parsed, err := url.Parse(link)
	if err != nil {
		return true
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	for _, domain := range excludedSearchDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}

// getString safely extracts a string from decoded JSON
func getString(m map[string]interface{}, key string) string {
	if val, ok := m[key].(string); ok {
		return val
	}
	return ""
}
