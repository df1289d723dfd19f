package services

import (
	"strings"

	"dream100/prospect-intel-worker/internal/dto"
)

// Website sources, in precedence order
const (
	SourceWebsite  = "website"
	SourceEmail    = "email_domain"
	SourceLinkedIn = "linkedin_url"
	SourceSearch   = "search"
)

// publicMailDomains never identify a company website
var publicMailDomains = map[string]bool{
	"gmail.com":   true,
	"yahoo.com":   true,
	"hotmail.com": true,
	"outlook.com": true,
	"icloud.com":  true,
}

// ResolveWebsite picks the scrape target for a prospect: the explicit website,
// then the email domain of a non-public mail provider, then the profile URL.
func ResolveWebsite(p dto.Prospect) (website, source string, ok bool) {
	if w := strings.TrimSpace(p.Website); w != "" {
		return w, SourceWebsite, true
	}
	if domain := emailDomain(p.Email); domain != "" && !publicMailDomains[domain] {
		return domain, SourceEmail, true
	}
	if l := strings.TrimSpace(p.LinkedInURL); l != "" {
		return l, SourceLinkedIn, true
	}
	return "", "", false
}

func emailDomain(email string) string {
	_, domain, found := strings.Cut(strings.TrimSpace(email), "@")
	if !found {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(domain))
}
