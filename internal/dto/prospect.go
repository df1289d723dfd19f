package dto

import "strings"

// Prospect is a single company/contact record as exported from the lead list
// @Description Prospect record submitted for processing
type Prospect struct {
	// Company name
	CompanyName string `json:"Company_Name" example:"Acme Roofing"`
	// Contact first name
	FirstName string `json:"First_Name" example:"Jane"`
	// Contact last name
	LastName string `json:"Last_Name" example:"Doe"`
	// Contact job title
	Title string `json:"Title,omitempty" example:"Owner"`
	// Contact email address
	Email string `json:"Email,omitempty" example:"jane@acmeroofing.com"`
	// Company website (optional, derived from email when empty)
	Website string `json:"Website,omitempty" example:"https://acmeroofing.com"`
	// Contact profile URL used as a last-resort scrape target
	LinkedInURL string `json:"LinkedIn_URL,omitempty" example:"https://www.linkedin.com/in/janedoe"`
}

// FullName joins first and last name, trimming missing parts
func (p Prospect) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// DisplayCompany returns the company name or "Unknown" when absent
func (p Prospect) DisplayCompany() string {
	if strings.TrimSpace(p.CompanyName) == "" {
		return "Unknown"
	}
	return p.CompanyName
}
