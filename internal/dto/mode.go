package dto

import "strings"

// Mode selects which workflow engine webhooks a submission is routed to
type Mode string

const (
	ModeProd Mode = "prod"
	ModeTest Mode = "test"
)

// ParseMode accepts "test"/"prod" (case-insensitive); empty means prod
func ParseMode(s string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "prod", "production":
		return ModeProd, true
	case "test":
		return ModeTest, true
	default:
		return "", false
	}
}
