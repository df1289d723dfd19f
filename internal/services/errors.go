package services

import (
	"errors"
	"strings"

	"github.com/rotisserie/eris"
)

// Error taxonomy shared with the HTTP layer
var (
	ErrValidation = eris.New("validation error")
	ErrNotFound   = eris.New("not found")
	ErrUpstream   = eris.New("upstream error")
	ErrDelivery   = eris.New("delivery error")
	// ErrUnknownJob is returned for callbacks that match no batch or job
	ErrUnknownJob = eris.New("unknown job id")
)

var sentinels = []error{ErrValidation, ErrNotFound, ErrUpstream, ErrDelivery, ErrUnknownJob}

// PublicMessage renders err for API clients, without the taxonomy suffix
func PublicMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, s := range sentinels {
		if errors.Is(err, s) {
			msg = strings.TrimSuffix(msg, ": "+s.Error())
		}
	}
	return msg
}
