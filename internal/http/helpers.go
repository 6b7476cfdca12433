package http

import (
	"encoding/json"
	"strings"

	"expenseweb/internal/notify"
)

// sanitizeInput removes control characters other than tab and newlines.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// noticesJSON encodes notices for the full-page render, which cannot use
// HX-Trigger.
func noticesJSON(notices []notify.Notice) string {
	if len(notices) == 0 {
		return ""
	}
	data, err := json.Marshal(notices)
	if err != nil {
		return ""
	}
	return string(data)
}
