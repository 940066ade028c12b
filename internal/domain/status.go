package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Donation and request status labels. The server owns every transition; the
// client only reads these and sends one of the two decision values.
const (
	StatusAvailable = "Available"
	StatusApproved  = "Approved"
	StatusRejected  = "Rejected"

	RequestStatusPending = "Pending"
)

// ParseDecision canonicalises a donor decision ("approved", " REJECTED ") and
// reports whether it is one the server accepts.
func ParseDecision(raw string) (string, bool) {
	label := cases.Title(language.Und).String(strings.TrimSpace(raw))
	switch label {
	case StatusApproved, StatusRejected:
		return label, true
	default:
		return "", false
	}
}
