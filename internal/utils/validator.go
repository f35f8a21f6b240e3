package utils

import (
	"regexp"
	"strings"
)

// emailPattern is a simplified RFC 5322 address check.
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9_+&*.-]+@(?:[a-zA-Z0-9-]+\.)+[a-zA-Z]{2,}$`)

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail reports whether email looks like a deliverable address.
func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}
	return emailPattern.MatchString(email)
}
