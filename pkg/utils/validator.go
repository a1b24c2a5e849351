package utils

import (
	"fmt"
	"regexp"
)

var identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._\-]{0,63}$`)

// ValidateIdentifier validates a tenant, service or user identifier
func ValidateIdentifier(id string) error {
	if !identifierRegex.MatchString(id) {
		return fmt.Errorf("invalid identifier: %q", id)
	}
	return nil
}

// ValidateAmount validates a service request amount
func ValidateAmount(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("amount must not be negative: %.2f", amount)
	}

	if amount > 100000 {
		return fmt.Errorf("amount exceeds maximum limit: %.2f", amount)
	}

	return nil
}

// SanitizeString removes control characters from user-supplied text
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
