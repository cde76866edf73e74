package logging

import (
	"regexp"
)

// Patterns for personal data that must not reach the logs. Event
// descriptions carry whatever the operator typed about a debtor, so
// anything that looks like contact or account details is masked.
var piiPatterns = []*regexp.Regexp{
	// Email addresses
	regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),

	// Phone numbers (international and local forms, 7+ digits with
	// optional separators)
	regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`),

	// IBAN-style account references
	regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{10,30}\b`),
}

// RedactedValue is the replacement for masked values.
const RedactedValue = "[REDACTED]"

// Redact masks personal data in a string so free-text descriptions can
// be logged at debug level.
func Redact(s string) string {
	result := s
	for _, pattern := range piiPatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}
