package email

import (
	"strings"

	"aura-protocol-go/internal/failure"
)

// MinSourceLength is the shortest input accepted as email source.
const MinSourceLength = 100

var sourceIndicators = []string{
	"from:",
	"subject:",
	"date:",
	"received:",
	"dkim-signature:",
}

const (
	msgTooShort = "Invalid input: Please paste the full email source (show original/view source from your email client). The input is too short to be a valid email."
	msgNotEmail = "Invalid input: This does not appear to be email source. Please use \"Show Original\" or \"View Source\" in your email client to get the raw email headers and body."
)

// ValidateSource checks that raw looks like email source before any parsing
// is attempted. It returns the trimmed source.
func ValidateSource(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) < MinSourceLength {
		return "", failure.New(failure.KindValidation, "validate email", msgTooShort)
	}

	lower := strings.ToLower(trimmed)
	for _, indicator := range sourceIndicators {
		if strings.Contains(lower, indicator) {
			return trimmed, nil
		}
	}
	return "", failure.New(failure.KindValidation, "validate email", msgNotEmail)
}
