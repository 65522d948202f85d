package validation

import (
	"fmt"

	dErrors "confsite/pkg/domain-errors"
)

// HTTP body limits
const (
	// MaxBodySize is the maximum allowed JSON request body size (64 KB).
	// The registration form is the largest payload and stays well below it.
	MaxBodySize = 64 * 1024
)

// String element length limits
const (
	// MaxTokenLength caps tokens submitted to /api/verify-token.
	MaxTokenLength = 512

	// MaxSlugLength caps CMS slugs and document IDs in revalidation webhooks.
	MaxSlugLength = 200

	// MaxYearLength caps archive year path segments.
	MaxYearLength = 16
)

// CheckStringLength validates that a string does not exceed the maximum length.
func CheckStringLength(fieldName, value string, max int) error {
	if len(value) > max {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s exceeds max length of %d", fieldName, max))
	}
	return nil
}
