package schema

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"

	"study-planner/internal/model"
)

var strictPolicy = bluemonday.StrictPolicy()

// CleanText strips markup and surrounding whitespace from user input.
func CleanText(input string) string {
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(input)))
}

// RequiredText cleans input and rejects it when empty or longer than max runes.
func RequiredText(field, input string, max int) (string, error) {
	cleaned := CleanText(input)
	if cleaned == "" {
		return "", model.Invalid(field + " is required")
	}
	if utf8.RuneCountInString(cleaned) > max {
		return "", model.Invalid(field + " is too long")
	}
	return cleaned, nil
}

// OptionalText cleans input and rejects it when longer than max runes.
func OptionalText(field, input string, max int) (string, error) {
	cleaned := CleanText(input)
	if utf8.RuneCountInString(cleaned) > max {
		return "", model.Invalid(field + " is too long")
	}
	return cleaned, nil
}
