package utils

import (
	"regexp"
	"strings"
	"unicode"
)

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// SanitizeString trims whitespace and drops control characters. The value
// is stored as submitted; escaping belongs to whatever renders it.
func SanitizeString(input string) string {
	return removeControlChars(strings.TrimSpace(input))
}

// SanitizeOptional applies SanitizeString to an optional value. Blank
// values become nil.
func SanitizeOptional(input *string) *string {
	if input == nil {
		return nil
	}
	sanitized := SanitizeString(*input)
	if sanitized == "" {
		return nil
	}
	return &sanitized
}

// SanitizeEmail lowercases, trims and strips markup and control characters
func SanitizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	email = htmlTagPattern.ReplaceAllString(email, "")
	return removeControlChars(email)
}

// SanitizePhone keeps only the characters a phone number can contain
func SanitizePhone(phone string) string {
	phone = htmlTagPattern.ReplaceAllString(strings.TrimSpace(phone), "")

	var result strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) || r == '+' || r == '-' || r == ' ' || r == '(' || r == ')' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

// SanitizeText is SanitizeString for multi-line free text
func SanitizeText(input string) string {
	var result strings.Builder
	for _, r := range strings.TrimSpace(input) {
		if unicode.IsPrint(r) || r == '\n' || r == '\t' || r == '\r' {
			result.WriteRune(r)
		}
	}

	return result.String()
}

func removeControlChars(input string) string {
	var result strings.Builder
	for _, r := range input {
		if unicode.IsPrint(r) || r == ' ' {
			result.WriteRune(r)
		}
	}
	return result.String()
}
