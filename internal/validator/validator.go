// Package validator provides input validation and sanitization for the
// CRM API surface.
package validator

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// Validation errors
var (
	ErrInvalidPhone     = errors.New("invalid phone number format")
	ErrInputTooLong     = errors.New("input exceeds maximum length")
	ErrEmptyInput       = errors.New("input cannot be empty")
	ErrInvalidMediaType = errors.New("unsupported media type")
)

// phoneRegex matches E.164-style numbers as the provider delivers them:
// digits only, optional leading +, 7 to 15 digits.
var phoneRegex = regexp.MustCompile(`^\+?[1-9][0-9]{6,14}$`)

// allowedMediaTypes are the provider media message types the send endpoint accepts
var allowedMediaTypes = map[string]bool{
	"image":    true,
	"audio":    true,
	"video":    true,
	"document": true,
}

// ValidatePhone validates a phone number in the provider's wire format.
// Returns nil if valid, or an appropriate error.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ErrEmptyInput
	}
	if len(phone) > 16 {
		return ErrInputTooLong
	}
	if !phoneRegex.MatchString(phone) {
		return ErrInvalidPhone
	}
	return nil
}

// ValidateMediaType checks a send-media type tag against the provider's set
func ValidateMediaType(mediaType string) error {
	if mediaType == "" {
		return ErrEmptyInput
	}
	if !allowedMediaTypes[mediaType] {
		return ErrInvalidMediaType
	}
	return nil
}

// Pagination constants
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// ValidatePagination validates and sanitizes pagination parameters.
// Returns sanitized limit and offset values.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// SanitizeString removes control characters, trims whitespace, and enforces
// a maximum rune length.
func SanitizeString(input string, maxLength int) string {
	input = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, input)

	input = strings.TrimSpace(input)

	if maxLength > 0 && utf8.RuneCountInString(input) > maxLength {
		runes := []rune(input)
		input = string(runes[:maxLength])
	}

	return input
}

// SanitizeFilename removes dangerous characters from a filename before it
// reaches storage or the provider. Prevents path traversal.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, "/", "_")
	filename = strings.ReplaceAll(filename, "\\", "_")
	filename = strings.ReplaceAll(filename, "..", "_")
	filename = strings.ReplaceAll(filename, "\x00", "")

	filename = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, filename)

	filename = strings.TrimSpace(filename)

	if utf8.RuneCountInString(filename) > 255 {
		runes := []rune(filename)
		filename = string(runes[:255])
	}

	if filename == "" {
		return "unnamed"
	}

	return filename
}
