package errors

import (
	"net/mail"
	"strings"
	"unicode"
)

// MinPasswordLength is the shortest password accepted at sign up.
const MinPasswordLength = 6

// ValidateName validates a template name for safety and correctness.
//
// The rules are intentionally conservative:
//   - No empty (or whitespace-only) names
//   - No control characters
//   - Maximum length of 128 characters
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeValidation, "name cannot be empty")
	}

	if len(name) > 128 {
		return New(ErrCodeValidation, "name too long (max 128 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeValidation, "name contains invalid control characters")
		}
	}

	return nil
}

// ValidateImageURL validates an image reference.
// It ensures the URL has a safe scheme (http, https or data).
func ValidateImageURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeValidation, "image URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") &&
		!strings.HasPrefix(rawURL, "https://") &&
		!strings.HasPrefix(rawURL, "data:image/") {
		return New(ErrCodeValidation, "image URL must use http, https or data:image scheme")
	}

	return nil
}

// ValidateEmail checks that email is a bare address (no display name).
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return New(ErrCodeInvalidEmail, "Invalid email address.")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return New(ErrCodeInvalidEmail, "Invalid email address.")
	}
	return nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return New(ErrCodeWeakPassword, "Password should be at least %d characters.", MinPasswordLength)
	}
	return nil
}

// ValidateID validates an opaque identifier taken from user input
// (URL path segment, JSON field).
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "id too long (max 64 characters)")
	}
	for _, r := range id {
		if !(r == '-' || r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return New(ErrCodeInvalidInput, "id contains invalid characters: %q", r)
		}
	}
	return nil
}
