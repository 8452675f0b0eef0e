package errors

import (
	"strings"
	"unicode"
)

// MaxFocusLength bounds the length of a focus path accepted from users.
const MaxFocusLength = 1024

// ValidateFocus validates a focus path ("src/pkg/render") for safety.
// An empty focus selects the root and is valid.
//
// Validation rules:
//   - Maximum length of MaxFocusLength characters
//   - No null bytes or control characters
//   - No path traversal segments (..)
//   - No backslashes (Windows-style paths)
func ValidateFocus(focus string) error {
	if focus == "" {
		return nil
	}
	if len(focus) > MaxFocusLength {
		return New(ErrCodeInvalidFocus, "focus too long (max %d characters)", MaxFocusLength)
	}
	for _, r := range focus {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidFocus, "focus contains invalid control characters")
		}
	}
	if strings.Contains(focus, "\\") {
		return New(ErrCodeInvalidFocus, "focus cannot contain backslashes")
	}
	for _, seg := range strings.Split(focus, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidFocus, "focus cannot contain path traversal segments (..)")
		}
	}
	return nil
}

// ValidatePath validates a local file path given as tree source.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidSource, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidSource, "URL must use http or https scheme")
	}

	return nil
}

// IsURL reports whether s looks like an http(s) URL rather than a file path.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
