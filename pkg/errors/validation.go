package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateTraceName validates a trace file name received from a URL or flag.
// It must be a plain base name so it cannot escape the trace directory.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 256 characters
//   - No control characters or null bytes
//   - No path separators or traversal sequences
//   - No hidden files
func ValidateTraceName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPath, "trace name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidPath, "trace name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "trace name contains invalid control characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidPath, "trace name cannot contain path separators")
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidPath, "trace name cannot contain path traversal sequences (..)")
	}

	if strings.HasPrefix(name, ".") {
		return New(ErrCodeInvalidPath, "trace name cannot be a hidden file")
	}

	return nil
}

// ValidateSpanID validates a span identifier received from a client.
// Zipkin ids are hex strings; anything printable up to 64 characters is
// accepted so that non-standard tracers still work.
func ValidateSpanID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "span id cannot be empty")
	}
	if len(id) > 64 {
		return New(ErrCodeInvalidInput, "span id too long (max 64 characters)")
	}
	for _, r := range id {
		if !unicode.IsPrint(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidInput, "span id contains invalid characters")
		}
	}
	return nil
}

// ValidateTrackWidth checks that a track width is a usable percentage.
func ValidateTrackWidth(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return New(ErrCodeInvalidInput, "track width must be a finite number")
	}
	if w <= 0 || w > 100 {
		return New(ErrCodeInvalidInput, "track width must be in (0, 100], got %v", w)
	}
	return nil
}
