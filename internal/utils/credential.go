package contextutils

import (
	"strings"
)

// NormalizeCredential trims surrounding whitespace from a pasted API key.
// A credential that is blank after trimming counts as absent.
func NormalizeCredential(apiKey string) string {
	return strings.TrimSpace(apiKey)
}

// HasCredential reports whether apiKey holds a usable (non-blank) credential
func HasCredential(apiKey string) bool {
	return NormalizeCredential(apiKey) != ""
}

// MaskAPIKey masks an API key for logging purposes to prevent exposure
// Returns a masked version that shows only first 4 and last 4 characters
func MaskAPIKey(apiKey string) string {
	if apiKey == "" {
		return "[EMPTY]"
	}

	if len(apiKey) <= 8 {
		return strings.Repeat("*", len(apiKey))
	}

	return apiKey[:4] + strings.Repeat("*", len(apiKey)-8) + apiKey[len(apiKey)-4:]
}
