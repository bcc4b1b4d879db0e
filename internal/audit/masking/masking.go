// Package masking redacts sensitive values before they reach audit metadata.
package masking

import "strings"

const maskToken = "****"

// MaskEmail keeps the first character of the local part and the full domain.
func MaskEmail(value string) string {
	trimmed := strings.TrimSpace(value)
	at := strings.LastIndex(trimmed, "@")
	if at <= 0 {
		return MaskSecret(trimmed)
	}

	local := trimmed[:at]
	domain := trimmed[at:]
	return local[:1] + maskToken + domain
}

// MaskSecret redacts a secret while keeping a minimal suffix for auditing.
func MaskSecret(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if len(trimmed) <= 4 {
		return maskToken
	}

	return maskToken + trimmed[len(trimmed)-4:]
}
