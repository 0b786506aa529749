package throttle

import (
	"fmt"
)

// allowedKeyChars is a precomputed lookup for O(1) character validation.
var allowedKeyChars [128]bool

func init() {
	for _, c := range "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-:.@" {
		allowedKeyChars[c] = true
	}
}

// validateKey checks that a key segment is non-empty, at most 64 bytes, and
// limited to alphanumeric ASCII plus underscore, hyphen, colon, period and
// at-sign. Principals are user identifiers or network addresses, so both
// IPv4 dotted quads and colon-separated IPv6 literals pass.
func validateKey(key, keyType string) error {
	if len(key) == 0 {
		return fmt.Errorf("%s cannot be empty", keyType)
	}
	if len(key) > 64 {
		return fmt.Errorf("%s cannot exceed 64 bytes, got %d bytes", keyType, len(key))
	}

	const hint = "only alphanumeric ASCII, underscore (_), hyphen (-), colon (:), period (.), and at (@) are allowed"

	for i, r := range key {
		if r >= 128 || !allowedKeyChars[r] {
			return fmt.Errorf("%s contains invalid character %q at position %d; %s", keyType, r, i, hint)
		}
	}
	return nil
}
