package throttle

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"simple user id", "user42", false},
		{"email-style id", "demo@example.com", false},
		{"ipv4 address", "203.0.113.5", false},
		{"ipv6 address", "2001:db8::1", false},
		{"underscores and hyphens", "svc_account-7", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 65), true},
		{"64 bytes is fine", strings.Repeat("a", 64), false},
		{"spaces", "user 42", true},
		{"non-ascii", "usér", true},
		{"slash", "a/b", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := validateKey(tc.key, "principal")
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
