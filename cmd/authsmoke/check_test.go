package authsmoke

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func init() {
	color.NoColor = true
}

func TestClassify(t *testing.T) {
	tests := []struct {
		email     string
		testEmail bool
		role      string
	}{
		{"user+clerk_test@gmail.com", true, ""},
		{"user+clerk_test_admin@gmail.com", true, "admin"},
		{"test+clerk_test@example.com", true, ""},
		{"user+admin@gmail.com", false, ""},
		{"john_clerk_test@gmail.com", false, ""},
		{"clerktest@gmail.com", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			result := classify(tt.email)
			assert.Equal(t, tt.testEmail, result.TestEmail)
			assert.Equal(t, tt.role, result.Role)
			if tt.testEmail {
				assert.Equal(t, "424242", result.MagicCode)
			} else {
				assert.Empty(t, result.MagicCode)
			}
		})
	}
}

func TestPrintCheckResult_TestEmail(t *testing.T) {
	var buf bytes.Buffer
	printCheckResult(&buf, classify("user+clerk_test_admin@gmail.com"))

	out := buf.String()
	assert.Contains(t, out, "TEST EMAIL")
	assert.Contains(t, out, "user+clerk_test_admin@gmail.com")
	assert.Contains(t, out, "role: admin")
	assert.Contains(t, out, "magic code: 424242")
}

func TestPrintCheckResult_NotTestEmail(t *testing.T) {
	var buf bytes.Buffer
	printCheckResult(&buf, classify("john_clerk_test@gmail.com"))

	out := buf.String()
	assert.Contains(t, out, "NOT A TEST EMAIL")
	assert.Contains(t, out, "+clerk_test")
	assert.NotContains(t, out, "magic code")
}
