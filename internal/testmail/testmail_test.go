package testmail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTestEmail(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"user+clerk_test@gmail.com", true},
		{"user+clerk_test_admin@gmail.com", true},
		{"user+clerk_test_member@gmail.com", true},
		{"test+clerk_test@example.com", true},
		{"a+clerk_testers@example.com", true}, // marker followed by extra chars, no boundary required
		{"user+admin@gmail.com", false},
		{"john_clerk_test@gmail.com", false}, // underscore instead of plus
		{"clerktest@gmail.com", false},
		{"clerk_test@gmail.com", false},          // marker without delimiter
		{"user@clerk_test.com", false},           // marker only in domain
		{"user@sub+clerk_test.com", false},       // delimiter+marker in domain
		{"User+Clerk_Test@gmail.com", false},     // case-sensitive
		{"user+CLERK_TEST@gmail.com", false},     // case-sensitive
		{"x+clerk_test+more@example.com", true},  // marker anywhere in local part
		{"+clerk_test@example.com", true},        // empty mailbox before the tag
		{"user+clerk_tes@gmail.com", false},      // truncated marker
		{"", false},
		{"no-at-sign", false},
		{"+clerk_test", false},      // no domain separator at all
		{"@example.com", false},     // empty local part
		{"user+clerk_test@", true},  // empty domain is not our problem
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTestEmail(tt.addr))
		})
	}
}

func TestIsTestEmail_Pure(t *testing.T) {
	// Same input, same answer. The classifier keeps no state.
	for i := 0; i < 3; i++ {
		assert.True(t, IsTestEmail("user+clerk_test_admin@gmail.com"))
		assert.False(t, IsTestEmail("john_clerk_test@gmail.com"))
	}
}

func TestRole(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"user+clerk_test_admin@gmail.com", "admin"},
		{"user+clerk_test_member@gmail.com", "member"},
		{"user+clerk_test_org_owner@gmail.com", "org_owner"},
		{"user+clerk_test@gmail.com", ""},
		{"user+admin@gmail.com", ""},
		{"john_clerk_test_admin@gmail.com", ""}, // not a test email at all
		{"user+clerk_testadmin@gmail.com", ""},  // missing underscore separator
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			assert.Equal(t, tt.want, Role(tt.addr))
		})
	}
}

func TestIsTestPhone(t *testing.T) {
	tests := []struct {
		number string
		want   bool
	}{
		{"+12015550100", true},
		{"+1 (201) 555-0100", true},
		{"2015550199", true},
		{"1-201-555-0123", true},
		{"+1 201.555.0145", true},
		{"+12015551100", false}, // outside the 555-01XX block
		{"+12015550100x", false},
		{"(201) 555-2100", false},
		{"+442015550100", false}, // wrong country code
		{"201555010", false},     // too short
		{"not a number", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.number, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTestPhone(tt.number))
		})
	}
}

func TestMagicCodes(t *testing.T) {
	assert.Equal(t, "424242", MagicCode)
	assert.Equal(t, "424242", MagicPhoneCode)
}
