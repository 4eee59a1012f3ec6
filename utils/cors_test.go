package utils

import "testing"

func TestIsAllowedOrigin_Localhost(t *testing.T) {
	tests := []struct {
		origin  string
		allowed bool
	}{
		{"http://localhost", true},
		{"http://localhost:5173", true},
		{"https://localhost:3000", true},
		{"http://127.0.0.1:8080", true},
		{"http://[::1]:8080", true},

		{"http://example.com", false},
		{"https://evil.com", false},
		{"http://localhost.evil.com", false},
		{"", false},
		{"not-a-url", false},
	}

	for _, tt := range tests {
		if got := IsAllowedOrigin(tt.origin); got != tt.allowed {
			t.Errorf("IsAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.allowed)
		}
	}
}

func TestIsAllowedOrigin_ConfiguredAllowlist(t *testing.T) {
	SetAllowedOrigins([]string{"https://app.reelfeed.example", "https://Staging.Reelfeed.Example/"})
	t.Cleanup(func() { SetAllowedOrigins(nil) })

	tests := []struct {
		origin  string
		allowed bool
	}{
		{"https://app.reelfeed.example", true},
		{"https://APP.reelfeed.example", true},
		{"https://staging.reelfeed.example", true},

		{"http://app.reelfeed.example", false}, // scheme is part of the origin
		{"https://other.example", false},
	}

	for _, tt := range tests {
		if got := IsAllowedOrigin(tt.origin); got != tt.allowed {
			t.Errorf("IsAllowedOrigin(%q) = %v, want %v", tt.origin, got, tt.allowed)
		}
	}
}
