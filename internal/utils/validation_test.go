package utils

import (
	"testing"
)

func TestIsHTTPURL(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{"https://kaspi.kz/shop/c/smartphones/", true},
		{"http://localhost:8080/catalog", true},
		{"  https://kaspi.kz  ", true},
		{"HTTPS://KASPI.KZ/", true},

		{"", false},
		{"kaspi.kz/shop", false},
		{"/shop/c/smartphones/", false},
		{"ftp://kaspi.kz/", false},
		{"https://", false},
		{"javascript:alert(1)", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			if got := IsHTTPURL(tc.input); got != tc.expected {
				t.Errorf("IsHTTPURL(%q) = %v, want %v", tc.input, got, tc.expected)
			}
		})
	}
}

func TestOrigin(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"https://kaspi.kz/shop/c/smartphones/?page=2", "https://kaspi.kz"},
		{"HTTP://example.com:8080/a", "http://example.com:8080"},
		{"not a url", ""},
	}

	for _, tc := range testCases {
		if got := Origin(tc.input); got != tc.expected {
			t.Errorf("Origin(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}
