// internal/utils/validation.go
package utils

import (
	"net/url"
	"strings"
)

// IsHTTPURL reports whether raw is an absolute http or https URL with a host.
func IsHTTPURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// Origin returns scheme://host of raw, or "" when raw is not an http(s) URL.
func Origin(raw string) string {
	if !IsHTTPURL(raw) {
		return ""
	}
	u, _ := url.Parse(strings.TrimSpace(raw))
	return strings.ToLower(u.Scheme) + "://" + u.Host
}
