// Copyright 2025 FinSight
// SPDX-License-Identifier: Apache-2.0

package base

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ValidateBaseURL checks that a connector base URL override is well formed:
// absolute, http(s), and carrying a hostname. Base URLs come from operator
// configuration rather than user input, and test deployments point them at
// loopback servers, so no IP-range restrictions are applied here.
func ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return fmt.Errorf("URL cannot be empty")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}

	scheme := strings.ToLower(parsedURL.Scheme)
	if scheme != "https" && scheme != "http" {
		return fmt.Errorf("URL scheme %q is not allowed; permitted schemes: [https http]", parsedURL.Scheme)
	}

	if parsedURL.Hostname() == "" {
		return fmt.Errorf("URL must contain a hostname")
	}

	return nil
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// SanitizeLogString removes or escapes characters that could be used for log
// injection. Connectors log fragments of upstream responses on failure; those
// bytes are attacker-influenced and must not forge log entries.
func SanitizeLogString(s string) string {
	// Remove newlines and carriage returns to prevent log injection
	s = strings.ReplaceAll(s, "\n", "\\n")
	s = strings.ReplaceAll(s, "\r", "\\r")
	// Remove ANSI escape sequences
	s = ansiRegex.ReplaceAllString(s, "")
	// Limit length to prevent log flooding
	const maxLogLength = 500
	if len(s) > maxLogLength {
		s = s[:maxLogLength] + "...[truncated]"
	}
	return s
}
