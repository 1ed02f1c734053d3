package utils

import "strings"

// NormalizeEmail lowercases and trims an email address. Every lookup and every
// stored credential record goes through this, so "ADA@X.com" and "ada@x.com"
// are the same account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeUsername trims surrounding whitespace from a username.
func NormalizeUsername(username string) string {
	return strings.TrimSpace(username)
}
