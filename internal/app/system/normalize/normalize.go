// Package normalize produces the canonical uppercased keys used for
// case-insensitive identity lookups. The stored normalized_user_name /
// normalized_email / normalized_name fields and every query against them
// must pass through the same function so comparisons stay consistent no
// matter which side normalized first.
package normalize

import "strings"

// Key trims surrounding whitespace and uppercases the input. It is the
// single canonicalization used for user names, emails, and role names.
func Key(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// UserName returns the canonical lookup key for a user name.
func UserName(s string) string { return Key(s) }

// Email returns the canonical lookup key for an email address.
func Email(s string) string { return Key(s) }

// RoleName returns the canonical lookup key for a role name.
func RoleName(s string) string { return Key(s) }
