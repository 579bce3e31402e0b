// Package normalize provides canonical forms for user-entered identity
// fields. Email is the merge key for accounts, so every path that accepts an
// email (signup, signin, Google profile, share targets) must normalize it the
// same way before lookup or storage.
package normalize

import "strings"

// Email lowercases and trims an email address. Two emails refer to the same
// account iff their normalized forms are equal.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// AuthMethod lowercases and trims an auth method value.
func AuthMethod(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
