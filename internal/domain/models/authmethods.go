// internal/domain/models/authmethods.go
package models

// Auth method values stored on User.AuthMethod. The value reflects the most
// recent successful authentication, not the set of methods the account holds.
const (
	AuthMethodPassword = "password"
	AuthMethodGoogle   = "google"
)

// IsValidAuthMethod checks if a value is a supported auth method.
func IsValidAuthMethod(value string) bool {
	return value == AuthMethodPassword || value == AuthMethodGoogle
}
