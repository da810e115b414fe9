// Package common contains shared constants and small helpers used across
// the iotadmin client packages.
package common

const (
	// RequestIDHeaderName is the HTTP header carrying a per-request
	// correlation id on outbound API calls.
	RequestIDHeaderName = "X-Request-ID"

	// TokenMetadataKey is the well-known local storage key under which the
	// operator's bearer token is persisted.
	TokenMetadataKey = "token"
)
