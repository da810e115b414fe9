// Package metadata stores small client-side key/value settings such as the
// session token.
package metadata

import (
	"context"
)

// Well-known keys.
const (
	KeyToken       = "token"
	KeyLastRefresh = "firmware_last_refresh"
)

type Repository interface {
	// Get returns ("", false, nil) when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
