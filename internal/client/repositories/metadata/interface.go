// Package metadata stores small pieces of CLI state (the session secret, the
// signed-in email) in the local sqlite database.
package metadata

import (
	"context"
)

// Keys used by the CLI.
const (
	KeySession = "session"
	KeyEmail   = "email"
)

type Repository interface {
	// Get returns ok=false when key is not set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}
