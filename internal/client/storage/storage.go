// Package storage holds the durable client-side credential store. The
// gateway persists the token pair and minimal user record here so a
// restarted client comes back up authenticated.
package storage

import "context"

// Fixed keys under which the credential state lives.
const (
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUser         = "user"
)

// Store is a small key/value metadata store. Get returns (nil, nil) for a
// missing key. Clear removes every key atomically.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
