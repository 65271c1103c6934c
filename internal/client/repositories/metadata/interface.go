// Package metadata stores small key/value records in the CLI's local
// database. The CLI keeps its session token and the signed-in user here.
package metadata

import (
	"context"
)

// Repository is a byte-valued key/value store. Get returns
// common.ErrorNotFound for an absent key.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
