// Package sessions declares the server-side repository contract for login
// sessions, with PostgreSQL and Redis implementations.
package sessions

import (
	"context"
	"time"

	"github.com/dmitrijs2005/affinity/internal/server/models"
)

// Repository defines operations for storing, resolving and revoking sessions.
type Repository interface {
	// Create stores a new session. Tokens are unique; a duplicate yields
	// common.ErrorAlreadyExists.
	Create(ctx context.Context, session *models.Session) error

	// Find looks up a session by its token. Implementations return
	// common.ErrorNotFound when the token is absent. Expired sessions may
	// still be returned; callers check Expired.
	Find(ctx context.Context, token string) (*models.Session, error)

	// Delete removes a session by its token. Deleting a non-existent
	// session is not an error.
	Delete(ctx context.Context, token string) error

	// DeleteByUser removes every session owned by userID and reports how
	// many were removed.
	DeleteByUser(ctx context.Context, userID string) (int64, error)

	// DeleteExpired purges sessions that expired at or before now.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
