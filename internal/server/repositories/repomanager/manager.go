package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/affinity/internal/dbx"
	"github.com/dmitrijs2005/affinity/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/affinity/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
	// SessionsInTx reports whether Sessions(tx) participates in a SQL
	// transaction passed as db.
	SessionsInTx() bool
}
