package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/affinity/internal/common"
	"github.com/dmitrijs2005/affinity/internal/dbx"
	"github.com/dmitrijs2005/affinity/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	user := &models.User{}
	var role string
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &role, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	user.Role = models.Role(role)
	return user, nil
}

func wrapError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return common.ErrorAlreadyExists
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (id, name, email, password_hash, role)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, string(user.Role)).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return nil, wrapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT id, name, email, password_hash, role, created_at, updated_at FROM users
		 WHERE email = $1
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, wrapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query :=
		`SELECT id, name, email, password_hash, role, created_at, updated_at FROM users
		 WHERE id = $1
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, wrapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id string, hash []byte) error {
	query :=
		`UPDATE users SET password_hash = $2, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return wrapError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return wrapError(err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, name string, email string) (*models.User, error) {
	query :=
		`UPDATE users SET name = $2, email = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, email, password_hash, role, created_at, updated_at
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, name, email))
	if err != nil {
		return nil, wrapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	query :=
		`UPDATE users SET role = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, email, password_hash, role, created_at, updated_at
		 `

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, string(role)))
	if err != nil {
		return nil, wrapError(err)
	}

	return user, nil
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.User, error) {
	query :=
		`SELECT id, name, email, password_hash, role, created_at, updated_at FROM users
		 ORDER BY created_at, email
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, wrapError(err)
	}
	defer rows.Close()

	var result []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) HasRole(ctx context.Context, role models.Role) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, string(role)).Scan(&exists); err != nil {
		return false, wrapError(err)
	}

	return exists, nil
}
