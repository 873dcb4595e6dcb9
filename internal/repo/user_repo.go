package repo

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wilmerjaviers/T387-IS-PROYECTO/internal/domain"
)

// UserRepo provides user persistence. Queries join the roles table so the
// domain entity always carries the role name.
type UserRepo interface {
	Create(ctx context.Context, username, email, passwordHash string, role domain.Role) (domain.User, error)
	GetActiveByUsername(ctx context.Context, username string) (domain.User, error)
	GetActiveByID(ctx context.Context, id int64) (domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	ListActive(ctx context.Context) ([]domain.User, error)
	SetActive(ctx context.Context, id int64, active bool) error
	RoleExists(ctx context.Context, role domain.Role) (bool, error)
}

const userColumns = `u.id, u.username, u.email, u.password_hash, u.is_active, r.name, u.created_at, u.updated_at`

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	db *pgxpool.Pool
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(db *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{db: db}
}

func scanUser(row pgx.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// Create inserts a new user referencing the named role and returns it.
func (r *PGUserRepo) Create(ctx context.Context, username, email, passwordHash string, role domain.Role) (domain.User, error) {
	query := `
		WITH inserted AS (
			INSERT INTO users (username, email, password_hash, role_id)
			VALUES ($1, $2, $3, (SELECT id FROM roles WHERE name = $4))
			RETURNING id, username, email, password_hash, is_active, role_id, created_at, updated_at
		)
		SELECT u.id, u.username, u.email, u.password_hash, u.is_active, r.name, u.created_at, u.updated_at
		FROM inserted u JOIN roles r ON u.role_id = r.id`
	return scanUser(r.db.QueryRow(ctx, query, username, email, passwordHash, role))
}

// GetActiveByUsername returns the active user by exact username match.
func (r *PGUserRepo) GetActiveByUsername(ctx context.Context, username string) (domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u JOIN roles r ON u.role_id = r.id
		WHERE u.username = $1 AND u.is_active = TRUE`
	return scanUser(r.db.QueryRow(ctx, query, username))
}

// GetActiveByID returns the active user by id. Deactivated and missing
// users both come back as pgx.ErrNoRows, which is what makes outstanding
// tokens of a deactivated user unusable.
func (r *PGUserRepo) GetActiveByID(ctx context.Context, id int64) (domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u JOIN roles r ON u.role_id = r.id
		WHERE u.id = $1 AND u.is_active = TRUE`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// List returns all users, newest first.
func (r *PGUserRepo) List(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u JOIN roles r ON u.role_id = r.id
		ORDER BY u.created_at DESC`
	return r.queryUsers(ctx, query)
}

// ListActive returns active users ordered by username, for assignment pickers.
func (r *PGUserRepo) ListActive(ctx context.Context) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u JOIN roles r ON u.role_id = r.id
		WHERE u.is_active = TRUE
		ORDER BY u.username`
	return r.queryUsers(ctx, query)
}

// SetActive flips the active flag. Missing user yields pgx.ErrNoRows.
func (r *PGUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// RoleExists reports whether the role name resolves in the roles table.
func (r *PGUserRepo) RoleExists(ctx context.Context, role domain.Role) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM roles WHERE name = $1)`, role).Scan(&exists)
	return exists, err
}

func (r *PGUserRepo) queryUsers(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
