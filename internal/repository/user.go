package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/webstore-backoffice/internal/domain/user"
)

// UserRepository implements user.Repository on PostgreSQL. The role name is
// resolved through the roles table on every read, so a role change takes
// effect on the user's next request regardless of any token they hold.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `
	u.id, u.username, u.email, u.password_hash, r.name, u.is_active,
	u.created_at, u.updated_at`

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Active,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns users ordered by creation time.
func (r *UserRepository) List(ctx context.Context, page, limit int) ([]user.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "count users")
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN roles r ON r.id = u.role_id
		ORDER BY u.created_at DESC
		LIMIT $1 OFFSET $2`,
		limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, errors.Wrap(err, "query users")
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, "scan user")
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// GetByID returns one user.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.id = $1`,
		id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user")
	}
	return u, nil
}

// GetByEmail returns one user looked up by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users u
		JOIN roles r ON r.id = u.role_id
		WHERE u.email = $1`,
		email,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "query user by email")
	}
	return u, nil
}

// Create persists a new user, resolving the role name to its id.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, email, password_hash, role_id, is_active)
		SELECT $1, $2, $3, $4, r.id, $6
		FROM roles r WHERE r.name = $5`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.Active,
	)
	if isUniqueViolation(err, "") {
		return user.ErrExists
	}
	if err != nil {
		return errors.Wrap(err, "insert user")
	}
	if tag.RowsAffected() == 0 {
		return user.ErrInvalidRole
	}
	return nil
}

// Update applies the patch, resolving a role name to its id when present,
// and returns the fresh row.
func (r *UserRepository) Update(ctx context.Context, id string, p user.Patch) (*user.User, error) {
	if p.Role != nil && !user.ValidRole(*p.Role) {
		return nil, user.ErrInvalidRole
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE users SET
			username = COALESCE($2, username),
			email = COALESCE($3, email),
			role_id = COALESCE((SELECT id FROM roles WHERE name = $4), role_id),
			updated_at = now()
		WHERE id = $1`,
		id, p.Username, p.Email, p.Role,
	)
	if isUniqueViolation(err, "") {
		return nil, user.ErrExists
	}
	if err != nil {
		return nil, errors.Wrap(err, "update user")
	}
	if tag.RowsAffected() == 0 {
		return nil, user.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`,
		id, hash,
	)
	if err != nil {
		return errors.Wrap(err, "update user password")
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

// SetActive flips the account's active flag.
func (r *UserRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET is_active = $2, updated_at = now() WHERE id = $1`,
		id, active,
	)
	if err != nil {
		return errors.Wrap(err, "update user active flag")
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}
