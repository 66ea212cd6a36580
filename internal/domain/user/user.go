// Package user holds back-office user accounts and their roles.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Role names. Roles gate write access to the catalog, discounts, clients,
// and user administration.
const (
	RoleAdmin    = "admin"
	RoleAdvanced = "advanced_user"
	RoleSimple   = "simple_user"
)

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrExists is returned when the email or username is already taken.
	ErrExists = errors.New("a user with this email or username already exists")
	// ErrInvalidRole is returned for an unknown role name.
	ErrInvalidRole = errors.New("invalid role")
)

// User is a back-office account.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole reports whether name is a known role.
func ValidRole(name string) bool {
	switch name {
	case RoleAdmin, RoleAdvanced, RoleSimple:
		return true
	}
	return false
}

// Patch carries the fields an admin may change on an existing account. Nil
// fields keep their current value.
type Patch struct {
	Username *string
	Email    *string
	Role     *string
}

// Repository defines persistence operations for users.
type Repository interface {
	List(ctx context.Context, page, limit int) ([]User, int, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	Update(ctx context.Context, id string, p Patch) (*User, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	SetActive(ctx context.Context, id string, active bool) error
}
