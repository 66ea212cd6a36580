package auth

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/xenking/webstore-backoffice/internal/domain/user"
)

// ErrInvalidCredentials is returned when the email/password pair does not
// match an active account. Deliberately indistinguishable between "no such
// user" and "wrong password".
var ErrInvalidCredentials = errors.New("invalid email or password")

// Identity is the verified caller attached to a request. Handlers pass it
// explicitly into workflow calls; domain code never digs it out of a
// request-scoped global.
type Identity struct {
	UserID   string
	Username string
	Role     string
}

// HasRole reports whether the identity holds any of the given roles.
func (id *Identity) HasRole(roles ...string) bool {
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}

// RegisterRequest holds the input for creating an account.
type RegisterRequest struct {
	Username string
	Email    string
	Password string
	Role     string
}

// Service implements registration, login, and per-request authentication.
type Service struct {
	users  user.Repository
	tokens *TokenIssuer
}

// NewService creates an auth Service.
func NewService(users user.Repository, tokens *TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a user with a bcrypt-hashed password and returns the
// account plus a signed token.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*user.User, string, error) {
	role := req.Role
	if role == "" {
		role = user.RoleSimple
	}
	if !user.ValidRole(role) {
		return nil, "", user.ErrInvalidRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", errors.Wrap(err, "hash password")
	}

	u := &user.User{
		ID:           uuid.New().String(),
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hash),
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// ResetPassword replaces the user's password with an admin-chosen one. Any
// previously issued token keeps working until it expires; only the
// credentials change.
func (s *Service) ResetPassword(ctx context.Context, id, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash password")
	}
	return s.users.UpdatePassword(ctx, id, string(hash))
}

// Login verifies the credentials against an active account and returns the
// account plus a signed token.
func (s *Service) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", errors.Wrap(err, "lookup user")
	}
	if !u.Active {
		return nil, "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u.ID, u.Username)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// Authenticate verifies a bearer token and re-reads the account so that
// deactivations and role changes take effect immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (*Identity, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, errors.Wrap(err, "lookup user")
	}
	if !u.Active {
		return nil, ErrInvalidToken
	}

	return &Identity{UserID: u.ID, Username: u.Username, Role: u.Role}, nil
}
