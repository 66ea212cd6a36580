// Package auth issues and verifies the bearer tokens that identify every
// back-office request.
package auth

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for a missing, malformed, expired, or
// wrongly-signed token.
var ErrInvalidToken = errors.New("invalid or expired token")

// DefaultTTL is how long issued tokens stay valid.
const DefaultTTL = 24 * time.Hour

// claims is the JWT payload: the user ID in the subject plus the username
// for log readability. Role is NOT embedded; it is re-read from the users
// table on every request so revocations and role changes apply immediately.
type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenIssuer creates and verifies HS256-signed bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates a TokenIssuer with the given HMAC secret and token
// lifetime. A non-positive ttl falls back to DefaultTTL.
func NewTokenIssuer(secret []byte, ttl time.Duration) *TokenIssuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs a token for the given user.
func (i *TokenIssuer) Issue(userID, username string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}
	return signed, nil
}

// Verify parses and validates a token and returns the user ID it was issued
// for.
func (i *TokenIssuer) Verify(tokenString string) (string, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return i.now() }))
	if err != nil || !token.Valid || c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}
