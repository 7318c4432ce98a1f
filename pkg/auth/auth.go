// Package auth handles password hashing and bearer-token issuance/
// verification for the control plane's HTTP API.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials means a username/password pair did not match.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrInvalidToken means a bearer token failed to parse or verify, or its
// claims were malformed.
var ErrInvalidToken = errors.New("auth: invalid token")

// Config controls token signing.
type Config struct {
	SigningKey string
	TTL        time.Duration
}

// TokenIssuer issues and verifies HS256 JWTs. Password hashing is done by
// the package-level HashPassword and VerifyPassword.
type TokenIssuer struct {
	key []byte
	ttl time.Duration
}

// New returns a TokenIssuer. ttl defaults to 30 minutes if zero, matching
// the control plane's default session length.
func New(cfg Config) *TokenIssuer {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = 30 * time.Minute
	}
	return &TokenIssuer{key: []byte(cfg.SigningKey), ttl: ttl}
}

// HashPassword bcrypt-hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}

// claims is the JWT payload: "sub" carries the username, matching the
// original service's token shape.
type claims struct {
	jwt.RegisteredClaims
}

// IssueToken returns a signed bearer token for username.
func (t *TokenIssuer) IssueToken(username string) (string, error) {
	now := time.Now()
	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(t.key)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates token, returning the username it was
// issued for.
func (t *TokenIssuer) VerifyToken(token string) (string, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: unexpected signing method %v", ErrInvalidToken, tok.Header["alg"])
		}
		return t.key, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if c.Subject == "" {
		return "", ErrInvalidToken
	}
	return c.Subject, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(authorization string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authorization, prefix) {
		return "", fmt.Errorf("%w: missing Bearer prefix", ErrInvalidToken)
	}
	token := strings.TrimPrefix(authorization, prefix)
	if token == "" {
		return "", fmt.Errorf("%w: empty token", ErrInvalidToken)
	}
	return token, nil
}
