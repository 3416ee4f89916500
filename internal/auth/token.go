// Package auth stores the bearer token used against the remote API and
// inspects its claims.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"resumetailor/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the token fields the client cares about
type Claims struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token has an expiry that is not after now
func (c *Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !c.ExpiresAt.After(now)
}

// Inspect reads the claims of a JWT without verifying its signature. The
// remote API owns the key; the client only needs the expiry and subject.
func Inspect(token string) (*Claims, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims := &Claims{}
	if sub, err := parsed.Claims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if exp, err := parsed.Claims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	return claims, nil
}

// TokenStore keeps the token in a file, with an optional static token
// taking precedence
type TokenStore struct {
	path   string
	static string
	now    func() time.Time
}

// NewTokenStore creates a store backed by path. A non-empty static token
// (from config or Vault) overrides the file.
func NewTokenStore(path, static string) *TokenStore {
	return &TokenStore{
		path:   path,
		static: strings.TrimSpace(static),
		now:    time.Now,
	}
}

// Path returns the token file location
func (s *TokenStore) Path() string {
	return s.path
}

// Load returns the stored token, or "" when there is none
func (s *TokenStore) Load() (string, error) {
	if s.static != "" {
		return s.static, nil
	}
	if s.path == "" {
		return "", nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read token file", err).
			WithContext("path", s.path)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes token to the token file with owner-only permissions
func (s *TokenStore) Save(token string) error {
	if s.path == "" {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "token file path is not configured", nil)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to create token directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".token-*")
	if err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to create token file", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(strings.TrimSpace(token) + "\n"); err != nil {
		_ = tmp.Close()
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to write token file", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		_ = tmp.Close()
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to set token file permissions", err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to close token file", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to store token file", err)
	}
	return nil
}

// Clear removes the token file
func (s *TokenStore) Clear() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.NewIOError(errors.ErrCodeFileNotWritable, "failed to remove token file", err)
	}
	return nil
}

// Current returns a usable token. It fails with UNAUTHENTICATED when no
// token is stored and TOKEN_EXPIRED when a JWT has expired. Opaque tokens
// are passed through unchecked.
func (s *TokenStore) Current() (string, error) {
	token, err := s.Load()
	if err != nil {
		return "", err
	}
	if token == "" {
		return "", errors.NewAuthError(errors.ErrCodeUnauthenticated, "not logged in", nil)
	}
	claims, err := Inspect(token)
	if err != nil {
		return token, nil
	}
	if claims.Expired(s.now()) {
		return "", errors.NewAuthError(errors.ErrCodeTokenExpired, "session token has expired", nil).
			WithContext("expired_at", claims.ExpiresAt.Format(time.RFC3339))
	}
	return token, nil
}

// IsAuthenticated reports whether a usable token is available
func (s *TokenStore) IsAuthenticated() bool {
	_, err := s.Current()
	return err == nil
}

// Optional returns the current token or "" when there is no usable one
func (s *TokenStore) Optional() string {
	token, err := s.Current()
	if err != nil {
		return ""
	}
	return token
}
