// Package auth supplies the access token every remote analysis call requires.
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"resumetailor/internal/config"
	"resumetailor/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

// User-facing authorization messages
const (
	MsgNotAuthenticated = "Not authenticated. Please sign in and try again."
	MsgSessionExpired   = "Session expired. Please sign in again."
)

// Provider returns the access token of the current identity session
type Provider interface {
	AccessToken(ctx context.Context) (string, error)
	Close() error
}

// SecretReader reads a string value from a secret store
type SecretReader interface {
	GetStringSecret(path, key string) (string, error)
}

// New builds the provider selected by the auth configuration
func New(cfg config.AuthConfig, secrets SecretReader, logger *errors.Logger) (Provider, error) {
	switch cfg.Mode {
	case "", "static":
		return NewStatic(cfg.AccessToken, cfg.ExpiryLeeway), nil
	case "file":
		return NewFileSession(cfg.TokenFile, cfg.ExpiryLeeway, logger)
	case "vault":
		if secrets == nil {
			return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "vault auth mode requires a vault client", nil)
		}
		return NewVaultSession(secrets, cfg.VaultPath, cfg.VaultKey, cfg.ExpiryLeeway), nil
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, fmt.Sprintf("unknown auth mode: %s", cfg.Mode), nil)
	}
}

// checkToken rejects missing tokens and JWTs whose exp claim has passed.
// Tokens that are not JWTs are passed through untouched.
func checkToken(token string, leeway time.Duration, now time.Time) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errors.NewAuthError(errors.ErrCodeNoActiveSession, MsgNotAuthenticated, nil)
	}

	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return token, nil
	}
	if claims.ExpiresAt != nil && !now.Add(leeway).Before(claims.ExpiresAt.Time) {
		return "", errors.NewAuthError(errors.ErrCodeSessionExpired, MsgSessionExpired, nil).
			WithContext("expired_at", claims.ExpiresAt.Time.Format(time.RFC3339))
	}
	return token, nil
}

// Static serves a token fixed at construction time
type Static struct {
	token  string
	leeway time.Duration
	now    func() time.Time
}

// NewStatic creates a provider for a fixed token; an empty token means signed out
func NewStatic(token string, leeway time.Duration) *Static {
	return &Static{token: token, leeway: leeway, now: time.Now}
}

func (s *Static) AccessToken(ctx context.Context) (string, error) {
	return checkToken(s.token, s.leeway, s.now())
}

func (s *Static) Close() error { return nil }

// VaultSession reads the token from a Vault KVv2 secret on every call so
// rotations are picked up without a restart
type VaultSession struct {
	secrets SecretReader
	path    string
	key     string
	leeway  time.Duration
	now     func() time.Time
}

// NewVaultSession creates a provider backed by a Vault secret
func NewVaultSession(secrets SecretReader, path, key string, leeway time.Duration) *VaultSession {
	if key == "" {
		key = "access_token"
	}
	return &VaultSession{secrets: secrets, path: path, key: key, leeway: leeway, now: time.Now}
}

func (v *VaultSession) AccessToken(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	token, err := v.secrets.GetStringSecret(v.path, v.key)
	if err != nil {
		return "", errors.NewAuthError(errors.ErrCodeNoActiveSession, MsgNotAuthenticated, err).
			WithContext("vault_path", v.path)
	}
	return checkToken(token, v.leeway, v.now())
}

func (v *VaultSession) Close() error { return nil }
