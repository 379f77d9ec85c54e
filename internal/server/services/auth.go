// Package services contains server-side business logic. This file implements
// AuthService, which verifies credentials and issues access tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/schoolauth/internal/common"
	"github.com/dmitrijs2005/schoolauth/internal/logging"
	"github.com/dmitrijs2005/schoolauth/internal/server/auth"
	"github.com/dmitrijs2005/schoolauth/internal/server/models"
)

// UserResolver looks a username up across the user collections.
type UserResolver interface {
	Resolve(ctx context.Context, userName string) (*models.User, error)
}

// PasswordVerifier checks a plaintext password against a stored hash.
type PasswordVerifier interface {
	Verify(hashedPassword, password string) bool
	VerifyMissing(password string)
}

// TokenIssuer signs and verifies access tokens.
type TokenIssuer interface {
	Issue(subject string, role models.Role, ttl time.Duration) (*auth.Token, error)
	Parse(token string) (*auth.Claims, error)
	TTL() time.Duration
}

// Session is the outcome of a successful login.
type Session struct {
	User  *models.User
	Token *auth.Token
}

// AuthService provides the login protocol:
// - Authenticate: resolve the user and verify the password
// - Login: authenticate and mint an access token
// - Identify: decode a presented access token
type AuthService struct {
	resolver UserResolver
	hasher   PasswordVerifier
	issuer   TokenIssuer
	logger   logging.Logger
}

// NewAuthService wires the resolver, password verifier and token issuer.
func NewAuthService(r UserResolver, h PasswordVerifier, i TokenIssuer, l logging.Logger) *AuthService {
	return &AuthService{
		resolver: r,
		hasher:   h,
		issuer:   i,
		logger:   l.With("module", "auth"),
	}
}

// Authenticate returns the matching user, common.ErrorUnauthorized when the
// user is unknown or the password is wrong (the two are indistinguishable),
// or common.ErrStoreUnavailable when the lookup itself failed.
func (s *AuthService) Authenticate(ctx context.Context, userName, password string) (*models.User, error) {
	s.logger.Debug(ctx, "resolving user", "username", userName)

	user, err := s.resolver.Resolve(ctx, userName)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorNotFound):
			s.hasher.VerifyMissing(password)
			s.logger.Info(ctx, "login rejected", "username", userName)
			return nil, common.ErrorUnauthorized
		case errors.Is(err, common.ErrStoreUnavailable):
			s.logger.Error(ctx, "user lookup failed", "username", userName, "error", err)
			return nil, common.ErrStoreUnavailable
		default:
			// context cancellation
			return nil, err
		}
	}

	if !s.hasher.Verify(user.HashedPassword, password) {
		s.logger.Info(ctx, "login rejected", "username", userName)
		return nil, common.ErrorUnauthorized
	}

	s.logger.Debug(ctx, "user authenticated", "username", userName, "role", user.Role)
	return user, nil
}

// Login authenticates and issues a token with the configured lifetime.
func (s *AuthService) Login(ctx context.Context, userName, password string) (*Session, error) {
	user, err := s.Authenticate(ctx, userName, password)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.Issue(user.UserName, user.Role, 0)
	if err != nil {
		s.logger.Error(ctx, "token issuing failed", "username", userName, "error", err)
		if errors.Is(err, common.ErrSigning) {
			return nil, common.ErrSigning
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "login accepted", "username", userName, "role", user.Role)
	return &Session{User: user, Token: token}, nil
}

// Identify decodes an access token presented by a client. It does not
// consult the user store.
func (s *AuthService) Identify(ctx context.Context, token string) (*auth.Claims, error) {
	if token == "" {
		return nil, common.ErrInvalidToken
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "error", err)
		return nil, err
	}
	return claims, nil
}

// TokenTTL is the lifetime of tokens issued by Login.
func (s *AuthService) TokenTTL() time.Duration { return s.issuer.TTL() }
