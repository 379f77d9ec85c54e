// Package auth builds and verifies the signed access tokens handed out at
// login, and verifies passwords against stored bcrypt hashes.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/schoolauth/internal/common"
	"github.com/dmitrijs2005/schoolauth/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAccessTokenTTL applies when neither the caller nor the
// configuration supplies a positive lifetime.
const DefaultAccessTokenTTL = 15 * time.Minute

// SupportedAlgorithms lists the accepted signing algorithm identifiers.
var SupportedAlgorithms = []string{"HS256", "HS384", "HS512"}

// Claims is the signed claim set: sub, exp, iat, jti and the user's role.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role,omitempty"`
}

// Token is a freshly issued bearer credential.
type Token struct {
	Value     string
	ID        string
	Subject   string
	Role      models.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Issuer signs and verifies access tokens with a symmetric secret.
// It is immutable after construction and safe for concurrent use.
type Issuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer validates the signing configuration. A non-positive ttl falls
// back to DefaultAccessTokenTTL.
func NewIssuer(secret []byte, algorithm string, ttl time.Duration) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("%w: empty signing secret", common.ErrInvalidConfig)
	}
	method, err := SigningMethod(algorithm)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &Issuer{
		secret: append([]byte(nil), secret...),
		method: method,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// SigningMethod resolves an HMAC algorithm identifier such as "HS256".
func SigningMethod(algorithm string) (jwt.SigningMethod, error) {
	m, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported signing algorithm %q", common.ErrInvalidConfig, algorithm)
	}
	return m, nil
}

// TTL reports the configured token lifetime.
func (i *Issuer) TTL() time.Duration { return i.ttl }

// Issue signs a new token for subject. ttl <= 0 means the configured
// lifetime. Timestamps are truncated to whole seconds, the precision of the
// exp claim, so ExpiresAt equals the decoded exp exactly.
func (i *Issuer) Issue(subject string, role models.Role, ttl time.Duration) (*Token, error) {
	if ttl <= 0 {
		ttl = i.ttl
	}
	now := i.now().Truncate(time.Second)
	expiresAt := now.Add(ttl)
	id := uuid.NewString()

	token := jwt.NewWithClaims(i.method, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        id,
		},
		Role: role,
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrSigning, err)
	}

	return &Token{
		Value:     signed,
		ID:        id,
		Subject:   subject,
		Role:      role,
		IssuedAt:  now,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse verifies signature, algorithm and expiry. Expired tokens yield
// common.ErrTokenExpired; anything else wrong yields common.ErrInvalidToken.
func (i *Issuer) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrInvalidToken
	}

	return claims, nil
}
