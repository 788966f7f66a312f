// Package identity turns the credential a client presents into the login it plays as.
package identity

//go:generate mockgen -package=mocks -destination=mocks/mock_verifier.go github.com/KirkDiggler/horserace/internal/common/identity Verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// IdentityError is a custom error type for identity errors
type IdentityError string

func (e IdentityError) Error() string {
	return string(e)
}

const (
	ErrNilConfig         IdentityError = "config cannot be nil"
	ErrEmptySecret       IdentityError = "signing secret cannot be empty"
	ErrEmptyLogin        IdentityError = "login cannot be empty"
	ErrInvalidCredential IdentityError = "invalid credential"
	ErrExpiredCredential IdentityError = "credential expired"
	ErrMissingCredential IdentityError = "credential is required"
)

const (
	DefaultIssuer        = "horserace"
	DefaultCredentialTTL = 24 * time.Hour

	signingMethod = "HS256"
)

// Verifier resolves a credential to a login
type Verifier interface {
	Verify(ctx context.Context, credential string) (string, error)
}

// Config holds configuration for the JWT verifier
type Config struct {
	// Secret signs and verifies HS256 tokens
	Secret []byte

	Issuer string

	// TTL is the lifetime of issued tokens
	TTL time.Duration

	// Now is optional, used by tests
	Now func() time.Time
}

// JWT issues and verifies HS256 tokens whose subject is the login
type JWT struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// New creates a new JWT verifier
func New(cfg *Config) (*JWT, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if len(cfg.Secret) == 0 {
		return nil, ErrEmptySecret
	}

	j := &JWT{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		ttl:    cfg.TTL,
		now:    cfg.Now,
	}
	if j.issuer == "" {
		j.issuer = DefaultIssuer
	}
	if j.ttl <= 0 {
		j.ttl = DefaultCredentialTTL
	}
	if j.now == nil {
		j.now = time.Now
	}
	return j, nil
}

// Issue signs a token for login
func (j *JWT) Issue(login string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return "", ErrEmptyLogin
	}

	now := j.now()
	claims := jwt.RegisteredClaims{
		Issuer:    j.issuer,
		Subject:   login,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify implements Verifier
func (j *JWT) Verify(_ context.Context, credential string) (string, error) {
	credential = strings.TrimSpace(strings.TrimPrefix(credential, "Bearer "))
	if credential == "" {
		return "", ErrMissingCredential
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(credential, &claims, func(*jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{signingMethod}),
		jwt.WithIssuer(j.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredCredential
		}
		return "", fmt.Errorf("%w: %w", ErrInvalidCredential, err)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidCredential
	}
	return claims.Subject, nil
}

// Trusted takes the credential as the login itself, for local play without a secret
type Trusted struct{}

// Verify implements Verifier
func (Trusted) Verify(_ context.Context, credential string) (string, error) {
	login := strings.TrimSpace(credential)
	if login == "" {
		return "", ErrMissingCredential
	}
	return login, nil
}
