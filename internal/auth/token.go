package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when a credential fails signature or format
	// verification.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrMissingSubject is returned when a credential verifies but carries no
	// subject claim.
	ErrMissingSubject = errors.New("auth: token has no subject")
)

// Tokens mints and verifies HS256 bearer tokens. The secret and algorithm are
// fixed at construction; Verify is a pure function of the credential.
type Tokens struct {
	secret []byte
	ttl    time.Duration
}

// NewTokens creates a token codec with the given shared secret and lifetime.
func NewTokens(secret string, ttl time.Duration) *Tokens {
	return &Tokens{secret: []byte(secret), ttl: ttl}
}

// Sign issues a token whose subject is the given identity.
func (t *Tokens) Sign(identity string) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   identity,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.ttl)),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString(t.secret)
}

// Verify checks the credential and returns the identity embedded at issuance.
func (t *Tokens) Verify(credential string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(credential, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}
