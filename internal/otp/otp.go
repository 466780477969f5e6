// Package otp issues and verifies the one-time login codes that gate token
// issuance. Codes are short-lived, single-use, and only their bcrypt hashes
// are ever stored.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Vjnishad/mescon/internal/store"
)

var (
	// ErrNoPending is returned when no code was requested for the number or
	// the code has expired.
	ErrNoPending = errors.New("otp: no pending code")
	// ErrMismatch is returned when the submitted code does not match.
	ErrMismatch = errors.New("otp: code mismatch")
)

// Cache stores pending code hashes with a TTL. Implemented by
// store.RedisStore and by MemoryCache for single-process deployments without
// Redis.
type Cache interface {
	SetOTP(ctx context.Context, mobile, hash string, ttl time.Duration) error
	GetOTP(ctx context.Context, mobile string) (string, error)
	DeleteOTP(ctx context.Context, mobile string) error
}

// Issuer generates and checks login codes.
type Issuer struct {
	cache Cache
	ttl   time.Duration
}

// NewIssuer creates an issuer backed by the given cache.
func NewIssuer(cache Cache, ttl time.Duration) *Issuer {
	return &Issuer{cache: cache, ttl: ttl}
}

// Issue generates a fresh 6-digit code for the number, stores its hash and
// returns the plaintext code for out-of-band delivery. A previous pending
// code for the same number is replaced.
func (i *Issuer) Issue(ctx context.Context, mobile string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	if err := i.cache.SetOTP(ctx, mobile, string(hash), i.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Verify checks a submitted code and consumes it on success.
func (i *Issuer) Verify(ctx context.Context, mobile, code string) error {
	hash, err := i.cache.GetOTP(ctx, mobile)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoPending
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)); err != nil {
		return ErrMismatch
	}

	// Single use: drop the code before the caller mints a token.
	return i.cache.DeleteOTP(ctx, mobile)
}
