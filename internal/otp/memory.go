package otp

import (
	"context"
	"sync"
	"time"

	"github.com/Vjnishad/mescon/internal/store"
)

type memoryEntry struct {
	hash      string
	expiresAt time.Time
}

// MemoryCache is an in-process Cache used when Redis is not configured.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	nowFn   func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		nowFn:   time.Now,
	}
}

// SetOTP stores a code hash, replacing any previous one for the number.
func (c *MemoryCache) SetOTP(_ context.Context, mobile, hash string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[mobile] = memoryEntry{hash: hash, expiresAt: c.nowFn().Add(ttl)}
	return nil
}

// GetOTP retrieves a code hash, honouring expiry.
func (c *MemoryCache) GetOTP(_ context.Context, mobile string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[mobile]
	if !ok {
		return "", store.ErrNotFound
	}
	if c.nowFn().After(entry.expiresAt) {
		delete(c.entries, mobile)
		return "", store.ErrNotFound
	}
	return entry.hash, nil
}

// DeleteOTP removes a pending code.
func (c *MemoryCache) DeleteOTP(_ context.Context, mobile string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, mobile)
	return nil
}
