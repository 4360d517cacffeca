// Package grant implements the short-lived authorization-code store. A code
// is a one-time, ten-minute handle to the pending grant it was issued for:
// the first redemption consumes it, every later redemption fails.
package grant

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// DefaultTTL is the validity window for authorization codes.
const DefaultTTL = 10 * time.Minute

// codeBytes gives 256 bits of entropy, rendered as 64 hex characters.
const codeBytes = 32

// ErrNotFound is returned when a code never existed, was already redeemed,
// or has expired. The three cases are deliberately indistinguishable.
var ErrNotFound = errors.New("authorization code not found or expired")

// Grant is the record behind a pending authorization code. Grants are
// immutable once issued.
type Grant struct {
	Code        string
	ProviderID  string
	ClientID    string
	RedirectURI string
	Scope       string
	CreatedAt   time.Time
	TTL         time.Duration
}

// expired reports whether the grant's validity window has elapsed.
func (g *Grant) expired(now time.Time) bool {
	return now.After(g.CreatedAt.Add(g.TTL))
}

// Store maps opaque authorization codes to pending grants. All operations
// are safe for concurrent use; redemption is an atomic lookup-and-delete,
// so no two concurrent redemptions of the same code can both succeed.
type Store struct {
	mu     sync.Mutex
	grants map[string]*Grant
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates an empty code store. A non-positive ttl falls back to
// DefaultTTL.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		grants: make(map[string]*Grant),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue generates a fresh authorization code, records the grant under it,
// and returns the code. The caller-supplied grant fields are copied; Code,
// CreatedAt, and TTL are filled in here.
func (s *Store) Issue(g Grant) (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	code := hex.EncodeToString(buf)

	g.Code = code
	g.CreatedAt = s.now()
	g.TTL = s.ttl

	s.mu.Lock()
	s.grants[code] = &g
	s.mu.Unlock()

	return code, nil
}

// Redeem atomically looks up and removes the grant for code. Expired
// entries are deleted on lookup and reported as ErrNotFound, identically
// to codes that never existed.
func (s *Store) Redeem(code string) (*Grant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.grants[code]
	if !ok {
		return nil, ErrNotFound
	}
	delete(s.grants, code)

	if g.expired(s.now()) {
		return nil, ErrNotFound
	}
	return g, nil
}

// Len returns the number of pending grants, including any not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.grants)
}

// Sweep removes every expired grant and returns how many were evicted.
// Sweeping is an optimization only; Redeem performs the same expiry check
// lazily and stays correct without it.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for code, g := range s.grants {
		if g.expired(now) {
			delete(s.grants, code)
			evicted++
		}
	}
	return evicted
}

// RunSweeper periodically calls Sweep until ctx is canceled. Intended to be
// started as a goroutine at process startup.
func (s *Store) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
