package credential

import (
	"sync"
	"time"

	"devauth-go/internal/grant"
	"devauth-go/internal/registry"
	"devauth-go/internal/simulation"
)

// sessionIDBytes gives session identifiers 256 bits of entropy, making
// collisions negligible without a uniqueness check.
const sessionIDBytes = 32

// SessionRecord is the server-side state behind an opaque session ID. The
// profile snapshot is taken at redemption time, so later admin edits to the
// provider's mock data do not leak into existing sessions.
type SessionRecord struct {
	ProviderID string
	SubjectID  string
	Profile    registry.Profile
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// SessionStore owns the session table. Lookup-and-delete on expiry is
// atomic under the store mutex.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*SessionRecord
	now      func() time.Time
}

// NewSessionStore creates an empty session table.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*SessionRecord),
		now:      time.Now,
	}
}

// put stores a record under a freshly generated identifier.
func (st *SessionStore) put(rec *SessionRecord) (string, error) {
	id, err := randomHex(sessionIDBytes)
	if err != nil {
		return "", err
	}
	st.mu.Lock()
	st.sessions[id] = rec
	st.mu.Unlock()
	return id, nil
}

// get returns the live record for id. Expired records are deleted on
// lookup and reported as expired.
func (st *SessionStore) get(id string) (*SessionRecord, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	rec, ok := st.sessions[id]
	if !ok {
		return nil, ErrInvalidCredential
	}
	if st.now().After(rec.ExpiresAt) {
		delete(st.sessions, id)
		return nil, ErrExpired
	}
	return rec, nil
}

// Invalidate removes a session regardless of its expiry state.
func (st *SessionStore) Invalidate(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of stored sessions, expired ones included.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// SessionStrategy issues opaque session identifiers carried in an HTTP-only
// cookie (with a bearer-header fallback at validation).
type SessionStrategy struct {
	store *SessionStore
	ttl   time.Duration
	modes *simulation.Registry
}

// NewSessionStrategy creates a session-cookie strategy over the given store.
// A non-positive ttl falls back to TokenTTL.
func NewSessionStrategy(store *SessionStore, ttl time.Duration, modes *simulation.Registry) *SessionStrategy {
	return &SessionStrategy{store: store, ttl: ttl, modes: modes}
}

// Name implements Strategy.
func (s *SessionStrategy) Name() string { return "session" }

// Issue implements Strategy. The expiredToken failure mode shrinks the
// session lifetime exactly as it does for bearer tokens, so both variants
// exercise client-side expiry handling the same way.
func (s *SessionStrategy) Issue(g *grant.Grant, profile registry.Profile) (*Credential, error) {
	ttl := lifetime(s.modes, s.ttl)
	now := s.store.now()

	id, err := s.store.put(&SessionRecord{
		ProviderID: g.ProviderID,
		SubjectID:  registry.SubjectID(profile),
		Profile:    profile.Clone(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(ttl),
	})
	if err != nil {
		return nil, err
	}

	return &Credential{
		AccessToken: id,
		TokenType:   "Session",
		ExpiresIn:   int(ttl.Seconds()),
		Scope:       g.Scope,
	}, nil
}

// Validate implements Strategy. Validity requires the record to still exist
// and be unexpired; the returned profile is the snapshot taken at issuance.
func (s *SessionStrategy) Validate(presented, providerID string) (registry.Profile, error) {
	if err := intercept(s.modes); err != nil {
		return nil, err
	}

	rec, err := s.store.get(presented)
	if err != nil {
		return nil, err
	}
	if rec.ProviderID != providerID {
		return nil, ErrProviderMismatch
	}
	return rec.Profile, nil
}
