// Package credential turns redeemed authorization grants into presentable
// credentials and resolves presented credentials back to identity claims.
// Two interchangeable strategies exist: a signed bearer token (stateless)
// and an opaque identifier backed by a server-side session record.
package credential

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"devauth-go/internal/grant"
	"devauth-go/internal/registry"
	"devauth-go/internal/simulation"
)

const (
	// TokenTTL is the credential lifetime used when none is configured.
	TokenTTL = time.Hour
	// ShortTTL is the lifetime used under the expiredToken failure mode,
	// chosen so clients can observe the expiry within a test run.
	ShortTTL = time.Second
)

// Credential is what the client receives from a successful token exchange.
type Credential struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int
	RefreshToken string
	Scope        string
}

// Strategy is the capability interface both issuance variants implement.
// The flow orchestrator is parameterized over it, so bearer and session
// flows share a single state machine.
type Strategy interface {
	// Name identifies the variant ("bearer" or "session") in events.
	Name() string

	// Issue produces a credential for a just-redeemed grant. The profile
	// is the provider's mock user data at redemption time.
	Issue(g *grant.Grant, profile registry.Profile) (*Credential, error)

	// Validate resolves a presented credential to the identity profile it
	// grants access to, enforcing expiry and provider scoping. Failure
	// modes are intercepted before the credential is inspected.
	Validate(presented, providerID string) (registry.Profile, error)
}

// intercept applies the forced validation failure modes shared by both
// strategies. Flag-forced outcomes win over any organic result, so this
// runs before the credential is even looked at.
func intercept(modes *simulation.Registry) error {
	if modes.Enabled(simulation.ModeInvalidToken) {
		return ErrInvalidCredential
	}
	if modes.Enabled(simulation.ModeRateLimited) {
		return ErrRateLimited
	}
	return nil
}

// lifetime returns the credential validity window, shrunk to ShortTTL when
// the expiredToken failure mode is active. A non-positive base falls back
// to TokenTTL.
func lifetime(modes *simulation.Registry, base time.Duration) time.Duration {
	if modes.Enabled(simulation.ModeExpiredToken) {
		return ShortTTL
	}
	if base <= 0 {
		return TokenTTL
	}
	return base
}

// randomHex returns n random bytes as a hex string.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
