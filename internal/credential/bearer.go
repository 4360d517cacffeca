package credential

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"devauth-go/internal/grant"
	"devauth-go/internal/registry"
	"devauth-go/internal/simulation"
)

// refreshTokenBytes gives the opaque refresh token 256 bits of entropy.
const refreshTokenBytes = 32

// TokenClaims is the claims set embedded in bearer access tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
	Provider string `json:"provider"`
	Scope    string `json:"scope,omitempty"`
}

// ProfileSource resolves a provider's current mock profile. The bearer
// strategy is stateless, so userinfo data is fetched live at validation
// time rather than snapshotted at issuance.
type ProfileSource interface {
	GetProfile(id string) (registry.Profile, bool)
}

// BearerStrategy issues HS256-signed JWTs. Validity is determined purely by
// signature and embedded expiry; no server-side record survives issuance.
type BearerStrategy struct {
	secret   []byte
	ttl      time.Duration
	modes    *simulation.Registry
	profiles ProfileSource
	now      func() time.Time
}

// NewBearerStrategy creates a bearer-token strategy signing with the given
// process-wide secret. A non-positive ttl falls back to TokenTTL.
func NewBearerStrategy(secret []byte, ttl time.Duration, modes *simulation.Registry, profiles ProfileSource) *BearerStrategy {
	return &BearerStrategy{
		secret:   secret,
		ttl:      ttl,
		modes:    modes,
		profiles: profiles,
		now:      time.Now,
	}
}

// Name implements Strategy.
func (s *BearerStrategy) Name() string { return "bearer" }

// Issue implements Strategy. Under the expiredToken failure mode the token
// lives for ShortTTL instead of TokenTTL; expires_in reports the same value.
func (s *BearerStrategy) Issue(g *grant.Grant, profile registry.Profile) (*Credential, error) {
	ttl := lifetime(s.modes, s.ttl)
	now := s.now()

	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   registry.SubjectID(profile),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
		Provider: g.ProviderID,
		Scope:    g.Scope,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, err
	}

	refresh, err := randomHex(refreshTokenBytes)
	if err != nil {
		return nil, err
	}

	return &Credential{
		AccessToken:  signed,
		TokenType:    "Bearer",
		ExpiresIn:    int(ttl.Seconds()),
		RefreshToken: refresh,
		Scope:        g.Scope,
	}, nil
}

// Validate implements Strategy. Signature and expiry come from the token
// itself; the returned profile is the provider's current mock data.
func (s *BearerStrategy) Validate(presented, providerID string) (registry.Profile, error) {
	if err := intercept(s.modes); err != nil {
		return nil, err
	}

	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(presented, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalidCredential
	}

	if claims.Provider != providerID {
		return nil, ErrProviderMismatch
	}

	profile, ok := s.profiles.GetProfile(providerID)
	if !ok {
		return nil, ErrInvalidCredential
	}
	return profile, nil
}
