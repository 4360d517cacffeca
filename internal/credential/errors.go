package credential

import "errors"

// Sentinel errors for credential validation, mapped by the HTTP layer to
// OAuth error codes and status codes.
var (
	// ErrInvalidCredential covers malformed, unverifiable, or unknown
	// credentials, and any credential while invalidToken is forced.
	ErrInvalidCredential = errors.New("credential is invalid")

	// ErrExpired indicates the credential was valid but its lifetime has
	// elapsed.
	ErrExpired = errors.New("credential has expired")

	// ErrProviderMismatch indicates the credential was issued by a
	// different provider than the one it was presented to.
	ErrProviderMismatch = errors.New("credential is not valid for this provider")

	// ErrRateLimited is the forced HTTP 429 outcome of the rateLimited
	// failure mode.
	ErrRateLimited = errors.New("rate limit exceeded")
)
