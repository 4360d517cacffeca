package flow

import "errors"

// Sentinel errors for flow transitions. The HTTP layer maps these to
// protocol-appropriate shapes: plain-text 400s for the authorize step,
// redirect error queries for the consent step, and OAuth JSON error bodies
// for the token and userinfo steps.
var (
	// ErrMissingParams indicates the authorization request lacked
	// client_id or redirect_uri.
	ErrMissingParams = errors.New("missing required parameters: client_id and redirect_uri")

	// ErrUnknownProvider indicates the request named a provider that is
	// not registered.
	ErrUnknownProvider = errors.New("invalid provider")

	// ErrMissingRedirectURI indicates a consent decision arrived without
	// a redirect target to report the outcome to.
	ErrMissingRedirectURI = errors.New("missing redirect_uri")

	// ErrInvalidGrant covers unknown, reused, expired, and mismatched
	// authorization codes, plus the forced invalidCode failure mode.
	ErrInvalidGrant = errors.New("authorization code is invalid or expired")

	// ErrUnsupportedGrantType rejects any grant type other than
	// authorization_code.
	ErrUnsupportedGrantType = errors.New("only authorization_code grant type is supported")
)
