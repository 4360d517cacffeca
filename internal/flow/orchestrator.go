// Package flow implements the authorization/credential lifecycle state
// machine: authorize, consent, token exchange, and resource access, with
// failure-mode interception at each transition. The orchestrator is
// parameterized over a credential strategy, so the bearer-token and
// session-cookie variants share one implementation.
package flow

import (
	"errors"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"devauth-go/internal/credential"
	"devauth-go/internal/grant"
	"devauth-go/internal/registry"
	"devauth-go/internal/simulation"
)

// Redaction prefix lengths for event payloads, matching what the dashboard
// timeline expects.
const (
	codePrefixLen  = 10
	tokenPrefixLen = 20
)

// Orchestrator sequences one issuance variant of the OAuth flow.
type Orchestrator struct {
	providers *registry.Registry
	codes     *grant.Store
	modes     *simulation.Registry
	strategy  credential.Strategy
	bus       *Bus
	logger    *zap.SugaredLogger
}

// NewOrchestrator wires a flow over the given collaborators.
func NewOrchestrator(
	providers *registry.Registry,
	codes *grant.Store,
	modes *simulation.Registry,
	strategy credential.Strategy,
	bus *Bus,
	logger *zap.SugaredLogger,
) *Orchestrator {
	return &Orchestrator{
		providers: providers,
		codes:     codes,
		modes:     modes,
		strategy:  strategy,
		bus:       bus,
		logger:    logger,
	}
}

// Variant reports the credential strategy label ("bearer" or "session").
func (o *Orchestrator) Variant() string { return o.strategy.Name() }

// AuthorizeRequest carries the query parameters of an authorization request.
type AuthorizeRequest struct {
	Provider    string
	ClientID    string
	RedirectURI string
	Scope       string
	State       string
}

// ConsentPrompt is everything the consent page needs to render: the pending
// code plus display data about the app and the mock user.
type ConsentPrompt struct {
	Provider     string
	ProviderName string
	ClientID     string
	Scope        string
	State        string
	RedirectURI  string
	Code         string
	UserIdentity string
}

// Authorize validates the request shape, records a pending grant, and
// returns the consent prompt. Unknown providers and missing parameters are
// terminal errors for this transition.
func (o *Orchestrator) Authorize(req AuthorizeRequest) (*ConsentPrompt, error) {
	o.emit(StepAuthorizationRequested, req.Provider, map[string]any{
		"client_id":    req.ClientID,
		"redirect_uri": req.RedirectURI,
		"scope":        req.Scope,
		"state":        req.State,
		"auth_type":    o.strategy.Name(),
	})

	provider, ok := o.providers.Get(req.Provider)
	if !ok {
		return nil, ErrUnknownProvider
	}
	if req.ClientID == "" || req.RedirectURI == "" {
		return nil, ErrMissingParams
	}

	code, err := o.codes.Issue(grant.Grant{
		ProviderID:  req.Provider,
		ClientID:    req.ClientID,
		RedirectURI: req.RedirectURI,
		Scope:       req.Scope,
	})
	if err != nil {
		return nil, err
	}

	o.logger.Infow("authorization code generated",
		"provider", req.Provider, "client_id", req.ClientID, "code", redact(code, codePrefixLen))

	return &ConsentPrompt{
		Provider:     req.Provider,
		ProviderName: provider.Name,
		ClientID:     req.ClientID,
		Scope:        req.Scope,
		State:        req.State,
		RedirectURI:  req.RedirectURI,
		Code:         code,
		UserIdentity: registry.DisplayIdentity(provider.Profile),
	}, nil
}

// ConsentRequest carries the form fields of a consent decision.
type ConsentRequest struct {
	Provider    string
	Code        string
	RedirectURI string
	State       string
	Action      string
}

// Consent resolves the pending grant. Denial (explicit, or forced by the
// userDenial failure mode) redirects back with access_denied and never
// surfaces a code. Approval redirects back with the code. The original
// state value, when present, rides along on every redirect.
func (o *Orchestrator) Consent(req ConsentRequest) (string, error) {
	if req.RedirectURI == "" {
		return "", ErrMissingRedirectURI
	}

	forced := o.modes.Enabled(simulation.ModeUserDenial)
	if forced || req.Action == "deny" {
		o.emit(StepUserDenied, req.Provider, map[string]any{
			"redirect_uri": req.RedirectURI,
			"simulated":    forced,
			"auth_type":    o.strategy.Name(),
		})
		o.logger.Infow("consent denied", "provider", req.Provider, "simulated", forced)
		return errorRedirect(req.RedirectURI, "access_denied", "User denied access", req.State), nil
	}

	if req.Code == "" {
		return errorRedirect(req.RedirectURI, "invalid_request", "Missing authorization code", req.State), nil
	}

	o.emit(StepUserAuthenticated, req.Provider, map[string]any{
		"code":      redact(req.Code, codePrefixLen),
		"state":     req.State,
		"auth_type": o.strategy.Name(),
	})
	o.emit(StepCodeGenerated, req.Provider, map[string]any{
		"code":         redact(req.Code, codePrefixLen),
		"redirect_uri": req.RedirectURI,
		"auth_type":    o.strategy.Name(),
	})

	return successRedirect(req.RedirectURI, req.Code, req.State), nil
}

// ExchangeRequest carries the body of a token-exchange request.
type ExchangeRequest struct {
	Provider    string
	Code        string
	ClientID    string
	RedirectURI string
	GrantType   string
}

// Exchange redeems the authorization code and issues a credential. The
// code is consumed before issuance, so it can never be redeemed twice even
// if issuance fails afterwards. The invalidCode failure mode forces an
// invalid_grant outcome without touching the store, leaving the real code
// unspent for later runs.
func (o *Orchestrator) Exchange(req ExchangeRequest) (*credential.Credential, error) {
	o.emit(StepTokenExchangeRequested, req.Provider, map[string]any{
		"code":       redact(req.Code, codePrefixLen),
		"grant_type": req.GrantType,
		"auth_type":  o.strategy.Name(),
	})

	if req.GrantType != "authorization_code" {
		return nil, ErrUnsupportedGrantType
	}

	if o.modes.Enabled(simulation.ModeInvalidCode) {
		o.emit(StepInvalidCodeSimulated, req.Provider, map[string]any{
			"error":     "invalid_grant",
			"auth_type": o.strategy.Name(),
		})
		return nil, fmt.Errorf("%w (simulated failure)", ErrInvalidGrant)
	}

	g, err := o.codes.Redeem(req.Code)
	if err != nil {
		return nil, ErrInvalidGrant
	}
	if g.ProviderID != req.Provider || g.RedirectURI != req.RedirectURI {
		return nil, fmt.Errorf("%w: code does not match the request parameters", ErrInvalidGrant)
	}

	profile, ok := o.providers.GetProfile(req.Provider)
	if !ok {
		return nil, ErrUnknownProvider
	}

	cred, err := o.strategy.Issue(g, profile)
	if err != nil {
		return nil, err
	}

	step := StepTokenExchanged
	if cred.TokenType == "Session" {
		step = StepSessionCreated
	}
	o.emit(step, req.Provider, map[string]any{
		"access_token": redact(cred.AccessToken, tokenPrefixLen),
		"expires_in":   cred.ExpiresIn,
		"auth_type":    o.strategy.Name(),
	})
	o.logger.Infow("credential issued",
		"provider", req.Provider, "variant", o.strategy.Name(), "expires_in", cred.ExpiresIn)

	return cred, nil
}

// Userinfo validates a presented credential and returns the identity
// profile it grants access to. Each resource request revalidates
// independently; nothing about the flow is cached between calls.
func (o *Orchestrator) Userinfo(provider, presented string) (registry.Profile, error) {
	o.emit(StepUserinfoRequested, provider, map[string]any{
		"auth_type": o.strategy.Name(),
	})

	profile, err := o.strategy.Validate(presented, provider)
	if err != nil {
		switch {
		case errors.Is(err, credential.ErrRateLimited):
			o.emit(StepRateLimitedSimulated, provider, map[string]any{
				"error": "rate_limit_exceeded", "auth_type": o.strategy.Name(),
			})
		case errors.Is(err, credential.ErrInvalidCredential) && o.modes.Enabled(simulation.ModeInvalidToken):
			o.emit(StepInvalidTokenSimulated, provider, map[string]any{
				"error": "invalid_token", "auth_type": o.strategy.Name(),
			})
		}
		return nil, err
	}

	o.emit(StepUserinfoAccessed, provider, map[string]any{
		"identity":  registry.DisplayIdentity(profile),
		"auth_type": o.strategy.Name(),
	})
	return profile, nil
}

// MissingCredential records a resource request that arrived without any
// credential. Validation never runs, but the failure still has to show up
// on the event stream like every other one.
func (o *Orchestrator) MissingCredential(provider, detail string) {
	o.emit(StepUserinfoRequested, provider, map[string]any{
		"auth_type": o.strategy.Name(),
	})
	o.emit(StepInvalidTokenError, provider, map[string]any{
		"error":     detail,
		"auth_type": o.strategy.Name(),
	})
}

func (o *Orchestrator) emit(step, provider string, data map[string]any) {
	o.bus.Publish(step, provider, data)
}

// redact keeps only a short prefix of a secret for event payloads.
func redact(s string, n int) string {
	if s == "" {
		return ""
	}
	if len(s) > n {
		s = s[:n]
	}
	return s + "..."
}

func successRedirect(redirectURI, code, state string) string {
	return appendQuery(redirectURI, map[string]string{
		"code":  code,
		"state": state,
	})
}

func errorRedirect(redirectURI, errCode, description, state string) string {
	return appendQuery(redirectURI, map[string]string{
		"error":             errCode,
		"error_description": description,
		"state":             state,
	})
}

// appendQuery adds the non-empty params to redirectURI, preserving any
// query component the client already put there.
func appendQuery(redirectURI string, params map[string]string) string {
	u, err := url.Parse(redirectURI)
	if err != nil {
		// The redirect target came from the client; fall back to raw
		// concatenation rather than failing the transition.
		sep := "?"
		for k, v := range params {
			if v == "" {
				continue
			}
			redirectURI += sep + k + "=" + url.QueryEscape(v)
			sep = "&"
		}
		return redirectURI
	}
	q := u.Query()
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}
