package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"devauth-go/internal/credential"
	"devauth-go/internal/flow"
)

// sessionCookieName is the cookie the session variant sets on token
// exchange and reads back on userinfo requests.
const sessionCookieName = "session_id"

// handleAuthorize starts a flow: it validates the request, records a
// pending authorization code, and renders the consent page. The prefix is
// baked into the consent form action so each variant posts back to itself.
func (s *Server) handleAuthorize(o *flow.Orchestrator, prefix string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerID := chi.URLParam(r, "provider")
		q := r.URL.Query()

		prompt, err := o.Authorize(flow.AuthorizeRequest{
			Provider:    providerID,
			ClientID:    q.Get("client_id"),
			RedirectURI: q.Get("redirect_uri"),
			Scope:       q.Get("scope"),
			State:       q.Get("state"),
		})
		if err != nil {
			// The authorize step is browser-facing; failures here are
			// plain text, not OAuth JSON bodies.
			switch {
			case errors.Is(err, flow.ErrUnknownProvider):
				http.Error(w, fmt.Sprintf("Invalid provider: %s", providerID), http.StatusBadRequest)
			case errors.Is(err, flow.ErrMissingParams):
				http.Error(w, "Missing required parameters: client_id, redirect_uri", http.StatusBadRequest)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}

		s.metrics.CodeIssued(providerID, o.Variant())

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := consentPage.Execute(w, consentPageData{
			Prompt: prompt,
			Action: fmt.Sprintf("%s/%s/consent", prefix, prompt.Provider),
		}); err != nil {
			s.logger.Errorw("failed to render consent page", "error", err)
		}
	}
}

// handleConsent resolves the user's consent decision and redirects back to
// the client application.
func (s *Server) handleConsent(o *flow.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			writeOAuthError(w, http.StatusBadRequest, "invalid_request", "Malformed form body")
			return
		}

		location, err := o.Consent(flow.ConsentRequest{
			Provider:    chi.URLParam(r, "provider"),
			Code:        r.PostFormValue("code"),
			RedirectURI: r.PostFormValue("redirect_uri"),
			State:       r.PostFormValue("state"),
			Action:      r.PostFormValue("action"),
		})
		if err != nil {
			writeOAuthError(w, http.StatusBadRequest, "invalid_request", "Missing redirect_uri")
			return
		}
		http.Redirect(w, r, location, http.StatusFound)
	}
}

// tokenRequest is the exchange body, accepted as JSON or form-encoded.
type tokenRequest struct {
	Code        string `json:"code"`
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
	GrantType   string `json:"grant_type"`
}

// tokenResponse is the successful exchange body.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
}

// handleToken exchanges an authorization code for a credential. The session
// variant additionally sets the session cookie so browser clients keep
// working without touching the response body.
func (s *Server) handleToken(o *flow.Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeTokenRequest(r)
		if err != nil {
			writeOAuthError(w, http.StatusBadRequest, "invalid_request", "Malformed request body")
			return
		}

		cred, err := o.Exchange(flow.ExchangeRequest{
			Provider:    chi.URLParam(r, "provider"),
			Code:        req.Code,
			ClientID:    req.ClientID,
			RedirectURI: req.RedirectURI,
			GrantType:   req.GrantType,
		})
		if err != nil {
			switch {
			case errors.Is(err, flow.ErrUnsupportedGrantType):
				writeOAuthError(w, http.StatusBadRequest, "unsupported_grant_type",
					"Only authorization_code is supported")
			case errors.Is(err, flow.ErrInvalidGrant):
				writeOAuthError(w, http.StatusBadRequest, "invalid_grant", err.Error())
			case errors.Is(err, flow.ErrUnknownProvider):
				// The provider was removed between issue and redeem.
				writeOAuthError(w, http.StatusBadRequest, "invalid_grant",
					"authorization code refers to a removed provider")
			default:
				writeOAuthError(w, http.StatusInternalServerError, "server_error", err.Error())
			}
			return
		}

		s.metrics.CredentialIssued(chi.URLParam(r, "provider"), o.Variant())

		if cred.TokenType == "Session" {
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    cred.AccessToken,
				Path:     "/",
				MaxAge:   cred.ExpiresIn,
				HttpOnly: true,
				Secure:   s.cfg.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}

		writeJSON(w, http.StatusOK, tokenResponse{
			AccessToken:  cred.AccessToken,
			TokenType:    cred.TokenType,
			ExpiresIn:    cred.ExpiresIn,
			RefreshToken: cred.RefreshToken,
			Scope:        cred.Scope,
		})
	}
}

// decodeTokenRequest accepts JSON and form-encoded exchange bodies.
func decodeTokenRequest(r *http.Request) (*tokenRequest, error) {
	req := &tokenRequest{}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			return nil, err
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	req.Code = r.PostFormValue("code")
	req.ClientID = r.PostFormValue("client_id")
	req.RedirectURI = r.PostFormValue("redirect_uri")
	req.GrantType = r.PostFormValue("grant_type")
	return req, nil
}

// handleUserinfo validates the presented credential and returns the mock
// profile. The bearer variant reads the Authorization header; the session
// variant prefers the session cookie and falls back to the header for
// non-browser clients.
func (s *Server) handleUserinfo(o *flow.Orchestrator) http.HandlerFunc {
	session := o.Variant() == "session"
	return func(w http.ResponseWriter, r *http.Request) {
		providerID := chi.URLParam(r, "provider")

		presented, ok := extractCredential(r, session)
		if !ok {
			msg := "Missing or invalid Authorization header"
			if session {
				msg = "Missing session cookie or authorization header"
			}
			o.MissingCredential(providerID, msg)
			writeOAuthError(w, http.StatusUnauthorized, missingCredentialCode(session), msg)
			return
		}

		profile, err := o.Userinfo(providerID, presented)
		if err != nil {
			status, code, desc := userinfoError(err, session)
			s.metrics.ValidationFailed(providerID, o.Variant(), code)
			writeOAuthError(w, status, code, desc)
			return
		}
		writeJSON(w, http.StatusOK, profile)
	}
}

// extractCredential pulls the presented credential off the request.
func extractCredential(r *http.Request, session bool) (string, bool) {
	if session {
		if c, err := r.Cookie(sessionCookieName); err == nil && c.Value != "" {
			return c.Value, true
		}
	}
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
		return token, true
	}
	return "", false
}

func missingCredentialCode(session bool) string {
	if session {
		return "invalid_session"
	}
	return "invalid_token"
}

// userinfoError maps a validation error to the wire status, error code, and
// description for the active variant.
func userinfoError(err error, session bool) (int, string, string) {
	switch {
	case errors.Is(err, credential.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests (simulated failure)"
	case errors.Is(err, credential.ErrExpired):
		if session {
			return http.StatusUnauthorized, "session_expired", "Session has expired"
		}
		return http.StatusUnauthorized, "invalid_token", "Token has expired"
	default:
		if session {
			return http.StatusUnauthorized, "invalid_session", "Session is invalid"
		}
		return http.StatusUnauthorized, "invalid_token", "Token is invalid"
	}
}

// consentPageData feeds the consent template.
type consentPageData struct {
	Prompt *flow.ConsentPrompt
	Action string
}

var consentPage = template.Must(template.New("consent").Parse(`<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Sign in with {{.Prompt.ProviderName}}</title>
  <style>
    body { font-family: -apple-system, sans-serif; background: #f5f5f5; display: flex; justify-content: center; padding-top: 60px; }
    .card { background: #fff; border-radius: 8px; box-shadow: 0 1px 4px rgba(0,0,0,.15); padding: 32px; width: 360px; }
    h1 { font-size: 20px; margin: 0 0 8px; }
    p { color: #555; font-size: 14px; }
    .scopes { background: #fafafa; border: 1px solid #eee; border-radius: 4px; padding: 8px 12px; font-size: 13px; }
    .buttons { display: flex; gap: 12px; margin-top: 24px; }
    button { flex: 1; padding: 10px 0; border-radius: 4px; border: none; font-size: 14px; cursor: pointer; }
    .allow { background: #1a73e8; color: #fff; }
    .deny { background: #eee; color: #333; }
  </style>
</head>
<body>
  <div class="card">
    <h1>Sign in with {{.Prompt.ProviderName}}</h1>
    <p>Signed in as <strong>{{.Prompt.UserIdentity}}</strong></p>
    <p><strong>{{.Prompt.ClientID}}</strong> wants to access your account.</p>
    {{if .Prompt.Scope}}<div class="scopes">Requested scopes: {{.Prompt.Scope}}</div>{{end}}
    <form method="POST" action="{{.Action}}">
      <input type="hidden" name="code" value="{{.Prompt.Code}}">
      <input type="hidden" name="redirect_uri" value="{{.Prompt.RedirectURI}}">
      <input type="hidden" name="state" value="{{.Prompt.State}}">
      <div class="buttons">
        <button class="allow" type="submit" name="action" value="allow">Allow</button>
        <button class="deny" type="submit" name="action" value="deny">Deny</button>
      </div>
    </form>
  </div>
</body>
</html>
`))
