// Package registry stores simulated identity-provider metadata and the mock
// user profiles returned from the userinfo endpoint. The registry is seeded
// with google, github, and microsoft defaults and can be reshaped at runtime
// through the admin API.
package registry

import (
	"fmt"
	"sync"
)

// Profile is the mock identity payload a provider returns for its user.
type Profile map[string]any

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	return cloneProfile(p)
}

// Provider describes one simulated identity provider.
type Provider struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Scopes  []string `json:"scopes"`
	Profile Profile  `json:"defaultUserData"`
}

// Endpoints lists the per-provider OAuth endpoints, reported in summaries so
// the dashboard and test client can discover them.
type Endpoints struct {
	Authorize string `json:"authorize"`
	Token     string `json:"token"`
	Userinfo  string `json:"userinfo"`
}

// Summary is the compact provider listing served by the admin API.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Scopes    []string  `json:"scopes"`
	Endpoints Endpoints `json:"endpoints"`
}

// Registry is a thread-safe provider store.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]*Provider
}

// NewRegistry creates a registry seeded with the built-in providers.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[string]*Provider)}
	for _, p := range defaultProviders() {
		r.providers[p.ID] = p
	}
	return r
}

// IDs returns all registered provider IDs.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	return ids
}

// Get returns a copy of the provider config, or false if it is unknown.
func (r *Registry) Get(id string) (*Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, false
	}
	return cloneProvider(p), true
}

// GetProfile returns a copy of the provider's mock user profile, or false
// if the provider is unknown.
func (r *Registry) GetProfile(id string) (Profile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, false
	}
	return cloneProfile(p.Profile), true
}

// UpdateProfile merges the given fields into the provider's profile and
// returns the merged result.
func (r *Registry) UpdateProfile(id string, fields Profile) (Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("provider %q not found", id)
	}
	for k, v := range fields {
		p.Profile[k] = v
	}
	return cloneProfile(p.Profile), nil
}

// AddCustom registers a new provider. Registering an existing ID is an
// error; built-in providers can only be reshaped, never replaced wholesale.
func (r *Registry) AddCustom(id, name string, scopes []string, profile Profile) (*Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.providers[id]; exists {
		return nil, fmt.Errorf("provider %q already exists", id)
	}
	if name == "" {
		name = id
	}
	if len(scopes) == 0 {
		scopes = []string{"email", "profile"}
	}
	if profile == nil {
		profile = Profile{}
	}
	p := &Provider{
		ID:      id,
		Name:    name,
		Scopes:  scopes,
		Profile: cloneProfile(profile),
	}
	r.providers[id] = p
	return cloneProvider(p), nil
}

// Reset restores a single provider to its built-in defaults. Resetting a
// custom provider removes it, since it has no defaults to return to.
func (r *Registry) Reset(id string) (*Provider, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[id]; !ok {
		return nil, fmt.Errorf("provider %q not found", id)
	}
	for _, d := range defaultProviders() {
		if d.ID == id {
			r.providers[id] = d
			return cloneProvider(d), nil
		}
	}
	delete(r.providers, id)
	return nil, nil
}

// ResetAll restores the registry to its seeded state, dropping any custom
// providers.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers = make(map[string]*Provider)
	for _, p := range defaultProviders() {
		r.providers[p.ID] = p
	}
}

// Summaries returns the admin-API listing for every provider, with endpoint
// paths built from the given URL prefix (e.g. "/auth").
func (r *Registry) Summaries(prefix string) []Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Summary, 0, len(r.providers))
	for id, p := range r.providers {
		out = append(out, Summary{
			ID:     id,
			Name:   p.Name,
			Scopes: append([]string(nil), p.Scopes...),
			Endpoints: Endpoints{
				Authorize: fmt.Sprintf("%s/%s/authorize", prefix, id),
				Token:     fmt.Sprintf("%s/%s/token", prefix, id),
				Userinfo:  fmt.Sprintf("%s/%s/userinfo", prefix, id),
			},
		})
	}
	return out
}

func cloneProvider(p *Provider) *Provider {
	return &Provider{
		ID:      p.ID,
		Name:    p.Name,
		Scopes:  append([]string(nil), p.Scopes...),
		Profile: cloneProfile(p.Profile),
	}
}

func cloneProfile(p Profile) Profile {
	out := make(Profile, len(p))
	for k, v := range p {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, e := range t {
			m[k] = cloneValue(e)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, e := range t {
			s[i] = cloneValue(e)
		}
		return s
	default:
		return v
	}
}
