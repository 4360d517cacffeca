// Package simulation holds the failure-mode registry: a fixed set of named
// flags that force specific protocol outcomes so client applications can
// exercise their error-handling paths against a deterministic counterpart.
package simulation

import (
	"fmt"
	"sync"
)

// Mode identifies a toggleable failure mode.
type Mode string

const (
	// ModeUserDenial forces every consent decision to resolve as a denial.
	ModeUserDenial Mode = "userDenial"
	// ModeExpiredToken shrinks issued credential lifetimes to one second.
	ModeExpiredToken Mode = "expiredToken"
	// ModeInvalidToken makes every credential validation fail.
	ModeInvalidToken Mode = "invalidToken"
	// ModeRateLimited makes every resource request fail with HTTP 429.
	ModeRateLimited Mode = "rateLimited"
	// ModeInvalidCode makes every token exchange fail with invalid_grant.
	ModeInvalidCode Mode = "invalidCode"
)

// AllModes lists every known failure mode in a stable order.
var AllModes = []Mode{
	ModeUserDenial,
	ModeExpiredToken,
	ModeInvalidToken,
	ModeRateLimited,
	ModeInvalidCode,
}

// Registry is a thread-safe set of failure-mode flags. Flags are mutated
// only through the admin API and consulted (never mutated) by the flow
// orchestrator and credential validators.
type Registry struct {
	mu    sync.RWMutex
	flags map[Mode]bool
}

// NewRegistry creates a registry with every failure mode disabled.
func NewRegistry() *Registry {
	r := &Registry{flags: make(map[Mode]bool, len(AllModes))}
	for _, m := range AllModes {
		r.flags[m] = false
	}
	return r
}

// Enabled reports whether the given failure mode is currently active.
// Unknown modes are always disabled.
func (r *Registry) Enabled(mode Mode) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.flags[mode]
}

// Set enables or disables a failure mode. Unknown modes are rejected so a
// typo in an admin request cannot silently create a dead flag.
func (r *Registry) Set(mode Mode, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.flags[mode]; !ok {
		return fmt.Errorf("unknown failure mode: %s", mode)
	}
	r.flags[mode] = enabled
	return nil
}

// Snapshot returns a copy of all flags, keyed by mode name.
func (r *Registry) Snapshot() map[Mode]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[Mode]bool, len(r.flags))
	for m, v := range r.flags {
		out[m] = v
	}
	return out
}

// Reset disables every failure mode.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for m := range r.flags {
		r.flags[m] = false
	}
}
