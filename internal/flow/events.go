package flow

import (
	"sync"
	"time"
)

// Lifecycle step names, one per observable transition of the flow.
const (
	StepAuthorizationRequested = "authorization_requested"
	StepUserAuthenticated      = "user_authenticated"
	StepUserDenied             = "user_denied"
	StepCodeGenerated          = "code_generated"
	StepTokenExchangeRequested = "token_exchange_requested"
	StepTokenExchanged         = "token_exchanged"
	StepSessionCreated         = "session_created"
	StepInvalidCodeSimulated   = "invalid_code_simulated"
	StepUserinfoRequested      = "userinfo_requested"
	StepUserinfoAccessed       = "userinfo_accessed"
	StepInvalidTokenError      = "invalid_token_error"
	StepInvalidTokenSimulated  = "invalid_token_simulated"
	StepRateLimitedSimulated   = "rate_limited_simulated"
)

// Event is a lifecycle notification published on every flow transition.
// Payloads are redacted: codes and tokens appear only as short prefixes.
type Event struct {
	Step      string         `json:"step"`
	Provider  string         `json:"provider"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

const defaultEventBuffer = 256

// Bus fans lifecycle events out to subscribers. Publishing is advisory
// telemetry: it never blocks a flow transition, and events are dropped for
// subscribers whose buffers are full or when nobody is listening.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewBus creates an event bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a new subscriber and returns its channel. Callers
// must not close the returned channel; use Unsubscribe when finished.
func (b *Bus) Subscribe() chan Event {
	ch := make(chan Event, defaultEventBuffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *Bus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Publish delivers an event to every subscriber that has buffer space.
func (b *Bus) Publish(step, provider string, data map[string]any) {
	evt := Event{
		Step:      step,
		Provider:  provider,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
		}
	}
	b.mu.RUnlock()
}
