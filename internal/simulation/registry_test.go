package simulation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Defaults(t *testing.T) {
	r := NewRegistry()

	for _, m := range AllModes {
		assert.False(t, r.Enabled(m), "mode %s should start disabled", m)
	}
}

func TestRegistry_SetAndReset(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Set(ModeUserDenial, true))
	require.NoError(t, r.Set(ModeRateLimited, true))

	assert.True(t, r.Enabled(ModeUserDenial))
	assert.True(t, r.Enabled(ModeRateLimited))
	assert.False(t, r.Enabled(ModeInvalidToken))

	r.Reset()
	for _, m := range AllModes {
		assert.False(t, r.Enabled(m))
	}
}

func TestRegistry_UnknownMode(t *testing.T) {
	r := NewRegistry()

	err := r.Set(Mode("networkPartition"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown failure mode")
	assert.False(t, r.Enabled(Mode("networkPartition")))
}

func TestRegistry_Snapshot(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Set(ModeExpiredToken, true))

	snap := r.Snapshot()
	assert.Len(t, snap, len(AllModes))
	assert.True(t, snap[ModeExpiredToken])
	assert.False(t, snap[ModeUserDenial])

	// Mutating the snapshot must not affect the registry.
	snap[ModeUserDenial] = true
	assert.False(t, r.Enabled(ModeUserDenial))
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(enabled bool) {
			defer wg.Done()
			_ = r.Set(ModeInvalidCode, enabled)
		}(i%2 == 0)
		go func() {
			defer wg.Done()
			_ = r.Enabled(ModeInvalidCode)
			_ = r.Snapshot()
		}()
	}
	wg.Wait()
}
