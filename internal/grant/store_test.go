package grant

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrant() Grant {
	return Grant{
		ProviderID:  "acme",
		ClientID:    "app1",
		RedirectURI: "https://x/cb",
		Scope:       "email profile",
	}
}

func TestStore_IssueAndRedeem(t *testing.T) {
	s := NewStore(0)

	code, err := s.Issue(testGrant())
	require.NoError(t, err)
	assert.Len(t, code, 64, "code should be 64 hex characters")
	assert.Equal(t, 1, s.Len())

	g, err := s.Redeem(code)
	require.NoError(t, err)
	assert.Equal(t, "acme", g.ProviderID)
	assert.Equal(t, "app1", g.ClientID)
	assert.Equal(t, "https://x/cb", g.RedirectURI)
	assert.Equal(t, code, g.Code)
	assert.Equal(t, DefaultTTL, g.TTL)
	assert.Equal(t, 0, s.Len())
}

func TestStore_RedeemIsOneTime(t *testing.T) {
	s := NewStore(0)

	code, err := s.Issue(testGrant())
	require.NoError(t, err)

	_, err = s.Redeem(code)
	require.NoError(t, err)

	_, err = s.Redeem(code)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RedeemUnknownCode(t *testing.T) {
	s := NewStore(0)

	_, err := s.Redeem("no-such-code")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UniqueCodes(t *testing.T) {
	s := NewStore(0)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := s.Issue(testGrant())
		require.NoError(t, err)
		require.False(t, seen[code], "duplicate code issued")
		seen[code] = true
	}
}

func TestStore_LazyExpiry(t *testing.T) {
	s := NewStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	code, err := s.Issue(testGrant())
	require.NoError(t, err)

	// Advance past the TTL; the entry has not been swept but must still
	// be treated as not found, and deleted by the lookup itself.
	now = now.Add(2 * time.Minute)
	_, err = s.Redeem(code)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Sweep(t *testing.T) {
	s := NewStore(time.Minute)
	now := time.Now()
	s.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		_, err := s.Issue(testGrant())
		require.NoError(t, err)
	}
	now = now.Add(30 * time.Second)
	fresh, err := s.Issue(testGrant())
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	assert.Equal(t, 3, s.Sweep())
	assert.Equal(t, 1, s.Len())

	// The unexpired grant survives the sweep and is still redeemable.
	g, err := s.Redeem(fresh)
	require.NoError(t, err)
	assert.Equal(t, fresh, g.Code)
}

func TestStore_ConcurrentRedeemSingleWinner(t *testing.T) {
	s := NewStore(0)

	code, err := s.Issue(testGrant())
	require.NoError(t, err)

	const workers = 32
	var wg sync.WaitGroup
	var mu sync.Mutex
	successes := 0

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Redeem(code); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one concurrent redemption may succeed")
}
