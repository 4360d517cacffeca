package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Defaults(t *testing.T) {
	r := NewRegistry()

	assert.ElementsMatch(t, []string{"google", "github", "microsoft"}, r.IDs())

	p, ok := r.Get("google")
	require.True(t, ok)
	assert.Equal(t, "Google", p.Name)
	assert.Contains(t, p.Scopes, "openid")
	assert.Equal(t, "test@gmail.com", p.Profile["email"])

	_, ok = r.Get("gitlab")
	assert.False(t, ok)
}

func TestRegistry_GetProfileIsCopy(t *testing.T) {
	r := NewRegistry()

	p1, ok := r.GetProfile("github")
	require.True(t, ok)
	p1["login"] = "tampered"

	p2, ok := r.GetProfile("github")
	require.True(t, ok)
	assert.Equal(t, "testuser", p2["login"])
}

func TestRegistry_UpdateProfileMerges(t *testing.T) {
	r := NewRegistry()

	merged, err := r.UpdateProfile("google", Profile{"email": "alice@example.com", "team": "platform"})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", merged["email"])
	assert.Equal(t, "platform", merged["team"])
	// Untouched fields survive the merge.
	assert.Equal(t, "Test User", merged["name"])

	_, err = r.UpdateProfile("nope", Profile{"a": 1})
	assert.Error(t, err)
}

func TestRegistry_AddCustomProvider(t *testing.T) {
	r := NewRegistry()

	p, err := r.AddCustom("acme", "Acme", []string{"email"}, Profile{"sub": "u-1", "email": "dev@acme.io"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", p.Name)

	got, ok := r.GetProfile("acme")
	require.True(t, ok)
	assert.Equal(t, "dev@acme.io", got["email"])

	_, err = r.AddCustom("acme", "", nil, nil)
	assert.Error(t, err, "duplicate provider must be rejected")

	// Defaults applied when name/scopes/profile are omitted.
	q, err := r.AddCustom("bare", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "bare", q.Name)
	assert.Equal(t, []string{"email", "profile"}, q.Scopes)
}

func TestRegistry_Reset(t *testing.T) {
	r := NewRegistry()

	_, err := r.UpdateProfile("google", Profile{"email": "changed@example.com"})
	require.NoError(t, err)

	p, err := r.Reset("google")
	require.NoError(t, err)
	assert.Equal(t, "test@gmail.com", p.Profile["email"])

	// Resetting a custom provider removes it.
	_, err = r.AddCustom("acme", "Acme", nil, nil)
	require.NoError(t, err)
	_, err = r.Reset("acme")
	require.NoError(t, err)
	_, ok := r.Get("acme")
	assert.False(t, ok)

	_, err = r.Reset("missing")
	assert.Error(t, err)
}

func TestRegistry_ResetAll(t *testing.T) {
	r := NewRegistry()

	_, err := r.AddCustom("acme", "Acme", nil, nil)
	require.NoError(t, err)
	_, err = r.UpdateProfile("github", Profile{"login": "changed"})
	require.NoError(t, err)

	r.ResetAll()

	assert.ElementsMatch(t, []string{"google", "github", "microsoft"}, r.IDs())
	p, _ := r.GetProfile("github")
	assert.Equal(t, "testuser", p["login"])
}

func TestRegistry_Summaries(t *testing.T) {
	r := NewRegistry()

	sums := r.Summaries("/auth")
	assert.Len(t, sums, 3)
	for _, s := range sums {
		assert.Equal(t, "/auth/"+s.ID+"/authorize", s.Endpoints.Authorize)
		assert.Equal(t, "/auth/"+s.ID+"/token", s.Endpoints.Token)
		assert.Equal(t, "/auth/"+s.ID+"/userinfo", s.Endpoints.Userinfo)
	}
}

func TestSubjectID(t *testing.T) {
	assert.Equal(t, "1234567890", SubjectID(Profile{"sub": "1234567890"}))
	assert.Equal(t, "9876543210", SubjectID(Profile{"id": 9876543210}))
	assert.Equal(t, "testuser", SubjectID(Profile{"login": "testuser"}))
	assert.Equal(t, "unknown", SubjectID(Profile{}))
}

func TestDisplayIdentity(t *testing.T) {
	assert.Equal(t, "a@b.c", DisplayIdentity(Profile{"email": "a@b.c"}))
	assert.Equal(t, "m@o.c", DisplayIdentity(Profile{"mail": "m@o.c"}))
	assert.Equal(t, "", DisplayIdentity(Profile{}))
}
