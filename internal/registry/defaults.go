package registry

import "strconv"

// defaultProviders builds fresh copies of the built-in provider set. A new
// slice is constructed on every call so resets never alias live state.
func defaultProviders() []*Provider {
	return []*Provider{
		{
			ID:     "google",
			Name:   "Google",
			Scopes: []string{"email", "profile", "openid"},
			Profile: Profile{
				"sub":            "1234567890",
				"email":          "test@gmail.com",
				"email_verified": true,
				"name":           "Test User",
				"given_name":     "Test",
				"family_name":    "User",
				"picture":        "https://via.placeholder.com/150",
				"locale":         "en",
			},
		},
		{
			ID:     "github",
			Name:   "GitHub",
			Scopes: []string{"user", "user:email", "read:user"},
			Profile: Profile{
				"id":           9876543210,
				"login":        "testuser",
				"name":         "Test User",
				"email":        "test@github.com",
				"avatar_url":   "https://via.placeholder.com/150",
				"bio":          "Mock GitHub User",
				"location":     "San Francisco, CA",
				"company":      "DevAuth Inc",
				"public_repos": 42,
				"followers":    100,
				"following":    50,
			},
		},
		{
			ID:     "microsoft",
			Name:   "Microsoft",
			Scopes: []string{"openid", "profile", "email", "User.Read"},
			Profile: Profile{
				"id":                "1111-2222-3333-4444",
				"userPrincipalName": "test@outlook.com",
				"displayName":       "Test User",
				"givenName":         "Test",
				"surname":           "User",
				"mail":              "test@outlook.com",
				"jobTitle":          "Software Engineer",
				"officeLocation":    "Seattle",
			},
		},
	}
}

// SubjectID extracts the stable subject identifier from a profile, trying
// the claim names the built-in providers use in turn.
func SubjectID(p Profile) string {
	for _, key := range []string{"sub", "id", "login", "userPrincipalName"} {
		switch v := p[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case int:
			return strconv.Itoa(v)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return "unknown"
}

// DisplayIdentity extracts a human-readable identity (email or login) from
// a profile for consent pages and event payloads.
func DisplayIdentity(p Profile) string {
	for _, key := range []string{"email", "mail", "userPrincipalName", "login"} {
		if v, ok := p[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
