package guard

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrack-dev/jobtrack/internal/cli/session"
)

func TestGuards(t *testing.T) {
	tests := []struct {
		name       string
		session    session.Session
		state      State
		standard   Outcome
		privileged Outcome
	}{
		{"empty", session.Session{}, Unauthenticated, RedirectToLogin, RedirectToLogin},
		{"admin flag without token", session.Session{Username: "jane", IsAdmin: true}, Unauthenticated, RedirectToLogin, RedirectToLogin},
		{"user", session.Session{Token: "abc123", Username: "jane"}, Authenticated, Render, RedirectToHome},
		{"admin", session.Session{Token: "abc123", Username: "root", IsAdmin: true}, AuthenticatedAdmin, Render, Render},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.state, Classify(tt.session))
			assert.Equal(t, tt.standard, StandardGuard(tt.session))
			assert.Equal(t, tt.privileged, PrivilegedGuard(tt.session))

			assert.Equal(t, Render, Evaluate(Public, tt.session))
			assert.Equal(t, tt.standard, Evaluate(Standard, tt.session))
			assert.Equal(t, tt.privileged, Evaluate(Privileged, tt.session))
			assert.Equal(t, tt.privileged, Evaluate(Level(42), tt.session))
		})
	}
}

func TestGuards_FollowStoreLifecycle(t *testing.T) {
	store := session.NewStore(session.NewMemoryStorage(), zerolog.Nop())
	require.NoError(t, store.Initialize())
	assert.Equal(t, RedirectToLogin, StandardGuard(store.Current()))

	require.NoError(t, store.Login("abc123", "jane", false))
	assert.Equal(t, Render, StandardGuard(store.Current()))
	assert.Equal(t, RedirectToHome, PrivilegedGuard(store.Current()))

	require.NoError(t, store.Logout(context.Background()))
	store.Wait()
	assert.Equal(t, RedirectToLogin, StandardGuard(store.Current()))
	assert.Equal(t, RedirectToLogin, PrivilegedGuard(store.Current()))
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "render", Render.String())
	assert.Equal(t, "redirect-to-login", RedirectToLogin.String())
	assert.Equal(t, "redirect-to-home", RedirectToHome.String())
	assert.Equal(t, "admin", AuthenticatedAdmin.String())
	assert.Equal(t, "privileged", Privileged.String())
}
