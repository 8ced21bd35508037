package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrack-dev/jobtrack/internal/cli/session"
)

func TestRegisterAndLogin(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("register", "--username", "root", "--email", "root@example.com", "--password", "password123")
	assert.Contains(t, out, "Account root created")
	assert.Contains(t, out, "Role: Admin")

	out = h.mustRun("login", "--username", "root", "--password", "password123")
	assert.Contains(t, out, "Login successful")
	assert.Contains(t, out, "Role: Admin")

	current := h.app.Store.Current()
	assert.Equal(t, "root", current.Username)
	assert.True(t, current.IsAdmin)

	record, err := h.storage.GetAll(session.KeyToken, session.KeyUsername, session.KeyIsAdmin)
	require.NoError(t, err)
	assert.Equal(t, current.Token, record[session.KeyToken])
	assert.Equal(t, "true", record[session.KeyIsAdmin])
}

func TestLogin_WrongPassword(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "--username", "jane", "--email", "jane@example.com", "--password", "password123")

	_, err := h.run("login", "--username", "jane", "--password", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid username or password")
	assert.False(t, h.app.Store.Current().LoggedIn())
}

func TestLogin_Prompts(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "--username", "jane", "--email", "jane@example.com", "--password", "password123")

	h.prompt.inputs = []string{"jane"}
	h.prompt.passwords = []string{"password123"}
	h.mustRun("login")

	assert.Equal(t, "jane", h.app.Store.Current().Username)
}

func TestLogin_EnvCredentials(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "--username", "jane", "--email", "jane@example.com", "--password", "password123")

	t.Setenv("JOBTRACK_USERNAME", "jane")
	t.Setenv("JOBTRACK_PASSWORD", "password123")
	h.mustRun("login")

	assert.True(t, h.app.Store.Current().LoggedIn())
}

func TestLogin_NonInteractiveWithoutUsername(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("login")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "username is required")
}

func TestRegister_Duplicate(t *testing.T) {
	h := newHarness(t)
	h.mustRun("register", "--username", "jane", "--email", "jane@example.com", "--password", "password123")

	_, err := h.run("register", "--username", "jane", "--email", "other@example.com", "--password", "password123")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")
}

func TestLogout_RevokesSession(t *testing.T) {
	h := newHarness(t)
	h.signup("jane")
	token := h.app.Store.Current().Token

	out := h.mustRun("logout")
	assert.Contains(t, out, "Logged out")
	assert.False(t, h.app.Store.Current().LoggedIn())

	record, err := h.storage.GetAll(session.KeyToken, session.KeyUsername, session.KeyIsAdmin)
	require.NoError(t, err)
	assert.Empty(t, record)

	// The revoked token no longer works from another client
	other := newHarnessFor(t, h.url)
	require.NoError(t, other.app.Store.Login(token, "jane", false))
	_, err = other.run("home")
	require.Error(t, err)
	assert.False(t, other.app.Store.Current().LoggedIn())

	out = h.mustRun("logout")
	assert.Contains(t, out, "Not logged in")
}

func TestWhoami(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("whoami")
	assert.Contains(t, out, "Not logged in")

	h.signup("jane")
	out = h.mustRun("whoami")
	assert.Contains(t, out, "jane")
	assert.Contains(t, out, "Role: Admin")

	out = h.mustRun("whoami", "--verify")
	assert.Contains(t, out, "jane <jane@example.com>")
}

func TestSessionRestoredBetweenInvocations(t *testing.T) {
	h := newHarness(t)
	h.signup("jane")

	// A fresh process over the same storage picks the session up again
	next := &App{Out: h.out, Err: h.errOut, Prompt: h.prompt, Logger: h.app.Logger}
	require.NoError(t, next.Setup(h.app.Config, h.storage))
	assert.Equal(t, h.app.Store.Current(), next.Store.Current())
}
