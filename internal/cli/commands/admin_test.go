package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminUsers(t *testing.T) {
	h := newHarness(t)
	h.signup("root")

	jane := newHarnessFor(t, h.url)
	jane.signup("jane")
	me, err := jane.app.Client.Me(t.Context())
	require.NoError(t, err)

	out := h.mustRun("admin", "users")
	assert.Contains(t, out, "root")
	assert.Contains(t, out, "jane@example.com")

	out = h.mustRun("admin", "disable", me.ID)
	assert.Contains(t, out, "jane is now disabled")

	out = h.mustRun("admin", "enable", me.ID)
	assert.Contains(t, out, "jane is now active")

	_, err = h.run("admin", "rm", me.ID)
	require.Error(t, err, "deleting needs confirmation")

	h.mustRun("admin", "rm", me.ID, "--yes")
	out = h.mustRun("admin", "users")
	assert.NotContains(t, out, "jane")
}

func TestAdmin_CannotDisableSelf(t *testing.T) {
	h := newHarness(t)
	h.signup("root")
	me, err := h.app.Client.Me(t.Context())
	require.NoError(t, err)

	_, err = h.run("admin", "disable", me.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "own account")
	assert.True(t, h.app.Store.Current().LoggedIn())
}

func TestAdminLogs(t *testing.T) {
	h := newHarness(t)
	h.signup("root")
	addCompany(h, "Acme")

	out := h.mustRun("admin", "logs")
	assert.Contains(t, out, "auth.signup")
	assert.Contains(t, out, "auth.login")
	assert.Contains(t, out, "company.create")

	out = h.mustRun("admin", "logs", "--type", "company.create")
	assert.Contains(t, out, "company.create")
	assert.NotContains(t, out, "auth.login")
	assert.Contains(t, out, "of 1")
}

func TestAdminExport(t *testing.T) {
	h := newHarness(t)
	h.signup("root")

	out := h.mustRun("admin", "export")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasPrefix(lines[0], "timestamp,event_type"))

	path := filepath.Join(t.TempDir(), "audit.csv")
	h.mustRun("admin", "export", "--output", path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "auth.login")
	assert.Contains(t, h.errOut.String(), "Audit log written")
}
