package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContactLifecycle(t *testing.T) {
	h := newHarness(t)
	h.signup("jane")
	companyID := addCompany(h, "Acme")

	h.prompt.inputs = []string{"Sam"}
	out := h.mustRun("contact", "add", "--company", companyID, "--phone", "555-0100")
	assert.Contains(t, out, "Added Sam")

	contacts, err := h.app.Client.ListCompanyContacts(t.Context(), companyID)
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	id := contacts[0].ID

	out = h.mustRun("contact", "edit", id, "--email", "sam@acme.example.com")
	assert.Contains(t, out, "Updated Sam")

	contacts, err = h.app.Client.ListCompanyContacts(t.Context(), companyID)
	require.NoError(t, err)
	assert.Equal(t, "sam@acme.example.com", contacts[0].Email)
	assert.Equal(t, "555-0100", contacts[0].Phone)

	h.mustRun("contact", "rm", id, "--yes")
	contacts, err = h.app.Client.ListCompanyContacts(t.Context(), companyID)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestContactEdit_NothingToUpdate(t *testing.T) {
	h := newHarness(t)
	h.signup("jane")

	_, err := h.run("contact", "edit", "x")
	assert.ErrorIs(t, err, errNothingToUpdate)
}
