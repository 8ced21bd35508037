package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrack-dev/jobtrack/internal/cli/session"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *session.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	store := session.NewStore(session.NewMemoryStorage(), zerolog.Nop())
	c := New(server.URL+"/", store, zerolog.Nop())
	store.SetNotifier(c)
	return c, store
}

func TestLogin(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var req LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Password != "password123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Invalid username or password"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(LoginResponse{Token: "abc123", Username: req.Username, IsAdmin: true})
	})

	resp, err := c.Login(context.Background(), "jane", "password123")
	require.NoError(t, err)
	assert.Equal(t, &LoginResponse{Token: "abc123", Username: "jane", IsAdmin: true}, resp)

	_, err = c.Login(context.Background(), "jane", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid username or password", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticatedCallSendsBearer(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))
		_ = json.NewEncoder(w).Encode([]Company{{ID: "c1", Name: "Acme"}})
	})
	require.NoError(t, store.Login("abc123", "jane", false))

	companies, err := c.ListCompanies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Company{{ID: "c1", Name: "Acme"}}, companies)
}

func TestAuthenticatedCallWithoutSession(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := c.ListCompanies(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, called)
}

func TestUnauthorizedLogsOut(t *testing.T) {
	var revoked []string
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/logout" {
			revoked = append(revoked, r.Header.Get("Authorization"))
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"Invalid or expired token"}`))
	})
	require.NoError(t, store.Login("stale", "jane", false))

	_, err := c.Me(context.Background())
	store.Wait()

	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, store.Current().LoggedIn())
	// The rejected token is still offered for revocation, once
	assert.Equal(t, []string{"Bearer stale"}, revoked)
}

// stuckStorage accepts writes but cannot remove the record
type stuckStorage struct {
	*session.MemoryStorage
}

func (stuckStorage) RemoveAll(...string) error {
	return errors.New("disk is read-only")
}

func TestUnauthorizedLogsFailedSessionClear(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(server.Close)

	var logs bytes.Buffer
	store := session.NewStore(stuckStorage{session.NewMemoryStorage()}, zerolog.Nop())
	c := New(server.URL, store, zerolog.New(&logs))
	require.NoError(t, store.Login("stale", "jane", false))

	_, err := c.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.False(t, store.Current().LoggedIn())
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), "Failed to clear persisted session after 401")
	assert.Contains(t, logs.String(), "disk is read-only")
}

func TestAPIErrorKeepsSession(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"Company not found"}`))
	})
	require.NoError(t, store.Login("abc123", "jane", false))

	_, err := c.GetCompany(context.Background(), "missing")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Company not found (status 404)", apiErr.Error())
	assert.True(t, store.Current().LoggedIn())
}

func TestForbiddenKeepsSession(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"Admin access required"}`))
	})
	require.NoError(t, store.Login("abc123", "jane", false))

	_, err := c.ListUsers(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.True(t, store.Current().LoggedIn())
}

func TestNonJSONError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	err := c.Health(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestNetworkFailure(t *testing.T) {
	store := session.NewStore(session.NewMemoryStorage(), zerolog.Nop())
	require.NoError(t, store.Login("abc123", "jane", false))
	c := New("http://127.0.0.1:1", store, zerolog.Nop())

	_, err := c.ListCompanies(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to send request")
	assert.True(t, store.Current().LoggedIn())
}

func TestListAuditLogsQuery(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "auth.login", r.URL.Query().Get("event_type"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("offset"))
		_ = json.NewEncoder(w).Encode(AuditPage{Entries: []AuditLog{{ID: "a1", EventType: "auth.login"}}, Total: 1})
	})
	require.NoError(t, store.Login("abc123", "root", true))

	page, err := c.ListAuditLogs(context.Background(), "auth.login", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	assert.Len(t, page.Entries, 1)
}

func TestExportAuditLogs(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("timestamp,event_type\n2026-01-01T00:00:00Z,auth.login\n"))
	})
	require.NoError(t, store.Login("abc123", "root", true))

	var buf bytes.Buffer
	require.NoError(t, c.ExportAuditLogs(context.Background(), &buf))
	assert.Equal(t, "timestamp,event_type\n2026-01-01T00:00:00Z,auth.login\n", buf.String())
}

func TestUpdateSendsOnlySetFields(t *testing.T) {
	c, store := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"status": "Applied"}, body)
		_ = json.NewEncoder(w).Encode(Application{ID: "a1", Status: "Applied"})
	})
	require.NoError(t, store.Login("abc123", "jane", false))

	status := "Applied"
	application, err := c.UpdateApplication(context.Background(), "a1", ApplicationUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, "Applied", application.Status)
}
