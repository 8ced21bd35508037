package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func exerciseStorage(t *testing.T, storage Storage) {
	t.Helper()

	entries, err := storage.GetAll(recordKeys...)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, storage.SetAll(map[string]string{KeyToken: "abc", KeyUsername: "jane", KeyIsAdmin: "false"}))

	entries, err = storage.GetAll(KeyToken, KeyUsername)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyToken: "abc", KeyUsername: "jane"}, entries)

	require.NoError(t, storage.RemoveAll(recordKeys...))

	entries, err = storage.GetAll(recordKeys...)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Removing again is harmless
	require.NoError(t, storage.RemoveAll(recordKeys...))
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemoryStorage())
}

func TestFileStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	exerciseStorage(t, NewFileStorage(path))

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "empty record should remove the file")
}

func TestFileStorage_PermissionsAndOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	storage := NewFileStorage(path)

	require.NoError(t, storage.SetAll(map[string]string{KeyToken: "abc", "theme": "dark"}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	require.NoError(t, storage.RemoveAll(KeyToken))
	entries, err := storage.GetAll("theme", KeyToken)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"theme": "dark"}, entries)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".session-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := NewFileStorage(path).GetAll(KeyToken)
	assert.ErrorIs(t, err, ErrCorruptRecord)

	store := newTestStore(NewFileStorage(path))
	assert.ErrorIs(t, store.Initialize(), ErrCorruptRecord)
	assert.False(t, store.Current().LoggedIn())

	require.NoError(t, store.Logout(context.Background()))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	require.NoError(t, store.Login("abc123", "jane", false))

	reloaded := newTestStore(NewFileStorage(path))
	require.NoError(t, reloaded.Initialize())
	assert.Equal(t, Session{Token: "abc123", Username: "jane"}, reloaded.Current())
}

func TestKeyringStorage_CorruptSecret(t *testing.T) {
	keyring.MockInit()

	storage := NewKeyringStorage("http://localhost:8080")
	require.NoError(t, keyring.Set(keyringService, storage.account, "{not json"))

	store := newTestStore(storage)
	assert.ErrorIs(t, store.Initialize(), ErrCorruptRecord)

	require.NoError(t, store.Login("abc123", "jane", true))
	entries, err := storage.GetAll(recordKeys...)
	require.NoError(t, err)
	assert.Equal(t, "abc123", entries[KeyToken])

	require.NoError(t, keyring.Set(keyringService, storage.account, "{not json"))
	require.NoError(t, store.Logout(context.Background()))
	_, err = keyring.Get(keyringService, storage.account)
	assert.ErrorIs(t, err, keyring.ErrNotFound)
}

func TestFileStorage_SharedAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store := newTestStore(NewFileStorage(path))
	require.NoError(t, store.Login("abc123", "jane", true))

	reloaded := newTestStore(NewFileStorage(path))
	require.NoError(t, reloaded.Initialize())
	assert.Equal(t, Session{Token: "abc123", Username: "jane", IsAdmin: true}, reloaded.Current())
}

func TestKeyringStorage(t *testing.T) {
	keyring.MockInit()

	exerciseStorage(t, NewKeyringStorage("http://localhost:8080"))
}

func TestKeyringStorage_SeparateAccounts(t *testing.T) {
	keyring.MockInit()

	a := NewKeyringStorage("https://a.example.com")
	b := NewKeyringStorage("https://b.example.com")

	require.NoError(t, a.SetAll(map[string]string{KeyToken: "token-a"}))

	entries, err := b.GetAll(KeyToken)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
