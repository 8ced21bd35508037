package userconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobtrack-dev/jobtrack/internal/cli/session"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(envConfigDir, dir)
	t.Setenv(envServerURL, "")
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	useTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultServerURL, cfg.ServerURL)
	assert.Equal(t, StorageFile, cfg.SessionStorage)
}

func TestSetAndLoad(t *testing.T) {
	dir := useTempDir(t)

	_, err := Set(KeyServerURL, "https://jobs.example.com/")
	require.NoError(t, err)
	_, err = Set(KeySessionStorage, "KEYRING")
	require.NoError(t, err)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://jobs.example.com", cfg.ServerURL)
	assert.Equal(t, StorageKeyring, cfg.SessionStorage)

	data, err := os.ReadFile(filepath.Join(dir, configFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "server_url: https://jobs.example.com")
}

func TestSet_Rejects(t *testing.T) {
	useTempDir(t)

	_, err := Set("theme", "dark")
	assert.ErrorIs(t, err, ErrUnknownKey)

	_, err = Set(KeyServerURL, "ftp://example.com")
	assert.Error(t, err)

	_, err = Set(KeySessionStorage, "cookie")
	assert.Error(t, err)
}

func TestLoad_EnvOverride(t *testing.T) {
	useTempDir(t)
	t.Setenv(envServerURL, "http://127.0.0.1:9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", cfg.ServerURL)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := useTempDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, configFileName), []byte("server_url: [oops"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestOpenSessionStorage(t *testing.T) {
	dir := useTempDir(t)

	cfg := &UserConfig{ServerURL: DefaultServerURL, SessionStorage: StorageFile}
	storage, err := cfg.OpenSessionStorage()
	require.NoError(t, err)
	require.IsType(t, &session.FileStorage{}, storage)

	require.NoError(t, storage.SetAll(map[string]string{session.KeyToken: "abc"}))
	_, err = os.Stat(filepath.Join(dir, SessionFileName(DefaultServerURL)))
	assert.NoError(t, err)

	cfg.SessionStorage = StorageKeyring
	storage, err = cfg.OpenSessionStorage()
	require.NoError(t, err)
	assert.IsType(t, &session.KeyringStorage{}, storage)
}

func TestOpenSessionStorage_ScopedToServer(t *testing.T) {
	useTempDir(t)

	open := func(serverURL string) *session.Store {
		cfg := &UserConfig{ServerURL: serverURL, SessionStorage: StorageFile}
		storage, err := cfg.OpenSessionStorage()
		require.NoError(t, err)
		store := session.NewStore(storage, zerolog.Nop())
		require.NoError(t, store.Initialize())
		return store
	}

	require.NoError(t, open("https://a.example.com").Login("token-a", "jane", false))

	other := open("https://b.example.com")
	assert.False(t, other.Current().LoggedIn())

	same := open("https://a.example.com/")
	assert.Equal(t, "token-a", same.Current().Token)
}

func TestSessionFileName(t *testing.T) {
	assert.Equal(t, SessionFileName("https://a.example.com"), SessionFileName("https://a.example.com/"))
	assert.NotEqual(t, SessionFileName("https://a.example.com"), SessionFileName("https://b.example.com"))
	assert.Regexp(t, `^session-[0-9a-f]{12}\.json$`, SessionFileName(DefaultServerURL))
}
