package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/zalando/go-keyring"
)

// Storage is durable key/value storage for the session record. SetAll and
// RemoveAll apply to all given keys or to none of them.
type Storage interface {
	// GetAll returns the entries that exist among keys
	GetAll(keys ...string) (map[string]string, error)
	SetAll(entries map[string]string) error
	RemoveAll(keys ...string) error
}

// ErrCorruptRecord reports a stored session document that cannot be decoded.
// SetAll and RemoveAll replace such a document instead of failing.
var ErrCorruptRecord = errors.New("corrupt session record")

// MemoryStorage keeps entries in process memory
type MemoryStorage struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{entries: make(map[string]string)}
}

func (m *MemoryStorage) GetAll(keys ...string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return pick(m.entries, keys), nil
}

func (m *MemoryStorage) SetAll(entries map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range entries {
		m.entries[k] = v
	}
	return nil
}

func (m *MemoryStorage) RemoveAll(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

// FileStorage keeps entries in a single JSON file. Every write replaces the
// whole file through a rename, so readers see either the old or the new set.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (f *FileStorage) GetAll(keys ...string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.read()
	if err != nil {
		return nil, err
	}
	return pick(entries, keys), nil
}

func (f *FileStorage) SetAll(entries map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	if errors.Is(err, ErrCorruptRecord) {
		// An unreadable document is replaced, never merged into
		current = make(map[string]string)
	} else if err != nil {
		return err
	}
	for k, v := range entries {
		current[k] = v
	}
	return f.write(current)
}

func (f *FileStorage) RemoveAll(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	current, err := f.read()
	if errors.Is(err, ErrCorruptRecord) {
		current = make(map[string]string)
	} else if err != nil {
		return err
	}
	for _, k := range keys {
		delete(current, k)
	}
	if len(current) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
		return nil
	}
	return f.write(current)
}

func (f *FileStorage) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	entries := make(map[string]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, f.path, err)
	}
	return entries, nil
}

func (f *FileStorage) write(entries map[string]string) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp session file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set session file permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

const keyringService = "jobtrack-cli"

// KeyringStorage keeps all entries as one JSON secret in the OS
// keychain/credential manager, one secret per account (server).
type KeyringStorage struct {
	mu      sync.Mutex
	account string
}

func NewKeyringStorage(account string) *KeyringStorage {
	return &KeyringStorage{account: "session-" + account}
}

func (k *KeyringStorage) GetAll(keys ...string) (map[string]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	entries, err := k.read()
	if err != nil {
		return nil, err
	}
	return pick(entries, keys), nil
}

func (k *KeyringStorage) SetAll(entries map[string]string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	current, err := k.read()
	if errors.Is(err, ErrCorruptRecord) {
		current = make(map[string]string)
	} else if err != nil {
		return err
	}
	for key, v := range entries {
		current[key] = v
	}
	return k.write(current)
}

func (k *KeyringStorage) RemoveAll(keys ...string) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	current, err := k.read()
	if errors.Is(err, ErrCorruptRecord) {
		current = make(map[string]string)
	} else if err != nil {
		return err
	}
	for _, key := range keys {
		delete(current, key)
	}
	if len(current) == 0 {
		if err := keyring.Delete(keyringService, k.account); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("failed to delete session from keyring: %w", err)
		}
		return nil
	}
	return k.write(current)
}

func (k *KeyringStorage) read() (map[string]string, error) {
	secret, err := keyring.Get(keyringService, k.account)
	if errors.Is(err, keyring.ErrNotFound) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session from keyring: %w", err)
	}

	entries := make(map[string]string)
	if err := json.Unmarshal([]byte(secret), &entries); err != nil {
		return nil, fmt.Errorf("%w: keyring %s: %v", ErrCorruptRecord, k.account, err)
	}
	return entries, nil
}

func (k *KeyringStorage) write(entries map[string]string) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := keyring.Set(keyringService, k.account, string(data)); err != nil {
		return fmt.Errorf("failed to save session to keyring: %w", err)
	}
	return nil
}

func pick(entries map[string]string, keys []string) map[string]string {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := entries[k]; ok {
			out[k] = v
		}
	}
	return out
}
