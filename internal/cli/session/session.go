// Package session holds the client's record of who is logged in and mirrors it
// to durable storage so it survives between invocations.
package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Keys of the persisted session record. They are always written and removed
// as one set.
const (
	KeyToken    = "site_token"
	KeyUsername = "site_username"
	KeyIsAdmin  = "site_is_admin"
)

var recordKeys = []string{KeyToken, KeyUsername, KeyIsAdmin}

const notifyTimeout = 5 * time.Second

// Session is the current authentication state. The zero value is logged out.
// Username and IsAdmin mean nothing without a Token.
type Session struct {
	Token    string
	Username string
	IsAdmin  bool
}

// LoggedIn reports whether a token is present
func (s Session) LoggedIn() bool {
	return s.Token != ""
}

// Notifier tells the server a session ended
type Notifier interface {
	NotifyLogout(ctx context.Context, token string) error
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(ctx context.Context, token string) error

func (f NotifierFunc) NotifyLogout(ctx context.Context, token string) error {
	return f(ctx, token)
}

// Store is the single source of truth for the client's session
type Store struct {
	mu       sync.RWMutex
	current  Session
	storage  Storage
	notifier Notifier
	logger   zerolog.Logger

	subsMu      sync.Mutex
	subscribers map[int]func(Session)
	nextSubID   int

	pending sync.WaitGroup
}

// NewStore returns an empty store backed by storage. Call Initialize to
// rehydrate a previous session.
func NewStore(storage Storage, logger zerolog.Logger) *Store {
	return &Store{
		storage:     storage,
		logger:      logger,
		subscribers: make(map[int]func(Session)),
	}
}

// SetNotifier sets who is told about logouts. The API client needs the store
// and the store needs the client, so this is wired after construction.
func (s *Store) SetNotifier(n Notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifier = n
}

// Current returns a snapshot of the session
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Initialize loads the persisted record. A stored token is trusted as-is; a
// later request rejecting it is what ends the session. Without a token the
// session stays empty and leftover entries are removed.
func (s *Store) Initialize() error {
	record, err := s.storage.GetAll(recordKeys...)
	if err != nil {
		s.set(Session{})
		return fmt.Errorf("failed to read persisted session: %w", err)
	}

	token := record[KeyToken]
	if token == "" {
		if len(record) > 0 {
			if err := s.storage.RemoveAll(recordKeys...); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to remove partial session record")
			}
		}
		s.set(Session{})
		return nil
	}

	isAdmin, _ := strconv.ParseBool(record[KeyIsAdmin])
	s.set(Session{
		Token:    token,
		Username: record[KeyUsername],
		IsAdmin:  isAdmin,
	})
	return nil
}

// Login replaces the session and the persisted record. The in-memory session
// is updated even when persisting fails; the error only means the session will
// not survive a restart.
func (s *Store) Login(token, username string, isAdmin bool) error {
	s.set(Session{Token: token, Username: username, IsAdmin: isAdmin})

	err := s.storage.SetAll(map[string]string{
		KeyToken:    token,
		KeyUsername: username,
		KeyIsAdmin:  strconv.FormatBool(isAdmin),
	})
	if err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}
	return nil
}

// Logout ends the session. The server is notified in the background and a
// failed notification is only logged. The in-memory session is always
// cleared; the returned error reports a persisted record that could not be
// removed.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.RLock()
	token, notifier := s.current.Token, s.notifier
	s.mu.RUnlock()

	if token != "" && notifier != nil {
		s.pending.Add(1)
		// Outlives the caller's request; bounded by notifyTimeout
		go s.notify(context.WithoutCancel(ctx), notifier, token)
	}

	s.set(Session{})

	if err := s.storage.RemoveAll(recordKeys...); err != nil {
		return fmt.Errorf("failed to clear persisted session: %w", err)
	}
	return nil
}

func (s *Store) notify(ctx context.Context, notifier Notifier, token string) {
	defer s.pending.Done()
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn().Interface("panic", r).Msg("Logout notification panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()

	if err := notifier.NotifyLogout(ctx, token); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn().Err(err).Msg("Failed to notify server of logout")
	}
}

// Wait blocks until background logout notifications have finished
func (s *Store) Wait() {
	s.pending.Wait()
}

// Subscribe registers fn to be called with the new session after every change.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Session)) (unsubscribe func()) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		delete(s.subscribers, id)
	}
}

func (s *Store) set(next Session) {
	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	s.subsMu.Lock()
	subs := make([]func(Session), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.subsMu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
