// Package session owns the authenticated credential pair for the running
// process. A session is either fully authenticated (both tokens present) or
// fully anonymous; partial states are never observable.
package session

import (
	"errors"
	"sync"
)

// Credentials is the persisted credential record for one panel session.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Valid reports whether the record represents an authenticated session.
func (c Credentials) Valid() bool {
	return c.AccessToken != "" && c.RefreshToken != ""
}

// ErrPartialCredentials indicates an attempt to store a half-populated pair.
var ErrPartialCredentials = errors.New("session: both tokens must be set together")

// Session is the single process-wide holder of the credential record. Reads
// return snapshot copies; writes replace both tokens atomically and persist
// through the backing store before returning.
type Session struct {
	mu    sync.Mutex
	creds Credentials
	store Store
}

// New constructs a session backed by store. Previously persisted credentials
// are loaded once at construction; a missing record starts anonymous.
func New(store Store) (*Session, error) {
	if store == nil {
		store = NewMemStore()
	}
	s := &Session{store: store}
	creds, err := store.Load()
	if err != nil {
		if errors.Is(err, ErrNoCredentials) {
			return s, nil
		}
		return nil, err
	}
	if creds.Valid() {
		s.creds = creds
	}
	return s, nil
}

// Current returns a snapshot of the credential record.
func (s *Session) Current() Credentials {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds
}

// Set replaces both tokens and persists the rotation synchronously. A process
// restart observes the most recent successful rotation.
func (s *Session) Set(creds Credentials) error {
	if !creds.Valid() {
		return ErrPartialCredentials
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Save(creds); err != nil {
		return err
	}
	s.creds = creds
	return nil
}

// Clear drops both tokens and removes the persisted record. Idempotent.
func (s *Session) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return s.store.Clear()
}
