package apiclient

import "sync"

// TokenStore holds the bearer token between requests. The client reads it on
// every call and clears it when the server rejects it.
//
// Clear reports whether a token was actually held, so several goroutines
// racing on a 401 agree on which one observed the transition to signed-out.
type TokenStore interface {
	Set(token string)
	Get() string
	Clear() bool
}

// Navigator is the client-side redirect capability. A browser-embedded
// client would change the location; a CLI might print the login URL; tests
// record the call.
type Navigator interface {
	NavigateTo(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

func (f NavigatorFunc) NavigateTo(path string) { f(path) }

// MemoryStore is the default TokenStore: a single token guarded by a mutex.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore creates an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Set stores the token, replacing any previous value.
func (s *MemoryStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Get returns the stored token, or "" when signed out.
func (s *MemoryStore) Get() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Clear discards the stored token and reports whether one was held. Only
// one of any number of concurrent Clear calls returns true.
func (s *MemoryStore) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.token != ""
	s.token = ""
	return had
}
