package session

import "sync"

// State is a point-in-time view of the session.
type State struct {
	// Token is the current access token. Empty means unauthenticated.
	Token string

	// Bootstrapping is true from construction until the first silent
	// refresh attempt settles.
	Bootstrapping bool
}

// Authenticated reports whether an access token is held.
func (s State) Authenticated() bool {
	return s.Token != ""
}

// Store holds the in-memory session state. All methods are safe for
// concurrent use and none of them fail.
//
// The token is never persisted; only the server-held refresh credential
// outlives the process.
type Store struct {
	mu            sync.RWMutex
	state         State
	bootstrapDone bool
	onChange      func(State)
}

// NewStore returns a store with no token and bootstrapping in progress.
func NewStore() *Store {
	return &Store{state: State{Bootstrapping: true}}
}

// OnChange registers fn to receive every new state. fn runs synchronously
// after the write, outside the store lock. Passing nil removes the listener.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// SetToken replaces the access token. An empty token clears the session.
func (s *Store) SetToken(token string) {
	s.update(func(st *State) bool {
		if st.Token == token {
			return false
		}
		st.Token = token
		return true
	})
}

// Clear removes the access token.
func (s *Store) Clear() {
	s.SetToken("")
}

// SetBootstrapping sets the bootstrapping flag. Once the flag has been
// cleared it can never be raised again.
func (s *Store) SetBootstrapping(b bool) {
	s.update(func(st *State) bool {
		if b && s.bootstrapDone {
			return false
		}
		if !b {
			s.bootstrapDone = true
		}
		if st.Bootstrapping == b {
			return false
		}
		st.Bootstrapping = b
		return true
	})
}

// Token returns the current access token, or "" when unauthenticated.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Bootstrapping reports whether the startup refresh is still pending.
func (s *Store) Bootstrapping() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Bootstrapping
}

// Snapshot returns the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) update(mutate func(*State) bool) {
	s.mu.Lock()
	changed := mutate(&s.state)
	st, fn := s.state, s.onChange
	s.mu.Unlock()

	if changed && fn != nil {
		fn(st)
	}
}
