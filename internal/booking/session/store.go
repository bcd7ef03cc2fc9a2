package session

import "sync"

// Store keeps the conversation state of every user in memory.
// Callers mutate a user's state only from that user's Serializer queue.
type Store struct {
	states map[int64]State // Conversation states by Telegram user id
	mu     *sync.RWMutex   // Protects states from concurrent access
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		states: make(map[int64]State),
		mu:     &sync.RWMutex{},
	}
}

// Get returns the user's state, Idle when there is none.
func (s *Store) Get(userID int64) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.states[userID]; ok {
		return st
	}
	return Idle{}
}

// Put replaces the user's state. Storing Idle drops the entry.
func (s *Store) Put(userID int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == nil || st.Kind() == KindIdle {
		delete(s.states, userID)
		return
	}
	s.states[userID] = st
}

// Reset discards the user's state.
func (s *Store) Reset(userID int64) {
	s.Put(userID, Idle{})
}

// Len returns the number of users with an active conversation.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}
