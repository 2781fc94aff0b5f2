package bot

import "sync"

type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingKey
)

// Sessions tracks the per-chat conversation state for the multi-step API key
// setup. State is in-memory only; a restart simply drops half-finished setups.
type Sessions struct {
	mu     sync.Mutex
	states map[int64]sessionState
}

func NewSessions() *Sessions {
	return &Sessions{states: make(map[int64]sessionState)}
}

func (s *Sessions) Get(chatID int64) sessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[chatID]
}

func (s *Sessions) Set(chatID int64, state sessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == stateIdle {
		delete(s.states, chatID)
		return
	}
	s.states[chatID] = state
}

func (s *Sessions) Clear(chatID int64) {
	s.Set(chatID, stateIdle)
}
