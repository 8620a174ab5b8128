// Package session keeps the per-user conversation state: a rolling message
// history seeded with the persona few-shot exchanges and a turn counter that
// forces a fresh session once it hits the configured cap. Everything is
// in-memory; a restart starts every conversation over.
package session

import (
	"sync"

	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/llm"
)

type state struct {
	turns   int
	history []llm.Message
}

type Store struct {
	mu       sync.Mutex
	maxTurns int
	seed     []llm.Message
	sessions map[string]*state
}

// New creates a store. seed is copied into every fresh session (system
// instruction plus few-shot exchanges).
func New(maxTurns int, seed []llm.Message) *Store {
	if maxTurns <= 0 {
		maxTurns = 18
	}
	return &Store{
		maxTurns: maxTurns,
		seed:     append([]llm.Message(nil), seed...),
		sessions: make(map[string]*state),
	}
}

// History returns a snapshot of the user's conversation, creating a fresh
// seeded session on first use or when the turn cap was reached. Rotation is
// invisible to the caller: it looks exactly like first use, and the prior
// context is discarded.
func (s *Store) History(userID string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sessions[userID]
	if st == nil || st.turns >= s.maxTurns {
		st = &state{history: append([]llm.Message(nil), s.seed...)}
		s.sessions[userID] = st
	}
	return append([]llm.Message(nil), st.history...)
}

// RecordTurn appends a completed exchange and bumps the turn counter. Call it
// exactly once per successful model round-trip, never on failure.
func (s *Store) RecordTurn(userID, prompt, reply string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.sessions[userID]
	if st == nil {
		st = &state{history: append([]llm.Message(nil), s.seed...)}
		s.sessions[userID] = st
	}
	st.history = append(st.history,
		llm.Message{Role: llm.RoleUser, Content: prompt},
		llm.Message{Role: llm.RoleAssistant, Content: reply},
	)
	st.turns++
}

// Turns reports the user's turn count; zero when no session exists.
func (s *Store) Turns(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st := s.sessions[userID]; st != nil {
		return st.turns
	}
	return 0
}

// Reset drops the session unconditionally.
func (s *Store) Reset(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}
