// Package session provides a thread-safe, in-process store of per-session
// conversational memory.
package session

import (
	"sync"
	"time"

	"github.com/FACorreiaa/loci-search-core/internal/search/models"
)

// Store is a concurrency-safe registry of SessionContext records, keyed by
// sessionId. Unlike the Job Store, sessions are process-local: they are not
// part of the persisted pipeline state.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*models.SessionContext
}

// New constructs an empty Store.
func New() *Store {
	return &Store{sessions: make(map[string]*models.SessionContext)}
}

// GetOrCreate returns the existing session for sessionId, creating one with
// default ring sizes if absent.
func (s *Store) GetOrCreate(sessionID string) *models.SessionContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ctx, ok := s.sessions[sessionID]; ok {
		return ctx
	}
	ctx := models.NewSessionContext(sessionID)
	s.sessions[sessionID] = ctx
	return ctx
}

// PushTurn records a completed turn against sessionID, creating the session
// if it does not yet exist.
func (s *Store) PushTurn(sessionID string, turn models.IntentTurn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.sessions[sessionID]
	if !ok {
		ctx = models.NewSessionContext(sessionID)
		s.sessions[sessionID] = ctx
	}
	if turn.OccurredAt.IsZero() {
		turn.OccurredAt = time.Now()
	}
	ctx.PushTurn(turn)
}

// Clear implements intent-reset purity: conversation
// history, the current/last intent turn, the ChatBack memory window, and
// the per-scenario counters are wiped, but validatedCities — the
// geocode-confirmed city cache — and LastUserLocation survive the reset.
func (s *Store) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.sessions[sessionID]
	if !ok {
		s.sessions[sessionID] = models.NewSessionContext(sessionID)
		return
	}

	fresh := models.NewSessionContext(sessionID)
	fresh.ValidatedCities = existing.ValidatedCities
	fresh.LastUserLocation = existing.LastUserLocation
	s.sessions[sessionID] = fresh
}

// MarkCityValidated records cityName as geocode-confirmed for sessionID;
// this survives Clear, per the Intent-reset purity invariant.
func (s *Store) MarkCityValidated(sessionID, cityName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.sessions[sessionID]
	if !ok {
		ctx = models.NewSessionContext(sessionID)
		s.sessions[sessionID] = ctx
	}
	if ctx.ValidatedCities == nil {
		ctx.ValidatedCities = make(map[string]bool)
	}
	ctx.ValidatedCities[cityName] = true
}

// UnsuccessfulStreak returns how many of the most recent consecutive turns
// classified into an unsuccessful scenario, feeding the repeat_unsuccessful
// escalation.
func (s *Store) UnsuccessfulStreak(sessionID string, unsuccessful map[models.Scenario]bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, ok := s.sessions[sessionID]
	if !ok {
		return 0
	}
	streak := 0
	for i := len(ctx.History) - 1; i >= 0; i-- {
		if !unsuccessful[ctx.History[i].Scenario] {
			break
		}
		streak++
	}
	return streak
}
