package models

import "time"

// IntentTurn is one remembered turn of the conversation, used to resolve
// anaphora ("more of those", "cheaper") across requests in the same session.
type IntentTurn struct {
	RequestID  string    `json:"requestId"`
	Query      string    `json:"query"`
	Intent     Intent    `json:"intent"`
	Scenario   Scenario  `json:"scenario"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ChatBackMemoryWindow bounds the set of recently-sent ChatBack messages so
// the generator can avoid repeating itself verbatim across turns.
type ChatBackMemoryWindow struct {
	RecentMessageHashes []string `json:"recentMessageHashes"`
	MaxSize             int      `json:"maxSize"`
}

// Add pushes a new hash into the ring buffer, evicting the oldest entry once
// MaxSize is exceeded.
func (w *ChatBackMemoryWindow) Add(hash string) {
	if w.MaxSize <= 0 {
		w.MaxSize = 8
	}
	w.RecentMessageHashes = append(w.RecentMessageHashes, hash)
	if over := len(w.RecentMessageHashes) - w.MaxSize; over > 0 {
		w.RecentMessageHashes = w.RecentMessageHashes[over:]
	}
}

// Contains reports whether hash was sent within the current window.
func (w *ChatBackMemoryWindow) Contains(hash string) bool {
	for _, h := range w.RecentMessageHashes {
		if h == hash {
			return true
		}
	}
	return false
}

// SessionContext is the per-session cyclic, bounded conversational memory
// a fixed-capacity ring, never
// an unbounded transcript.
type SessionContext struct {
	SessionID        string                `json:"sessionId"`
	History          []IntentTurn          `json:"history"`
	MaxHistory       int                   `json:"maxHistory"`
	ChatBackMemory   ChatBackMemoryWindow  `json:"chatBackMemory"`
	ScenarioCounters map[Scenario]int      `json:"scenarioCounters"`
	ValidatedCities  map[string]bool       `json:"validatedCities"`
	LastUserLocation *LatLng               `json:"lastUserLocation,omitempty"`
	UpdatedAt        time.Time             `json:"updatedAt"`
}

// PushTurn appends a turn, evicting the oldest once MaxHistory is exceeded,
// and bumps the scenario counter, preserving the bounded-ring invariant.
func (s *SessionContext) PushTurn(turn IntentTurn) {
	if s.MaxHistory <= 0 {
		s.MaxHistory = 20
	}
	s.History = append(s.History, turn)
	if over := len(s.History) - s.MaxHistory; over > 0 {
		s.History = s.History[over:]
	}
	if s.ScenarioCounters == nil {
		s.ScenarioCounters = make(map[Scenario]int)
	}
	s.ScenarioCounters[turn.Scenario]++
	s.UpdatedAt = turn.OccurredAt
}

// LastTurn returns the most recent remembered turn, if any.
func (s *SessionContext) LastTurn() (IntentTurn, bool) {
	if len(s.History) == 0 {
		return IntentTurn{}, false
	}
	return s.History[len(s.History)-1], true
}

// NewSessionContext constructs an empty, ready-to-use session record.
func NewSessionContext(sessionID string) *SessionContext {
	return &SessionContext{
		SessionID:        sessionID,
		MaxHistory:       20,
		ChatBackMemory:   ChatBackMemoryWindow{MaxSize: 8},
		ScenarioCounters: make(map[Scenario]int),
		ValidatedCities:  make(map[string]bool),
		UpdatedAt:        time.Time{},
	}
}
