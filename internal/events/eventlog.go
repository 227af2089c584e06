// Package events provides the game journal: an append-only log of every move
// that changed a board, with write-through to durable storage.
package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventType defines the category of a game event.
type EventType string

const (
	EventTypeGameStarted  EventType = "GAME_STARTED"
	EventTypeCellRevealed EventType = "CELL_REVEALED"
	EventTypeFlagToggled  EventType = "FLAG_TOGGLED"
	EventTypeGameWon      EventType = "GAME_WON"
	EventTypeGameLost     EventType = "GAME_LOST"
)

// GameStartedPayload records the board a game was played on.
type GameStartedPayload struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Mines     int    `json:"mines"`
	Placement string `json:"placement"`
}

// CellRevealedPayload records a reveal and how many cells it opened.
type CellRevealedPayload struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Cells int `json:"cells"`
}

// FlagToggledPayload records a flag change.
type FlagToggledPayload struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Flagged bool `json:"flagged"`
}

// GameOverPayload records how a game ended.
type GameOverPayload struct {
	X        int `json:"x"` // cell whose reveal ended the game
	Y        int `json:"y"`
	Revealed int `json:"revealed"`
	Moves    int `json:"moves"`
}

// GameEvent represents an immutable record of an action in the game.
type GameEvent struct {
	ID        string      `json:"id"`
	GameID    string      `json:"game_id"`
	SessionID string      `json:"session_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
}

// EventPersister defines how an event is durably stored.
type EventPersister interface {
	Append(event GameEvent) error
}

// EventLog is the in-memory append-only journal.
// It keeps at most retention events in memory (0 keeps everything); the
// persister, when set, receives every event.
type EventLog struct {
	mu        sync.RWMutex
	events    []GameEvent
	dropped   int // events trimmed from the front of the window
	retention int
	persister EventPersister
}

// NewEventLog creates a new event log with an optional persister.
func NewEventLog(persister EventPersister, retention int) *EventLog {
	return &EventLog{
		events:    make([]GameEvent, 0),
		retention: retention,
		persister: persister,
	}
}

// Append adds a new event to the log, assigning an ID and timestamp when missing.
// The in-memory append always succeeds; the returned error comes from the persister.
func (el *EventLog) Append(event GameEvent) error {
	if event.ID == "" {
		event.ID = GenerateEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	el.mu.Lock()
	el.events = append(el.events, event)
	if el.retention > 0 && len(el.events) > el.retention {
		n := len(el.events) - el.retention
		el.events = append(el.events[:0:0], el.events[n:]...)
		el.dropped += n
	}
	el.mu.Unlock()

	if el.persister == nil {
		return nil
	}
	return el.persister.Append(event)
}

// GetByGame returns the retained events of one game in append order.
func (el *EventLog) GetByGame(gameID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.GameID == gameID {
			result = append(result, e)
		}
	}
	return result
}

// GetBySession returns the retained events of every game played in a session.
func (el *EventLog) GetBySession(sessionID string) []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()

	var result []GameEvent
	for _, e := range el.events {
		if e.SessionID == sessionID {
			result = append(result, e)
		}
	}
	return result
}

// Replay returns a copy of the retained history.
func (el *EventLog) Replay() []GameEvent {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return append([]GameEvent(nil), el.events...)
}

// Since returns the retained events whose position in the full history is at
// least offset, along with the offset to pass on the next call.
// Events that fell out of the retention window are skipped.
func (el *EventLog) Since(offset int) ([]GameEvent, int) {
	el.mu.RLock()
	defer el.mu.RUnlock()

	next := el.dropped + len(el.events)
	start := offset - el.dropped
	if start < 0 {
		start = 0
	}
	if start >= len(el.events) {
		return nil, next
	}
	return append([]GameEvent(nil), el.events[start:]...), next
}

// Len returns the number of retained events.
func (el *EventLog) Len() int {
	el.mu.RLock()
	defer el.mu.RUnlock()
	return len(el.events)
}

// GenerateEventID creates a unique event identifier.
func GenerateEventID() string {
	return uuid.NewString()
}
