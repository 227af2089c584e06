// Package storage provides the persistence layer for the game server.
// It stores the move journal in SQLite; nothing here is read back to
// restore a game, only to audit one.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrGameNotFound is returned when no events exist for a game.
var ErrGameNotFound = errors.New("game not found")

// GameEvent mirrors the journal event structure for persistence.
// The domain packages do NOT import this; events.EventPersister bridges them.
type GameEvent struct {
	ID        string                 `json:"id" db:"id"`
	GameID    string                 `json:"game_id" db:"game_id"`
	SessionID string                 `json:"session_id" db:"session_id"`
	Timestamp time.Time              `json:"timestamp" db:"timestamp"`
	EventType string                 `json:"event_type" db:"event_type"`
	Payload   map[string]interface{} `json:"payload" db:"payload"`
}

// EventRepository defines the interface for journal persistence.
type EventRepository interface {
	// Append adds a new event to the immutable ledger.
	Append(ctx context.Context, event GameEvent) error

	// GetByGameID retrieves all events of one game in append order.
	GetByGameID(ctx context.Context, gameID string) ([]GameEvent, error)

	// GetBySessionID retrieves all events of every game played in a session.
	GetBySessionID(ctx context.Context, sessionID string) ([]GameEvent, error)

	// GetByEventType retrieves the events of one type within a game.
	GetByEventType(ctx context.Context, gameID string, eventType string) ([]GameEvent, error)
}
