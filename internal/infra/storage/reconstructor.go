package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/MRamiBalles/minesweeper/server/internal/events"
)

// Reconstructor summarizes finished and running games from the journal.
// The summary is for auditing; games are never restored from it.
type Reconstructor struct {
	eventRepo EventRepository
}

// NewReconstructor creates a new recap builder.
func NewReconstructor(eventRepo EventRepository) *Reconstructor {
	return &Reconstructor{eventRepo: eventRepo}
}

// Recap is the audit summary of one game.
type Recap struct {
	GameID        string       `json:"game_id"`
	SessionID     string       `json:"-"` // bearer credential, never published
	Width         int          `json:"width"`
	Height        int          `json:"height"`
	Mines         int          `json:"mines"`
	Placement     string       `json:"placement"`
	Outcome       string       `json:"outcome"` // IN_PROGRESS, WON or LOST
	Moves         int          `json:"moves"`
	Reveals       int          `json:"reveals"`
	FlagsPlaced   int          `json:"flags_placed"`
	FlagsRemoved  int          `json:"flags_removed"`
	CellsRevealed int          `json:"cells_revealed"`
	StartedAt     time.Time    `json:"started_at"`
	EndedAt       *time.Time   `json:"ended_at,omitempty"`
	Duration      string       `json:"duration,omitempty"`
	Timeline      []RecapEvent `json:"timeline"`
}

// RecapEvent is a simplified event for the timeline.
type RecapEvent struct {
	Timestamp string `json:"timestamp"`
	EventType string `json:"event_type"`
	Summary   string `json:"summary"` // Human-readable description
}

// BuildRecap folds the stored events of a game into a Recap.
func (r *Reconstructor) BuildRecap(ctx context.Context, gameID string) (*Recap, error) {
	stored, err := r.eventRepo.GetByGameID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game events: %w", err)
	}
	if len(stored) == 0 {
		return nil, ErrGameNotFound
	}
	return r.Summarize(gameID, stored), nil
}

// Summarize folds already loaded events of one game into a Recap.
func (r *Reconstructor) Summarize(gameID string, stored []GameEvent) *Recap {
	recap := &Recap{GameID: gameID, Outcome: "IN_PROGRESS", Timeline: make([]RecapEvent, 0, len(stored))}
	for _, e := range stored {
		r.apply(recap, e)
		recap.Timeline = append(recap.Timeline, RecapEvent{
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339),
			EventType: e.EventType,
			Summary:   summarizeEvent(e),
		})
	}

	if recap.EndedAt != nil && !recap.StartedAt.IsZero() {
		recap.Duration = strings.TrimSpace(humanize.RelTime(recap.StartedAt, *recap.EndedAt, "", ""))
	}
	return recap
}

func (r *Reconstructor) apply(recap *Recap, e GameEvent) {
	if recap.SessionID == "" {
		recap.SessionID = e.SessionID
	}

	switch events.EventType(e.EventType) {
	case events.EventTypeGameStarted:
		recap.StartedAt = e.Timestamp
		recap.Width = intField(e.Payload, "width")
		recap.Height = intField(e.Payload, "height")
		recap.Mines = intField(e.Payload, "mines")
		recap.Placement, _ = e.Payload["placement"].(string)
	case events.EventTypeCellRevealed:
		recap.Moves++
		recap.Reveals++
		recap.CellsRevealed += intField(e.Payload, "cells")
	case events.EventTypeFlagToggled:
		recap.Moves++
		if flagged, _ := e.Payload["flagged"].(bool); flagged {
			recap.FlagsPlaced++
		} else {
			recap.FlagsRemoved++
		}
	case events.EventTypeGameWon, events.EventTypeGameLost:
		recap.Outcome = "WON"
		if e.EventType == string(events.EventTypeGameLost) {
			recap.Outcome = "LOST"
		}
		ended := e.Timestamp
		recap.EndedAt = &ended
	}
}

// summarizeEvent creates a human-readable summary.
func summarizeEvent(e GameEvent) string {
	x, y := intField(e.Payload, "x"), intField(e.Payload, "y")

	switch events.EventType(e.EventType) {
	case events.EventTypeGameStarted:
		return fmt.Sprintf("New %dx%d board with %d mines.",
			intField(e.Payload, "width"), intField(e.Payload, "height"), intField(e.Payload, "mines"))
	case events.EventTypeCellRevealed:
		return fmt.Sprintf("Revealed (%d,%d), opening %s.", x, y, cellCount(intField(e.Payload, "cells")))
	case events.EventTypeFlagToggled:
		if flagged, _ := e.Payload["flagged"].(bool); flagged {
			return fmt.Sprintf("Flagged (%d,%d).", x, y)
		}
		return fmt.Sprintf("Removed the flag at (%d,%d).", x, y)
	case events.EventTypeGameWon:
		return fmt.Sprintf("Cleared the board in %d moves.", intField(e.Payload, "moves"))
	case events.EventTypeGameLost:
		return fmt.Sprintf("Hit a mine at (%d,%d) after %d moves.", x, y, intField(e.Payload, "moves"))
	default:
		return "Unknown event."
	}
}

func cellCount(n int) string {
	if n == 1 {
		return "1 cell"
	}
	return humanize.Comma(int64(n)) + " cells"
}

// intField reads a JSON number from a decoded payload.
func intField(payload map[string]interface{}, key string) int {
	if v, ok := payload[key].(float64); ok {
		return int(v)
	}
	return 0
}
