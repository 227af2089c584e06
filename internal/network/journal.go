package network

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/MRamiBalles/minesweeper/server/internal/events"
	"github.com/MRamiBalles/minesweeper/server/internal/infra/storage"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/logger"
)

// JournalHandler exposes the stored move history for auditing finished games.
type JournalHandler struct {
	repo          storage.EventRepository
	reconstructor *storage.Reconstructor
	eventLog      *events.EventLog
	logger        *logger.Logger
}

// NewJournalHandler creates a new journal handler.
func NewJournalHandler(repo storage.EventRepository, el *events.EventLog, log *logger.Logger) *JournalHandler {
	return &JournalHandler{
		repo:          repo,
		reconstructor: storage.NewReconstructor(repo),
		eventLog:      el,
		logger:        log,
	}
}

// JournalEvent is a stored event for public viewing. Session IDs are dropped.
type JournalEvent struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Type      string                 `json:"type"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// JournalResponse is the API response for a game's journal.
type JournalResponse struct {
	GameID      string         `json:"game_id"`
	Recap       *storage.Recap `json:"recap"`
	TotalEvents int            `json:"total_events"`
	FilteredBy  string         `json:"filtered_by,omitempty"`
	GeneratedAt string         `json:"generated_at"`
	Events      []JournalEvent `json:"events"`
}

// RegisterRoutes sets up the journal API routes.
func (jh *JournalHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/games/{id}/journal", jh.HandleJournal)
	mux.HandleFunc("GET /api/sessions/{id}/history", jh.HandleSessionHistory)
	mux.HandleFunc("GET /api/journal/stats", jh.HandleStats)
}

// HandleJournal returns the recap and stored events of a game.
// GET /api/games/{id}/journal?type=CELL_REVEALED
func (jh *JournalHandler) HandleJournal(w http.ResponseWriter, r *http.Request) {
	gameID := r.PathValue("id")
	eventType := r.URL.Query().Get("type")

	recap, err := jh.reconstructor.BuildRecap(r.Context(), gameID)
	if errors.Is(err, storage.ErrGameNotFound) {
		jsonError(w, "Game not found", http.StatusNotFound)
		return
	}
	if err != nil {
		jh.logger.Errorf("build recap for %s: %v", gameID, err)
		jsonError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	var stored []storage.GameEvent
	if eventType != "" {
		stored, err = jh.repo.GetByEventType(r.Context(), gameID, eventType)
	} else {
		stored, err = jh.repo.GetByGameID(r.Context(), gameID)
	}
	if err != nil {
		jh.logger.Errorf("load journal for %s: %v", gameID, err)
		jsonError(w, "Internal error", http.StatusInternalServerError)
		return
	}

	response := JournalResponse{
		GameID:      gameID,
		Recap:       recap,
		TotalEvents: len(stored),
		FilteredBy:  eventType,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Events:      convertEvents(stored),
	}

	jh.logger.Event("JOURNAL_VIEWED", gameID, "Events:"+strconv.Itoa(len(stored)))
	jsonResponse(w, http.StatusOK, response)
}

// HandleSessionHistory returns a recap for every game played in a session.
// When the database holds nothing for the session, the in-memory journal is
// used instead.
// GET /api/sessions/{id}/history
func (jh *JournalHandler) HandleSessionHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	stored, err := jh.repo.GetBySessionID(r.Context(), sessionID)
	if err != nil {
		jh.logger.Errorf("load session history: %v", err)
		jsonError(w, "Internal error", http.StatusInternalServerError)
		return
	}
	if len(stored) == 0 {
		stored = jh.retained(sessionID)
	}

	var order []string
	byGame := make(map[string][]storage.GameEvent)
	for _, e := range stored {
		if _, ok := byGame[e.GameID]; !ok {
			order = append(order, e.GameID)
		}
		byGame[e.GameID] = append(byGame[e.GameID], e)
	}
	games := make([]*storage.Recap, 0, len(order))
	for _, gameID := range order {
		games = append(games, jh.reconstructor.Summarize(gameID, byGame[gameID]))
	}
	if len(games) == 0 {
		jsonError(w, "Session not found", http.StatusNotFound)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"total_games": len(games),
		"games":       games,
	})
}

// HandleStats returns aggregate counts over the in-memory journal window.
// GET /api/journal/stats
func (jh *JournalHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	allEvents := jh.eventLog.Replay()

	stats := map[string]int{
		"total_events":  len(allEvents),
		"games_started": 0,
		"reveals":       0,
		"flag_toggles":  0,
		"games_won":     0,
		"games_lost":    0,
	}

	for _, e := range allEvents {
		switch e.Type {
		case events.EventTypeGameStarted:
			stats["games_started"]++
		case events.EventTypeCellRevealed:
			stats["reveals"]++
		case events.EventTypeFlagToggled:
			stats["flag_toggles"]++
		case events.EventTypeGameWon:
			stats["games_won"]++
		case events.EventTypeGameLost:
			stats["games_lost"]++
		}
	}

	jsonResponse(w, http.StatusOK, map[string]interface{}{
		"generated_at": time.Now().UTC().Format(time.RFC3339),
		"stats":        stats,
	})
}

// retained converts the session's events still held by the in-memory journal.
func (jh *JournalHandler) retained(sessionID string) []storage.GameEvent {
	var out []storage.GameEvent
	for _, e := range jh.eventLog.GetBySession(sessionID) {
		stored, err := storage.FromJournal(e)
		if err != nil {
			jh.logger.Warnf("skip journal event %s: %v", e.ID, err)
			continue
		}
		out = append(out, stored)
	}
	return out
}

func convertEvents(stored []storage.GameEvent) []JournalEvent {
	out := make([]JournalEvent, 0, len(stored))
	for _, e := range stored {
		out = append(out, JournalEvent{
			ID:        e.ID,
			Timestamp: e.Timestamp.UTC().Format(time.RFC3339Nano),
			Type:      e.EventType,
			Details:   e.Payload,
		})
	}
	return out
}
