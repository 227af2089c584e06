// Package engine owns a single Minesweeper board and journals every move on it.
//
// An Engine is the application-level state holder for one player: it creates
// the board, replaces it wholesale on Initialize ("play again") and forwards
// reveal and flag calls. It is not safe for concurrent use; hosts that accept
// moves from several goroutines must serialize them (see package session).
package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/MRamiBalles/minesweeper/server/internal/domain/board"
	"github.com/MRamiBalles/minesweeper/server/internal/events"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/logger"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/metrics"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/random"
)

// SourceFactory returns the random source for a new board.
type SourceFactory func() (board.Source, error)

// Settings configures how an Engine generates boards.
type Settings struct {
	Board     board.Config
	Placement board.Placement
	// NewSource seeds each new board. Nil uses a crypto-seeded PCG.
	NewSource SourceFactory
	// SessionID tags journal events with the owning session.
	SessionID string
	// Metrics defaults to the global collector.
	Metrics *metrics.Collector
}

// DefaultSettings returns settings for the classic 8x8, 10-mine game.
func DefaultSettings() Settings {
	return Settings{
		Board:     board.DefaultConfig(),
		Placement: board.PlacementRejection,
	}
}

// Engine is the central orchestrator between the board, the journal and metrics.
type Engine struct {
	settings Settings
	eventLog *events.EventLog
	logger   *logger.Logger
	metrics  *metrics.Collector

	// State
	board  *board.Board
	gameID string
	moves  int
}

// NewEngine validates the settings and starts the first game.
// eventLog may be nil when no journal is wanted.
func NewEngine(settings Settings, eventLog *events.EventLog, log *logger.Logger) (*Engine, error) {
	if err := settings.Board.Validate(); err != nil {
		return nil, err
	}
	if settings.NewSource == nil {
		settings.NewSource = cryptoSource
	}
	if settings.Metrics == nil {
		settings.Metrics = metrics.Get()
	}

	e := &Engine{
		settings: settings,
		eventLog: eventLog,
		logger:   log,
		metrics:  settings.Metrics,
	}
	if _, err := e.Initialize(); err != nil {
		return nil, err
	}
	return e, nil
}

func cryptoSource() (board.Source, error) {
	r, err := random.NewRand()
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Initialize discards the current board and starts a new game.
// On error the previous game is kept.
func (e *Engine) Initialize() (board.Snapshot, error) {
	src, err := e.settings.NewSource()
	if err != nil {
		return board.Snapshot{}, fmt.Errorf("seed mine layout: %w", err)
	}
	b, err := board.New(e.settings.Board, src, e.settings.Placement)
	if err != nil {
		return board.Snapshot{}, fmt.Errorf("generate board: %w", err)
	}

	e.board = b
	e.gameID = uuid.NewString()
	e.moves = 0

	e.metrics.RecordGameStarted()
	cfg := b.Config()
	e.journal(events.EventTypeGameStarted, events.GameStartedPayload{
		Width:     cfg.Width,
		Height:    cfg.Height,
		Mines:     cfg.Mines,
		Placement: e.settings.Placement.String(),
	})
	e.logger.Event(string(events.EventTypeGameStarted), e.actor(),
		fmt.Sprintf("game %s %dx%d with %d mines", e.gameID, cfg.Width, cfg.Height, cfg.Mines))

	return b.Snapshot(), nil
}

// Reveal opens the cell at (x, y) and returns the new board and status.
// Finished games are returned unchanged.
func (e *Engine) Reveal(x, y int) (board.Snapshot, board.Status) {
	if status := e.board.Status(); status.Terminal() {
		return e.board.Snapshot(), status
	}

	res := e.board.Reveal(x, y)
	if res.Changed() {
		e.moves++
		e.metrics.RecordReveal(len(res.Revealed))
		e.journal(events.EventTypeCellRevealed, events.CellRevealedPayload{X: x, Y: y, Cells: len(res.Revealed)})

		if res.Status.Terminal() {
			e.finish(x, y, res.Status)
		}
	}
	return e.board.Snapshot(), res.Status
}

// ToggleFlag flips the flag at (x, y) and returns the new board.
func (e *Engine) ToggleFlag(x, y int) board.Snapshot {
	if e.board.ToggleFlag(x, y) {
		e.moves++
		e.metrics.RecordFlag()

		c, _ := e.board.Cell(x, y)
		e.journal(events.EventTypeFlagToggled, events.FlagToggledPayload{X: x, Y: y, Flagged: c.Flagged})
	}
	return e.board.Snapshot()
}

// Status returns the status of the current game.
func (e *Engine) Status() board.Status {
	return e.board.Status()
}

// Snapshot returns a copy of the current board.
func (e *Engine) Snapshot() board.Snapshot {
	return e.board.Snapshot()
}

// GameID identifies the current game; it changes on every Initialize.
func (e *Engine) GameID() string {
	return e.gameID
}

// Moves counts the state-changing reveals and flags of the current game.
func (e *Engine) Moves() int {
	return e.moves
}

func (e *Engine) finish(x, y int, status board.Status) {
	won := status == board.Won
	e.metrics.RecordOutcome(won)

	eventType := events.EventTypeGameLost
	if won {
		eventType = events.EventTypeGameWon
	}
	revealed := e.board.Snapshot().RevealedCount()
	e.journal(eventType, events.GameOverPayload{X: x, Y: y, Revealed: revealed, Moves: e.moves})
	e.logger.Event(string(eventType), e.actor(),
		fmt.Sprintf("game %s ended at (%d,%d) after %d moves", e.gameID, x, y, e.moves))
}

func (e *Engine) journal(eventType events.EventType, payload interface{}) {
	if e.eventLog == nil {
		return
	}
	err := e.eventLog.Append(events.GameEvent{
		GameID:    e.gameID,
		SessionID: e.settings.SessionID,
		Type:      eventType,
		Payload:   payload,
	})
	if err != nil {
		e.logger.Warnf("journal %s for game %s: %v", eventType, e.gameID, err)
	}
}

func (e *Engine) actor() string {
	if e.settings.SessionID != "" {
		return e.settings.SessionID
	}
	return e.gameID
}
