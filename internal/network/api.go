package network

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/MRamiBalles/minesweeper/server/internal/engine"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/logger"
	"github.com/MRamiBalles/minesweeper/server/internal/session"
	"github.com/MRamiBalles/minesweeper/server/internal/view"
)

const maxRequestBody = 1 << 10

// API serves the REST surface over the session registry.
type API struct {
	sessions *session.Manager
	logger   *logger.Logger
}

// NewAPI creates the REST handlers.
func NewAPI(sessions *session.Manager, log *logger.Logger) *API {
	return &API{sessions: sessions, logger: log}
}

// MoveRequest is the body of reveal and flag calls.
type MoveRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// RegisterRoutes sets up the session API routes.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", a.HandleCreate)
	mux.HandleFunc("GET /api/sessions/{id}", a.HandleState)
	mux.HandleFunc("DELETE /api/sessions/{id}", a.HandleDelete)
	mux.HandleFunc("POST /api/sessions/{id}/new", a.HandleNewGame)
	mux.HandleFunc("POST /api/sessions/{id}/reveal", a.HandleReveal)
	mux.HandleFunc("POST /api/sessions/{id}/flag", a.HandleFlag)
}

// HandleCreate starts a session with its first game.
// POST /api/sessions
func (a *API) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, err := a.sessions.Create()
	if err != nil {
		a.sessionError(w, err)
		return
	}
	a.respond(w, id, http.StatusCreated, func(*engine.Engine) error { return nil })
}

// HandleState returns the current board.
// GET /api/sessions/{id}
func (a *API) HandleState(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r.PathValue("id"), http.StatusOK, func(*engine.Engine) error { return nil })
}

// HandleNewGame replaces the session's board ("play again").
// POST /api/sessions/{id}/new
func (a *API) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	a.respond(w, r.PathValue("id"), http.StatusOK, func(e *engine.Engine) error {
		_, err := e.Initialize()
		return err
	})
}

// HandleReveal opens a cell.
// POST /api/sessions/{id}/reveal {"x":..,"y":..}
func (a *API) HandleReveal(w http.ResponseWriter, r *http.Request) {
	x, y, ok := a.decodeMove(w, r)
	if !ok {
		return
	}
	a.respond(w, r.PathValue("id"), http.StatusOK, func(e *engine.Engine) error {
		e.Reveal(x, y)
		return nil
	})
}

// HandleFlag toggles a flag.
// POST /api/sessions/{id}/flag {"x":..,"y":..}
func (a *API) HandleFlag(w http.ResponseWriter, r *http.Request) {
	x, y, ok := a.decodeMove(w, r)
	if !ok {
		return
	}
	a.respond(w, r.PathValue("id"), http.StatusOK, func(e *engine.Engine) error {
		e.ToggleFlag(x, y)
		return nil
	})
}

// HandleDelete ends a session.
// DELETE /api/sessions/{id}
func (a *API) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !a.sessions.Remove(id) {
		jsonError(w, "Session not found", http.StatusNotFound)
		return
	}
	a.logger.Event("SESSION_CLOSED", id, "closed by client")
	w.WriteHeader(http.StatusNoContent)
}

// respond runs fn on the session's engine and writes the resulting view.
func (a *API) respond(w http.ResponseWriter, id string, status int, fn func(*engine.Engine) error) {
	var v view.GameView
	err := a.sessions.Do(id, func(e *engine.Engine) error {
		if err := fn(e); err != nil {
			return err
		}
		v = view.New(id, e.GameID(), e.Snapshot())
		return nil
	})
	if err != nil {
		a.sessionError(w, err)
		return
	}
	jsonResponse(w, status, v)
}

func (a *API) decodeMove(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	var req MoveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return 0, 0, false
	}
	if req.X == nil || req.Y == nil {
		jsonError(w, "Missing x or y", http.StatusBadRequest)
		return 0, 0, false
	}
	return *req.X, *req.Y, true
}

func (a *API) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		jsonError(w, "Session not found", http.StatusNotFound)
	case errors.Is(err, session.ErrTooManySessions):
		jsonError(w, "Too many sessions", http.StatusTooManyRequests)
	default:
		a.logger.Errorf("session call failed: %v", err)
		jsonError(w, "Internal error", http.StatusInternalServerError)
	}
}

// jsonError sends an error response.
func jsonError(w http.ResponseWriter, message string, status int) {
	jsonResponse(w, status, map[string]string{"error": message})
}

func jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
