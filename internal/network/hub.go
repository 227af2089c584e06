package network

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/MRamiBalles/minesweeper/server/internal/events"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/logger"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/metrics"
	"github.com/MRamiBalles/minesweeper/server/internal/platform/optimization"
	"github.com/MRamiBalles/minesweeper/server/internal/session"
)

// Hub maintains the set of active clients and broadcasts the outcome feed to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.Mutex
	active     atomic.Int64

	sessions *session.Manager
	tuning   *optimization.Config
	upgrader websocket.Upgrader
	logger   *logger.Logger
	metrics  *metrics.Collector
}

// NewHub initializes a new WebSocket Hub. An empty allowedOrigins accepts
// every origin.
func NewHub(sessions *session.Manager, tuning *optimization.Config, allowedOrigins []string, log *logger.Logger, m *metrics.Collector) *Hub {
	if m == nil {
		m = metrics.Get()
	}
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
		sessions:   sessions,
		tuning:     tuning,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger:  log,
		metrics: m,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

// Run starts the Hub's main loop. When ctx ends every client is disconnected.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("WebSocket Hub shutting down.")
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("New WebSocket client connected")
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.logger.Info("WebSocket client disconnected")
			}
			h.mu.Unlock()
		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow reader: the feed is best effort.
					h.metrics.RecordWSError()
				}
			}
			h.mu.Unlock()
		}
	}
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	return int(h.active.Load())
}

// ServeWS upgrades the request and attaches a new session to the connection.
// GET /ws
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	n := h.active.Add(1)
	if limit := h.tuning.MaxConnections; limit > 0 && n > int64(limit) {
		h.active.Add(-1)
		jsonError(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	sessionID, err := h.sessions.Create()
	if err != nil {
		h.active.Add(-1)
		jsonError(w, "Too many sessions", http.StatusServiceUnavailable)
		return
	}

	// The connection owns the session until it closes.
	h.sessions.Hold(sessionID)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.active.Add(-1)
		h.sessions.Remove(sessionID)
		h.logger.Warnf("Failed to upgrade websocket connection: %v", err)
		return
	}
	h.metrics.RecordWSConnection(1)

	client := NewClient(h, conn, sessionID)
	if !client.Register() {
		client.close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.WritePump()
	go client.ReadPump()
}

// FeedItem announces a finished game to every connected client.
type FeedItem struct {
	GameID    string           `json:"game_id"`
	Outcome   events.EventType `json:"outcome"`
	Moves     int              `json:"moves"`
	Timestamp time.Time        `json:"timestamp"`
}

// BroadcastFeed serializes a feed item and queues it for every client.
func (h *Hub) BroadcastFeed(item FeedItem) {
	payload, err := json.Marshal(ServerMessage{Type: MessageFeed, Feed: &item})
	if err != nil {
		h.logger.Errorf("Failed to serialize feed item for WebSocket broadcast: %v", err)
		return
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	}
}

// StartEventPoller spawns a goroutine that polls the EventLog and pushes
// game outcomes to the Hub. Only events appended after the call are sent.
func (h *Hub) StartEventPoller(ctx context.Context, eventLog *events.EventLog, interval time.Duration) {
	_, offset := eventLog.Since(math.MaxInt)

	go func() {
		pollInterval := time.NewTicker(interval)
		defer pollInterval.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-pollInterval.C:
				var newEvents []events.GameEvent
				newEvents, offset = eventLog.Since(offset)
				for _, e := range newEvents {
					if e.Type != events.EventTypeGameWon && e.Type != events.EventTypeGameLost {
						continue
					}
					item := FeedItem{GameID: e.GameID, Outcome: e.Type, Timestamp: e.Timestamp}
					if p, ok := e.Payload.(events.GameOverPayload); ok {
						item.Moves = p.Moves
					}
					h.BroadcastFeed(item)
				}
			}
		}
	}()
}
