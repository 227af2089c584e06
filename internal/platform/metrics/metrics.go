// Package metrics provides observability for the game server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

// Collector gathers gameplay and transport counters.
type Collector struct {
	// Game metrics
	GamesStarted  int64
	GamesWon      int64
	GamesLost     int64
	Reveals       int64
	CellsRevealed int64
	LargestFlood  int64
	FlagToggles   int64

	// Session metrics
	SessionsActive  int64
	SessionsExpired int64

	// Journal metrics
	EventsWritten    int64
	EventWriteLatSum int64 // nanoseconds
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	StartTime  time.Time
	lastGameAt time.Time
	mu         sync.RWMutex
}

// Global collector instance
var collector = NewCollector()

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// NewCollector returns an empty collector. Tests use their own instance.
func NewCollector() *Collector {
	return &Collector{StartTime: time.Now()}
}

// RecordGameStarted counts a new board.
func (c *Collector) RecordGameStarted() {
	atomic.AddInt64(&c.GamesStarted, 1)

	c.mu.Lock()
	c.lastGameAt = time.Now()
	c.mu.Unlock()
}

// RecordReveal counts a reveal that opened cells cells.
func (c *Collector) RecordReveal(cells int) {
	atomic.AddInt64(&c.Reveals, 1)
	atomic.AddInt64(&c.CellsRevealed, int64(cells))

	for {
		max := atomic.LoadInt64(&c.LargestFlood)
		if int64(cells) <= max || atomic.CompareAndSwapInt64(&c.LargestFlood, max, int64(cells)) {
			return
		}
	}
}

// RecordFlag counts a flag toggle.
func (c *Collector) RecordFlag() {
	atomic.AddInt64(&c.FlagToggles, 1)
}

// RecordOutcome counts a finished game.
func (c *Collector) RecordOutcome(won bool) {
	if won {
		atomic.AddInt64(&c.GamesWon, 1)
	} else {
		atomic.AddInt64(&c.GamesLost, 1)
	}
}

// RecordSession records session registry changes.
func (c *Collector) RecordSession(delta int64) {
	atomic.AddInt64(&c.SessionsActive, delta)
}

// RecordSessionExpired counts a session removed by the idle sweep.
func (c *Collector) RecordSessionExpired() {
	atomic.AddInt64(&c.SessionsExpired, 1)
}

// RecordEventWrite records a journal write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.EventWriteLatMax) {
		atomic.StoreInt64(&c.EventWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	eventsWritten := atomic.LoadInt64(&c.EventsWritten)
	reveals := atomic.LoadInt64(&c.Reveals)

	var eventAvg, cellsPerReveal float64
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6 // ms
	}
	if reveals > 0 {
		cellsPerReveal = float64(atomic.LoadInt64(&c.CellsRevealed)) / float64(reveals)
	}

	lastGame := "never"
	if !c.lastGameAt.IsZero() {
		lastGame = humanize.Time(c.lastGameAt)
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),
		"started":        humanize.Time(c.StartTime),

		"games": map[string]interface{}{
			"started":          atomic.LoadInt64(&c.GamesStarted),
			"won":              atomic.LoadInt64(&c.GamesWon),
			"lost":             atomic.LoadInt64(&c.GamesLost),
			"reveals":          reveals,
			"cells_revealed":   atomic.LoadInt64(&c.CellsRevealed),
			"cells_per_reveal": cellsPerReveal,
			"largest_flood":    atomic.LoadInt64(&c.LargestFlood),
			"flag_toggles":     atomic.LoadInt64(&c.FlagToggles),
			"last_game":        lastGame,
		},

		"sessions": map[string]interface{}{
			"active":  atomic.LoadInt64(&c.SessionsActive),
			"expired": atomic.LoadInt64(&c.SessionsExpired),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Game metrics
		fmt.Fprintf(w, "# HELP mines_games_total Games by outcome\n")
		fmt.Fprintf(w, "# TYPE mines_games_total counter\n")
		fmt.Fprintf(w, "mines_games_total{outcome=\"started\"} %d\n", atomic.LoadInt64(&c.GamesStarted))
		fmt.Fprintf(w, "mines_games_total{outcome=\"won\"} %d\n", atomic.LoadInt64(&c.GamesWon))
		fmt.Fprintf(w, "mines_games_total{outcome=\"lost\"} %d\n\n", atomic.LoadInt64(&c.GamesLost))

		fmt.Fprintf(w, "# HELP mines_reveals_total Reveal calls that opened at least one cell\n")
		fmt.Fprintf(w, "# TYPE mines_reveals_total counter\n")
		fmt.Fprintf(w, "mines_reveals_total %d\n\n", atomic.LoadInt64(&c.Reveals))

		fmt.Fprintf(w, "# HELP mines_cells_revealed_total Cells opened including flood fill\n")
		fmt.Fprintf(w, "# TYPE mines_cells_revealed_total counter\n")
		fmt.Fprintf(w, "mines_cells_revealed_total %d\n\n", atomic.LoadInt64(&c.CellsRevealed))

		fmt.Fprintf(w, "# HELP mines_flag_toggles_total Flag toggles\n")
		fmt.Fprintf(w, "# TYPE mines_flag_toggles_total counter\n")
		fmt.Fprintf(w, "mines_flag_toggles_total %d\n\n", atomic.LoadInt64(&c.FlagToggles))

		// Session metrics
		fmt.Fprintf(w, "# HELP mines_sessions_active Live sessions\n")
		fmt.Fprintf(w, "# TYPE mines_sessions_active gauge\n")
		fmt.Fprintf(w, "mines_sessions_active %d\n\n", atomic.LoadInt64(&c.SessionsActive))

		// Journal metrics
		fmt.Fprintf(w, "# HELP mines_events_written Total journal events written\n")
		fmt.Fprintf(w, "# TYPE mines_events_written counter\n")
		fmt.Fprintf(w, "mines_events_written %d\n\n", atomic.LoadInt64(&c.EventsWritten))

		fmt.Fprintf(w, "# HELP mines_event_write_errors Total journal write errors\n")
		fmt.Fprintf(w, "# TYPE mines_event_write_errors counter\n")
		fmt.Fprintf(w, "mines_event_write_errors %d\n\n", atomic.LoadInt64(&c.EventWriteErrors))

		// WebSocket metrics
		fmt.Fprintf(w, "# HELP mines_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE mines_ws_connections gauge\n")
		fmt.Fprintf(w, "mines_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP mines_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE mines_ws_messages_total counter\n")
		fmt.Fprintf(w, "mines_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "mines_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
