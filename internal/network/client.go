package network

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/MRamiBalles/minesweeper/server/internal/engine"
	"github.com/MRamiBalles/minesweeper/server/internal/view"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second
	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Maximum message size allowed from peer.
	maxMessageSize = 512
)

// Client actions.
const (
	ActionNewGame = "NEW_GAME"
	ActionReveal  = "REVEAL"
	ActionFlag    = "FLAG"
	ActionState   = "STATE"
)

// Server message types.
const (
	MessageState = "STATE"
	MessageError = "ERROR"
	MessageFeed  = "FEED"
)

// PlayerAction represents an incoming command from the frontend.
type PlayerAction struct {
	Type string `json:"type"` // NEW_GAME, REVEAL, FLAG or STATE
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

// ServerMessage is everything the server sends over the socket.
type ServerMessage struct {
	Type  string         `json:"type"`
	View  *view.GameView `json:"view,omitempty"`
	Feed  *FeedItem      `json:"feed,omitempty"`
	Error string         `json:"error,omitempty"`
}

// Client is one WebSocket connection. Each connection owns one session.
type Client struct {
	hub       *Hub
	conn      *websocket.Conn
	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	sessionID string
	limiter   *rate.Limiter
}

// NewClient creates a new WebSocket client bound to sessionID.
func NewClient(hub *Hub, conn *websocket.Conn, sessionID string) *Client {
	perSecond := hub.tuning.MaxMessagesPerSecond
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, hub.tuning.ClientSendBuffer),
		closed:    make(chan struct{}),
		sessionID: sessionID,
		limiter:   rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}
}

// Register adds the client to the hub. It fails once the hub has stopped.
func (c *Client) Register() bool {
	select {
	case c.hub.register <- c:
		return true
	case <-c.hub.done:
		return false
	}
}

// close releases the connection and its session. Safe to call more than once.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
		c.hub.sessions.Remove(c.sessionID)
		c.hub.active.Add(-1)
		c.hub.metrics.RecordWSConnection(-1)
	})
}

// ReadPump pumps actions from the websocket connection into the session.
func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// The first game is already dealt; show it.
	c.handlePlayerAction(PlayerAction{Type: ActionState})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warnf("websocket read: %v", err)
				c.hub.metrics.RecordWSError()
			}
			break
		}
		c.hub.metrics.RecordWSMessage(true)

		var action PlayerAction
		if err := json.Unmarshal(message, &action); err != nil {
			c.sendError("invalid message")
			continue
		}
		if !c.limiter.Allow() {
			c.hub.logger.Warn("Rate limit exceeded for session " + c.sessionID)
			c.sendError("rate limit exceeded")
			continue
		}

		c.handlePlayerAction(action)
	}
}

func (c *Client) handlePlayerAction(action PlayerAction) {
	var v view.GameView
	err := c.hub.sessions.Do(c.sessionID, func(e *engine.Engine) error {
		switch action.Type {
		case ActionNewGame:
			if _, err := e.Initialize(); err != nil {
				return err
			}
		case ActionReveal:
			e.Reveal(action.X, action.Y)
		case ActionFlag:
			e.ToggleFlag(action.X, action.Y)
		case ActionState:
		default:
			return fmt.Errorf("unknown action %q", action.Type)
		}
		v = view.New(c.sessionID, e.GameID(), e.Snapshot())
		return nil
	})
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.sendMessage(ServerMessage{Type: MessageState, View: &v})
}

func (c *Client) sendError(message string) {
	c.sendMessage(ServerMessage{Type: MessageError, Error: message})
}

func (c *Client) sendMessage(msg ServerMessage) {
	payload, err := json.Marshal(msg)
	if err != nil {
		c.hub.logger.Errorf("Failed to serialize %s message: %v", msg.Type, err)
		return
	}
	select {
	case c.send <- payload:
	default:
		c.hub.logger.Warn("Send buffer full, dropping message for session " + c.sessionID)
		c.hub.metrics.RecordWSError()
	}
}

// WritePump pumps messages from the send buffer to the websocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			c.hub.metrics.RecordWSMessage(false)
		case <-c.closed:
			return
		case <-c.hub.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
