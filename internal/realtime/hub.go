// Package realtime pushes board changes to connected clients over
// websockets. Each client subscribes to one workspace and receives every
// event published for it.
package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"

	"github.com/existflow/taskboard/internal/logger"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Clients only send pings and close frames
	maxMessageSize = 4096

	sendBuffer = 64
)

// EventType names a change on the board
type EventType string

const (
	TaskCreated       EventType = "task.created"
	TaskUpdated       EventType = "task.updated"
	TaskDeleted       EventType = "task.deleted"
	TaskMoved         EventType = "task.moved"
	ProjectCreated    EventType = "project.created"
	ProjectUpdated    EventType = "project.updated"
	ProjectDeleted    EventType = "project.deleted"
	ColumnCreated     EventType = "column.created"
	ColumnUpdated     EventType = "column.updated"
	ColumnDeleted     EventType = "column.deleted"
	WorkspaceUpdated  EventType = "workspace.updated"
	WorkspaceDeleted  EventType = "workspace.deleted"
	WorkspaceReset    EventType = "workspace.reset"
	InvitationCreated EventType = "invitation.created"
	InvitationUpdated EventType = "invitation.updated"
	InvitationDeleted EventType = "invitation.deleted"
)

// Event is the message sent to subscribers
type Event struct {
	Type        EventType `json:"type"`
	WorkspaceID string    `json:"workspace_id"`
	EntityID    string    `json:"entity_id,omitempty"`
	Actor       string    `json:"actor,omitempty"`
	Data        any       `json:"data,omitempty"`
	At          time.Time `json:"at"`
}

// Client is one websocket subscriber
type Client struct {
	hub         *Hub
	conn        *websocket.Conn
	send        chan []byte
	workspaceID string
	userID      string
	sessionID   string
}

// NewClient wraps an upgraded connection opened by sessionID of userID
func NewClient(hub *Hub, conn *websocket.Conn, workspaceID, userID, sessionID string) *Client {
	return &Client{
		hub:         hub,
		conn:        conn,
		send:        make(chan []byte, sendBuffer),
		workspaceID: workspaceID,
		userID:      userID,
		sessionID:   sessionID,
	}
}

// Serve registers the client and pumps messages until the connection drops
func (c *Client) Serve() {
	select {
	case c.hub.register <- c:
	case <-c.hub.done:
		c.conn.Close()
		return
	}
	go c.writePump()
	c.readPump()
}

// readPump drains the connection so pongs and close frames are handled
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warn("websocket read failed", logger.F("workspace", c.workspaceID), logger.F("error", err))
			}
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub tracks subscribers per workspace and fans out events
type Hub struct {
	clients    map[string]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	drop       chan selector
	count      chan chan int
	done       chan struct{}
}

// selector matches subscribers to disconnect; empty fields match anything
type selector struct {
	workspaceID string
	userID      string
	sessionID   string
}

func (s selector) matches(c *Client) bool {
	return (s.workspaceID == "" || s.workspaceID == c.workspaceID) &&
		(s.userID == "" || s.userID == c.userID) &&
		(s.sessionID == "" || s.sessionID == c.sessionID)
}

// NewHub creates a hub; call Run to start it
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		drop:       make(chan selector),
		count:      make(chan chan int),
		done:       make(chan struct{}),
	}
}

// Publish queues an event for the subscribers of its workspace. It never
// blocks the caller; events are dropped when the queue is full.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	select {
	case h.broadcast <- ev:
	default:
		logger.Warn("event queue full, dropping event", logger.F("type", string(ev.Type)))
	}
}

// Disconnect closes the feeds userID holds on workspaceID. An empty userID
// closes every feed of the workspace. Events published before the call are
// still delivered first.
func (h *Hub) Disconnect(workspaceID, userID string) {
	if workspaceID == "" {
		return
	}
	h.disconnect(selector{workspaceID: workspaceID, userID: userID})
}

// DisconnectSession closes every feed opened with sessionID
func (h *Hub) DisconnectSession(sessionID string) {
	if sessionID == "" {
		return
	}
	h.disconnect(selector{sessionID: sessionID})
}

func (h *Hub) disconnect(sel selector) {
	if h == nil {
		return
	}
	select {
	case h.drop <- sel:
	case <-h.done:
	}
}

// Subscribers returns the number of connected clients
func (h *Hub) Subscribers() int {
	reply := make(chan int)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

// Run is the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for client := range set {
					close(client.send)
				}
			}
			h.clients = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			set, ok := h.clients[client.workspaceID]
			if !ok {
				set = make(map[*Client]bool)
				h.clients[client.workspaceID] = set
			}
			set[client] = true
			logger.Debug("client subscribed", logger.F("workspace", client.workspaceID), logger.F("user", client.userID))

		case client := <-h.unregister:
			h.remove(client)

		case sel := <-h.drop:
			h.flush()
			n := 0
			for _, set := range h.clients {
				for client := range set {
					if sel.matches(client) {
						h.remove(client)
						n++
					}
				}
			}
			if n > 0 {
				logger.Info("closed subscriber feeds",
					logger.F("workspace", sel.workspaceID), logger.F("user", sel.userID), logger.F("count", n))
			}

		case reply := <-h.count:
			n := 0
			for _, set := range h.clients {
				n += len(set)
			}
			reply <- n

		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev Event) {
	message, err := json.Marshal(ev)
	if err != nil {
		logger.Error("failed to encode event", logger.F("error", err))
		return
	}
	for client := range h.clients[ev.WorkspaceID] {
		select {
		case client.send <- message:
		default:
			// Slow client, drop it
			h.remove(client)
		}
	}
}

// flush delivers the events already queued
func (h *Hub) flush() {
	for {
		select {
		case ev := <-h.broadcast:
			h.deliver(ev)
		default:
			return
		}
	}
}

func (h *Hub) remove(client *Client) {
	set, ok := h.clients[client.workspaceID]
	if !ok || !set[client] {
		return
	}
	delete(set, client)
	close(client.send)
	if len(set) == 0 {
		delete(h.clients, client.workspaceID)
	}
	logger.Debug("client unsubscribed", logger.F("workspace", client.workspaceID), logger.F("user", client.userID))
}
