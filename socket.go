/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/Seednode/teambox/room"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	maxMessageSize = 4096
	sendBuffer     = 32
)

// ClientMessage is every request a client can send; Type selects the
// operation and the remaining fields are its payload.
type ClientMessage struct {
	Type     string `json:"type"`
	Room     string `json:"room_id,omitempty"`   // all but disconnect
	Public   bool   `json:"public,omitempty"`    // join_room
	TeamSize int    `json:"team_size,omitempty"` // join_room
	Name     string `json:"name,omitempty"`      // submit_name, add_name
	AFK      bool   `json:"afk,omitempty"`       // submit_name
	Target   string `json:"target,omitempty"`    // kick_user, reveal_name
	Message  string `json:"message,omitempty"`   // room_chat_message, team_chat_message
}

type Client struct {
	conn *websocket.Conn
	send chan any
	id   string
	addr string

	closeOnce sync.Once
}

func (c *Client) identity() room.Conn {
	return room.Conn{ID: c.id, Addr: c.addr}
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.send) })
}

// Hub tracks every open connection and carries notifications from the
// coordinator to them. It is the coordinator's room.Sink.
type Hub struct {
	cfg     *Config
	metrics *metrics

	mu      sync.RWMutex
	clients map[string]*Client

	rooms *room.Coordinator
}

func newHub(cfg *Config, m *metrics) *Hub {
	return &Hub{
		cfg:     cfg,
		metrics: m,
		clients: make(map[string]*Client),
	}
}

// Deliver never blocks; clients that cannot keep up miss the message.
func (h *Hub) Deliver(n room.Notification) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n.All {
		for _, c := range h.clients {
			h.trySendLocked(c, n.Event)
		}
		return
	}

	for _, id := range n.To {
		if c, ok := h.clients[id]; ok {
			h.trySendLocked(c, n.Event)
		}
	}
}

func (h *Hub) trySendLocked(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
		logf(h.cfg, "ERROR: Dropped message to slow connection %s", c.id)
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	h.metrics.connections.Inc()
	h.mu.Unlock()

	logf(h.cfg, "SOCKET: Connection %s opened from %s", c.id, c.addr)

	h.Deliver(room.Notification{To: []string{c.id}, Event: h.rooms.PublicRooms()})
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		h.metrics.connections.Dec()
	}
	c.close()
	h.mu.Unlock()

	h.rooms.Disconnect(c.identity())

	logf(h.cfg, "SOCKET: Connection %s closed", c.id)
}

// dispatch runs one request against the coordinator. Room membership is
// looked up per request, so a connection keeps a single read loop no matter
// how many rooms it joins or leaves.
func (h *Hub) dispatch(c *Client, msg ClientMessage) {
	conn := c.identity()
	startTime := time.Now()

	var err error
	switch msg.Type {
	case "join_room":
		err = h.rooms.Join(conn, msg.Room, msg.Public, msg.TeamSize)
	case "submit_name":
		err = h.rooms.SubmitName(conn, msg.Room, msg.Name, msg.AFK)
	case "add_name":
		_, err = h.rooms.AddManualName(conn, msg.Room, msg.Name)
	case "kick_user":
		err = h.rooms.Kick(conn, msg.Room, msg.Target)
	case "leave_room":
		err = h.rooms.Leave(conn, msg.Room)
	case "generate_teams":
		err = h.rooms.GenerateTeams(conn, msg.Room)
	case "vote_reroll":
		err = h.rooms.VoteReroll(conn, msg.Room)
	case "confirm_reroll":
		err = h.rooms.ConfirmReroll(conn, msg.Room)
	case "reveal_name":
		err = h.rooms.RevealName(conn, msg.Room, msg.Target)
	case "reveal_all_names":
		err = h.rooms.RevealAll(conn, msg.Room)
	case "room_chat_message":
		err = h.rooms.RoomChat(conn, msg.Room, msg.Message)
	case "team_chat_message":
		err = h.rooms.TeamChat(conn, msg.Room, msg.Message)
	default:
		h.metrics.observe("unknown", "rejected", time.Since(startTime))
		return
	}

	h.metrics.observe(msg.Type, result(err), time.Since(startTime))

	if err == nil || room.Silent(err) {
		return
	}

	kind := "error"
	if errors.Is(err, room.ErrBanned) || errors.Is(err, room.ErrDuplicateName) {
		kind = "join_denied"
	}

	h.Deliver(room.Notification{
		To:    []string{c.id},
		Event: room.SimpleMessage{Type: kind, Message: err.Error()},
	})
}

func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case room.Silent(err):
		return "ignored"
	case errors.Is(err, room.ErrUnauthorized), errors.Is(err, room.ErrBanned):
		return "denied"
	default:
		return "rejected"
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientAddr is the address bans are keyed on: the real IP without a port.
func clientAddr(r *http.Request) string {
	addr := realIP(r)

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}

func serveSocket(cfg *Config, h *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Websocket upgrade from %s failed: %v", realIP(r), err)
			return
		}

		c := &Client{
			conn: conn,
			send: make(chan any, sendBuffer),
			id:   uuid.NewString(),
			addr: clientAddr(r),
		}

		h.register(c)

		go c.writePump()
		c.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		h.dispatch(c, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
