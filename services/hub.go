package services

import (
	"encoding/json"
	"sync"

	"quizadmin/config"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub fans notification events out to connected dashboard clients. Clients
// are keyed by the identity-provider subject id so one user can have several
// open tabs. Delivery is best effort: slow clients are dropped.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mutex      sync.RWMutex
}

type Client struct {
	hub    *Hub
	id     string
	socket *websocket.Conn
	send   chan []byte
	userID string
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) Run() {
	log := config.Logger()
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.WithField("client_id", client.id).WithField("user_id", client.userID).
				Debug("Feed client registered")

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.WithField("client_id", client.id).WithField("user_id", client.userID).
					Debug("Feed client unregistered")
			}
			h.mutex.Unlock()

		case message := <-h.broadcast:
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// NotifyUser sends a typed event to every connection the recipient has open.
func (h *Hub) NotifyUser(userID string, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		config.Logger().WithError(err).Error("Failed to marshal feed message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.userID != userID {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// BroadcastAll sends a typed event to every connected client.
func (h *Hub) BroadcastAll(messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		config.Logger().WithError(err).Error("Failed to marshal feed message")
		return
	}
	h.broadcast <- data
}

// ConnectedUsers returns the distinct user ids with at least one open feed
// connection.
func (h *Hub) ConnectedUsers() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	seen := make(map[string]bool)
	var userIDs []string
	for client := range h.clients {
		if !seen[client.userID] {
			seen[client.userID] = true
			userIDs = append(userIDs, client.userID)
		}
	}
	return userIDs
}

// RegisterClient attaches a websocket connection to the hub and starts its
// read and write pumps.
func (h *Hub) RegisterClient(conn *websocket.Conn, userID string) *Client {
	client := &Client{
		hub:    h,
		id:     uuid.NewString(),
		socket: conn,
		send:   make(chan []byte, 256),
		userID: userID,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (c *Client) readPump() {
	log := config.Logger()
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.WithError(err).Debug("WebSocket read error")
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.WithError(err).Debug("Ignoring malformed feed message")
			continue
		}

		// The feed is one-directional except for keepalives.
		if msg.Type == "ping" {
			data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
			c.send <- data
		}
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}
