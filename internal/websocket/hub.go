package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeFlightCreated   MessageType = "flight_created"
	MessageTypeFlightCancelled MessageType = "flight_cancelled"
)

// Message represents a flight lifecycle event pushed to subscribed UIs
type Message struct {
	Type          MessageType `json:"type"`
	FlightID      string      `json:"flightId"`
	Origin        string      `json:"origin,omitempty"`
	Destination   string      `json:"destination,omitempty"`
	DepartureTime *time.Time  `json:"departureTime,omitempty"`
	SeatsReleased int64       `json:"seatsReleased,omitempty"`
	Timestamp     int64       `json:"timestamp"`
}

// Client represents a WebSocket client connection
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans flight lifecycle events out to every connected client
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message, 256),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			log.Printf("WebSocket: client registered (total: %d)", len(h.clients))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("WebSocket: client unregistered (remaining: %d)", len(h.clients))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("WebSocket: failed to marshal message: %v", err)
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- data:
				default:
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastFlightCreated notifies clients that a flight was allocated
func (h *Hub) BroadcastFlightCreated(flightID, origin, destination string, departure time.Time) {
	h.broadcast <- &Message{
		Type:          MessageTypeFlightCreated,
		FlightID:      flightID,
		Origin:        origin,
		Destination:   destination,
		DepartureTime: &departure,
		Timestamp:     time.Now().UnixMilli(),
	}
}

// BroadcastFlightCancelled notifies clients that a flight was cancelled and
// its seats were released.
func (h *Hub) BroadcastFlightCancelled(flightID string, seatsReleased int64) {
	h.broadcast <- &Message{
		Type:          MessageTypeFlightCancelled,
		FlightID:      flightID,
		SeatsReleased: seatsReleased,
		Timestamp:     time.Now().UnixMilli(),
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeWS upgrades an HTTP request and attaches the client to the hub
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket: upgrade failed: %v", err)
		return
	}

	client := &Client{hub: h, conn: conn, send: make(chan []byte, 16)}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *Client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// readPump discards inbound frames; the feed is one-way. It exists to detect
// closed connections and unregister the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
