package diagnostics

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// Event types pushed to websocket clients.
const (
	EventJournal = "journal.entry"
	EventState   = "state.update"
)

// Hub fans events out to connected websocket clients.
type Hub struct {
	clients    map[*websocket.Conn]bool
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	once       sync.Once
	mu         sync.RWMutex
}

// NewHub creates a new websocket hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Run is the hub's main loop. It returns when ctx is cancelled, closing
// every client connection.
func (h *Hub) Run(ctx context.Context) {
	defer h.close()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.drop(client)

		case message := <-h.broadcast:
			var failed []*websocket.Conn
			h.mu.RLock()
			for client := range h.clients {
				if _, err := client.Write(message); err != nil {
					failed = append(failed, client)
				}
			}
			h.mu.RUnlock()
			for _, client := range failed {
				h.drop(client)
			}
		}
	}
}

func (h *Hub) drop(client *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
	}
}

func (h *Hub) close() {
	h.once.Do(func() {
		close(h.done)
		h.mu.Lock()
		for client := range h.clients {
			client.Close()
			delete(h.clients, client)
		}
		h.mu.Unlock()
	})
}

// Broadcast queues an event for all connected clients. The event is dropped
// when the queue is full or the hub has stopped.
func (h *Hub) Broadcast(eventType string, data interface{}) {
	msg := map[string]interface{}{
		"type":      eventType,
		"timestamp": time.Now().Format(time.RFC3339),
		"data":      data,
	}
	jsonData, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case <-h.done:
	case h.broadcast <- jsonData:
	default:
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeWS handles one websocket connection until it closes.
func (h *Hub) ServeWS(ws *websocket.Conn) {
	select {
	case h.register <- ws:
	case <-h.done:
		ws.Close()
		return
	}
	defer func() {
		select {
		case h.unregister <- ws:
		case <-h.done:
		}
	}()

	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			return
		}
		if msg == "ping" {
			websocket.Message.Send(ws, "pong")
		}
	}
}
