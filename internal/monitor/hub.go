// Package monitor streams pipeline progress to websocket clients and
// keeps a short in-memory tail of recent events for late joiners.
package monitor

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"

	"scentdb/internal/pipeline"
)

const historySize = 100

type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
	history []pipeline.Event
}

type Stats struct {
	Clients int `json:"clients"`
	Events  int `json:"buffered_events"`
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// Publish implements pipeline.Sink: the event is appended to the
// replay tail and fanned out to every connected client. Dead clients
// are dropped on write failure.
func (h *Hub) Publish(e pipeline.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	b = append(b, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	h.history = append(h.history, e)
	if len(h.history) > historySize {
		h.history = h.history[len(h.history)-historySize:]
	}

	for ws := range h.clients {
		if err := ws.WriteMessage(websocket.TextMessage, b); err != nil {
			_ = ws.Close()
			delete(h.clients, ws)
		}
	}
}

// Add registers a client and replays the buffered tail to it.
func (h *Hub) Add(ws *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[ws] = struct{}{}
	for _, e := range h.history {
		b, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if err := ws.WriteMessage(websocket.TextMessage, append(b, '\n')); err != nil {
			break
		}
	}
}

func (h *Hub) Remove(ws *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, ws)
	h.mu.Unlock()
	_ = ws.Close()
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Stats{
		Clients: len(h.clients),
		Events:  len(h.history),
	}
}

// History returns a copy of the buffered event tail, oldest first.
func (h *Hub) History() []pipeline.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]pipeline.Event, len(h.history))
	copy(out, h.history)
	return out
}
