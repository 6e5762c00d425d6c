package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// Event is one live update pushed to connected UI clients.
type Event struct {
	// Type is one of "state", "partial", "final", or "error".
	Type string `json:"type"`

	// SessionID identifies the capture session the event belongs to. Empty
	// for events not tied to a session.
	SessionID string `json:"session_id,omitempty"`

	// State carries the session state for "state" events.
	State string `json:"state,omitempty"`

	// Text carries the hypothesis for "partial" and "final" events, or the
	// error message for "error" events.
	Text string `json:"text,omitempty"`

	// Surname is the extracted surname, set on "final" events.
	Surname string `json:"surname,omitempty"`

	// Language is the language code, set on "final" events.
	Language string `json:"language,omitempty"`
}

// writeTimeout bounds a single event write to one client. A stalled client
// must not block the broadcast path.
const writeTimeout = 5 * time.Second

// Hub fans out events to every connected websocket client. Slow clients are
// dropped rather than buffered indefinitely.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Broadcast delivers ev to every subscriber. Subscribers with a full buffer
// miss the event; the UI resyncs from /api/transcript.
func (h *Hub) Broadcast(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// subscribe registers a new event channel.
func (h *Hub) subscribe() chan Event {
	ch := make(chan Event, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

// unsubscribe removes ch from the hub.
func (h *Hub) unsubscribe(ch chan Event) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// ServeHTTP upgrades the request to a websocket and streams events until
// the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, ev)
			cancel()
			if err != nil {
				return
			}
		}
	}
}
