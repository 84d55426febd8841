// Package event carries the named signals sources surface to the engine.
//
// Sources publish "load" when their metadata becomes ready and "change"
// whenever previously cached results should be considered stale. Consumers
// subscribe; events are pushed, never polled.
package event

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Kinds of events published by sources and the engine.
const (
	SourceLoad   = "source.load"   // metadata ready, tiles may be requested
	SourceChange = "source.change" // cached tile results are stale
	SourceError  = "source.error"  // metadata load failed
	TileLoaded   = "tile.loaded"
	TileError    = "tile.error"
)

type Event struct {
	ID       int64     `json:"id"`
	Type     string    `json:"type"`
	SourceID string    `json:"source_id,omitempty"`
	At       time.Time `json:"at"`
	Data     []byte    `json:"data"` // JSON payload
}

// Hub is an in-memory pub/sub with a small ring buffer for late subscribers.
type Hub struct {
	nextID atomic.Int64

	mu    sync.Mutex
	ring  []Event
	start int
	size  int

	subs      map[int]chan Event
	nextSubID int
}

func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 100
	}
	return &Hub{
		ring: make([]Event, capacity),
		subs: make(map[int]chan Event),
	}
}

// Publish fans an event out to all subscribers and records it in the ring.
func (h *Hub) Publish(eventType, sourceID string, data any) {
	id := h.nextID.Add(1)

	payload := []byte("{}")
	if data != nil {
		if b, err := json.Marshal(data); err == nil {
			payload = b
		}
	}

	ev := Event{
		ID:       id,
		Type:     eventType,
		SourceID: sourceID,
		At:       time.Now().UTC(),
		Data:     payload,
	}

	h.mu.Lock()
	h.pushLocked(ev)
	for _, ch := range h.subs {
		// Don't let slow subscribers block publishers.
		select {
		case ch <- ev:
		default:
		}
	}
	h.mu.Unlock()
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called to release the subscription; the channel is closed by cancel.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, 128)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
		h.mu.Unlock()
	}

	return ch, cancel
}

// SnapshotSince returns buffered events with ID > lastID, oldest-first.
// If lastID is 0, the full ring buffer snapshot is returned.
func (h *Hub) SnapshotSince(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.ring[(h.start+i)%len(h.ring)]
		if lastID == 0 || ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

func (h *Hub) pushLocked(ev Event) {
	capacity := len(h.ring)
	if capacity == 0 {
		return
	}

	if h.size < capacity {
		idx := (h.start + h.size) % capacity
		h.ring[idx] = ev
		h.size++
		return
	}

	// Overwrite oldest.
	h.ring[h.start] = ev
	h.start = (h.start + 1) % capacity
}
