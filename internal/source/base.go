package source

import (
	"log/slog"
	"sync"

	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/log"
)

// baseSource carries the attributes and lifecycle state every built-in
// source shares. Concrete types embed it and drive the transitions.
type baseSource struct {
	id                string
	typeName          string
	minZoom           float64
	maxZoom           float64
	tileClipped       bool
	reparseOverscaled bool
	roundZoom         bool

	mu    sync.Mutex
	state State

	hub    *event.Hub
	logger *slog.Logger
}

func newBaseSource(id, typeName string, hub *event.Hub) baseSource {
	return baseSource{
		id:       id,
		typeName: typeName,
		minZoom:  0,
		maxZoom:  22,
		state:    StateConstructed,
		hub:      hub,
		logger:   log.WithSource(id),
	}
}

func (b *baseSource) ID() string              { return b.id }
func (b *baseSource) Type() string            { return b.typeName }
func (b *baseSource) MinZoom() float64        { return b.minZoom }
func (b *baseSource) MaxZoom() float64        { return b.maxZoom }
func (b *baseSource) IsTileClipped() bool     { return b.tileClipped }
func (b *baseSource) ReparseOverscaled() bool { return b.reparseOverscaled }
func (b *baseSource) RoundZoom() bool         { return b.roundZoom }

func (b *baseSource) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// setState transitions unconditionally; callers check preconditions.
func (b *baseSource) setState(s State) {
	b.mu.Lock()
	b.state = s
	b.mu.Unlock()
}

// transition moves from -> to and reports whether it happened.
func (b *baseSource) transition(from, to State) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != from {
		return false
	}
	b.state = to
	return true
}

// tileOpErr returns the error a tile operation should report for the
// current lifecycle state, or nil when tiles may be requested.
func (b *baseSource) tileOpErr() error {
	switch b.State() {
	case StateReady:
		return nil
	case StateUnloaded:
		return ErrSourceUnloaded
	default:
		return ErrSourceNotReady
	}
}

// markReady publishes the load notification: metadata is in, it is now
// valid to request tiles. A source unloaded while its metadata was still
// loading stays unloaded.
func (b *baseSource) markReady() {
	if !b.transition(StateLoading, StateReady) {
		return
	}
	b.publish(event.SourceLoad, nil)
}

func (b *baseSource) publish(kind string, data any) {
	if b.hub != nil {
		b.hub.Publish(kind, b.id, data)
	}
}
