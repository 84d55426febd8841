// Package source is the extensibility boundary of the tile engine: the
// registry of pluggable source types, the factory contract producing a
// validated Source from a type name and options object, and the lifecycle
// surface the renderer drives.
//
// A Source supplies tile data for one configured map layer. Heavy tile work
// is optionally delegated to a per-type worker source through an
// asynchronous, cancellable dispatcher (see the worker package); the engine
// never sees a source type's internals.
package source

import (
	"github.com/tilecraft/tilecraft/internal/tile"
	"github.com/tilecraft/tilecraft/internal/worker"
)

// State tracks a source instance through its lifecycle:
// constructed → loading → ready → unloaded (terminal).
// Tile operations are valid only while ready; change notifications may
// occur any number of times between ready and unloaded.
type State int32

const (
	StateConstructed State = iota
	StateLoading
	StateReady
	StateUnloaded
)

func (s State) String() string {
	switch s {
	case StateConstructed:
		return "constructed"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateUnloaded:
		return "unloaded"
	default:
		return "unknown"
	}
}

// TileResult is the success payload of a LoadTile call.
type TileResult struct {
	Tile     tile.ID
	Data     []byte
	CacheHit bool
}

// TileCallback receives the single logical completion of a LoadTile call:
// a result or an error, never both. A reload for the same tile supersedes
// the prior call; superseded callbacks are dropped, not reordered.
type TileCallback func(*TileResult, error)

//go:generate mockgen -destination=mocks/mock_dispatcher.go -package=mocks github.com/tilecraft/tilecraft/internal/source Dispatcher

// Dispatcher is what a source sees of the cross-thread message channel:
// asynchronous, cancellable delivery of a routed operation to the worker
// side. Implementations live behind this seam; the pool in the worker
// package is the in-process one.
type Dispatcher interface {
	Send(route worker.Route, params any, cb worker.Callback) worker.CancelFunc
}

// Source is the capability surface every source type implements, core or
// third-party. The engine owns tile identity and drives the lifecycle; the
// source owns how tile data is produced.
type Source interface {
	// ID returns the identifier the source was created under. It must
	// equal the id requested at creation; Create enforces this.
	ID() string

	// Type returns the registry type name ("vector", "raster", ...).
	Type() string

	MinZoom() float64
	MaxZoom() float64

	// IsTileClipped reports whether tile features are already clipped to
	// tile boundaries and need no render-time clipping.
	IsTileClipped() bool

	// ReparseOverscaled reports whether overscaled tiles should be parsed
	// again at the display zoom rather than scaled up from the data zoom.
	ReparseOverscaled() bool

	// RoundZoom reports whether fractional display zooms round to the
	// nearest integer instead of truncating.
	RoundZoom() bool

	State() State

	// Load begins loading source metadata. When the source becomes ready a
	// load notification is published and tiles may be requested. Load is
	// the engine's explicit trigger; construction performs no I/O.
	Load()

	// LoadTile begins or continues loading one tile and invokes cb exactly
	// once per logical completion. Calling it again for the same tile
	// requests a reload that supersedes the prior call.
	LoadTile(t tile.ID, cb TileCallback)

	// AbortTile requests cancellation of an in-flight load. Safe to call
	// with no load in flight; cancellation is best-effort.
	AbortTile(t tile.ID)

	// UnloadTile releases resources held for a tile. Idempotent.
	UnloadTile(t tile.ID)

	// Serialize returns a plain options object such that Create with the
	// same id yields an equivalent source (round-trip law).
	Serialize() Options

	// Prepare is a per-frame hook with no return contract.
	Prepare()

	// Unload tears the source down. Terminal: no operation is valid after.
	Unload()
}
