package worker

import (
	"context"
	"encoding/json"

	"github.com/tilecraft/tilecraft/internal/tile"
)

// Callback receives the single result of a dispatched operation: a value or
// an error, never both. It is invoked at most once per send; after
// cancellation it may not be invoked at all.
type Callback func(result any, err error)

// CancelFunc requests that an in-flight operation abandon its work.
// Cancellation is best-effort: the operation's callback may still fire.
type CancelFunc func()

// Handler executes one named worker operation. Params carry everything the
// operation needs; there is no other shared state with the calling source.
// Handlers report failures through the returned error and should honor ctx
// cancellation at their blocking points.
type Handler func(ctx context.Context, params any) (any, error)

// WorkerSource is the optional per-type counterpart of a source. It exposes
// its operations as a mapping from method name to handler; loadTile is the
// minimum useful surface.
type WorkerSource interface {
	Methods() map[string]Handler
}

// TileParams identify one tile operation crossing the dispatch boundary.
type TileParams struct {
	SourceID   string
	SourceType string
	Tile       tile.ID
	URL        string
}

// DataParams push a full document (geojson) to a worker source.
type DataParams struct {
	SourceID string
	Data     json.RawMessage
}

// RemoveParams release worker-side resources for a source that went away.
type RemoveParams struct {
	SourceID string
}

// TileData is the result of a loadTile operation.
type TileData struct {
	Tile     tile.ID
	Data     []byte
	CacheHit bool
}

// DataSummary is the result of a loadData operation.
type DataSummary struct {
	SourceID string
	Features int64
}
