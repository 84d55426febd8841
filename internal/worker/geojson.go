package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/tilecraft/tilecraft/internal/log"
)

// GeoJSONWorker keeps the last pushed document per source and answers tile
// loads from it. The main-thread geojson source pushes a full document with
// loadData before any tile can be served; SetData pushes replace it.
type GeoJSONWorker struct {
	mu     sync.RWMutex
	docs   map[string]json.RawMessage
	logger *slog.Logger
}

func NewGeoJSONWorker() *GeoJSONWorker {
	return &GeoJSONWorker{
		docs:   make(map[string]json.RawMessage),
		logger: log.WithComponent("worker.geojson"),
	}
}

func (w *GeoJSONWorker) Methods() map[string]Handler {
	return map[string]Handler{
		"loadData":     w.loadData,
		"loadTile":     w.loadTile,
		"removeSource": w.removeSource,
	}
}

func (w *GeoJSONWorker) loadData(ctx context.Context, params any) (any, error) {
	p, ok := params.(DataParams)
	if !ok {
		return nil, fmt.Errorf("geojson.loadData: unexpected params type %T", params)
	}
	if !json.Valid(p.Data) {
		return nil, fmt.Errorf("geojson source %q: data is not valid JSON", p.SourceID)
	}

	doc := gjson.ParseBytes(p.Data)
	var features int64
	switch doc.Get("type").String() {
	case "FeatureCollection":
		features = int64(len(doc.Get("features").Array()))
	case "Feature":
		features = 1
	case "":
		return nil, fmt.Errorf("geojson source %q: missing type member", p.SourceID)
	default:
		// A bare geometry counts as one feature.
		features = 1
	}

	w.mu.Lock()
	w.docs[p.SourceID] = p.Data
	w.mu.Unlock()

	w.logger.Debug("geojson data loaded", "source", p.SourceID, "features", features)
	return DataSummary{SourceID: p.SourceID, Features: features}, nil
}

func (w *GeoJSONWorker) loadTile(ctx context.Context, params any) (any, error) {
	p, ok := params.(TileParams)
	if !ok {
		return nil, fmt.Errorf("geojson.loadTile: unexpected params type %T", params)
	}

	w.mu.RLock()
	doc, ok := w.docs[p.SourceID]
	w.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("geojson source %q: no data loaded", p.SourceID)
	}

	// Tiling/clipping of the document into per-tile feature sets belongs to
	// the geometry pipeline; the dispatch contract only needs the payload
	// delivered per tile key.
	return TileData{Tile: p.Tile, Data: doc}, nil
}

func (w *GeoJSONWorker) removeSource(ctx context.Context, params any) (any, error) {
	p, ok := params.(RemoveParams)
	if !ok {
		return nil, fmt.Errorf("geojson.removeSource: unexpected params type %T", params)
	}
	w.mu.Lock()
	delete(w.docs, p.SourceID)
	w.mu.Unlock()
	return nil, nil
}
