package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tilecraft/tilecraft/internal/log"
	"github.com/tilecraft/tilecraft/internal/storage"
)

// VectorWorker fetches vector tile bytes for the main-thread vector source.
// Payloads are cached by resolved URL so a reload after unload does not
// refetch. Parsing of the tile wire format happens downstream in the
// renderer's bucket pipeline, not here.
type VectorWorker struct {
	cache  *storage.TileCache
	client *http.Client
	logger *slog.Logger
}

func NewVectorWorker(cache *storage.TileCache) *VectorWorker {
	return &VectorWorker{
		cache:  cache,
		client: newHTTPClient(),
		logger: log.WithComponent("worker.vector"),
	}
}

// Methods exposes the operations the vector source dispatches to.
func (w *VectorWorker) Methods() map[string]Handler {
	return map[string]Handler{
		"loadTile":   w.loadTile,
		"reloadTile": w.reloadTile,
		"removeTile": w.removeTile,
	}
}

func (w *VectorWorker) loadTile(ctx context.Context, params any) (any, error) {
	p, ok := params.(TileParams)
	if !ok {
		return nil, fmt.Errorf("vector.loadTile: unexpected params type %T", params)
	}
	return w.fetch(ctx, p, true)
}

// reloadTile bypasses the cache so a data refresh reaches the caller.
func (w *VectorWorker) reloadTile(ctx context.Context, params any) (any, error) {
	p, ok := params.(TileParams)
	if !ok {
		return nil, fmt.Errorf("vector.reloadTile: unexpected params type %T", params)
	}
	return w.fetch(ctx, p, false)
}

func (w *VectorWorker) removeTile(ctx context.Context, params any) (any, error) {
	p, ok := params.(TileParams)
	if !ok {
		return nil, fmt.Errorf("vector.removeTile: unexpected params type %T", params)
	}
	if w.cache == nil {
		return nil, nil
	}
	key := storage.CacheKey(p.URL, p.Tile.String())
	if err := w.cache.Delete(ctx, p.SourceID, key); err != nil {
		return nil, err
	}
	return nil, nil
}

func (w *VectorWorker) fetch(ctx context.Context, p TileParams, useCache bool) (any, error) {
	if p.URL == "" {
		return nil, fmt.Errorf("vector tile %s: empty url", p.Tile)
	}

	key := storage.CacheKey(p.URL, p.Tile.String())
	if useCache && w.cache != nil {
		if data, err := w.cache.Get(ctx, p.SourceID, key); err == nil {
			return TileData{Tile: p.Tile, Data: data, CacheHit: true}, nil
		} else if !errors.Is(err, storage.ErrCacheMiss) {
			w.logger.Warn("tile cache read failed", "tile", p.Tile.String(), "error", err)
		}
	}

	data, err := fetchBytes(ctx, w.client, p.URL)
	if err != nil {
		return nil, err
	}

	if w.cache != nil {
		if err := w.cache.Put(ctx, p.SourceID, key, data); err != nil {
			w.logger.Warn("tile cache write failed", "tile", p.Tile.String(), "error", err)
		}
	}
	return TileData{Tile: p.Tile, Data: data}, nil
}
