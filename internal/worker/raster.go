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

// RasterWorker fetches encoded raster tile bytes. Image decoding stays with
// the renderer's texture upload path.
type RasterWorker struct {
	cache  *storage.TileCache
	client *http.Client
	logger *slog.Logger
}

func NewRasterWorker(cache *storage.TileCache) *RasterWorker {
	return &RasterWorker{
		cache:  cache,
		client: newHTTPClient(),
		logger: log.WithComponent("worker.raster"),
	}
}

func (w *RasterWorker) Methods() map[string]Handler {
	return map[string]Handler{
		"loadTile":   w.loadTile,
		"removeTile": w.removeTile,
	}
}

func (w *RasterWorker) loadTile(ctx context.Context, params any) (any, error) {
	p, ok := params.(TileParams)
	if !ok {
		return nil, fmt.Errorf("raster.loadTile: unexpected params type %T", params)
	}
	if p.URL == "" {
		return nil, fmt.Errorf("raster tile %s: empty url", p.Tile)
	}

	key := storage.CacheKey(p.URL, p.Tile.String())
	if w.cache != nil {
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

func (w *RasterWorker) removeTile(ctx context.Context, params any) (any, error) {
	p, ok := params.(TileParams)
	if !ok {
		return nil, fmt.Errorf("raster.removeTile: unexpected params type %T", params)
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
