package worker

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/tilecraft/tilecraft/internal/storage"
	"github.com/tilecraft/tilecraft/internal/tile"
)

func newTestCache(t *testing.T) *storage.TileCache {
	t.Helper()

	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return storage.NewTileCache(db)
}

func TestVectorWorkerLoadTile(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		fmt.Fprint(w, "pbf-bytes")
	}))
	defer srv.Close()

	w := NewVectorWorker(newTestCache(t))
	params := TileParams{
		SourceID:   "osm",
		SourceType: "vector",
		Tile:       tile.New(3, 1, 2),
		URL:        srv.URL + "/3/1/2.pbf",
	}

	res, err := w.loadTile(context.Background(), params)
	if err != nil {
		t.Fatalf("loadTile: %v", err)
	}
	data := res.(TileData)
	if string(data.Data) != "pbf-bytes" || data.CacheHit {
		t.Fatalf("unexpected result: %+v", data)
	}

	// Second load is served from cache.
	res, err = w.loadTile(context.Background(), params)
	if err != nil {
		t.Fatalf("loadTile (cached): %v", err)
	}
	data = res.(TileData)
	if !data.CacheHit {
		t.Fatal("expected cache hit")
	}
	if n := hits.Load(); n != 1 {
		t.Fatalf("origin fetched %d times, want 1", n)
	}

	// reloadTile bypasses the cache.
	res, err = w.reloadTile(context.Background(), params)
	if err != nil {
		t.Fatalf("reloadTile: %v", err)
	}
	if res.(TileData).CacheHit {
		t.Fatal("reload must not be a cache hit")
	}
	if n := hits.Load(); n != 2 {
		t.Fatalf("origin fetched %d times after reload, want 2", n)
	}

	// removeTile drops the cached payload.
	if _, err := w.removeTile(context.Background(), params); err != nil {
		t.Fatalf("removeTile: %v", err)
	}
	res, err = w.loadTile(context.Background(), params)
	if err != nil {
		t.Fatalf("loadTile after remove: %v", err)
	}
	if res.(TileData).CacheHit {
		t.Fatal("cache entry should have been removed")
	}
}

func TestVectorWorkerErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	w := NewVectorWorker(newTestCache(t))
	_, err := w.loadTile(context.Background(), TileParams{
		SourceID: "osm",
		Tile:     tile.New(0, 0, 0),
		URL:      srv.URL + "/0/0/0.pbf",
	})
	if err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestVectorWorkerCancellation(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	w := NewVectorWorker(nil)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := w.loadTile(ctx, TileParams{
			SourceID: "osm",
			Tile:     tile.New(0, 0, 0),
			URL:      srv.URL + "/0/0/0.pbf",
		})
		errCh <- err
	}()

	cancel()
	if err := <-errCh; err == nil {
		t.Fatal("cancelled fetch should fail")
	}
}

func TestVectorWorkerBadParams(t *testing.T) {
	t.Parallel()

	w := NewVectorWorker(nil)
	if _, err := w.loadTile(context.Background(), "not-params"); err == nil {
		t.Fatal("expected params type error")
	}
	if _, err := w.loadTile(context.Background(), TileParams{Tile: tile.New(0, 0, 0)}); err == nil {
		t.Fatal("expected empty url error")
	}
}
