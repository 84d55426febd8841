package worker

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/tilecraft/tilecraft/internal/tile"
)

const testCollection = `{
	"type": "FeatureCollection",
	"features": [
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}, "properties": {}},
		{"type": "Feature", "geometry": {"type": "Point", "coordinates": [1, 1]}, "properties": {}}
	]
}`

func TestGeoJSONLoadDataThenTile(t *testing.T) {
	t.Parallel()

	w := NewGeoJSONWorker()
	ctx := context.Background()

	res, err := w.loadData(ctx, DataParams{SourceID: "points", Data: json.RawMessage(testCollection)})
	if err != nil {
		t.Fatalf("loadData: %v", err)
	}
	summary := res.(DataSummary)
	if summary.Features != 2 {
		t.Fatalf("features = %d, want 2", summary.Features)
	}

	res, err = w.loadTile(ctx, TileParams{SourceID: "points", Tile: tile.New(2, 1, 1)})
	if err != nil {
		t.Fatalf("loadTile: %v", err)
	}
	data := res.(TileData)
	if data.Tile != tile.New(2, 1, 1) || len(data.Data) == 0 {
		t.Fatalf("unexpected tile data: %+v", data)
	}
}

func TestGeoJSONLoadTileWithoutData(t *testing.T) {
	t.Parallel()

	w := NewGeoJSONWorker()
	if _, err := w.loadTile(context.Background(), TileParams{SourceID: "ghost", Tile: tile.New(0, 0, 0)}); err == nil {
		t.Fatal("expected error when no data was pushed")
	}
}

func TestGeoJSONSingleFeatureAndGeometry(t *testing.T) {
	t.Parallel()

	w := NewGeoJSONWorker()
	ctx := context.Background()

	res, err := w.loadData(ctx, DataParams{
		SourceID: "one",
		Data:     json.RawMessage(`{"type": "Feature", "geometry": {"type": "Point", "coordinates": [0, 0]}}`),
	})
	if err != nil {
		t.Fatalf("loadData feature: %v", err)
	}
	if res.(DataSummary).Features != 1 {
		t.Fatal("single feature should count as 1")
	}

	res, err = w.loadData(ctx, DataParams{
		SourceID: "geom",
		Data:     json.RawMessage(`{"type": "Point", "coordinates": [3, 4]}`),
	})
	if err != nil {
		t.Fatalf("loadData geometry: %v", err)
	}
	if res.(DataSummary).Features != 1 {
		t.Fatal("bare geometry should count as 1")
	}
}

func TestGeoJSONRejectsInvalidData(t *testing.T) {
	t.Parallel()

	w := NewGeoJSONWorker()
	ctx := context.Background()

	if _, err := w.loadData(ctx, DataParams{SourceID: "bad", Data: json.RawMessage(`{nope`)}); err == nil {
		t.Fatal("invalid JSON should be rejected")
	}
	if _, err := w.loadData(ctx, DataParams{SourceID: "bad", Data: json.RawMessage(`{"features": []}`)}); err == nil {
		t.Fatal("document without type should be rejected")
	}
}

func TestGeoJSONRemoveSource(t *testing.T) {
	t.Parallel()

	w := NewGeoJSONWorker()
	ctx := context.Background()

	_, _ = w.loadData(ctx, DataParams{SourceID: "points", Data: json.RawMessage(testCollection)})
	if _, err := w.removeSource(ctx, RemoveParams{SourceID: "points"}); err != nil {
		t.Fatalf("removeSource: %v", err)
	}
	if _, err := w.loadTile(ctx, TileParams{SourceID: "points", Tile: tile.New(0, 0, 0)}); err == nil {
		t.Fatal("data should be gone after removeSource")
	}
	// Removing again is a no-op.
	if _, err := w.removeSource(ctx, RemoveParams{SourceID: "points"}); err != nil {
		t.Fatalf("second removeSource: %v", err)
	}
}
