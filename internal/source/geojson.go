package source

import (
	"encoding/json"

	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/tile"
	"github.com/tilecraft/tilecraft/internal/worker"
)

// GeoJSONOptions configure a geojson source. Data holds the full document;
// the worker side owns tiling it.
type GeoJSONOptions struct {
	Type          string          `json:"type"`
	Data          json.RawMessage `json:"data" validate:"required"`
	MaxZoom       *float64        `json:"maxzoom,omitempty" validate:"omitempty,gte=0,lte=24"`
	Buffer        *int            `json:"buffer,omitempty" validate:"omitempty,gte=0,lte=512"`
	Tolerance     *float64        `json:"tolerance,omitempty" validate:"omitempty,gte=0"`
	Cluster       bool            `json:"cluster,omitempty"`
	ClusterRadius *float64        `json:"clusterRadius,omitempty" validate:"omitempty,gt=0"`
}

// GeoJSONSource pushes its document to the geojson worker with loadData
// before any tile can be served; becoming ready is therefore asynchronous,
// unlike the tiled url sources. SetData replaces the document and marks
// previously delivered tiles stale.
type GeoJSONSource struct {
	baseSource
	opts       GeoJSONOptions
	dispatcher Dispatcher
	tracker    tileTracker
}

// NewGeoJSONSource is the registered factory for "geojson".
func NewGeoJSONSource(id string, opts Options, d Dispatcher, hub *event.Hub) (Source, error) {
	var gj GeoJSONOptions
	if err := decodeInto(opts, &gj); err != nil {
		return nil, err
	}

	s := &GeoJSONSource{
		baseSource: newBaseSource(id, "geojson", hub),
		opts:       gj,
		dispatcher: d,
		tracker:    newTileTracker(),
	}
	s.tileClipped = true
	s.reparseOverscaled = true
	if gj.MaxZoom != nil {
		s.maxZoom = *gj.MaxZoom
	}
	return s, nil
}

func (s *GeoJSONSource) Load() {
	if !s.transition(StateConstructed, StateLoading) {
		return
	}
	s.pushData(func(err error) {
		if err != nil {
			s.logger.Error("geojson data load failed", "error", err)
			s.publish(event.SourceError, map[string]string{"error": err.Error()})
			return
		}
		s.markReady()
	})
}

// SetData replaces the source document. On a live source the worker is
// updated and a change notification marks cached results stale.
func (s *GeoJSONSource) SetData(data json.RawMessage) {
	s.mu.Lock()
	s.opts.Data = data
	ready := s.state == StateReady
	s.mu.Unlock()

	if !ready {
		return
	}
	s.pushData(func(err error) {
		if err != nil {
			s.logger.Error("geojson data refresh failed", "error", err)
			s.publish(event.SourceError, map[string]string{"error": err.Error()})
			return
		}
		s.publish(event.SourceChange, nil)
	})
}

func (s *GeoJSONSource) pushData(done func(error)) {
	s.mu.Lock()
	data := s.opts.Data
	s.mu.Unlock()

	s.dispatcher.Send(worker.Route{Type: s.typeName, Method: "loadData"}, worker.DataParams{
		SourceID: s.id,
		Data:     data,
	}, func(result any, err error) {
		done(err)
	})
}

func (s *GeoJSONSource) LoadTile(t tile.ID, cb TileCallback) {
	if err := s.tileOpErr(); err != nil {
		cb(nil, err)
		return
	}

	key := t.Key()
	gen := s.tracker.begin(key)

	cancel := s.dispatcher.Send(worker.Route{Type: s.typeName, Method: "loadTile"}, worker.TileParams{
		SourceID:   s.id,
		SourceType: s.typeName,
		Tile:       t,
	}, func(result any, err error) {
		if !s.tracker.finish(key, gen) {
			return
		}
		if err != nil {
			s.publish(event.TileError, map[string]string{"tile": t.String(), "error": err.Error()})
			cb(nil, err)
			return
		}
		data, _ := result.(worker.TileData)
		s.publish(event.TileLoaded, map[string]any{"tile": t.String()})
		cb(&TileResult{Tile: t, Data: data.Data}, nil)
	})
	s.tracker.attach(key, gen, cancel)
}

func (s *GeoJSONSource) AbortTile(t tile.ID) {
	s.tracker.abort(t.Key())
}

func (s *GeoJSONSource) UnloadTile(t tile.ID) {
	s.tracker.drop(t.Key())
}

func (s *GeoJSONSource) Serialize() Options {
	o := Options{"type": s.typeName}

	s.mu.Lock()
	o["data"] = s.opts.Data
	s.mu.Unlock()

	if s.opts.MaxZoom != nil {
		o["maxzoom"] = *s.opts.MaxZoom
	}
	if s.opts.Buffer != nil {
		o["buffer"] = *s.opts.Buffer
	}
	if s.opts.Tolerance != nil {
		o["tolerance"] = *s.opts.Tolerance
	}
	if s.opts.Cluster {
		o["cluster"] = true
	}
	if s.opts.ClusterRadius != nil {
		o["clusterRadius"] = *s.opts.ClusterRadius
	}
	return o
}

func (s *GeoJSONSource) Prepare() {}

func (s *GeoJSONSource) Unload() {
	if s.State() == StateUnloaded {
		return
	}
	s.tracker.abortAll()
	s.setState(StateUnloaded)
	// Release the worker-side document; no completion needed.
	s.dispatcher.Send(worker.Route{Type: s.typeName, Method: "removeSource"}, worker.RemoveParams{
		SourceID: s.id,
	}, nil)
}
