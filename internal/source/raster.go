package source

import (
	"strconv"
	"strings"

	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/tile"
	"github.com/tilecraft/tilecraft/internal/worker"
)

// RasterOptions configure a raster tile source.
type RasterOptions struct {
	Type     string   `json:"type"`
	URL      string   `json:"url,omitempty" validate:"required_without=Tiles"`
	Tiles    []string `json:"tiles,omitempty" validate:"required_without=URL"`
	MinZoom  *float64 `json:"minzoom,omitempty" validate:"omitempty,gte=0,lte=24"`
	MaxZoom  *float64 `json:"maxzoom,omitempty" validate:"omitempty,gte=0,lte=24"`
	TileSize *int     `json:"tileSize,omitempty" validate:"omitempty,oneof=256 512"`
	Scheme   string   `json:"scheme,omitempty" validate:"omitempty,oneof=xyz tms"`
}

// RasterSource fetches encoded raster tiles through the raster worker.
// Raster tiles round fractional zooms rather than overscaling.
type RasterSource struct {
	baseSource
	opts       RasterOptions
	dispatcher Dispatcher
	tracker    tileTracker
}

// NewRasterSource is the registered factory for "raster".
func NewRasterSource(id string, opts Options, d Dispatcher, hub *event.Hub) (Source, error) {
	var ro RasterOptions
	if err := decodeInto(opts, &ro); err != nil {
		return nil, err
	}

	s := &RasterSource{
		baseSource: newBaseSource(id, "raster", hub),
		opts:       ro,
		dispatcher: d,
		tracker:    newTileTracker(),
	}
	s.roundZoom = true
	if ro.MinZoom != nil {
		s.minZoom = *ro.MinZoom
	}
	if ro.MaxZoom != nil {
		s.maxZoom = *ro.MaxZoom
	}
	return s, nil
}

// TileSize returns the pixel size raster tiles render at (default 512).
func (s *RasterSource) TileSize() int {
	if s.opts.TileSize != nil {
		return *s.opts.TileSize
	}
	return 512
}

func (s *RasterSource) Load() {
	if !s.transition(StateConstructed, StateLoading) {
		return
	}
	s.markReady()
}

func (s *RasterSource) LoadTile(t tile.ID, cb TileCallback) {
	if err := s.tileOpErr(); err != nil {
		cb(nil, err)
		return
	}

	key := t.Key()
	gen := s.tracker.begin(key)
	params := worker.TileParams{
		SourceID:   s.id,
		SourceType: s.typeName,
		Tile:       t,
		URL:        s.tileURL(t),
	}

	cancel := s.dispatcher.Send(worker.Route{Type: s.typeName, Method: "loadTile"}, params, func(result any, err error) {
		if !s.tracker.finish(key, gen) {
			return
		}
		if err != nil {
			s.publish(event.TileError, map[string]string{"tile": t.String(), "error": err.Error()})
			cb(nil, err)
			return
		}
		data, _ := result.(worker.TileData)
		s.publish(event.TileLoaded, map[string]any{"tile": t.String(), "cache_hit": data.CacheHit})
		cb(&TileResult{Tile: t, Data: data.Data, CacheHit: data.CacheHit}, nil)
	})
	s.tracker.attach(key, gen, cancel)
}

func (s *RasterSource) AbortTile(t tile.ID) {
	s.tracker.abort(t.Key())
}

func (s *RasterSource) UnloadTile(t tile.ID) {
	s.tracker.drop(t.Key())
	if s.State() != StateReady {
		return
	}
	s.dispatcher.Send(worker.Route{Type: s.typeName, Method: "removeTile"}, worker.TileParams{
		SourceID:   s.id,
		SourceType: s.typeName,
		Tile:       t,
		URL:        s.tileURL(t),
	}, nil)
}

func (s *RasterSource) Serialize() Options {
	o := Options{"type": s.typeName}
	if s.opts.URL != "" {
		o["url"] = s.opts.URL
	}
	if len(s.opts.Tiles) > 0 {
		o["tiles"] = append([]string(nil), s.opts.Tiles...)
	}
	if s.opts.MinZoom != nil {
		o["minzoom"] = *s.opts.MinZoom
	}
	if s.opts.MaxZoom != nil {
		o["maxzoom"] = *s.opts.MaxZoom
	}
	if s.opts.TileSize != nil {
		o["tileSize"] = *s.opts.TileSize
	}
	if s.opts.Scheme != "" {
		o["scheme"] = s.opts.Scheme
	}
	return o
}

func (s *RasterSource) Prepare() {}

func (s *RasterSource) Unload() {
	if s.State() == StateUnloaded {
		return
	}
	s.tracker.abortAll()
	s.setState(StateUnloaded)
}

func (s *RasterSource) tileURL(t tile.ID) string {
	template := s.opts.URL
	if len(s.opts.Tiles) > 0 {
		template = s.opts.Tiles[int(t.Key()%uint64(len(s.opts.Tiles)))]
	}

	y := t.Y
	if s.opts.Scheme == "tms" {
		y = (1 << t.Z) - 1 - t.Y
	}

	r := strings.NewReplacer(
		"{z}", strconv.Itoa(int(t.Z)),
		"{x}", strconv.FormatUint(uint64(t.X), 10),
		"{y}", strconv.FormatUint(uint64(y), 10),
	)
	return r.Replace(template)
}
