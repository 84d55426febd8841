package source

import (
	"strconv"
	"strings"

	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/tile"
	"github.com/tilecraft/tilecraft/internal/worker"
)

// VectorOptions configure a vector tile source. Either a single url
// template or a list of tile endpoints must be given.
type VectorOptions struct {
	Type    string   `json:"type"`
	URL     string   `json:"url,omitempty" validate:"required_without=Tiles"`
	Tiles   []string `json:"tiles,omitempty" validate:"required_without=URL"`
	MinZoom *float64 `json:"minzoom,omitempty" validate:"omitempty,gte=0,lte=24"`
	MaxZoom *float64 `json:"maxzoom,omitempty" validate:"omitempty,gte=0,lte=24"`
	Scheme  string   `json:"scheme,omitempty" validate:"omitempty,oneof=xyz tms"`
}

// VectorSource delegates all tile work to the vector worker source through
// the dispatcher; the control goroutine never blocks on tile I/O.
type VectorSource struct {
	baseSource
	opts       VectorOptions
	dispatcher Dispatcher
	tracker    tileTracker
}

// NewVectorSource is the registered factory for "vector".
func NewVectorSource(id string, opts Options, d Dispatcher, hub *event.Hub) (Source, error) {
	var vo VectorOptions
	if err := decodeInto(opts, &vo); err != nil {
		return nil, err
	}

	s := &VectorSource{
		baseSource: newBaseSource(id, "vector", hub),
		opts:       vo,
		dispatcher: d,
		tracker:    newTileTracker(),
	}
	s.tileClipped = true
	s.reparseOverscaled = true
	if vo.MinZoom != nil {
		s.minZoom = *vo.MinZoom
	}
	if vo.MaxZoom != nil {
		s.maxZoom = *vo.MaxZoom
	}
	return s, nil
}

func (s *VectorSource) Load() {
	if !s.transition(StateConstructed, StateLoading) {
		return
	}
	// The tile endpoints are fully described by the options; there is no
	// separate metadata document to fetch before tiles may be requested.
	s.markReady()
}

func (s *VectorSource) LoadTile(t tile.ID, cb TileCallback) {
	s.loadTile(t, "loadTile", cb)
}

// ReloadTile refetches a tile past the worker's cache, for data refreshes.
func (s *VectorSource) ReloadTile(t tile.ID, cb TileCallback) {
	s.loadTile(t, "reloadTile", cb)
}

func (s *VectorSource) loadTile(t tile.ID, method string, cb TileCallback) {
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

	cancel := s.dispatcher.Send(worker.Route{Type: s.typeName, Method: method}, params, func(result any, err error) {
		if !s.tracker.finish(key, gen) {
			// Superseded or aborted; the result is stale and ignorable.
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

func (s *VectorSource) AbortTile(t tile.ID) {
	s.tracker.abort(t.Key())
}

func (s *VectorSource) UnloadTile(t tile.ID) {
	s.tracker.drop(t.Key())
	if s.State() != StateReady {
		return
	}
	// Fire-and-forget: worker-side cache release needs no completion.
	s.dispatcher.Send(worker.Route{Type: s.typeName, Method: "removeTile"}, worker.TileParams{
		SourceID:   s.id,
		SourceType: s.typeName,
		Tile:       t,
		URL:        s.tileURL(t),
	}, nil)
}

func (s *VectorSource) Serialize() Options {
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
	if s.opts.Scheme != "" {
		o["scheme"] = s.opts.Scheme
	}
	return o
}

func (s *VectorSource) Prepare() {}

func (s *VectorSource) Unload() {
	if s.State() == StateUnloaded {
		return
	}
	s.tracker.abortAll()
	s.setState(StateUnloaded)
}

// tileURL expands the {z}/{x}/{y} template for t. With multiple endpoints
// the choice is deterministic per tile so cache keys stay stable.
func (s *VectorSource) tileURL(t tile.ID) string {
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
