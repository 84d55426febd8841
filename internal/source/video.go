package source

import (
	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/tile"
)

// VideoOptions configure a video source: candidate encodings of the same
// footage plus the georeferenced corner coordinates.
type VideoOptions struct {
	Type        string      `json:"type"`
	URLs        []string    `json:"urls" validate:"required,min=1,dive,required"`
	Coordinates [][]float64 `json:"coordinates" validate:"required,len=4,dive,len=2"`
}

// VideoSource is a georeferenced video footprint. Frame decode and upload
// belong to the renderer; the source only tracks which frame is current,
// advanced by the per-frame Prepare hook.
type VideoSource struct {
	baseSource
	opts  VideoOptions
	frame uint64
}

// NewVideoSource is the registered factory for "video".
func NewVideoSource(id string, opts Options, d Dispatcher, hub *event.Hub) (Source, error) {
	var vo VideoOptions
	if err := decodeInto(opts, &vo); err != nil {
		return nil, err
	}

	s := &VideoSource{
		baseSource: newBaseSource(id, "video", hub),
		opts:       vo,
	}
	return s, nil
}

func (s *VideoSource) Load() {
	if !s.transition(StateConstructed, StateLoading) {
		return
	}
	// Playback is driven by the renderer; the source is ready as soon as
	// its footprint is known.
	s.markReady()
}

func (s *VideoSource) LoadTile(t tile.ID, cb TileCallback) {
	if err := s.tileOpErr(); err != nil {
		cb(nil, err)
		return
	}
	// Tiles reference the current video frame; there is no payload to move.
	cb(&TileResult{Tile: t}, nil)
}

func (s *VideoSource) AbortTile(t tile.ID) {}

func (s *VideoSource) UnloadTile(t tile.ID) {}

func (s *VideoSource) Serialize() Options {
	coords := make([][]float64, len(s.opts.Coordinates))
	for i, c := range s.opts.Coordinates {
		coords[i] = append([]float64(nil), c...)
	}
	return Options{
		"type":        s.typeName,
		"urls":        append([]string(nil), s.opts.URLs...),
		"coordinates": coords,
	}
}

// Prepare advances the frame counter and marks rendered tiles stale so the
// renderer picks up the new frame.
func (s *VideoSource) Prepare() {
	if s.State() != StateReady {
		return
	}
	s.mu.Lock()
	s.frame++
	s.mu.Unlock()
	s.publish(event.SourceChange, nil)
}

// Frame returns the current frame counter.
func (s *VideoSource) Frame() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame
}

func (s *VideoSource) Unload() {
	if s.State() == StateUnloaded {
		return
	}
	s.setState(StateUnloaded)
}
