package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/tile"
)

// ImageOptions configure an image source: one image georeferenced by its
// four corner coordinates (lon, lat), clockwise from top-left.
type ImageOptions struct {
	Type        string      `json:"type"`
	URL         string      `json:"url" validate:"required"`
	Coordinates [][]float64 `json:"coordinates" validate:"required,len=4,dive,len=2"`
}

// ImageSource serves a single georeferenced image. It has no worker
// counterpart: the image bytes are fetched once at Load and every tile
// covering the footprint references them. Decoding stays with the renderer.
type ImageSource struct {
	baseSource
	opts  ImageOptions
	image []byte
}

var imageClient = &http.Client{Timeout: 30 * time.Second}

// NewImageSource is the registered factory for "image".
func NewImageSource(id string, opts Options, d Dispatcher, hub *event.Hub) (Source, error) {
	var imgOpts ImageOptions
	if err := decodeInto(opts, &imgOpts); err != nil {
		return nil, err
	}

	s := &ImageSource{
		baseSource: newBaseSource(id, "image", hub),
		opts:       imgOpts,
	}
	return s, nil
}

func (s *ImageSource) Load() {
	if !s.transition(StateConstructed, StateLoading) {
		return
	}
	go func() {
		data, err := s.fetchImage()
		if err != nil {
			s.logger.Error("image load failed", "url", s.opts.URL, "error", err)
			s.transition(StateLoading, StateConstructed) // allow a retry
			s.publish(event.SourceError, map[string]string{"error": err.Error()})
			return
		}
		s.mu.Lock()
		s.image = data
		s.mu.Unlock()
		s.markReady()
	}()
}

func (s *ImageSource) fetchImage() ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.opts.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := imageClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// LoadTile completes synchronously: every covered tile shares the source
// image, so there is nothing to dispatch.
func (s *ImageSource) LoadTile(t tile.ID, cb TileCallback) {
	if err := s.tileOpErr(); err != nil {
		cb(nil, err)
		return
	}
	s.mu.Lock()
	data := s.image
	s.mu.Unlock()
	cb(&TileResult{Tile: t, Data: data}, nil)
}

// AbortTile is a no-op: image tile loads never leave the control goroutine.
func (s *ImageSource) AbortTile(t tile.ID) {}

// UnloadTile is a no-op: no per-tile resources are held.
func (s *ImageSource) UnloadTile(t tile.ID) {}

func (s *ImageSource) Serialize() Options {
	coords := make([][]float64, len(s.opts.Coordinates))
	for i, c := range s.opts.Coordinates {
		coords[i] = append([]float64(nil), c...)
	}
	return Options{
		"type":        s.typeName,
		"url":         s.opts.URL,
		"coordinates": coords,
	}
}

func (s *ImageSource) Prepare() {}

func (s *ImageSource) Unload() {
	if s.State() == StateUnloaded {
		return
	}
	s.mu.Lock()
	s.image = nil
	s.mu.Unlock()
	s.setState(StateUnloaded)
}
