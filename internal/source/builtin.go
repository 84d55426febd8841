package source

import (
	"github.com/tilecraft/tilecraft/internal/event"
)

// RegisterBuiltins seeds a registry with the core source types. Third
// parties extend the registry afterwards with SetType; a later SetType for
// a built-in name overrides it.
func RegisterBuiltins(reg *Registry, hub *event.Hub) {
	reg.SetType("vector", func(id string, opts Options, d Dispatcher) (Source, error) {
		return NewVectorSource(id, opts, d, hub)
	})
	reg.SetType("raster", func(id string, opts Options, d Dispatcher) (Source, error) {
		return NewRasterSource(id, opts, d, hub)
	})
	reg.SetType("geojson", func(id string, opts Options, d Dispatcher) (Source, error) {
		return NewGeoJSONSource(id, opts, d, hub)
	})
	reg.SetType("image", func(id string, opts Options, d Dispatcher) (Source, error) {
		return NewImageSource(id, opts, d, hub)
	})
	reg.SetType("video", func(id string, opts Options, d Dispatcher) (Source, error) {
		return NewVideoSource(id, opts, d, hub)
	})
}
