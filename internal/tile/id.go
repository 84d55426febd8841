// Package tile defines the coordinate/zoom identity of a map tile.
//
// Tile identity is owned by the engine: sources and worker sources treat an
// ID as an opaque key for tracking in-flight work and cached results. The
// canonical zoom addresses the underlying data; the overscaled zoom is the
// zoom the tile is displayed at, which may exceed the source's max zoom.
package tile

import (
	"fmt"
)

// MaxZoom is the largest canonical zoom level an ID can address.
const MaxZoom = 24

// ID identifies one tile by canonical coordinates plus overscale factor.
type ID struct {
	Z uint8  // canonical zoom
	X uint32 // column at canonical zoom
	Y uint32 // row at canonical zoom

	// OverscaledZ is the display zoom. Equal to Z for a non-overscaled
	// tile, greater when the tile is stretched past the source maxzoom.
	OverscaledZ uint8
}

// New returns a non-overscaled ID at z/x/y.
func New(z uint8, x, y uint32) ID {
	return ID{Z: z, X: x, Y: y, OverscaledZ: z}
}

// Valid reports whether the coordinates are inside the tile pyramid.
func (id ID) Valid() bool {
	if id.Z > MaxZoom || id.OverscaledZ < id.Z {
		return false
	}
	n := uint32(1) << id.Z
	return id.X < n && id.Y < n
}

// Key packs the ID into a single comparable cache key.
// Layout: overscaledZ(8) | z(8) | x(24) | y(24), most significant first.
func (id ID) Key() uint64 {
	return uint64(id.OverscaledZ)<<56 | uint64(id.Z)<<48 |
		uint64(id.X&0xffffff)<<24 | uint64(id.Y&0xffffff)
}

// FromKey reverses Key.
func FromKey(key uint64) ID {
	return ID{
		OverscaledZ: uint8(key >> 56),
		Z:           uint8(key >> 48),
		X:           uint32(key>>24) & 0xffffff,
		Y:           uint32(key) & 0xffffff,
	}
}

// IsOverscaled reports whether the tile is displayed past its data zoom.
func (id ID) IsOverscaled() bool {
	return id.OverscaledZ > id.Z
}

// ScaledTo returns the ancestor (or overscaled descendant) of id at zoom z.
// Scaling below the canonical zoom divides coordinates; scaling above it
// keeps the canonical coordinates and raises only the overscaled zoom.
func (id ID) ScaledTo(z uint8) ID {
	if z >= id.Z {
		return ID{Z: id.Z, X: id.X, Y: id.Y, OverscaledZ: z}
	}
	shift := id.Z - z
	return ID{Z: z, X: id.X >> shift, Y: id.Y >> shift, OverscaledZ: z}
}

// Children returns the four direct children at the next canonical zoom.
func (id ID) Children() [4]ID {
	z := id.Z + 1
	x, y := id.X<<1, id.Y<<1
	return [4]ID{
		New(z, x, y),
		New(z, x+1, y),
		New(z, x, y+1),
		New(z, x+1, y+1),
	}
}

// IsChildOf reports whether id lies under parent in the tile pyramid.
func (id ID) IsChildOf(parent ID) bool {
	if parent.Z >= id.Z {
		return false
	}
	shift := id.Z - parent.Z
	return id.X>>shift == parent.X && id.Y>>shift == parent.Y
}

func (id ID) String() string {
	if id.IsOverscaled() {
		return fmt.Sprintf("%d/%d/%d@%d", id.Z, id.X, id.Y, id.OverscaledZ)
	}
	return fmt.Sprintf("%d/%d/%d", id.Z, id.X, id.Y)
}
