package source

import (
	"errors"
	"fmt"
)

// ErrUnknownSourceType reports an options type name absent from the
// registry at creation time. Fatal to that Create call; checked at lookup,
// before any factory runs.
var ErrUnknownSourceType = errors.New("unknown source type")

// ErrSourceNotReady reports a tile operation on a source whose metadata is
// not loaded yet. Delivered through the tile's own callback.
var ErrSourceNotReady = errors.New("source is not ready")

// ErrSourceUnloaded reports an operation on a source after Unload.
var ErrSourceUnloaded = errors.New("source is unloaded")

// IdentityMismatchError reports a factory that returned a source whose id
// differs from the requested one. Construction fails and the instance is
// discarded; this is never tolerated silently.
type IdentityMismatchError struct {
	Requested string
	Returned  string
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("source factory returned id %q for requested id %q", e.Returned, e.Requested)
}
