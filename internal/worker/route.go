package worker

import (
	"fmt"
	"strings"
)

// Route is the structured command identifying one worker-side operation:
// the source type it belongs to and the method name within that type.
type Route struct {
	Type   string
	Method string
}

// String renders the conventional "type.method" routing key.
func (r Route) String() string {
	return r.Type + "." + r.Method
}

// ParseRoute parses a "type.method" routing key. It exists for dynamic and
// third-party callers that carry routes as strings; compiled-in callers
// should construct Route values directly.
func ParseRoute(key string) (Route, error) {
	typ, method, ok := strings.Cut(key, ".")
	if !ok || typ == "" || method == "" {
		return Route{}, fmt.Errorf("malformed routing key %q: want \"type.method\"", key)
	}
	return Route{Type: typ, Method: method}, nil
}
