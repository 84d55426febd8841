package worker

import (
	"fmt"
	"sort"
	"sync"
)

// UnknownRouteError reports a routing key that resolves to no registered
// worker method. This is a caller/integration bug, not a runtime state the
// protocol recovers from.
type UnknownRouteError struct {
	Route Route
}

func (e *UnknownRouteError) Error() string {
	return fmt.Sprintf("no worker method registered for route %q", e.Route.String())
}

// Router is the routing table resolving typed commands to handlers.
// Registration happens at startup; lookups dominate afterwards.
type Router struct {
	mu     sync.RWMutex
	routes map[Route]Handler
}

func NewRouter() *Router {
	return &Router{
		routes: make(map[Route]Handler),
	}
}

// Register binds a single route to a handler, replacing any prior binding.
func (r *Router) Register(route Route, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[route] = h
}

// RegisterWorkerSource binds every method a worker source exposes under the
// given source type name.
func (r *Router) RegisterWorkerSource(typeName string, ws WorkerSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for method, h := range ws.Methods() {
		r.routes[Route{Type: typeName, Method: method}] = h
	}
}

// Lookup resolves a route. The second return value reports whether the
// route is registered.
func (r *Router) Lookup(route Route) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.routes[route]
	return h, ok
}

// Routes returns all registered routing keys, sorted.
func (r *Router) Routes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	keys := make([]string, 0, len(r.routes))
	for route := range r.routes {
		keys = append(keys, route.String())
	}
	sort.Strings(keys)
	return keys
}
