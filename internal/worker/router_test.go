package worker

import (
	"context"
	"testing"
)

type staticWorkerSource struct {
	methods map[string]Handler
}

func (s *staticWorkerSource) Methods() map[string]Handler { return s.methods }

func TestRegisterAndLookup(t *testing.T) {
	t.Parallel()

	r := NewRouter()
	called := false
	r.Register(Route{Type: "vector", Method: "loadTile"}, func(ctx context.Context, params any) (any, error) {
		called = true
		return nil, nil
	})

	h, ok := r.Lookup(Route{Type: "vector", Method: "loadTile"})
	if !ok {
		t.Fatal("route should resolve")
	}
	_, _ = h(context.Background(), nil)
	if !called {
		t.Fatal("handler not invoked")
	}

	if _, ok := r.Lookup(Route{Type: "vector", Method: "nope"}); ok {
		t.Fatal("unregistered method must not resolve")
	}
	if _, ok := r.Lookup(Route{Type: "nope", Method: "loadTile"}); ok {
		t.Fatal("unregistered type must not resolve")
	}
}

func TestRegisterWorkerSource(t *testing.T) {
	t.Parallel()

	ws := &staticWorkerSource{methods: map[string]Handler{
		"loadTile": func(ctx context.Context, params any) (any, error) { return "tile", nil },
		"loadData": func(ctx context.Context, params any) (any, error) { return "data", nil },
	}}

	r := NewRouter()
	r.RegisterWorkerSource("geojson", ws)

	for _, method := range []string{"loadTile", "loadData"} {
		if _, ok := r.Lookup(Route{Type: "geojson", Method: method}); !ok {
			t.Errorf("method %q not registered", method)
		}
	}

	routes := r.Routes()
	if len(routes) != 2 || routes[0] != "geojson.loadData" || routes[1] != "geojson.loadTile" {
		t.Fatalf("Routes() = %v", routes)
	}
}

func TestParseRoute(t *testing.T) {
	t.Parallel()

	route, err := ParseRoute("vector.loadTile")
	if err != nil {
		t.Fatalf("ParseRoute: %v", err)
	}
	if route != (Route{Type: "vector", Method: "loadTile"}) {
		t.Fatalf("ParseRoute = %+v", route)
	}
	if route.String() != "vector.loadTile" {
		t.Fatalf("String() = %q", route.String())
	}

	for _, bad := range []string{"", "vector", ".loadTile", "vector."} {
		if _, err := ParseRoute(bad); err == nil {
			t.Errorf("ParseRoute(%q) should fail", bad)
		}
	}
}

func TestUnknownRouteError(t *testing.T) {
	t.Parallel()

	err := &UnknownRouteError{Route: Route{Type: "custom", Method: "poke"}}
	if got := err.Error(); got != `no worker method registered for route "custom.poke"` {
		t.Fatalf("Error() = %q", got)
	}
}
