package source

import (
	"testing"
)

func TestSetTypeThenGetType(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	if _, ok := reg.GetType("custom"); ok {
		t.Fatal("empty registry should resolve nothing")
	}

	f := func(id string, opts Options, d Dispatcher) (Source, error) {
		return newCustomSource(id, nil), nil
	}
	reg.SetType("custom", f)

	got, ok := reg.GetType("custom")
	if !ok || got == nil {
		t.Fatal("just-registered factory should resolve")
	}
}

func TestSetTypeOverwrites(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.SetType("custom", func(id string, opts Options, d Dispatcher) (Source, error) {
		t.Fatal("overridden factory must not run")
		return nil, nil
	})
	reg.SetType("custom", func(id string, opts Options, d Dispatcher) (Source, error) {
		return newCustomSource(id, nil), nil
	})

	f, ok := reg.GetType("custom")
	if !ok {
		t.Fatal("factory should resolve after override")
	}
	s, err := f("a", Options{"type": "custom"}, nil)
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	if s.ID() != "a" {
		t.Fatalf("id = %q", s.ID())
	}
}

func TestRegisterBuiltins(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	RegisterBuiltins(reg, nil)

	want := []string{"geojson", "image", "raster", "vector", "video"}
	got := reg.TypeNames()
	if len(got) != len(want) {
		t.Fatalf("TypeNames() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("TypeNames() = %v, want %v", got, want)
		}
	}
}
