package engine

import (
	"context"
	"os"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/log"
	"github.com/tilecraft/tilecraft/internal/source"
	"github.com/tilecraft/tilecraft/internal/tile"
	"github.com/tilecraft/tilecraft/internal/worker"
)

func TestMain(m *testing.M) {
	log.Setup("ERROR") // Suppress logs in tests
	os.Exit(m.Run())
}

// nullDispatcher satisfies source.Dispatcher for sources that never reach a
// worker in these tests.
type nullDispatcher struct{}

func (nullDispatcher) Send(route worker.Route, params any, cb worker.Callback) worker.CancelFunc {
	if cb != nil {
		go cb(nil, nil)
	}
	return func() {}
}

// countingSource records lifecycle calls so tests observe engine behavior
// without real workers.
type countingSource struct {
	id string

	mu       sync.Mutex
	loads    int
	unloads  int
	prepares int
}

func (s *countingSource) ID() string                                     { return s.id }
func (s *countingSource) Type() string                                   { return "counting" }
func (s *countingSource) MinZoom() float64                               { return 0 }
func (s *countingSource) MaxZoom() float64                               { return 22 }
func (s *countingSource) IsTileClipped() bool                            { return false }
func (s *countingSource) ReparseOverscaled() bool                        { return false }
func (s *countingSource) RoundZoom() bool                                { return false }
func (s *countingSource) State() source.State { return source.StateReady }

func (s *countingSource) LoadTile(_ tile.ID, cb source.TileCallback) {}
func (s *countingSource) AbortTile(tile.ID)                          {}
func (s *countingSource) UnloadTile(tile.ID)                         {}

func (s *countingSource) Serialize() source.Options {
	return source.Options{"type": "counting"}
}

func (s *countingSource) Load() {
	s.mu.Lock()
	s.loads++
	s.mu.Unlock()
}

func (s *countingSource) Unload() {
	s.mu.Lock()
	s.unloads++
	s.mu.Unlock()
}

func (s *countingSource) Prepare() {
	s.mu.Lock()
	s.prepares++
	s.mu.Unlock()
}

func (s *countingSource) counts() (loads, unloads, prepares int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads, s.unloads, s.prepares
}

func newTestEngine(interval time.Duration) (*Engine, *source.Registry) {
	reg := source.NewRegistry()
	reg.SetType("counting", func(id string, opts source.Options, d source.Dispatcher) (source.Source, error) {
		return &countingSource{id: id}, nil
	})
	return New(reg, nullDispatcher{}, event.NewHub(8), interval), reg
}

func TestAddSourceLoadsAndReplaces(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(0)

	s1, err := e.AddSource("base", source.Options{"type": "counting"})
	if err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if loads, _, _ := s1.(*countingSource).counts(); loads != 1 {
		t.Fatalf("loads = %d", loads)
	}
	if e.Source("base") != s1 {
		t.Fatal("Source(base) is not the added source")
	}

	// Replacing under the same id unloads the previous source.
	s2, err := e.AddSource("base", source.Options{"type": "counting"})
	if err != nil {
		t.Fatalf("AddSource replace: %v", err)
	}
	if _, unloads, _ := s1.(*countingSource).counts(); unloads != 1 {
		t.Fatalf("previous source unloads = %d", unloads)
	}
	if e.Source("base") != s2 {
		t.Fatal("Source(base) is not the replacement")
	}
}

func TestAddSourceFailureKeepsPrevious(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(0)
	s1, _ := e.AddSource("base", source.Options{"type": "counting"})

	if _, err := e.AddSource("base", source.Options{"type": "bogus"}); err == nil {
		t.Fatal("expected error for unknown type")
	}
	if e.Source("base") != s1 {
		t.Fatal("failed add displaced the live source")
	}
	if _, unloads, _ := s1.(*countingSource).counts(); unloads != 0 {
		t.Fatalf("live source was unloaded: %d", unloads)
	}
}

func TestRemoveSource(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(0)
	s, _ := e.AddSource("base", source.Options{"type": "counting"})

	if err := e.RemoveSource("base"); err != nil {
		t.Fatalf("RemoveSource: %v", err)
	}
	if _, unloads, _ := s.(*countingSource).counts(); unloads != 1 {
		t.Fatalf("unloads = %d", unloads)
	}
	if e.Source("base") != nil {
		t.Fatal("removed source still resolvable")
	}
	if err := e.RemoveSource("base"); err == nil {
		t.Fatal("expected error for unknown id")
	}
}

func TestSourceIDsSorted(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(0)
	for _, id := range []string{"c", "a", "b"} {
		if _, err := e.AddSource(id, source.Options{"type": "counting"}); err != nil {
			t.Fatalf("AddSource(%s): %v", id, err)
		}
	}
	if got := e.SourceIDs(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("SourceIDs = %v", got)
	}
}

func TestPrepareTickReachesSources(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(5 * time.Millisecond)
	s, _ := e.AddSource("cam", source.Options{"type": "counting"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, prepares := s.(*countingSource).counts(); prepares >= 2 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if _, _, prepares := s.(*countingSource).counts(); prepares < 2 {
		t.Fatalf("prepares = %d", prepares)
	}

	e.Stop()
	if _, unloads, _ := s.(*countingSource).counts(); unloads != 1 {
		t.Fatalf("Stop did not unload: %d", unloads)
	}
	if e.Source("cam") != nil {
		t.Fatal("source survived Stop")
	}
}
