package source

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/tile"
)

func cornerCoordinates() [][]float64 {
	return [][]float64{{-1, 1}, {1, 1}, {1, -1}, {-1, -1}}
}

func waitForState(t *testing.T, s Source, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("state = %v, want %v", s.State(), want)
}

func TestImageLoadFetchesAndServesTiles(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png-bytes"))
	}))
	defer srv.Close()

	s, err := NewImageSource("overlay", Options{
		"type":        "image",
		"url":         srv.URL,
		"coordinates": cornerCoordinates(),
	}, nil, nil)
	if err != nil {
		t.Fatalf("NewImageSource: %v", err)
	}

	s.Load()
	waitForState(t, s, StateReady)

	var got *TileResult
	s.LoadTile(tile.New(4, 3, 5), func(res *TileResult, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		got = res
	})
	if got == nil || string(got.Data) != "png-bytes" {
		t.Fatalf("result = %+v", got)
	}
	if got.Tile != tile.New(4, 3, 5) {
		t.Fatalf("tile = %v", got.Tile)
	}
}

func TestImageLoadFailureAllowsRetry(t *testing.T) {
	t.Parallel()

	fail := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, "nope", http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	hub := event.NewHub(8)
	ch, cancel := hub.Subscribe()
	defer cancel()

	s, _ := NewImageSource("overlay", Options{
		"type":        "image",
		"url":         srv.URL,
		"coordinates": cornerCoordinates(),
	}, nil, hub)

	s.Load()
	ev := <-ch
	if ev.Type != event.SourceError {
		t.Fatalf("event = %+v", ev)
	}
	waitForState(t, s, StateConstructed)

	fail = false
	s.Load()
	waitForState(t, s, StateReady)
}

func TestImageTileOpsBeforeReady(t *testing.T) {
	t.Parallel()

	s, _ := NewImageSource("overlay", Options{
		"type":        "image",
		"url":         "http://unused.invalid/img.png",
		"coordinates": cornerCoordinates(),
	}, nil, nil)

	var gotErr error
	s.LoadTile(tile.New(0, 0, 0), func(res *TileResult, err error) { gotErr = err })
	if !errors.Is(gotErr, ErrSourceNotReady) {
		t.Fatalf("err = %v", gotErr)
	}

	// Per-tile teardown never errors, in any state.
	s.AbortTile(tile.New(0, 0, 0))
	s.UnloadTile(tile.New(0, 0, 0))
}

func TestVideoPrepareAdvancesFrames(t *testing.T) {
	t.Parallel()

	hub := event.NewHub(8)
	s, err := NewVideoSource("cam", Options{
		"type":        "video",
		"urls":        []string{"https://media.example/cam.mp4", "https://media.example/cam.webm"},
		"coordinates": cornerCoordinates(),
	}, nil, hub)
	if err != nil {
		t.Fatalf("NewVideoSource: %v", err)
	}
	vs := s.(*VideoSource)

	// Prepare before ready must not tick.
	vs.Prepare()
	if vs.Frame() != 0 {
		t.Fatalf("frame = %d before load", vs.Frame())
	}

	vs.Load()
	if vs.State() != StateReady {
		t.Fatalf("state = %v", vs.State())
	}

	ch, cancel := hub.Subscribe()
	defer cancel()

	vs.Prepare()
	vs.Prepare()
	if vs.Frame() != 2 {
		t.Fatalf("frame = %d", vs.Frame())
	}
	ev := <-ch
	if ev.Type != event.SourceChange || ev.SourceID != "cam" {
		t.Fatalf("event = %+v", ev)
	}

	vs.Unload()
	vs.Prepare()
	if vs.Frame() != 2 {
		t.Fatalf("frame advanced after unload: %d", vs.Frame())
	}
}

func TestVideoTilesCarryNoPayload(t *testing.T) {
	t.Parallel()

	s, _ := NewVideoSource("cam", Options{
		"type":        "video",
		"urls":        []string{"https://media.example/cam.mp4"},
		"coordinates": cornerCoordinates(),
	}, nil, nil)
	s.Load()

	var got *TileResult
	s.LoadTile(tile.New(2, 1, 1), func(res *TileResult, err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		got = res
	})
	if got == nil || got.Data != nil {
		t.Fatalf("result = %+v", got)
	}
}
