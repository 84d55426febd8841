// Package engine owns the live set of sources. It is the only writer of the
// id -> source table: creation, replacement, and teardown all pass through
// it, so at most one live source exists per id.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tilecraft/tilecraft/internal/event"
	"github.com/tilecraft/tilecraft/internal/log"
	"github.com/tilecraft/tilecraft/internal/source"
)

// Engine wires the source registry to the dispatcher and drives the
// per-frame Prepare hook of every live source.
type Engine struct {
	registry   *source.Registry
	dispatcher source.Dispatcher
	hub        *event.Hub
	logger     *slog.Logger

	mu      sync.RWMutex
	sources map[string]source.Source

	prepareInterval time.Duration
	stopCh          chan struct{}
	stopOnce        sync.Once
	wg              sync.WaitGroup
}

// New creates an Engine. prepareInterval drives the Prepare tick; zero
// disables it.
func New(reg *source.Registry, d source.Dispatcher, hub *event.Hub, prepareInterval time.Duration) *Engine {
	return &Engine{
		registry:        reg,
		dispatcher:      d,
		hub:             hub,
		logger:          log.WithComponent("engine"),
		sources:         make(map[string]source.Source),
		prepareInterval: prepareInterval,
		stopCh:          make(chan struct{}),
	}
}

// AddSource creates a source from its options, registers it under id and
// starts loading it. An existing source under the same id is unloaded first;
// if creation fails the previous source stays in place.
func (e *Engine) AddSource(id string, opts source.Options) (source.Source, error) {
	s, err := source.Create(e.registry, id, opts, e.dispatcher)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	prev := e.sources[id]
	e.sources[id] = s
	e.mu.Unlock()

	if prev != nil {
		prev.Unload()
	}

	s.Load()
	e.logger.Info("source added", "source_id", id, "type", s.Type())
	return s, nil
}

// RemoveSource unloads and forgets the source under id.
func (e *Engine) RemoveSource(id string) error {
	e.mu.Lock()
	s, ok := e.sources[id]
	delete(e.sources, id)
	e.mu.Unlock()

	if !ok {
		return fmt.Errorf("source %q not found", id)
	}
	s.Unload()
	e.logger.Info("source removed", "source_id", id)
	return nil
}

// Source returns the live source under id, or nil.
func (e *Engine) Source(id string) source.Source {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.sources[id]
}

// SourceIDs returns the ids of all live sources, sorted.
func (e *Engine) SourceIDs() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ids := make([]string, 0, len(e.sources))
	for id := range e.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TypeNames returns the registered source type names, sorted.
func (e *Engine) TypeNames() []string {
	return e.registry.TypeNames()
}

// Hub exposes the event hub sources publish to.
func (e *Engine) Hub() *event.Hub {
	return e.hub
}

// Start begins the Prepare tick loop.
func (e *Engine) Start(ctx context.Context) {
	if e.prepareInterval <= 0 {
		return
	}
	e.wg.Add(1)
	go e.prepareLoop(ctx)
}

// Stop unloads every source and stops the tick loop.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.wg.Wait()

	e.mu.Lock()
	live := make([]source.Source, 0, len(e.sources))
	for id, s := range e.sources {
		live = append(live, s)
		delete(e.sources, id)
	}
	e.mu.Unlock()

	for _, s := range live {
		s.Unload()
	}
	e.logger.Info("engine stopped", "sources_unloaded", len(live))
}

func (e *Engine) prepareLoop(ctx context.Context) {
	defer e.wg.Done()

	ticker := time.NewTicker(e.prepareInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			e.prepare()
		case <-e.stopCh:
			return
		case <-ctx.Done():
			e.logger.Warn("engine context cancelled, stopping prepare loop")
			return
		}
	}
}

// prepare runs the per-frame hook on every live source.
func (e *Engine) prepare() {
	e.mu.RLock()
	live := make([]source.Source, 0, len(e.sources))
	for _, s := range e.sources {
		live = append(live, s)
	}
	e.mu.RUnlock()

	for _, s := range live {
		s.Prepare()
	}
}
