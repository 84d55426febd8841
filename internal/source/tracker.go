package source

import (
	"sync"

	"github.com/tilecraft/tilecraft/internal/worker"
)

// inflightOp is one dispatched tile operation. gen orders loads per tile
// key: results are replaceable-by-key, not ordered by call sequence, so a
// completion only counts if its generation is still the current one.
type inflightOp struct {
	gen    uint64
	cancel worker.CancelFunc
}

// tileTracker keeps per-tile in-flight state for worker-backed sources:
// which load is current, and how to cancel it. A reload supersedes the
// prior load (best-effort cancel); a superseded or aborted callback is
// dropped rather than applied stale.
type tileTracker struct {
	mu       sync.Mutex
	gens     map[uint64]uint64
	inflight map[uint64]*inflightOp
}

func newTileTracker() tileTracker {
	return tileTracker{
		gens:     make(map[uint64]uint64),
		inflight: make(map[uint64]*inflightOp),
	}
}

// begin registers a new load for key, superseding (and cancelling) any
// prior in-flight one. Returns the new load's generation.
func (tr *tileTracker) begin(key uint64) uint64 {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.gens[key]++
	gen := tr.gens[key]

	if op := tr.inflight[key]; op != nil && op.cancel != nil {
		op.cancel()
	}
	tr.inflight[key] = &inflightOp{gen: gen}
	return gen
}

// attach records the cancel handle for the load started by begin. If that
// load was already superseded or finished, the handle is invoked instead of
// stored so the worker stops early.
func (tr *tileTracker) attach(key uint64, gen uint64, cancel worker.CancelFunc) {
	tr.mu.Lock()
	op := tr.inflight[key]
	if op != nil && op.gen == gen {
		op.cancel = cancel
		tr.mu.Unlock()
		return
	}
	tr.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// finish reports whether the completing load is still the current one and,
// if so, clears it. A false return means the result must be dropped.
func (tr *tileTracker) finish(key uint64, gen uint64) bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	op := tr.inflight[key]
	if op == nil || op.gen != gen {
		return false
	}
	delete(tr.inflight, key)
	return true
}

// abort cancels the in-flight load for key, if any. Idempotent: a second
// call observes no in-flight entry and does nothing.
func (tr *tileTracker) abort(key uint64) {
	tr.mu.Lock()
	op := tr.inflight[key]
	delete(tr.inflight, key)
	tr.mu.Unlock()

	if op != nil && op.cancel != nil {
		op.cancel()
	}
}

// drop clears all bookkeeping for key. Used by unloadTile so a long-gone
// tile does not pin its generation counter.
func (tr *tileTracker) drop(key uint64) {
	tr.abort(key)
	tr.mu.Lock()
	delete(tr.gens, key)
	tr.mu.Unlock()
}

// abortAll cancels every in-flight load.
func (tr *tileTracker) abortAll() {
	tr.mu.Lock()
	ops := make([]*inflightOp, 0, len(tr.inflight))
	for key, op := range tr.inflight {
		ops = append(ops, op)
		delete(tr.inflight, key)
	}
	tr.mu.Unlock()

	for _, op := range ops {
		if op.cancel != nil {
			op.cancel()
		}
	}
}
