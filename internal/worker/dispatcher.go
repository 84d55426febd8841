package worker

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/tilecraft/tilecraft/internal/log"
)

const defaultQueueDepth = 256

// Pool is the in-process dispatcher: a bounded pool of goroutines executing
// routed operations off the engine's control goroutine. Sources only see
// its Send method; everything else is lifecycle owned by the process entry
// point.
type Pool struct {
	router  *Router
	workers int
	tasks   chan *task
	logger  *slog.Logger

	baseCtx context.Context
	quit    chan struct{}
	wg      sync.WaitGroup
	started sync.Once
	stopped sync.Once
}

type task struct {
	id      string
	route   Route
	handler Handler
	params  any
	cb      Callback
	ctx     context.Context

	once sync.Once
}

// deliver invokes the callback at most once.
func (t *task) deliver(result any, err error) {
	if t.cb == nil {
		return
	}
	t.once.Do(func() { t.cb(result, err) })
}

// NewPool creates a dispatcher backed by the given routing table.
func NewPool(router *Router, workers, queueDepth int) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueDepth <= 0 {
		queueDepth = defaultQueueDepth
	}
	return &Pool{
		router:  router,
		workers: workers,
		tasks:   make(chan *task, queueDepth),
		logger:  log.WithComponent("dispatcher"),
		baseCtx: context.Background(),
		quit:    make(chan struct{}),
	}
}

// Start launches the worker goroutines. ctx bounds the lifetime of every
// dispatched operation; cancelling it drains the pool.
func (p *Pool) Start(ctx context.Context) {
	p.started.Do(func() {
		p.baseCtx = ctx
		p.logger.Info("dispatcher started", "workers", p.workers)
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.loop()
		}
	})
}

// Close stops accepting sends and waits for in-flight operations.
func (p *Pool) Close() {
	p.stopped.Do(func() {
		close(p.quit)
		p.wg.Wait()
		p.logger.Info("dispatcher stopped")
	})
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case <-p.baseCtx.Done():
			return
		case t := <-p.tasks:
			p.run(t)
		}
	}
}

// Send routes params to the worker method identified by route and returns a
// cancellation handle. The callback fires at most once; an unknown route is
// reported through the callback's error channel and logged.
func (p *Pool) Send(route Route, params any, cb Callback) CancelFunc {
	id := uuid.NewString()
	ctx, cancel := context.WithCancel(p.baseCtx)

	handler, ok := p.router.Lookup(route)
	if !ok {
		err := &UnknownRouteError{Route: route}
		p.logger.Error("dispatch to unknown route", "route", route.String(), "message_id", id)
		// Surface asynchronously so Send never re-enters the caller.
		go func() {
			defer cancel()
			if cb != nil {
				cb(nil, err)
			}
		}()
		return CancelFunc(cancel)
	}

	t := &task{
		id:      id,
		route:   route,
		handler: handler,
		params:  params,
		cb:      cb,
		ctx:     ctx,
	}

	select {
	case p.tasks <- t:
	case <-p.quit:
		cancel()
	default:
		// Queue full: overflow into a dedicated goroutine rather than block
		// the caller's control goroutine.
		go p.run(t)
	}

	return CancelFunc(cancel)
}

func (p *Pool) run(t *task) {
	// Cancelled while queued: the operation never started, skip the
	// callback entirely. Callers already tolerate a silent cancel.
	if t.ctx.Err() != nil {
		return
	}

	p.logger.Debug("executing", "route", t.route.String(), "message_id", t.id)
	result, err := t.handler(t.ctx, t.params)
	if err != nil {
		p.logger.Debug("worker method failed", "route", t.route.String(), "message_id", t.id, "error", err)
	}
	t.deliver(result, err)
}
