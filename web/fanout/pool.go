package fanout

import (
	"context"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/gaswatch-project/gaswatch/internal/alerting"
	"github.com/gaswatch-project/gaswatch/web/observability"
)

const (
	DefaultWorkers    = 4
	DefaultBufferSize = DefaultWorkers * 256
)

// Handler processes one alert event on a pool worker.
type Handler func(ctx context.Context, event alerting.AlertEvent)

// CoordinatorHandler runs a fan-out pass in-process for each event.
func CoordinatorHandler(coordinator AlertHandler) Handler {
	return func(ctx context.Context, event alerting.AlertEvent) {
		coordinator.DispatchAlert(ctx, event)
	}
}

// Pool detaches alert handling from the ingest request: events are queued on a
// buffered channel and consumed by a fixed number of workers.
type Pool struct {
	ch      chan alerting.AlertEvent
	handler Handler
	workers int
	metrics *observability.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.RWMutex
	started bool
	closed  bool
}

func NewPool(workers int, bufferSize int, handler Handler, metrics *observability.Metrics) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if bufferSize <= 0 {
		bufferSize = workers * 256
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		ch:      make(chan alerting.AlertEvent, bufferSize),
		handler: handler,
		workers: workers,
		metrics: metrics,
		ctx:     ctx,
		cancel:  cancel,
	}
}

func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started || p.closed {
		return
	}
	p.started = true

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// Dispatch queues the event without blocking. It returns false when the queue is full
// or the pool is stopped, in which case the event is dropped.
func (p *Pool) Dispatch(event alerting.AlertEvent) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		log.Warnf("Alert for reading %d dropped: fan-out workers are stopped", event.ReadingID)
		p.metrics.AlertQueued(false)
		return false
	}

	select {
	case p.ch <- event:
		p.metrics.AlertQueued(true)
		return true
	default:
		log.Errorf("Alert for reading %d dropped: fan-out queue is full", event.ReadingID)
		p.metrics.AlertQueued(false)
		return false
	}
}

// Stop refuses new events and waits until the queued ones are handled.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.ch)
	started := p.started
	p.mu.Unlock()

	if !started {
		p.cancel()
		return
	}

	p.wg.Wait()
	p.cancel()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for event := range p.ch {
		p.handle(event)
	}
}

func (p *Pool) handle(event alerting.AlertEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Alert handler panicked for reading %d: %v", event.ReadingID, r)
		}
	}()

	p.handler(p.ctx, event)
}
