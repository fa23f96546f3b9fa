package feed

import (
	"context"
	"errors"
	"sync"

	"github.com/nerrad567/statebridge/internal/metric"
)

// Status represents the dispatcher lifecycle state.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusDraining   Status = "draining"
	StatusStopped    Status = "stopped"
)

// ErrAlreadyStarted is returned when Start is called twice.
var ErrAlreadyStarted = errors.New("feed: dispatcher already started")

// Processor handles one record end to end: classify, build, encode,
// deliver. A returned error is logged and isolated to that record.
type Processor func(ctx context.Context, rec metric.ChangeRecord) error

// Logger is the logging interface consumed by the dispatcher.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Error(msg string, args ...any)
}

// item is one queue element: either a record or the shutdown marker.
type item struct {
	rec      metric.ChangeRecord
	shutdown bool
}

// Dispatcher is a single-consumer FIFO queue with cooperative shutdown.
//
// Enqueueing is non-blocking and safe from any goroutine. Exactly one
// consumer goroutine processes records in strict arrival order.
type Dispatcher struct {
	process Processor
	log     Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []item
	status Status

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher in the NotStarted state. No
// goroutine is spawned and nothing is subscribed; the host wires the
// entry points explicitly.
func NewDispatcher(process Processor, log Logger) *Dispatcher {
	d := &Dispatcher{
		process: process,
		log:     log,
		status:  StatusNotStarted,
	}
	d.cond = sync.NewCond(&d.mu)
	return d
}

// Status returns the current lifecycle state.
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// Start spawns the consumer goroutine and transitions to Running.
//
// The context is passed to the processor for each record; it is not used
// to interrupt the consumer, so an in-flight delivery is never forcibly
// cancelled. Stop the dispatcher with Shutdown.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.status != StatusNotStarted {
		d.mu.Unlock()
		return ErrAlreadyStarted
	}
	d.status = StatusRunning
	d.mu.Unlock()

	d.wg.Add(1)
	go d.run(ctx)
	d.log.Debug("dispatcher started")
	return nil
}

// HandleRecord enqueues one record for processing. It never blocks.
//
// Records may be queued before Start; they are processed once the
// consumer runs. After the consumer has exited, records are dropped with
// a logged error rather than growing an orphaned queue.
func (d *Dispatcher) HandleRecord(rec metric.ChangeRecord) {
	d.mu.Lock()
	if d.status == StatusStopped {
		d.mu.Unlock()
		d.log.Error("consumer has exited, dropping record", "entity_id", rec.EntityID)
		return
	}
	d.queue = append(d.queue, item{rec: rec})
	d.mu.Unlock()
	d.cond.Signal()
}

// Shutdown enqueues the shutdown marker and waits for the consumer to
// drain every record queued ahead of it.
//
// Safe to call at most once after Start. Calling before Start stops the
// dispatcher without processing anything.
func (d *Dispatcher) Shutdown() {
	d.mu.Lock()
	switch d.status {
	case StatusNotStarted:
		d.status = StatusStopped
		d.mu.Unlock()
		return
	case StatusDraining, StatusStopped:
		d.mu.Unlock()
		return
	case StatusRunning:
		d.status = StatusDraining
	}
	d.queue = append(d.queue, item{shutdown: true})
	d.mu.Unlock()
	d.cond.Signal()

	d.wg.Wait()
}

// run is the consumer loop: dequeue in arrival order, process one record
// at a time, exit cleanly on the shutdown marker.
func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()

	for {
		d.mu.Lock()
		for len(d.queue) == 0 {
			d.cond.Wait()
		}
		it := d.queue[0]
		d.queue = d.queue[1:]
		d.mu.Unlock()

		if it.shutdown {
			d.mu.Lock()
			d.status = StatusStopped
			d.mu.Unlock()
			d.log.Debug("dispatcher stopped")
			return
		}

		d.processOne(ctx, it.rec)
	}
}

// processOne isolates one record's processing: errors and panics are
// logged and the loop continues.
func (d *Dispatcher) processOne(ctx context.Context, rec metric.ChangeRecord) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic processing record",
				"entity_id", rec.EntityID,
				"panic", r,
			)
		}
	}()

	if err := d.process(ctx, rec); err != nil {
		d.log.Error("failed to process record",
			"entity_id", rec.EntityID,
			"error", err,
		)
	}
}
