package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Dispatcher hands events to another Recorder on a background goroutine so
// request handling never waits on the audit store. When the buffer is full
// the event is dropped and counted.
type Dispatcher struct {
	next      Recorder
	log       logrus.FieldLogger
	ch        chan Event
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewDispatcher(next Recorder, buffer int, log logrus.FieldLogger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	d := &Dispatcher{
		next: next,
		log:  log,
		ch:   make(chan Event, buffer),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case e := <-d.ch:
			d.next.Record(context.Background(), e)
		case <-d.done:
			for {
				select {
				case e := <-d.ch:
					d.next.Record(context.Background(), e)
				default:
					return
				}
			}
		}
	}
}

// Record resolves client info from ctx and queues the event.
func (d *Dispatcher) Record(ctx context.Context, e Event) {
	if d == nil {
		return
	}
	e = withClient(ctx, e)

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.drop(e, "audit dispatcher closed, event dropped")
		return
	}
	select {
	case d.ch <- e:
	default:
		d.drop(e, "audit buffer full, event dropped")
	}
}

func (d *Dispatcher) drop(e Event, msg string) {
	n := d.dropped.Add(1)
	d.log.WithFields(logrus.Fields{"action": e.Action, "dropped": n}).Warn(msg)
}

// Close drains queued events and stops the worker.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		// Sends in flight finish before the worker starts draining.
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns how many events were discarded.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
