package notify

import (
	"context"
	"log"
	"time"
)

const deliveryTimeout = 10 * time.Second

// Dispatcher buffers events and drains them to a Notifier on a worker
// goroutine, so notification latency and failures never touch the
// request path.
type Dispatcher struct {
	notifier Notifier
	queue    chan Event
	stopChan chan struct{}
}

// NewDispatcher creates a dispatcher in front of the given notifier.
func NewDispatcher(notifier Notifier) *Dispatcher {
	return &Dispatcher{
		notifier: notifier,
		queue:    make(chan Event, 256),
		stopChan: make(chan struct{}),
	}
}

// Start drains the queue until the context is cancelled or Stop is called.
func (d *Dispatcher) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopChan:
			return
		case event := <-d.queue:
			d.deliver(event)
		}
	}
}

// Stop stops the dispatcher worker.
func (d *Dispatcher) Stop() {
	close(d.stopChan)
}

// Emit enqueues an event. Never blocks: if the queue is full the event
// is dropped with a log line, since notifications are best-effort.
func (d *Dispatcher) Emit(event Event) {
	select {
	case d.queue <- event:
	default:
		log.Printf("notify: queue full, dropping %s", event.Type)
	}
}

func (d *Dispatcher) deliver(event Event) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if err := d.notifier.Notify(ctx, event); err != nil {
		log.Printf("notify: delivery of %s failed: %v", event.Type, err)
	}
}
