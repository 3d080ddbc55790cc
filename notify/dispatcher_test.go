package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type captureNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (c *captureNotifier) Notify(_ context.Context, event Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func (c *captureNotifier) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func TestDispatcherDeliversInOrder(t *testing.T) {
	capture := &captureNotifier{}
	d := NewDispatcher(capture)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	d.Emit(Event{Type: EventJobCreated, Payload: map[string]string{"job_id": "j1"}})
	d.Emit(Event{Type: EventJobClaimed, Payload: map[string]string{"job_id": "j1"}})

	assert.Eventually(t, func() bool { return capture.count() == 2 }, time.Second, 5*time.Millisecond)

	capture.mu.Lock()
	defer capture.mu.Unlock()
	assert.Equal(t, EventJobCreated, capture.events[0].Type)
	assert.Equal(t, EventJobClaimed, capture.events[1].Type)
}

func TestDispatcherSwallowsDeliveryFailure(t *testing.T) {
	capture := &captureNotifier{err: errors.New("smtp down")}
	d := NewDispatcher(capture)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	// A failing notifier must not stop the worker.
	d.Emit(Event{Type: EventFixAccepted})
	d.Emit(Event{Type: EventFixRejected})

	assert.Eventually(t, func() bool { return capture.count() == 2 }, time.Second, 5*time.Millisecond)
}

func TestDispatcherStop(t *testing.T) {
	d := NewDispatcher(LogNotifier{})
	done := make(chan struct{})
	go func() {
		d.Start(context.Background())
		close(done)
	}()

	d.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
