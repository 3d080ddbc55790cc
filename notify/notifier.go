// Package notify delivers best-effort notifications for lifecycle and
// signup events. Delivery is decoupled from the state transitions that
// trigger it: callers emit events after commit and never observe
// delivery failures.
package notify

import (
	"context"
	"log"
)

// EventType identifies what happened.
type EventType string

const (
	EventJobCreated     EventType = "job_created"
	EventJobClaimed     EventType = "job_claimed"
	EventFixAccepted    EventType = "fix_accepted"
	EventFixRejected    EventType = "fix_rejected"
	EventJobApproved    EventType = "job_approved"
	EventJobRejected    EventType = "job_rejected"
	EventWaitlistSignup EventType = "waitlist_signup"
	EventLabRequest     EventType = "lab_request"
)

// Event is one notification payload.
type Event struct {
	Type    EventType
	Payload map[string]string
}

// Notifier delivers a single event. Implementations must be safe for
// concurrent use.
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// LogNotifier writes events to the process log. Used when no email
// provider is configured.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, event Event) error {
	log.Printf("notify: %s %v", event.Type, event.Payload)
	return nil
}
