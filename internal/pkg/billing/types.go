package billing

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the reconciliation core. Business misses
// (ErrUserNotFound, ErrInvalidProduct) never cross the HTTP boundary as
// errors; they are translated into Outcome values by the dispatcher.
// Everything else propagates so the provider redelivers.
var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrInvalidPayload   = errors.New("invalid webhook payload")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidProduct   = errors.New("invalid product")
	ErrPersistence      = errors.New("persistence update not confirmed")
)

// CheckoutError wraps any downstream failure of checkout initiation into a
// single caller-facing error. Provider internals never leak past it.
type CheckoutError struct {
	Message string
	Err     error
}

func (e *CheckoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("checkout failed: %s: %v", e.Message, e.Err)
	}
	return "checkout failed: " + e.Message
}

func (e *CheckoutError) Unwrap() error {
	return e.Err
}

// Outcome is the structured result of webhook reconciliation. Soft failures
// carry Status "error" but are still acknowledged with a 2xx so the provider
// does not endlessly redeliver events that cannot resolve locally.
type Outcome struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	CreditsAdded int64  `json:"credits_added"`
	Duplicate    bool   `json:"duplicate,omitempty"`
}

const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

func successOutcome(message string, credits int64) Outcome {
	return Outcome{Status: OutcomeSuccess, Message: message, CreditsAdded: credits}
}

func errorOutcome(message string) Outcome {
	return Outcome{Status: OutcomeError, Message: message}
}

// EventKind is the closed set of webhook event classifications. New
// provider event types land in EventUnhandled until given a kind here,
// which keeps every dispatch switch exhaustive.
type EventKind int

const (
	EventUnhandled EventKind = iota
	EventSubscriptionCreated
	EventSubscriptionUpdated
	EventSubscriptionDeleted
	EventCheckoutCompleted
)

func (k EventKind) String() string {
	switch k {
	case EventSubscriptionCreated:
		return "subscription.created"
	case EventSubscriptionUpdated:
		return "subscription.updated"
	case EventSubscriptionDeleted:
		return "subscription.deleted"
	case EventCheckoutCompleted:
		return "checkout.completed"
	default:
		return "unhandled"
	}
}

// ClassifyEventType maps a raw provider event type onto an EventKind.
func ClassifyEventType(eventType string) EventKind {
	switch strings.ToLower(strings.TrimSpace(eventType)) {
	case "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	case "checkout.session.completed":
		return EventCheckoutCompleted
	default:
		return EventUnhandled
	}
}
