package billing

import (
	"context"
	"encoding/json"
)

// Customer is the provider-agnostic view of a billing customer.
type Customer struct {
	ID    string
	Email string
	Name  string
}

// CheckoutSession references a provider-hosted checkout.
type CheckoutSession struct {
	ID  string
	URL string
}

// LineItem is a purchased item inside a completed checkout session.
type LineItem struct {
	PriceID  string
	Quantity int64
}

// Event is a verified webhook event. Payload holds the raw event object;
// the dispatcher parses it into normalized structs per event kind.
type Event struct {
	ID      string
	Type    string
	Payload json.RawMessage
}

// CustomerInput carries the fields for creating a provider customer.
type CustomerInput struct {
	Email  string
	Name   string
	UserID string
}

// CheckoutSessionInput carries the fields for opening a checkout session.
// ClientReferenceID is the local user id; ProductType travels in metadata
// so webhook handling can recover product semantics if price lookups drift.
type CheckoutSessionInput struct {
	CustomerID        string
	CustomerEmail     string
	PriceID           string
	Mode              string
	SuccessURL        string
	CancelURL         string
	ClientReferenceID string
	ProductType       string
}

const (
	SessionModeSubscription = "subscription"
	SessionModePayment      = "payment"
)

// Provider is the billing-provider capability surface the core depends on.
type Provider interface {
	CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error)
	RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error)
	CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error)
	ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error)
	VerifyWebhook(payload []byte, signatureHeader string) (*Event, error)
}
