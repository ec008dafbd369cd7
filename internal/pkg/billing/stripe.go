package billing

import (
	"context"
	"fmt"
	"strings"

	"github.com/bonesy512/landhub/internal/pkg/config"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeProvider implements Provider against the Stripe API. Keys and the
// webhook secret come from the startup configuration; the test/live choice
// was already made there.
type StripeProvider struct {
	api           *client.API
	webhookSecret string
}

func NewStripeProvider(cfg *config.Config) (*StripeProvider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid billing configuration: %w", err)
	}

	api := &client.API{}
	api.Init(cfg.StripeSecretKey, nil)

	return &StripeProvider{
		api:           api,
		webhookSecret: cfg.StripeWebhookSecret,
	}, nil
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(in.Email),
	}
	params.Context = ctx
	if strings.TrimSpace(in.Name) != "" {
		params.Name = stripe.String(in.Name)
	}
	if in.UserID != "" {
		params.AddMetadata("user_id", in.UserID)
	}

	cust, err := p.api.Customers.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe customer create: %w", err)
	}
	return &Customer{ID: cust.ID, Email: cust.Email, Name: cust.Name}, nil
}

func (p *StripeProvider) RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cust, err := p.api.Customers.Get(customerID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe customer retrieve: %w", err)
	}
	return &Customer{ID: cust.ID, Email: cust.Email, Name: cust.Name}, nil
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(in.Mode),
		SuccessURL:         stripe.String(in.SuccessURL),
		CancelURL:          stripe.String(in.CancelURL),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(in.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	if in.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(in.ClientReferenceID)
		params.AddMetadata("user_id", in.ClientReferenceID)
	}
	if in.ProductType != "" {
		params.AddMetadata("product_type", in.ProductType)
	}
	// Prefer the linked customer so the session is attached to it; fall
	// back to a plain email prefill.
	if in.CustomerID != "" {
		params.Customer = stripe.String(in.CustomerID)
	} else if in.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(in.CustomerEmail)
	}

	sess, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session create: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

func (p *StripeProvider) ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error) {
	params := &stripe.CheckoutSessionListLineItemsParams{
		Session: stripe.String(sessionID),
	}
	params.Context = ctx

	var items []LineItem
	iter := p.api.CheckoutSessions.ListLineItems(params)
	for iter.Next() {
		li := iter.LineItem()
		item := LineItem{Quantity: li.Quantity}
		if li.Price != nil {
			item.PriceID = li.Price.ID
		}
		items = append(items, item)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("stripe line items list: %w", err)
	}
	return items, nil
}

func (p *StripeProvider) VerifyWebhook(payload []byte, signatureHeader string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if event.Data != nil {
		out.Payload = event.Data.Raw
	}
	return out, nil
}
