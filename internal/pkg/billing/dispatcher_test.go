package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bonesy512/landhub/app/models"
	"github.com/bonesy512/landhub/internal/pkg/config"
)

func newDispatcherFixture() (*Dispatcher, *fakeStore, *fakeProvider) {
	log := &callLog{}
	store := newFakeStore(log)
	provider := newFakeProvider(log)
	catalog := NewCatalog(config.ModeTest)
	return NewDispatcher(store, provider, catalog), store, provider
}

func checkoutEvent(id, payload string) *Event {
	return &Event{ID: id, Type: "checkout.session.completed", Payload: json.RawMessage(payload)}
}

func TestHandle_InvalidSignature(t *testing.T) {
	d, store, provider := newDispatcherFixture()
	provider.verifyErr = ErrInvalidSignature

	_, err := d.Handle(context.Background(), []byte(`{}`), "bogus")
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
	if len(store.events) != 0 {
		t.Fatalf("no event may be recorded on signature failure")
	}
}

func TestHandle_UnknownEventTypeAcknowledged(t *testing.T) {
	d, store, provider := newDispatcherFixture()
	provider.event = &Event{ID: "evt_1", Type: "invoice.paid", Payload: json.RawMessage(`{}`)}

	out, err := d.Handle(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != OutcomeSuccess || out.CreditsAdded != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(store.grants) != 0 {
		t.Fatalf("unhandled events must not grant credits")
	}
}

func TestHandle_DuplicateDeliveryIsNoOp(t *testing.T) {
	d, store, provider := newDispatcherFixture()
	store.addUser(&models.User{ID: "u1", Email: "buyer@example.com"})
	provider.event = checkoutEvent("evt_1", `{
		"id": "cs_1",
		"mode": "payment",
		"customer": "cus_1",
		"customer_details": { "email": "buyer@example.com" }
	}`)
	provider.lineItems = []LineItem{{PriceID: "price_credits5_test", Quantity: 1}}

	first, err := d.Handle(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.CreditsAdded != 5 {
		t.Fatalf("first delivery should grant 5 credits, got %d", first.CreditsAdded)
	}

	second, err := d.Handle(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !second.Duplicate || second.CreditsAdded != 0 {
		t.Fatalf("redelivery must be a no-op, got %+v", second)
	}
	if len(store.grants) != 1 {
		t.Fatalf("redelivery must not double-grant, got %d grants", len(store.grants))
	}
	if store.users["u1"].Credits != 5 {
		t.Fatalf("user credits = %d, want 5", store.users["u1"].Credits)
	}
}

func TestHandle_RedeliveryAfterInfrastructureFailureRetries(t *testing.T) {
	d, store, provider := newDispatcherFixture()
	store.addUser(&models.User{ID: "u1", Email: "buyer@example.com"})
	provider.event = checkoutEvent("evt_1", `{
		"id": "cs_1",
		"mode": "payment",
		"customer": "cus_1",
		"customer_details": { "email": "buyer@example.com" }
	}`)
	provider.lineItemsErr = errors.New("upstream unreachable")

	if _, err := d.Handle(context.Background(), []byte(`{}`), "sig"); err == nil {
		t.Fatalf("infrastructure failure must propagate so the provider redelivers")
	}
	if len(store.grants) != 0 {
		t.Fatalf("failed attempt must not grant credits")
	}

	provider.lineItemsErr = nil
	provider.lineItems = []LineItem{{PriceID: "price_credits5_test", Quantity: 1}}

	out, err := d.Handle(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("unexpected error on redelivery: %v", err)
	}
	if out.Duplicate || out.CreditsAdded != 5 {
		t.Fatalf("redelivery after a failed attempt must retry, got %+v", out)
	}
	if store.users["u1"].Credits != 5 {
		t.Fatalf("user credits = %d, want 5", store.users["u1"].Credits)
	}
	if stored := store.events["stripe:evt_1"]; stored.ProcessingError != "" {
		t.Fatalf("expected the failure note cleared after retry, got %q", stored.ProcessingError)
	}
}

func TestHandle_PaymentModeSumsOneTimeCredits(t *testing.T) {
	d, store, provider := newDispatcherFixture()
	store.addUser(&models.User{ID: "u1", Email: "buyer@example.com"})
	provider.event = checkoutEvent("evt_1", `{
		"id": "cs_1",
		"mode": "payment",
		"customer": "cus_1",
		"customer_details": { "email": "buyer@example.com" }
	}`)
	provider.lineItems = []LineItem{
		{PriceID: "price_credits5_test", Quantity: 1},
		{PriceID: "price_credits5_test", Quantity: 1},
		{PriceID: "price_unmapped", Quantity: 4},
	}

	out, err := d.Handle(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != OutcomeSuccess || out.CreditsAdded != 10 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if store.users["u1"].Credits != 10 {
		t.Fatalf("user credits = %d, want 10", store.users["u1"].Credits)
	}
	if store.users["u1"].StripeCustomerID != "cus_1" {
		t.Fatalf("expected customer id backfill, got %q", store.users["u1"].StripeCustomerID)
	}
}

func TestHandle_SubscriptionModeSessionNeverGrants(t *testing.T) {
	d, store, provider := newDispatcherFixture()
	store.addUser(&models.User{ID: "u1", Email: "buyer@example.com"})
	provider.event = checkoutEvent("evt_1", `{
		"id": "cs_1",
		"mode": "subscription",
		"customer": "cus_1",
		"customer_details": { "email": "buyer@example.com" }
	}`)
	provider.lineItems = []LineItem{{PriceID: "price_credits5_test", Quantity: 1}}

	out, err := d.Handle(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != OutcomeSuccess || out.CreditsAdded != 0 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(store.grants) != 0 {
		t.Fatalf("subscription-mode sessions must never mutate credits")
	}
	for _, entry := range provider.log.entries {
		if entry == "provider.ListLineItems" {
			t.Fatalf("subscription-mode sessions must not be enumerated")
		}
	}
}

func TestHandle_PaymentModeUnknownUserIsSoft(t *testing.T) {
	d, store, provider := newDispatcherFixture()
	provider.event = checkoutEvent("evt_1", `{
		"id": "cs_1",
		"mode": "payment",
		"customer": "cus_1",
		"customer_details": { "email": "stranger@example.com" }
	}`)

	out, err := d.Handle(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("soft miss must not surface an error, got %v", err)
	}
	if out.Status != OutcomeError || out.Message != "user not found" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
	if len(store.grants) != 0 {
		t.Fatalf("unknown user must not be granted credits")
	}
}

func TestHandle_PaymentModeMissingEmailIsSoft(t *testing.T) {
	d, _, provider := newDispatcherFixture()
	provider.event = checkoutEvent("evt_1", `{"id":"cs_1","mode":"payment","customer":"cus_1"}`)

	out, err := d.Handle(context.Background(), []byte(`{}`), "sig")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Status != OutcomeError || out.Message != "no customer email found" {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestHandle_LineItemListFailurePropagates(t *testing.T) {
	d, store, provider := newDispatcherFixture()
	store.addUser(&models.User{ID: "u1", Email: "buyer@example.com"})
	provider.event = checkoutEvent("evt_1", `{
		"id": "cs_1",
		"mode": "payment",
		"customer": "cus_1",
		"customer_details": { "email": "buyer@example.com" }
	}`)
	provider.lineItemsErr = errors.New("upstream unreachable")

	_, err := d.Handle(context.Background(), []byte(`{}`), "sig")
	if err == nil {
		t.Fatalf("infrastructure failure must propagate so the provider redelivers")
	}
}

func TestHandle_MalformedPayloadIsClientError(t *testing.T) {
	d, _, provider := newDispatcherFixture()
	provider.event = checkoutEvent("evt_1", `{"mode":"payment"}`)

	_, err := d.Handle(context.Background(), []byte(`{}`), "sig")
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
}

func TestHandle_RecordsProcessingNote(t *testing.T) {
	d, store, provider := newDispatcherFixture()
	provider.event = checkoutEvent("evt_1", `{
		"id": "cs_1",
		"mode": "payment",
		"customer": "cus_1",
		"customer_details": { "email": "stranger@example.com" }
	}`)

	if _, err := d.Handle(context.Background(), []byte(`{}`), "sig"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, ok := store.events["stripe:evt_1"]
	if !ok {
		t.Fatalf("expected webhook event row to exist")
	}
	if stored.ProcessingError != "user not found" {
		t.Fatalf("expected soft-miss note on event row, got %q", stored.ProcessingError)
	}
}
