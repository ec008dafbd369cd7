package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bonesy512/landhub/internal/pkg/config"
)

const testWebhookSecret = "whsec_test_secret"

func newTestStripeProvider(t *testing.T) *StripeProvider {
	t.Helper()
	p, err := NewStripeProvider(&config.Config{
		Mode:                config.ModeTest,
		StripeSecretKey:     "sk_test_123",
		StripeWebhookSecret: testWebhookSecret,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return p
}

// signPayload builds a Stripe-Signature header the way the provider does:
// an HMAC-SHA256 of "<timestamp>.<payload>" keyed with the endpoint secret.
func signPayload(secret string, payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestVerifyWebhook(t *testing.T) {
	p := newTestStripeProvider(t)
	payload := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"api_version": "2025-03-31.basil",
		"data": { "object": { "id": "cs_1", "mode": "payment" } }
	}`)

	event, err := p.VerifyWebhook(payload, signPayload(testWebhookSecret, payload, time.Now()))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ID != "evt_1" || event.Type != "checkout.session.completed" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if len(event.Payload) == 0 {
		t.Fatalf("expected the raw object payload to be carried")
	}
}

func TestVerifyWebhook_WrongSecret(t *testing.T) {
	p := newTestStripeProvider(t)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)

	_, err := p.VerifyWebhook(payload, signPayload("whsec_other", payload, time.Now()))
	if !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyWebhook_TamperedPayload(t *testing.T) {
	p := newTestStripeProvider(t)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)
	header := signPayload(testWebhookSecret, payload, time.Now())

	tampered := []byte(`{"id":"evt_2","type":"checkout.session.completed","data":{"object":{}}}`)
	if _, err := p.VerifyWebhook(tampered, header); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestVerifyWebhook_StaleTimestamp(t *testing.T) {
	p := newTestStripeProvider(t)
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`)

	stale := time.Now().Add(-time.Hour)
	if _, err := p.VerifyWebhook(payload, signPayload(testWebhookSecret, payload, stale)); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature for a stale timestamp, got %v", err)
	}
}

func TestVerifyWebhook_GarbageHeader(t *testing.T) {
	p := newTestStripeProvider(t)

	if _, err := p.VerifyWebhook([]byte(`{}`), "not a signature header"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("expected ErrInvalidSignature, got %v", err)
	}
}

func TestNewStripeProvider_RejectsMissingConfig(t *testing.T) {
	if _, err := NewStripeProvider(&config.Config{Mode: config.ModeTest}); err == nil {
		t.Fatalf("expected error for missing billing keys")
	}
	if _, err := NewStripeProvider(&config.Config{Mode: config.ModeTest, StripeSecretKey: "sk_test_123"}); err == nil {
		t.Fatalf("expected error for missing webhook secret")
	}
}
