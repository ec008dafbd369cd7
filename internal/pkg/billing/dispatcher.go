package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/bonesy512/landhub/app/models"
)

// Dispatcher verifies inbound webhook deliveries, gates them through the
// dedup table and routes them to the matching reconciler.
type Dispatcher struct {
	store    Store
	provider Provider
	catalog  *Catalog
	resolver *Resolver
	subs     *SubscriptionReconciler
}

func NewDispatcher(store Store, provider Provider, catalog *Catalog) *Dispatcher {
	return &Dispatcher{
		store:    store,
		provider: provider,
		catalog:  catalog,
		resolver: NewResolver(store, provider),
		subs:     NewSubscriptionReconciler(store, provider, catalog),
	}
}

// Handle processes one raw webhook delivery. The returned error is non-nil
// only for signature/payload validation failures and infrastructure
// failures; every business miss comes back as a soft Outcome that the HTTP
// layer acknowledges with a 2xx.
func (d *Dispatcher) Handle(ctx context.Context, payload []byte, signatureHeader string) (Outcome, error) {
	event, err := d.provider.VerifyWebhook(payload, signatureHeader)
	if err != nil {
		return Outcome{}, err
	}

	created, stored, err := d.store.CreateWebhookEventIfNotExists(&models.WebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       event.Type,
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		return Outcome{}, fmt.Errorf("webhook event record: %w", err)
	}
	if !created {
		// A prior attempt that finished with a recorded failure gets a
		// fresh try on redelivery; anything else (processed cleanly, or
		// still in flight) is a true duplicate.
		if stored.ProcessedAt == nil || stored.ProcessingError == "" {
			out := successOutcome("duplicate delivery", 0)
			out.Duplicate = true
			return out, nil
		}
	}

	out, procErr := d.dispatch(ctx, event)

	note := ""
	if procErr != nil {
		note = procErr.Error()
	} else if out.Status == OutcomeError {
		note = out.Message
	}
	if err := d.store.MarkWebhookProcessed(stored.ID, note); err != nil {
		log.Warnf("failed to mark webhook event %d processed: %v", stored.ID, err)
	}

	if procErr != nil {
		return Outcome{}, procErr
	}
	return out, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, event *Event) (Outcome, error) {
	switch ClassifyEventType(event.Type) {
	case EventSubscriptionCreated:
		ev, err := ParseSubscriptionEvent(event.Payload)
		if err != nil {
			return Outcome{}, err
		}
		return d.subs.Created(ctx, ev, event.Payload)

	case EventSubscriptionUpdated:
		ev, err := ParseSubscriptionEvent(event.Payload)
		if err != nil {
			return Outcome{}, err
		}
		return d.subs.Updated(ctx, ev, event.Payload)

	case EventSubscriptionDeleted:
		ev, err := ParseSubscriptionEvent(event.Payload)
		if err != nil {
			return Outcome{}, err
		}
		return d.subs.Deleted(ctx, ev)

	case EventCheckoutCompleted:
		sess, err := ParseCheckoutSessionEvent(event.Payload)
		if err != nil {
			return Outcome{}, err
		}
		return d.handleCheckoutCompleted(ctx, sess)

	case EventUnhandled:
		// Unrecognized-but-harmless event types are acknowledged so the
		// provider never retries them.
		return successOutcome("ignored event type", 0), nil
	}

	return successOutcome("ignored event type", 0), nil
}

// handleCheckoutCompleted grants one-time purchase credits. Subscription
// purchases are deliberately skipped here: their credits flow exclusively
// through the subscription lifecycle events, so the same purchase can
// never be credited twice through two event types.
func (d *Dispatcher) handleCheckoutCompleted(ctx context.Context, sess *CheckoutSessionEvent) (Outcome, error) {
	if sess.Mode == SessionModeSubscription {
		return successOutcome("skipping subscription purchase", 0), nil
	}

	if sess.CustomerEmail == "" {
		return errorOutcome("no customer email found"), nil
	}

	user, err := d.resolver.ResolveByEmail(sess.CustomerEmail, sess.CustomerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return errorOutcome("user not found"), nil
		}
		return Outcome{}, err
	}

	items, err := d.provider.ListLineItems(ctx, sess.SessionID)
	if err != nil {
		return Outcome{}, fmt.Errorf("line items for session %s: %w", sess.SessionID, err)
	}

	total := SumOneTimeCredits(d.catalog, items)
	if total > 0 {
		if err := d.store.ApplyCreditGrant(user.ID, total, sess.CustomerID); err != nil {
			if errors.Is(err, ErrPersistence) {
				log.Warnf("credit grant not applied for user %s: %v", user.ID, err)
				return errorOutcome("credit grant not applied"), nil
			}
			return Outcome{}, fmt.Errorf("credit grant: %w", err)
		}
		log.Infof("granted %d credits to user %s from session %s", total, user.ID, sess.SessionID)
	}

	return successOutcome(fmt.Sprintf("updated credits for user %s", user.ID), total), nil
}
