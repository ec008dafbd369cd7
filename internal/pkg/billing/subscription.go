package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/bonesy512/landhub/app/models"
)

// SubscriptionReconciler applies subscription lifecycle events to local
// state: none → active → {active (update) | canceled (terminal)}.
//
// Each missing precondition yields its own soft outcome so misses stay
// independently observable. Only store/provider communication failures
// propagate as errors, which makes the provider redeliver.
type SubscriptionReconciler struct {
	store    Store
	provider Provider
	catalog  *Catalog
	resolver *Resolver
}

func NewSubscriptionReconciler(store Store, provider Provider, catalog *Catalog) *SubscriptionReconciler {
	return &SubscriptionReconciler{
		store:    store,
		provider: provider,
		catalog:  catalog,
		resolver: NewResolver(store, provider),
	}
}

// resolveUser turns the event's customer id into a local user via the
// provider's customer record. The bool reports whether a soft outcome was
// returned instead of a user.
func (r *SubscriptionReconciler) resolveUser(ctx context.Context, customerID string) (*models.User, Outcome, bool, error) {
	if customerID == "" {
		return nil, errorOutcome("no customer id found"), true, nil
	}

	cust, err := r.provider.RetrieveCustomer(ctx, customerID)
	if err != nil {
		return nil, Outcome{}, false, fmt.Errorf("customer retrieve: %w", err)
	}
	if cust.Email == "" {
		return nil, errorOutcome("no customer email found"), true, nil
	}

	user, err := r.resolver.ResolveByEmail(cust.Email, customerID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, errorOutcome("user not found"), true, nil
		}
		return nil, Outcome{}, false, err
	}
	return user, Outcome{}, false, nil
}

// Created upserts the subscription row, grants the plan's credits and
// activates the user's subscription state.
func (r *SubscriptionReconciler) Created(ctx context.Context, ev *SubscriptionEvent, rawPayload []byte) (Outcome, error) {
	user, out, soft, err := r.resolveUser(ctx, ev.CustomerID)
	if err != nil {
		return Outcome{}, err
	}
	if soft {
		return out, nil
	}

	if !ev.HasItems {
		return errorOutcome("no subscription items found"), nil
	}
	if ev.PriceID == "" {
		return errorOutcome("no price id found"), nil
	}
	product, ok := r.catalog.Lookup(ev.PriceID)
	if !ok {
		return errorOutcome("no product config found"), nil
	}

	status := ev.Status
	if status == "" {
		status = models.BillingStatusActive
	}
	sub := &models.Subscription{
		ProviderSubscriptionID: ev.SubscriptionID,
		UserID:                 user.ID,
		PriceID:                ev.PriceID,
		Status:                 status,
		CurrentPeriodStart:     ev.CurrentPeriodStart,
		CurrentPeriodEnd:       ev.CurrentPeriodEnd,
		CancelAtPeriodEnd:      ev.CancelAtPeriodEnd,
		RawPayloadJSON:         string(rawPayload),
	}
	if err := r.store.UpsertSubscription(sub); err != nil {
		return Outcome{}, fmt.Errorf("subscription upsert: %w", err)
	}

	if product.Credits > 0 {
		if err := r.store.ApplyCreditGrant(user.ID, product.Credits, ev.CustomerID); err != nil {
			if errors.Is(err, ErrPersistence) {
				log.Warnf("subscription credit grant not applied for user %s: %v", user.ID, err)
				return errorOutcome("credit grant not applied"), nil
			}
			return Outcome{}, fmt.Errorf("credit grant: %w", err)
		}
	}

	if err := r.store.SetSubscriptionState(user.ID, models.SubscriptionStatusActive, models.SubscriptionTierMonthly); err != nil {
		if errors.Is(err, ErrPersistence) {
			log.Warnf("subscription state not applied for user %s: %v", user.ID, err)
			return errorOutcome("subscription state not applied"), nil
		}
		return Outcome{}, fmt.Errorf("subscription state: %w", err)
	}

	return successOutcome(fmt.Sprintf("created subscription for user %s", user.ID), product.Credits), nil
}

// Updated overwrites status and period fields on the user's existing
// subscription row. No credits are granted on update; grants happen only
// at creation.
func (r *SubscriptionReconciler) Updated(ctx context.Context, ev *SubscriptionEvent, rawPayload []byte) (Outcome, error) {
	user, out, soft, err := r.resolveUser(ctx, ev.CustomerID)
	if err != nil {
		return Outcome{}, err
	}
	if soft {
		return out, nil
	}

	sub, err := r.store.GetSubscriptionByUserID(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorOutcome("no subscription on record"), nil
		}
		return Outcome{}, fmt.Errorf("subscription lookup: %w", err)
	}

	// Last write wins on the fields present in this event.
	if ev.Status != "" {
		sub.Status = ev.Status
	}
	if ev.CurrentPeriodStart != nil {
		sub.CurrentPeriodStart = ev.CurrentPeriodStart
	}
	if ev.CurrentPeriodEnd != nil {
		sub.CurrentPeriodEnd = ev.CurrentPeriodEnd
	}
	if ev.PriceID != "" {
		sub.PriceID = ev.PriceID
	}
	sub.CancelAtPeriodEnd = ev.CancelAtPeriodEnd
	sub.RawPayloadJSON = string(rawPayload)

	if err := r.store.UpsertSubscription(sub); err != nil {
		return Outcome{}, fmt.Errorf("subscription update: %w", err)
	}

	return successOutcome(fmt.Sprintf("updated subscription for user %s", user.ID), 0), nil
}

// Deleted marks the subscription canceled and moves the user's
// subscription state to its terminal value.
func (r *SubscriptionReconciler) Deleted(ctx context.Context, ev *SubscriptionEvent) (Outcome, error) {
	user, out, soft, err := r.resolveUser(ctx, ev.CustomerID)
	if err != nil {
		return Outcome{}, err
	}
	if soft {
		return out, nil
	}

	sub, err := r.store.GetSubscriptionByUserID(user.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorOutcome("no subscription on record"), nil
		}
		return Outcome{}, fmt.Errorf("subscription lookup: %w", err)
	}

	if err := r.store.MarkSubscriptionCanceled(sub.ProviderSubscriptionID); err != nil {
		if errors.Is(err, ErrPersistence) {
			log.Warnf("subscription cancel not applied for %s: %v", sub.ProviderSubscriptionID, err)
			return errorOutcome("subscription cancel not applied"), nil
		}
		return Outcome{}, fmt.Errorf("subscription cancel: %w", err)
	}

	if err := r.store.SetSubscriptionState(user.ID, models.SubscriptionStatusCanceled, ""); err != nil {
		if errors.Is(err, ErrPersistence) {
			log.Warnf("subscription state not applied for user %s: %v", user.ID, err)
			return errorOutcome("subscription state not applied"), nil
		}
		return Outcome{}, fmt.Errorf("subscription state: %w", err)
	}

	return successOutcome(fmt.Sprintf("canceled subscription for user %s", user.ID), 0), nil
}
