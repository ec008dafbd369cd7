package billing

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/bonesy512/landhub/app/models"
)

// Resolver maps billing-provider customer identities onto local users,
// creating the customer link lazily on first sight.
type Resolver struct {
	store    Store
	provider Provider
}

func NewResolver(store Store, provider Provider) *Resolver {
	return &Resolver{store: store, provider: provider}
}

// EnsureCustomer fetches the caller's user row and guarantees it is linked
// to a provider customer, creating one if needed. A link update that
// affects zero rows is a hard failure: retrying the create would mint a
// duplicate provider customer.
func (r *Resolver) EnsureCustomer(ctx context.Context, userID string) (*models.User, error) {
	user, err := r.store.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, fmt.Errorf("user lookup: %w", err)
	}

	if user.HasBillingCustomer() {
		return user, nil
	}

	cust, err := r.provider.CreateCustomer(ctx, CustomerInput{
		Email:  user.Email,
		Name:   user.DisplayName,
		UserID: user.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("customer create: %w", err)
	}

	if err := r.store.LinkCustomer(user.ID, cust.ID); err != nil {
		return nil, fmt.Errorf("customer link for user %s: %w", user.ID, err)
	}

	user.StripeCustomerID = cust.ID
	return user, nil
}

// ResolveByEmail looks a user up by the event's customer email (exact
// match, first row) and opportunistically backfills a missing provider
// customer id. ErrUserNotFound is an expected, recoverable miss.
func (r *Resolver) ResolveByEmail(email, customerID string) (*models.User, error) {
	user, err := r.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no user for email", ErrUserNotFound)
		}
		return nil, fmt.Errorf("user lookup by email: %w", err)
	}

	if !user.HasBillingCustomer() && customerID != "" {
		if err := r.store.LinkCustomer(user.ID, customerID); err != nil {
			log.Warnf("customer id backfill failed for user %s: %v", user.ID, err)
		} else {
			user.StripeCustomerID = customerID
		}
	}

	return user, nil
}
