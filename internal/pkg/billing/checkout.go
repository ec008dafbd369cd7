package billing

import (
	"context"
	"errors"
	"fmt"
)

// CheckoutService opens billing-provider checkout sessions for callers.
type CheckoutService struct {
	provider Provider
	catalog  *Catalog
	resolver *Resolver
}

func NewCheckoutService(store Store, provider Provider, catalog *Catalog) *CheckoutService {
	return &CheckoutService{
		provider: provider,
		catalog:  catalog,
		resolver: NewResolver(store, provider),
	}
}

// CreateCheckout ensures the caller has a provider customer, derives the
// session mode from the product kind and opens the session. Every
// downstream failure surfaces as a single CheckoutError; provider
// internals never leak to the caller.
func (s *CheckoutService) CreateCheckout(ctx context.Context, userID, priceID, successURL, cancelURL string) (string, error) {
	user, err := s.resolver.EnsureCustomer(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", &CheckoutError{Message: "unknown caller", Err: err}
		}
		if errors.Is(err, ErrPersistence) {
			return "", &CheckoutError{Message: "failed to update user data", Err: err}
		}
		return "", &CheckoutError{Message: "customer setup failed", Err: err}
	}

	product, ok := s.catalog.Lookup(priceID)
	if !ok {
		return "", &CheckoutError{Message: "invalid product", Err: fmt.Errorf("%w: %s", ErrInvalidProduct, priceID)}
	}

	mode := SessionModePayment
	if product.Kind == ProductMonthly {
		mode = SessionModeSubscription
	}

	sess, err := s.provider.CreateCheckoutSession(ctx, CheckoutSessionInput{
		CustomerID:        user.StripeCustomerID,
		CustomerEmail:     user.Email,
		PriceID:           priceID,
		Mode:              mode,
		SuccessURL:        successURL,
		CancelURL:         cancelURL,
		ClientReferenceID: user.ID,
		ProductType:       string(product.Kind),
	})
	if err != nil {
		return "", &CheckoutError{Message: "session creation failed", Err: err}
	}

	return sess.ID, nil
}
