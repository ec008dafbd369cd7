package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SubscriptionEvent is the normalized shape of a subscription lifecycle
// payload. Period fields have moved between the subscription and its items
// across provider API versions, so both locations are read.
type SubscriptionEvent struct {
	SubscriptionID     string
	CustomerID         string
	Status             string
	PriceID            string
	HasItems           bool
	CurrentPeriodStart *time.Time
	CurrentPeriodEnd   *time.Time
	CancelAtPeriodEnd  bool
}

// CheckoutSessionEvent is the normalized shape of a completed checkout
// session payload.
type CheckoutSessionEvent struct {
	SessionID         string
	Mode              string
	CustomerID        string
	CustomerEmail     string
	ClientReferenceID string
	ProductType       string
}

func unixToTime(ts int64) *time.Time {
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

// ParseSubscriptionEvent decodes a raw subscription object.
func ParseSubscriptionEvent(payload []byte) (*SubscriptionEvent, error) {
	type rawItem struct {
		Price struct {
			ID string `json:"id"`
		} `json:"price"`
		CurrentPeriodStart int64 `json:"current_period_start"`
		CurrentPeriodEnd   int64 `json:"current_period_end"`
	}
	type rawSubscription struct {
		ID                 string `json:"id"`
		Customer           string `json:"customer"`
		Status             string `json:"status"`
		CancelAtPeriodEnd  bool   `json:"cancel_at_period_end"`
		CurrentPeriodStart int64  `json:"current_period_start"`
		CurrentPeriodEnd   int64  `json:"current_period_end"`
		Items              struct {
			Data []rawItem `json:"data"`
		} `json:"items"`
	}

	var raw rawSubscription
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("%w: missing subscription id", ErrInvalidPayload)
	}

	out := &SubscriptionEvent{
		SubscriptionID:     strings.TrimSpace(raw.ID),
		CustomerID:         strings.TrimSpace(raw.Customer),
		Status:             strings.ToLower(strings.TrimSpace(raw.Status)),
		HasItems:           len(raw.Items.Data) > 0,
		CurrentPeriodStart: unixToTime(raw.CurrentPeriodStart),
		CurrentPeriodEnd:   unixToTime(raw.CurrentPeriodEnd),
		CancelAtPeriodEnd:  raw.CancelAtPeriodEnd,
	}
	if out.HasItems {
		first := raw.Items.Data[0]
		out.PriceID = strings.TrimSpace(first.Price.ID)
		if out.CurrentPeriodStart == nil {
			out.CurrentPeriodStart = unixToTime(first.CurrentPeriodStart)
		}
		if out.CurrentPeriodEnd == nil {
			out.CurrentPeriodEnd = unixToTime(first.CurrentPeriodEnd)
		}
	}
	return out, nil
}

// ParseCheckoutSessionEvent decodes a raw checkout session object.
func ParseCheckoutSessionEvent(payload []byte) (*CheckoutSessionEvent, error) {
	type rawSession struct {
		ID                string `json:"id"`
		Mode              string `json:"mode"`
		Customer          string `json:"customer"`
		ClientReferenceID string `json:"client_reference_id"`
		CustomerDetails   struct {
			Email string `json:"email"`
		} `json:"customer_details"`
		Metadata map[string]string `json:"metadata"`
	}

	var raw rawSession
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, fmt.Errorf("%w: missing session id", ErrInvalidPayload)
	}

	return &CheckoutSessionEvent{
		SessionID:         strings.TrimSpace(raw.ID),
		Mode:              strings.ToLower(strings.TrimSpace(raw.Mode)),
		CustomerID:        strings.TrimSpace(raw.Customer),
		CustomerEmail:     strings.TrimSpace(raw.CustomerDetails.Email),
		ClientReferenceID: strings.TrimSpace(raw.ClientReferenceID),
		ProductType:       strings.TrimSpace(raw.Metadata["product_type"]),
	}, nil
}

// IsInvalidPayload reports whether err stems from a malformed event body.
func IsInvalidPayload(err error) bool {
	return errors.Is(err, ErrInvalidPayload)
}
