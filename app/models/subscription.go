package models

import "time"

const (
	BillingProviderStripe = "stripe"
)

const (
	BillingStatusActive     = "active"
	BillingStatusTrialing   = "trialing"
	BillingStatusPastDue    = "past_due"
	BillingStatusCanceled   = "canceled"
	BillingStatusIncomplete = "incomplete"
)

// Subscription mirrors a billing-provider subscription. Rows are fully owned
// by the webhook reconciler: created on the first lifecycle event, replaced
// on updates, marked canceled on deletion. Never hard-deleted.
type Subscription struct {
	ID                     uint       `gorm:"primaryKey" json:"id"`
	ProviderSubscriptionID string     `gorm:"type:varchar(191);not null;uniqueIndex" json:"provider_subscription_id"`
	UserID                 string     `gorm:"type:varchar(36);not null;index" json:"user_id"`
	PriceID                string     `gorm:"type:varchar(191);default:''" json:"price_id"`
	Status                 string     `gorm:"type:varchar(32);not null;default:'active'" json:"status"`
	CurrentPeriodStart     *time.Time `gorm:"type:timestamp;default:null" json:"current_period_start,omitempty"`
	CurrentPeriodEnd       *time.Time `gorm:"type:timestamp;default:null" json:"current_period_end,omitempty"`
	CancelAtPeriodEnd      bool       `gorm:"default:false" json:"cancel_at_period_end"`
	RawPayloadJSON         string     `gorm:"type:longtext" json:"raw_payload_json"`
	CreatedAt              time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
