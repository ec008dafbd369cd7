package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusNone     = "none"
	SubscriptionStatusActive   = "active"
	SubscriptionStatusCanceled = "canceled"

	SubscriptionTierMonthly = "monthly"
)

// User rows are created by the external signup flow. This service only
// mutates credits, the billing customer link and the subscription fields.
type User struct {
	ID                 string         `gorm:"type:varchar(36);primaryKey" json:"id" validate:"required"`
	Email              string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	DisplayName        string         `gorm:"type:varchar(150);default:''" json:"display_name" validate:"max=150"`
	StripeCustomerID   string         `gorm:"type:varchar(191);default:'';index" json:"stripe_customer_id"`
	Credits            int64          `gorm:"not null;default:0" json:"credits" validate:"gte=0"`
	SubscriptionStatus string         `gorm:"type:varchar(32);not null;default:'none'" json:"subscription_status" validate:"oneof=none active canceled"`
	SubscriptionTier   string         `gorm:"type:varchar(32);default:''" json:"subscription_tier"`
	LastActive         *time.Time     `gorm:"type:timestamp;default:null" json:"last_active,omitempty"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

// HasBillingCustomer reports whether the user is already linked to a
// billing-provider customer.
func (u *User) HasBillingCustomer() bool {
	return u.StripeCustomerID != ""
}

// IsSubscribed reports whether the user currently has an active subscription.
func (u *User) IsSubscribed() bool {
	return u.SubscriptionStatus == SubscriptionStatusActive
}
