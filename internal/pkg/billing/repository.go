package billing

import (
	"time"

	"github.com/bonesy512/landhub/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store provides the DB operations used by the reconciliation core.
type Store interface {
	GetUserByID(id string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	LinkCustomer(userID, customerID string) error
	ApplyCreditGrant(userID string, credits int64, customerID string) error
	SetSubscriptionState(userID, status, tier string) error
	UpsertSubscription(sub *models.Subscription) error
	GetSubscriptionByUserID(userID string) (*models.Subscription, error)
	MarkSubscriptionCanceled(providerSubscriptionID string) error
	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a billing store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) GetUserByID(id string) (*models.User, error) {
	var u models.User
	if err := s.db.Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) GetUserByEmail(email string) (*models.User, error) {
	// Exact match, first row. Duplicate emails are a data-quality issue
	// outside this core's remit.
	var u models.User
	if err := s.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *gormStore) LinkCustomer(userID, customerID string) error {
	tx := s.db.Model(&models.User{}).
		Where("id = ?", userID).
		Update("stripe_customer_id", customerID)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		// An orphaned provider customer with no local link is a
		// correctness hazard; surface it.
		return ErrPersistence
	}
	return nil
}

// ApplyCreditGrant adds credits as a single statement so the grant is
// all-or-nothing. last_active and the customer-id backfill ride along.
func (s *gormStore) ApplyCreditGrant(userID string, credits int64, customerID string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"credits":     gorm.Expr("credits + ?", credits),
		"last_active": &now,
	}
	if customerID != "" {
		updates["stripe_customer_id"] = customerID
	}

	tx := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrPersistence
	}
	return nil
}

func (s *gormStore) SetSubscriptionState(userID, status, tier string) error {
	now := time.Now()
	tx := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]interface{}{
		"subscription_status": status,
		"subscription_tier":   tier,
		"last_active":         &now,
	})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrPersistence
	}
	return nil
}

func (s *gormStore) UpsertSubscription(sub *models.Subscription) error {
	if err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider_subscription_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"user_id",
			"price_id",
			"status",
			"current_period_start",
			"current_period_end",
			"cancel_at_period_end",
			"raw_payload_json",
			"updated_at",
		}),
	}).Create(sub).Error; err != nil {
		return err
	}

	// Ensure ID is populated after upsert.
	return s.db.Where("provider_subscription_id = ?", sub.ProviderSubscriptionID).
		First(sub).Error
}

func (s *gormStore) GetSubscriptionByUserID(userID string) (*models.Subscription, error) {
	var sub models.Subscription
	err := s.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *gormStore) MarkSubscriptionCanceled(providerSubscriptionID string) error {
	tx := s.db.Model(&models.Subscription{}).
		Where("provider_subscription_id = ?", providerSubscriptionID).
		Update("status", models.BillingStatusCanceled)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrPersistence
	}
	return nil
}

func (s *gormStore) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.WebhookEvent
	if err := s.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (s *gormStore) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return s.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
