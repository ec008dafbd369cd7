package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bonesy512/landhub/app/models"
)

// callLog records cross-collaborator call ordering for assertions.
type callLog struct {
	entries []string
}

func (l *callLog) add(entry string) {
	l.entries = append(l.entries, entry)
}

type grant struct {
	userID     string
	credits    int64
	customerID string
}

type fakeStore struct {
	log *callLog

	users        map[string]*models.User
	usersByEmail map[string]*models.User
	subs         map[string]*models.Subscription
	events       map[string]*models.WebhookEvent
	nextEventID  uint

	grants    []grant
	userState map[string][2]string

	linkErr  error
	grantErr error
}

func newFakeStore(log *callLog) *fakeStore {
	return &fakeStore{
		log:          log,
		users:        map[string]*models.User{},
		usersByEmail: map[string]*models.User{},
		subs:         map[string]*models.Subscription{},
		events:       map[string]*models.WebhookEvent{},
		userState:    map[string][2]string{},
	}
}

func (s *fakeStore) addUser(u *models.User) {
	s.users[u.ID] = u
	s.usersByEmail[u.Email] = u
}

func (s *fakeStore) GetUserByID(id string) (*models.User, error) {
	s.log.add("store.GetUserByID")
	u, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeStore) GetUserByEmail(email string) (*models.User, error) {
	s.log.add("store.GetUserByEmail")
	u, ok := s.usersByEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *u
	return &copied, nil
}

func (s *fakeStore) LinkCustomer(userID, customerID string) error {
	s.log.add("store.LinkCustomer")
	if s.linkErr != nil {
		return s.linkErr
	}
	u, ok := s.users[userID]
	if !ok {
		return ErrPersistence
	}
	u.StripeCustomerID = customerID
	return nil
}

func (s *fakeStore) ApplyCreditGrant(userID string, credits int64, customerID string) error {
	s.log.add("store.ApplyCreditGrant")
	if s.grantErr != nil {
		return s.grantErr
	}
	u, ok := s.users[userID]
	if !ok {
		return ErrPersistence
	}
	u.Credits += credits
	if customerID != "" {
		u.StripeCustomerID = customerID
	}
	s.grants = append(s.grants, grant{userID: userID, credits: credits, customerID: customerID})
	return nil
}

func (s *fakeStore) SetSubscriptionState(userID, status, tier string) error {
	s.log.add("store.SetSubscriptionState")
	if _, ok := s.users[userID]; !ok {
		return ErrPersistence
	}
	s.userState[userID] = [2]string{status, tier}
	return nil
}

func (s *fakeStore) UpsertSubscription(sub *models.Subscription) error {
	s.log.add("store.UpsertSubscription")
	copied := *sub
	s.subs[sub.ProviderSubscriptionID] = &copied
	return nil
}

func (s *fakeStore) GetSubscriptionByUserID(userID string) (*models.Subscription, error) {
	s.log.add("store.GetSubscriptionByUserID")
	for _, sub := range s.subs {
		if sub.UserID == userID {
			copied := *sub
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeStore) MarkSubscriptionCanceled(providerSubscriptionID string) error {
	s.log.add("store.MarkSubscriptionCanceled")
	sub, ok := s.subs[providerSubscriptionID]
	if !ok {
		return ErrPersistence
	}
	sub.Status = models.BillingStatusCanceled
	return nil
}

func (s *fakeStore) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	s.log.add("store.CreateWebhookEventIfNotExists")
	key := event.Provider + ":" + event.ProviderEventID
	if stored, ok := s.events[key]; ok {
		return false, stored, nil
	}
	s.nextEventID++
	copied := *event
	copied.ID = s.nextEventID
	s.events[key] = &copied
	return true, &copied, nil
}

func (s *fakeStore) MarkWebhookProcessed(id uint, processingError string) error {
	s.log.add("store.MarkWebhookProcessed")
	for _, ev := range s.events {
		if ev.ID == id {
			now := time.Now()
			ev.ProcessedAt = &now
			ev.ProcessingError = processingError
			return nil
		}
	}
	return fmt.Errorf("webhook event %d not found", id)
}

type fakeProvider struct {
	log *callLog

	customers map[string]*Customer

	createdCustomer   *Customer
	createCustomerErr error

	session     *CheckoutSession
	sessionErr  error
	sessionHook func(CheckoutSessionInput)

	lineItems    []LineItem
	lineItemsErr error

	event     *Event
	verifyErr error
}

func newFakeProvider(log *callLog) *fakeProvider {
	return &fakeProvider{
		log:       log,
		customers: map[string]*Customer{},
	}
}

func (p *fakeProvider) CreateCustomer(ctx context.Context, in CustomerInput) (*Customer, error) {
	p.log.add("provider.CreateCustomer")
	if p.createCustomerErr != nil {
		return nil, p.createCustomerErr
	}
	if p.createdCustomer != nil {
		return p.createdCustomer, nil
	}
	return &Customer{ID: "cus_fake", Email: in.Email, Name: in.Name}, nil
}

func (p *fakeProvider) RetrieveCustomer(ctx context.Context, customerID string) (*Customer, error) {
	p.log.add("provider.RetrieveCustomer")
	cust, ok := p.customers[customerID]
	if !ok {
		return &Customer{ID: customerID}, nil
	}
	return cust, nil
}

func (p *fakeProvider) CreateCheckoutSession(ctx context.Context, in CheckoutSessionInput) (*CheckoutSession, error) {
	p.log.add("provider.CreateCheckoutSession")
	if p.sessionHook != nil {
		p.sessionHook(in)
	}
	if p.sessionErr != nil {
		return nil, p.sessionErr
	}
	if p.session != nil {
		return p.session, nil
	}
	return &CheckoutSession{ID: "cs_fake"}, nil
}

func (p *fakeProvider) ListLineItems(ctx context.Context, sessionID string) ([]LineItem, error) {
	p.log.add("provider.ListLineItems")
	if p.lineItemsErr != nil {
		return nil, p.lineItemsErr
	}
	return p.lineItems, nil
}

func (p *fakeProvider) VerifyWebhook(payload []byte, signatureHeader string) (*Event, error) {
	p.log.add("provider.VerifyWebhook")
	if p.verifyErr != nil {
		return nil, p.verifyErr
	}
	if p.event != nil {
		return p.event, nil
	}
	return &Event{ID: "evt_fake", Type: "unknown.event", Payload: json.RawMessage(`{}`)}, nil
}
