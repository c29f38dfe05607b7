package billing

import (
	"strings"
	"sync"
	"time"

	"github.com/andresvl/aulaviva/app/models"
	"gorm.io/gorm"
)

// fakeRepo is an in-memory Repository used by the service tests.
type fakeRepo struct {
	mu sync.Mutex

	plans         map[string]*models.Plan
	users         map[uint]*models.User
	subscriptions map[uint]*models.Subscription
	transactions  map[uint]*models.PaymentTransaction
	promoCodes    map[string]*models.PromoCode
	webhookEvents map[string]*models.WebhookEvent

	nextUserID  uint
	nextSubID   uint
	nextTxID    uint
	nextEventID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		plans:         map[string]*models.Plan{},
		users:         map[uint]*models.User{},
		subscriptions: map[uint]*models.Subscription{},
		transactions:  map[uint]*models.PaymentTransaction{},
		promoCodes:    map[string]*models.PromoCode{},
		webhookEvents: map[string]*models.WebhookEvent{},
	}
}

func (f *fakeRepo) seedPlan(p models.Plan) *models.Plan {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = uint(len(f.plans) + 1)
	f.plans[p.Name] = &p
	return &p
}

func (f *fakeRepo) seedUser(u models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUserID++
	u.ID = f.nextUserID
	f.users[u.ID] = &u
	return &u
}

func (f *fakeRepo) seedPromo(pc models.PromoCode) *models.PromoCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	pc.ID = uint(len(f.promoCodes) + 1)
	f.promoCodes[pc.Code] = &pc
	return &pc
}

func (f *fakeRepo) subscriptionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscriptions)
}

func (f *fakeRepo) transactionCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.transactions)
}

func (f *fakeRepo) GetPlanByName(name string) (*models.Plan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.plans[name]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetUserByID(id uint) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetUserByExternalID(provider, externalID string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Provider == provider && u.ExternalID == externalID && externalID != "" {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetUserByEmail(email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) CreateUser(u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextUserID++
	u.ID = f.nextUserID
	f.users[u.ID] = u
	return nil
}

func (f *fakeRepo) SetUserPlan(userID uint, planName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		u.PlanName = planName
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) CreateSubscription(sub *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextSubID++
	sub.ID = f.nextSubID
	f.subscriptions[sub.ID] = sub
	return nil
}

func (f *fakeRepo) SaveSubscription(sub *models.Subscription) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscriptions[sub.ID] = sub
	return nil
}

func (f *fakeRepo) DeleteSubscription(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subscriptions, id)
	return nil
}

func (f *fakeRepo) FindActiveSubscription(userID, planID uint) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, sub := range f.subscriptions {
		if sub.UserID == userID && sub.PlanID == planID && sub.Status == models.SubscriptionStatusActive {
			return sub, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListActiveSubscriptionsByUser(userID uint) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Subscription
	for _, sub := range f.subscriptions {
		if sub.UserID == userID && sub.Status == models.SubscriptionStatusActive {
			copied := *sub
			if plan := f.planByID(sub.PlanID); plan != nil {
				copied.Plan = plan
			}
			out = append(out, copied)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateTransaction(tx *models.PaymentTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.transactions {
		if existing.ReferenceCode == tx.ReferenceCode ||
			(tx.IdempotencyKey != "" && existing.IdempotencyKey == tx.IdempotencyKey) {
			return gorm.ErrDuplicatedKey
		}
	}
	f.nextTxID++
	tx.ID = f.nextTxID
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	f.transactions[tx.ID] = tx
	return nil
}

func (f *fakeRepo) SaveTransaction(tx *models.PaymentTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transactions[tx.ID] = tx
	return nil
}

func (f *fakeRepo) DeleteTransaction(id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.transactions, id)
	return nil
}

func (f *fakeRepo) withRelations(tx *models.PaymentTransaction) *models.PaymentTransaction {
	if sub, ok := f.subscriptions[tx.SubscriptionID]; ok {
		tx.Subscription = sub
		for _, p := range f.plans {
			if p.ID == sub.PlanID {
				sub.Plan = p
			}
		}
	}
	return tx
}

func (f *fakeRepo) GetTransactionByReference(ref string) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.transactions {
		if tx.ReferenceCode == ref {
			return f.withRelations(tx), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetTransactionByProcessorID(id string) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.transactions {
		if tx.ProcessorTransactionID == id && id != "" {
			return f.withRelations(tx), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) GetTransactionByIdempotencyKey(key string) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.transactions {
		if tx.IdempotencyKey == key && key != "" {
			return f.withRelations(tx), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) FindApprovedTransaction(subscriptionID uint) (*models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tx := range f.transactions {
		if tx.SubscriptionID == subscriptionID && tx.Status == models.PaymentStatusApproved {
			return tx, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListStalePendingTransactions(before time.Time, limit int) ([]models.PaymentTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.PaymentTransaction
	for _, tx := range f.transactions {
		if tx.Status == models.PaymentStatusPending &&
			tx.Method != models.PaymentMethodTransfer && tx.CreatedAt.Before(before) {
			out = append(out, *f.withRelations(tx))
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) ListLapsedActiveSubscriptions(now time.Time, limit int) ([]models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Subscription
	for _, sub := range f.subscriptions {
		if sub.Status == models.SubscriptionStatusActive &&
			sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.Before(now) {
			copied := *sub
			if plan := f.planByID(sub.PlanID); plan != nil {
				copied.Plan = plan
			}
			out = append(out, copied)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (f *fakeRepo) planByID(id uint) *models.Plan {
	for _, p := range f.plans {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (f *fakeRepo) GetPromoCode(code string) (*models.PromoCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pc, ok := f.promoCodes[code]; ok {
		return pc, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) IncrementPromoUse(code string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if pc, ok := f.promoCodes[code]; ok {
		pc.UsedCount++
		return nil
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeRepo) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := event.Provider + "|" + event.ProviderEventID
	if existing, ok := f.webhookEvents[key]; ok {
		return false, existing, nil
	}
	f.nextEventID++
	event.ID = f.nextEventID
	f.webhookEvents[key] = event
	return true, event, nil
}

func (f *fakeRepo) MarkWebhookProcessed(id uint, processingError string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range f.webhookEvents {
		if ev.ID == id {
			ev.ProcessingError = processingError
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}
