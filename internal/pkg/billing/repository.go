package billing

import (
	"encoding/json"
	"time"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/internal/pkg/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides the DB operations used by the billing service. The GORM
// implementation is the production one; tests use the in-memory fake.
type Repository interface {
	GetPlanByName(name string) (*models.Plan, error)

	GetUserByID(id uint) (*models.User, error)
	GetUserByExternalID(provider, externalID string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	CreateUser(u *models.User) error
	SetUserPlan(userID uint, planName string) error

	CreateSubscription(sub *models.Subscription) error
	SaveSubscription(sub *models.Subscription) error
	DeleteSubscription(id uint) error
	FindActiveSubscription(userID, planID uint) (*models.Subscription, error)
	ListActiveSubscriptionsByUser(userID uint) ([]models.Subscription, error)

	CreateTransaction(tx *models.PaymentTransaction) error
	SaveTransaction(tx *models.PaymentTransaction) error
	DeleteTransaction(id uint) error
	GetTransactionByReference(ref string) (*models.PaymentTransaction, error)
	GetTransactionByProcessorID(id string) (*models.PaymentTransaction, error)
	GetTransactionByIdempotencyKey(key string) (*models.PaymentTransaction, error)
	FindApprovedTransaction(subscriptionID uint) (*models.PaymentTransaction, error)
	ListStalePendingTransactions(before time.Time, limit int) ([]models.PaymentTransaction, error)
	ListLapsedActiveSubscriptions(now time.Time, limit int) ([]models.Subscription, error)

	GetPromoCode(code string) (*models.PromoCode, error)
	IncrementPromoUse(code string) error

	CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

const planCacheTTL = 10 * time.Minute

// GetPlanByName reads through the Redis plan cache. Plans are seeded at
// startup and only change on deploy, so a short TTL is plenty.
func (r *gormRepository) GetPlanByName(name string) (*models.Plan, error) {
	cacheKey := "plan:" + name
	if raw, err := cache.Get(cacheKey); err == nil && raw != "" {
		var plan models.Plan
		if err := json.Unmarshal([]byte(raw), &plan); err == nil {
			return &plan, nil
		}
	}

	var plan models.Plan
	if err := r.db.Where("name = ? AND is_active = ?", name, true).First(&plan).Error; err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(&plan); err == nil {
		_ = cache.Set(cacheKey, string(raw), planCacheTTL)
	}
	return &plan, nil
}

func (r *gormRepository) GetUserByID(id uint) (*models.User, error) {
	var u models.User
	if err := r.db.First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) GetUserByExternalID(provider, externalID string) (*models.User, error) {
	var u models.User
	err := r.db.Where("provider = ? AND external_id = ?", provider, externalID).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) GetUserByEmail(email string) (*models.User, error) {
	var u models.User
	if err := r.db.Where("email = ?", email).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *gormRepository) CreateUser(u *models.User) error {
	return r.db.Create(u).Error
}

func (r *gormRepository) SetUserPlan(userID uint, planName string) error {
	return r.db.Model(&models.User{}).Where("id = ?", userID).
		Update("plan_name", planName).Error
}

func (r *gormRepository) CreateSubscription(sub *models.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *gormRepository) SaveSubscription(sub *models.Subscription) error {
	return r.db.Save(sub).Error
}

func (r *gormRepository) DeleteSubscription(id uint) error {
	return r.db.Delete(&models.Subscription{}, id).Error
}

func (r *gormRepository) FindActiveSubscription(userID, planID uint) (*models.Subscription, error) {
	var sub models.Subscription
	err := r.db.
		Where("user_id = ? AND plan_id = ? AND status = ?", userID, planID, models.SubscriptionStatusActive).
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *gormRepository) ListActiveSubscriptionsByUser(userID uint) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Plan").
		Where("user_id = ? AND status = ?", userID, models.SubscriptionStatusActive).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) CreateTransaction(tx *models.PaymentTransaction) error {
	return r.db.Create(tx).Error
}

func (r *gormRepository) SaveTransaction(tx *models.PaymentTransaction) error {
	return r.db.Save(tx).Error
}

func (r *gormRepository) DeleteTransaction(id uint) error {
	return r.db.Delete(&models.PaymentTransaction{}, id).Error
}

func (r *gormRepository) GetTransactionByReference(ref string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.db.Preload("Subscription").Preload("Subscription.Plan").
		Where("reference_code = ?", ref).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *gormRepository) GetTransactionByProcessorID(id string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.db.Preload("Subscription").Preload("Subscription.Plan").
		Where("processor_transaction_id = ?", id).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *gormRepository) GetTransactionByIdempotencyKey(key string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.db.Preload("Subscription").Preload("Subscription.Plan").
		Where("idempotency_key = ?", key).First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *gormRepository) FindApprovedTransaction(subscriptionID uint) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.db.
		Where("subscription_id = ? AND status = ?", subscriptionID, models.PaymentStatusApproved).
		First(&tx).Error
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// ListStalePendingTransactions lists pending checkouts older than the cutoff.
// Transfers are excluded: they never had a hosted checkout and stay pending
// until a reviewer settles the uploaded proof.
func (r *gormRepository) ListStalePendingTransactions(before time.Time, limit int) ([]models.PaymentTransaction, error) {
	var txs []models.PaymentTransaction
	err := r.db.Preload("Subscription").Preload("Subscription.Plan").
		Where("status = ? AND method <> ? AND created_at < ?",
			models.PaymentStatusPending, models.PaymentMethodTransfer, before).
		Order("created_at ASC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

func (r *gormRepository) ListLapsedActiveSubscriptions(now time.Time, limit int) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := r.db.Preload("Plan").
		Where("status = ? AND current_period_end IS NOT NULL AND current_period_end < ?",
			models.SubscriptionStatusActive, now).
		Order("current_period_end ASC").
		Limit(limit).
		Find(&subs).Error
	return subs, err
}

func (r *gormRepository) GetPromoCode(code string) (*models.PromoCode, error) {
	var pc models.PromoCode
	if err := r.db.Where("code = ?", code).First(&pc).Error; err != nil {
		return nil, err
	}
	return &pc, nil
}

func (r *gormRepository) IncrementPromoUse(code string) error {
	return r.db.Model(&models.PromoCode{}).Where("code = ?", code).
		UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.WebhookEvent) (bool, *models.WebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
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
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.WebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
