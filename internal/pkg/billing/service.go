package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/internal/pkg/payu"
	"github.com/andresvl/aulaviva/internal/pkg/pricing"
	"github.com/andresvl/aulaviva/internal/pkg/promocode"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultSuccessPath = "/suscripcion/exito"

// Service owns the subscription/payment state machine. All writers — the
// checkout path, the processor confirmation webhook, the test endpoint and
// proof verification — go through it so the lifecycle has exactly one
// transition function.
type Service struct {
	repo      Repository
	processor payu.Client
	now       func() time.Time
}

// NewService creates a billing service from an injected repository and
// processor client.
func NewService(repo Repository, processor payu.Client) *Service {
	return &Service{repo: repo, processor: processor, now: time.Now}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB, processor payu.Client) *Service {
	return NewService(NewRepository(db), processor)
}

func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// DeriveIdempotencyKey buckets an intent by user, plan, cycle and hour so an
// accidental double-submit inside the window replays instead of duplicating.
func DeriveIdempotencyKey(userID uint, planName, cycle string, at time.Time) string {
	payload := fmt.Sprintf("%d|%s|%s|%d", userID, planName, cycle, at.UTC().Truncate(time.Hour).Unix())
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// CreatePaymentIntent runs the checkout entry of the state machine: resolve
// plan and pricing, apply any promo code, then create the
// Subscription(pending) + PaymentTransaction(pending) pair and ask the
// processor for a hosted checkout URL. On processor failure both rows are
// deleted again (the compensating action) and ErrProcessor is returned.
func (s *Service) CreatePaymentIntent(ctx context.Context, in PaymentIntentInput) (*PaymentIntent, error) {
	cycle := strings.ToLower(strings.TrimSpace(in.BillingCycle))
	if cycle != models.BillingCycleMonthly && cycle != models.BillingCycleQuarterly {
		return nil, fmt.Errorf("%w: invalid billing cycle %q", ErrValidation, in.BillingCycle)
	}
	planSpec, err := pricing.FindPlanSpec(in.PlanName)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown plan %q", ErrValidation, in.PlanName)
	}
	if in.UserID == 0 {
		return nil, fmt.Errorf("%w: user is required", ErrValidation)
	}

	pp, err := pricing.Resolve(in.CountryCode, planSpec.Name)
	if err != nil {
		if errors.Is(err, pricing.ErrUnsupportedCountry) {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return nil, err
	}

	plan, err := s.repo.GetPlanByName(planSpec.Name)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("%w: plan %q is not provisioned", ErrNotFound, planSpec.Name)
		}
		return nil, err
	}

	redirectURL := in.ResponseURL
	if redirectURL == "" {
		redirectURL = defaultSuccessPath
	}

	amount := pp.AmountFor(cycle)
	promo := promocode.Normalize(in.PromoCode)
	if amount > 0 && promo != "" {
		pc, err := s.repo.GetPromoCode(promo)
		if err != nil {
			if notFound(err) {
				return nil, fmt.Errorf("%w: promo code %q does not exist", ErrValidation, promo)
			}
			return nil, err
		}
		amount, err = promocode.Apply(s.now(), pc, plan.Name, amount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidation, err)
		}
	}

	// Free plan or fully-discounted amount: nothing to charge, nothing to
	// persist. The caller just redirects.
	if amount == 0 {
		return &PaymentIntent{
			Redirect:    true,
			RedirectURL: redirectURL,
			Plan:        plan,
			Pricing:     pp,
		}, nil
	}

	method := strings.ToLower(strings.TrimSpace(in.Method))
	if method == "" {
		method = models.PaymentMethodPayU
	}
	if method != models.PaymentMethodPayU && method != models.PaymentMethodTransfer {
		return nil, fmt.Errorf("%w: invalid payment method %q", ErrValidation, in.Method)
	}

	idemKey := strings.TrimSpace(in.IdempotencyKey)
	if idemKey == "" {
		idemKey = DeriveIdempotencyKey(in.UserID, plan.Name, cycle, s.now())
	}
	if existing, err := s.repo.GetTransactionByIdempotencyKey(idemKey); err == nil {
		return s.replayIntent(ctx, existing, plan, pp, amount, in)
	} else if !notFound(err) {
		return nil, err
	}

	sub := &models.Subscription{
		UserID:       in.UserID,
		PlanID:       plan.ID,
		Status:       models.SubscriptionStatusPending,
		BillingCycle: cycle,
		Amount:       amount,
		Currency:     pp.Currency,
		CountryCode:  strings.ToUpper(strings.TrimSpace(in.CountryCode)),
	}
	if err := s.repo.CreateSubscription(sub); err != nil {
		return nil, err
	}

	referenceCode := "AV-" + strings.ToUpper(uuid.New().String()[:18])

	// Bank transfers settle through proof review; only card checkouts need a
	// hosted page from the processor.
	checkoutURL := ""
	if method == models.PaymentMethodPayU {
		checkout, err := s.requestCheckout(ctx, referenceCode, plan, amount, pp.Currency, cycle, in)
		if err != nil {
			_ = s.repo.DeleteSubscription(sub.ID)
			return nil, err
		}
		checkoutURL = checkout.CheckoutURL
	}

	tx := &models.PaymentTransaction{
		SubscriptionID: sub.ID,
		UserID:         in.UserID,
		ReferenceCode:  referenceCode,
		IdempotencyKey: idemKey,
		Status:         models.PaymentStatusPending,
		Method:         method,
		Amount:         amount,
		Currency:       pp.Currency,
		PromoCode:      promo,
		Extra1:         in.ExternalID,
		Extra2:         plan.Name,
		Extra3:         cycle,
	}
	if err := s.repo.CreateTransaction(tx); err != nil {
		// A concurrent request with the same key won the race; fall back to
		// its intent and drop ours.
		_ = s.repo.DeleteSubscription(sub.ID)
		if existing, lookupErr := s.repo.GetTransactionByIdempotencyKey(idemKey); lookupErr == nil {
			return s.replayIntent(ctx, existing, plan, pp, amount, in)
		}
		return nil, err
	}

	return &PaymentIntent{
		CheckoutURL:  checkoutURL,
		Transaction:  tx,
		Subscription: sub,
		Plan:         plan,
		Pricing:      pp,
		Amount:       amount,
	}, nil
}

// replayIntent returns the original intent for an idempotency-key hit. For a
// still-pending transaction the checkout URL is rebuilt with the original
// reference code; terminal transactions are returned as-is.
func (s *Service) replayIntent(ctx context.Context, existing *models.PaymentTransaction, plan *models.Plan, pp *pricing.PricePoint, amount int64, in PaymentIntentInput) (*PaymentIntent, error) {
	intent := &PaymentIntent{
		Replayed:     true,
		Transaction:  existing,
		Subscription: existing.Subscription,
		Plan:         plan,
		Pricing:      pp,
		Amount:       existing.Amount,
	}
	if existing.Status != models.PaymentStatusPending || existing.Method != models.PaymentMethodPayU {
		return intent, nil
	}

	checkout, err := s.requestCheckout(ctx, existing.ReferenceCode, plan, existing.Amount, existing.Currency, existing.Extra3, in)
	if err != nil {
		return nil, err
	}
	intent.CheckoutURL = checkout.CheckoutURL
	return intent, nil
}

func (s *Service) requestCheckout(ctx context.Context, referenceCode string, plan *models.Plan, amount int64, currency, cycle string, in PaymentIntentInput) (*payu.CheckoutResult, error) {
	checkout, err := s.processor.CreateCheckout(ctx, payu.CheckoutRequest{
		ReferenceCode: referenceCode,
		Description:   fmt.Sprintf("%s (%s)", plan.DisplayName, cycle),
		Amount:        amount,
		Currency:      currency,
		BuyerEmail:    in.BuyerEmail,
		ResponseURL:   in.ResponseURL,
		Extra1:        in.ExternalID,
		Extra2:        plan.Name,
		Extra3:        cycle,
	})
	if err != nil {
		return nil, err
	}
	if !checkout.Success {
		return nil, fmt.Errorf("%w: %s", ErrProcessor, checkout.Error)
	}
	return checkout, nil
}

// GetPaymentStatus is the read side used by the success-page poller: at least
// one selector is required, an unknown value is ErrNotFound and the caller
// retries until the webhook has landed.
func (s *Service) GetPaymentStatus(ctx context.Context, referenceCode, processorTransactionID string) (*models.PaymentTransaction, error) {
	_ = ctx
	ref := strings.TrimSpace(referenceCode)
	ptx := strings.TrimSpace(processorTransactionID)
	if ref == "" && ptx == "" {
		return nil, fmt.Errorf("%w: transactionId or referenceCode is required", ErrValidation)
	}

	if ref != "" {
		tx, err := s.repo.GetTransactionByReference(ref)
		if err == nil {
			return tx, nil
		}
		if !notFound(err) {
			return nil, err
		}
	}
	if ptx != "" {
		tx, err := s.repo.GetTransactionByProcessorID(ptx)
		if err == nil {
			return tx, nil
		}
		if !notFound(err) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: payment transaction", ErrNotFound)
}

// ListActiveSubscriptions resolves a user by id or email and returns their
// active subscriptions with plans preloaded.
func (s *Service) ListActiveSubscriptions(ctx context.Context, userID uint, email string) ([]models.Subscription, error) {
	_ = ctx
	if userID == 0 {
		if strings.TrimSpace(email) == "" {
			return nil, fmt.Errorf("%w: email or userId is required", ErrValidation)
		}
		u, err := s.repo.GetUserByEmail(strings.TrimSpace(email))
		if err != nil {
			if notFound(err) {
				return nil, fmt.Errorf("%w: user", ErrNotFound)
			}
			return nil, err
		}
		userID = u.ID
	}
	return s.repo.ListActiveSubscriptionsByUser(userID)
}

// ActivateDirect is the manual/test entry that reaches the terminal state
// without the processor: it resolves or creates the user (with a
// duplicate-email lookup fallback), then reuses an existing (user, plan,
// active) subscription and its approved transaction instead of creating
// duplicates.
func (s *Service) ActivateDirect(ctx context.Context, in ActivationInput) (*models.Subscription, *models.PaymentTransaction, error) {
	_ = ctx
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" && strings.TrimSpace(in.ExternalID) == "" && in.UserID == 0 {
		return nil, nil, fmt.Errorf("%w: a user selector (userId, externalId or email) is required", ErrValidation)
	}
	planSpec, err := pricing.FindPlanSpec(in.PlanName)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unknown plan %q", ErrValidation, in.PlanName)
	}
	plan, err := s.repo.GetPlanByName(planSpec.Name)
	if err != nil {
		if notFound(err) {
			return nil, nil, fmt.Errorf("%w: plan %q is not provisioned", ErrNotFound, planSpec.Name)
		}
		return nil, nil, err
	}

	cycle := strings.ToLower(strings.TrimSpace(in.BillingCycle))
	if cycle == "" {
		cycle = models.BillingCycleMonthly
	}

	user, err := s.resolveOrCreateUser(in, email)
	if err != nil {
		return nil, nil, err
	}

	if sub, err := s.repo.FindActiveSubscription(user.ID, plan.ID); err == nil {
		if tx, err := s.repo.FindApprovedTransaction(sub.ID); err == nil {
			return sub, tx, nil
		} else if !notFound(err) {
			return nil, nil, err
		}
		tx, err := s.createApprovedTransaction(user, sub, plan)
		if err != nil {
			return nil, nil, err
		}
		return sub, tx, nil
	} else if !notFound(err) {
		return nil, nil, err
	}

	pp, err := pricing.Resolve(in.CountryCode, plan.Name)
	if err != nil {
		pp = &pricing.PricePoint{Currency: plan.Currency}
	}

	now := s.now()
	periodEnd := now.Add(models.PeriodLength(cycle))
	sub := &models.Subscription{
		UserID:             user.ID,
		PlanID:             plan.ID,
		Status:             models.SubscriptionStatusActive,
		IsActive:           true,
		BillingCycle:       cycle,
		Amount:             pp.AmountFor(cycle),
		Currency:           pp.Currency,
		CountryCode:        strings.ToUpper(strings.TrimSpace(in.CountryCode)),
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &periodEnd,
	}
	if err := s.repo.CreateSubscription(sub); err != nil {
		return nil, nil, err
	}

	tx, err := s.createApprovedTransaction(user, sub, plan)
	if err != nil {
		return nil, nil, err
	}
	if err := s.ReconcileUserPlan(user.ID); err != nil {
		return nil, nil, err
	}
	return sub, tx, nil
}

func (s *Service) resolveOrCreateUser(in ActivationInput, email string) (*models.User, error) {
	if in.UserID != 0 {
		u, err := s.repo.GetUserByID(in.UserID)
		if err != nil {
			if notFound(err) {
				return nil, fmt.Errorf("%w: user %d", ErrNotFound, in.UserID)
			}
			return nil, err
		}
		return u, nil
	}
	if in.ExternalID != "" {
		if u, err := s.repo.GetUserByExternalID("google", in.ExternalID); err == nil {
			return u, nil
		} else if !notFound(err) {
			return nil, err
		}
	}
	if email == "" {
		// externalId-only request for an account we have never seen: mint the
		// same placeholder address the oauth callback would.
		email = fmt.Sprintf("google_%s@google.oauth.local", strings.TrimSpace(in.ExternalID))
	}
	if u, err := s.repo.GetUserByEmail(email); err == nil {
		return u, nil
	} else if !notFound(err) {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	u := &models.User{
		Provider:   "google",
		ExternalID: in.ExternalID,
		Name:       name,
		Email:      email,
		Role:       models.ROLE_USER,
		Status:     models.STATUS_ACTIVE,
	}
	if err := s.repo.CreateUser(u); err != nil {
		// Duplicate email from a concurrent signup: fall back to the row
		// that won.
		if existing, lookupErr := s.repo.GetUserByEmail(email); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return u, nil
}

func (s *Service) createApprovedTransaction(user *models.User, sub *models.Subscription, plan *models.Plan) (*models.PaymentTransaction, error) {
	tx := &models.PaymentTransaction{
		SubscriptionID: sub.ID,
		UserID:         user.ID,
		ReferenceCode:  "TEST-" + strings.ToUpper(uuid.New().String()[:18]),
		IdempotencyKey: "test-" + uuid.New().String(),
		Status:         models.PaymentStatusApproved,
		Method:         models.PaymentMethodTest,
		Amount:         sub.Amount,
		Currency:       sub.Currency,
		Extra1:         user.ExternalID,
		Extra2:         plan.Name,
		Extra3:         sub.BillingCycle,
	}
	if err := s.repo.CreateTransaction(tx); err != nil {
		return nil, err
	}
	return tx, nil
}
