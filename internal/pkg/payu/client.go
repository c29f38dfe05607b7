package payu

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andresvl/aulaviva/internal/pkg/env"
)

const defaultCheckoutBaseURL = "https://checkout.payulatam.com/ppp-web-gateway-payu/"

// CheckoutRequest carries everything PayU needs to host a checkout page.
// Amount is in minor currency units; extra1..3 are opaque values PayU echoes
// back on confirmation.
type CheckoutRequest struct {
	ReferenceCode string
	Description   string
	Amount        int64
	Currency      string
	BuyerEmail    string
	ResponseURL   string
	Extra1        string
	Extra2        string
	Extra3        string
}

// CheckoutResult is the processor's answer. A failed checkout keeps
// Success=false with a human-readable Error instead of a Go error so callers
// can run their compensation path uniformly.
type CheckoutResult struct {
	Success       bool
	CheckoutURL   string
	ReferenceCode string
	Error         string
}

// Client abstracts the payment processor. The production implementation is
// WebCheckoutClient; tests and non-production deployments inject FakeClient
// through configuration, never through request headers.
type Client interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error)
}

// WebCheckoutClient builds signed PayU Latam WebCheckout URLs.
type WebCheckoutClient struct {
	MerchantID      string
	AccountID       string
	APIKey          string
	CheckoutBaseURL string
	ConfirmationURL string
	TestMode        bool

	HTTPClient *http.Client
}

func NewWebCheckoutClientFromEnv() *WebCheckoutClient {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	confirmationURL := strings.TrimSpace(env.GetEnv("PAYU_CONFIRMATION_URL", ""))
	if confirmationURL == "" && base != "" {
		confirmationURL = base + "/api/payu/confirmation"
	}

	return &WebCheckoutClient{
		MerchantID:      strings.TrimSpace(env.GetEnv("PAYU_MERCHANT_ID", "")),
		AccountID:       strings.TrimSpace(env.GetEnv("PAYU_ACCOUNT_ID", "")),
		APIKey:          strings.TrimSpace(env.GetEnv("PAYU_API_KEY", "")),
		CheckoutBaseURL: strings.TrimSpace(env.GetEnv("PAYU_CHECKOUT_URL", defaultCheckoutBaseURL)),
		ConfirmationURL: confirmationURL,
		TestMode:        env.GetEnv("PAYU_TEST_MODE", "0") == "1",
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// NewClientFromEnv selects the processor implementation by deployment
// configuration. PAYU_FAKE=1 swaps in the in-memory fake for staging and
// local development.
func NewClientFromEnv() Client {
	if env.GetEnv("PAYU_FAKE", "0") == "1" {
		return NewFakeClient()
	}
	return NewWebCheckoutClientFromEnv()
}

// CreateCheckout validates the configuration and request, then returns the
// signed hosted-checkout URL. Configuration problems surface as a failed
// result rather than an error so the caller's compensation logic stays in one
// place.
func (c *WebCheckoutClient) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.MerchantID == "" || c.AccountID == "" || c.APIKey == "" {
		return &CheckoutResult{
			Success:       false,
			ReferenceCode: req.ReferenceCode,
			Error:         "PayU credentials are not configured",
		}, nil
	}
	if strings.TrimSpace(req.ReferenceCode) == "" || req.Amount <= 0 || strings.TrimSpace(req.Currency) == "" {
		return nil, errors.New("reference code, positive amount and currency are required")
	}

	amount := FormatAmount(req.Amount)
	signature := Sign(c.APIKey, c.MerchantID, req.ReferenceCode, amount, req.Currency)

	u, err := url.Parse(c.CheckoutBaseURL)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("merchantId", c.MerchantID)
	q.Set("accountId", c.AccountID)
	q.Set("description", req.Description)
	q.Set("referenceCode", req.ReferenceCode)
	q.Set("amount", amount)
	q.Set("currency", strings.ToUpper(req.Currency))
	q.Set("signature", signature)
	q.Set("buyerEmail", req.BuyerEmail)
	if req.ResponseURL != "" {
		q.Set("responseUrl", req.ResponseURL)
	}
	if c.ConfirmationURL != "" {
		q.Set("confirmationUrl", c.ConfirmationURL)
	}
	if req.Extra1 != "" {
		q.Set("extra1", req.Extra1)
	}
	if req.Extra2 != "" {
		q.Set("extra2", req.Extra2)
	}
	if req.Extra3 != "" {
		q.Set("extra3", req.Extra3)
	}
	if c.TestMode {
		q.Set("test", "1")
	}
	u.RawQuery = q.Encode()

	return &CheckoutResult{
		Success:       true,
		CheckoutURL:   u.String(),
		ReferenceCode: req.ReferenceCode,
	}, nil
}
