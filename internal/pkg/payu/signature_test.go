package payu

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "39900.00", FormatAmount(3_990_000))
	assert.Equal(t, "9.99", FormatAmount(999))
	assert.Equal(t, "150.00", FormatAmount(15_000))
}

func TestConfirmationAmountRounding(t *testing.T) {
	// PayU signs confirmation amounts with one decimal when the second is 0.
	assert.Equal(t, "150.0", confirmationAmount("150.00"))
	assert.Equal(t, "150.26", confirmationAmount("150.26"))
	assert.Equal(t, "150.2", confirmationAmount("150.20"))
}

func TestVerifyConfirmationSignature(t *testing.T) {
	apiKey := "4Vj8eK4rloUd272L48hsrarnUA"
	merchantID := "508029"
	ref := "AV-TEST-001"

	sig := Sign(apiKey, merchantID, ref, confirmationAmount("150.00"), "COP")
	// The confirmation payload includes state_pol in the signed string, so a
	// plain request signature must not verify.
	assert.False(t, VerifyConfirmationSignature(apiKey, merchantID, ref, "150.00", "COP", StatePolApproved, sig))

	valid := signConfirmation(apiKey, merchantID, ref, "150.00", "COP", StatePolApproved)
	assert.True(t, VerifyConfirmationSignature(apiKey, merchantID, ref, "150.00", "COP", StatePolApproved, valid))
	assert.False(t, VerifyConfirmationSignature(apiKey, merchantID, ref, "150.00", "COP", StatePolDeclined, valid))
	assert.False(t, VerifyConfirmationSignature("", merchantID, ref, "150.00", "COP", StatePolApproved, valid))
}

func TestWebCheckoutClientBuildsSignedURL(t *testing.T) {
	c := &WebCheckoutClient{
		MerchantID:      "508029",
		AccountID:       "512321",
		APIKey:          "4Vj8eK4rloUd272L48hsrarnUA",
		CheckoutBaseURL: defaultCheckoutBaseURL,
		ConfirmationURL: "https://app.example/api/payu/confirmation",
	}

	res, err := c.CreateCheckout(context.Background(), CheckoutRequest{
		ReferenceCode: "AV-TEST-001",
		Description:   "Plan Básico (monthly)",
		Amount:        3_990_000,
		Currency:      "COP",
		BuyerEmail:    "comprador@example.com",
		ResponseURL:   "https://app.example/suscripcion/exito",
	})
	require.NoError(t, err)
	require.True(t, res.Success)

	u, err := url.Parse(res.CheckoutURL)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "508029", q.Get("merchantId"))
	assert.Equal(t, "39900.00", q.Get("amount"))
	assert.Equal(t, "COP", q.Get("currency"))
	assert.Equal(t,
		Sign(c.APIKey, c.MerchantID, "AV-TEST-001", "39900.00", "COP"),
		q.Get("signature"))
	assert.Equal(t, "https://app.example/api/payu/confirmation", q.Get("confirmationUrl"))
}

func TestWebCheckoutClientMissingCredentials(t *testing.T) {
	c := &WebCheckoutClient{}
	res, err := c.CreateCheckout(context.Background(), CheckoutRequest{
		ReferenceCode: "AV-1", Amount: 100, Currency: "COP",
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
}

func TestWebCheckoutClientValidatesRequest(t *testing.T) {
	c := &WebCheckoutClient{MerchantID: "1", AccountID: "2", APIKey: "k"}
	_, err := c.CreateCheckout(context.Background(), CheckoutRequest{ReferenceCode: "", Amount: 0})
	assert.Error(t, err)
}

func TestFakeClient(t *testing.T) {
	f := NewFakeClient()

	ok, err := f.CreateCheckout(context.Background(), CheckoutRequest{ReferenceCode: "AV-1", Amount: 100, Currency: "COP"})
	require.NoError(t, err)
	assert.True(t, ok.Success)
	assert.Contains(t, ok.CheckoutURL, "AV-1")

	f.FailNext = true
	bad, err := f.CreateCheckout(context.Background(), CheckoutRequest{ReferenceCode: "AV-2", Amount: 100, Currency: "COP"})
	require.NoError(t, err)
	assert.False(t, bad.Success)
	assert.Equal(t, 2, f.RequestCount())
}
