package payu

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

// PayU state_pol codes delivered on confirmation.
const (
	StatePolApproved = "4"
	StatePolExpired  = "5"
	StatePolDeclined = "6"
)

// FormatAmount renders a minor-unit amount the way PayU expects it in
// signatures: two decimals, e.g. 3990000 -> "39900.00".
func FormatAmount(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

// confirmationAmount applies PayU's rounding rule for confirmation
// signatures: when the second decimal is zero the amount is signed with a
// single decimal ("150.0", not "150.00").
func confirmationAmount(value string) string {
	v := strings.TrimSpace(value)
	if strings.HasSuffix(v, "0") && strings.Contains(v, ".") && !strings.HasSuffix(v, ".0") {
		return v[:len(v)-1]
	}
	return v
}

// Sign computes the request signature
// MD5(apiKey~merchantId~referenceCode~amount~currency).
func Sign(apiKey, merchantID, referenceCode, amount, currency string) string {
	payload := strings.Join([]string{apiKey, merchantID, referenceCode, amount, strings.ToUpper(currency)}, "~")
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

func signConfirmation(apiKey, merchantID, referenceSale, value, currency, statePol string) string {
	payload := strings.Join([]string{
		apiKey,
		merchantID,
		referenceSale,
		confirmationAmount(value),
		strings.ToUpper(currency),
		statePol,
	}, "~")
	sum := md5.Sum([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// VerifyConfirmationSignature checks the webhook signature
// MD5(apiKey~merchant_id~reference_sale~new_value~currency~state_pol).
func VerifyConfirmationSignature(apiKey, merchantID, referenceSale, value, currency, statePol, signature string) bool {
	sig := strings.ToLower(strings.TrimSpace(signature))
	if sig == "" || apiKey == "" {
		return false
	}
	expected := signConfirmation(apiKey, merchantID, referenceSale, value, currency, statePol)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(sig)) == 1
}
