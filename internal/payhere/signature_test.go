package payhere

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

// md5Upper mirrors the protocol by hand so the tests do not lean on the
// implementation under test.
func md5Upper(s string) string {
	sum := md5.Sum([]byte(s))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

func TestNotificationSignatureAccepts(t *testing.T) {
	signer := NewSigner("s", nil)

	want := md5Upper("m" + "o" + "29.00" + "USD" + "2" + md5Upper("s"))
	assert.Equal(t, want, signer.NotificationSignature("m", "o", "29.00", "USD", "2"))

	n := Notification{
		MerchantID: "m",
		OrderID:    "o",
		Amount:     "29.00",
		Currency:   "USD",
		StatusCode: "2",
		MD5Sig:     want,
	}
	assert.NoError(t, signer.VerifyNotification(n))
}

func TestVerifyNotificationRejectsTamperedFields(t *testing.T) {
	signer := NewSigner("s", nil)

	valid := Notification{
		MerchantID: "m",
		OrderID:    "o",
		Amount:     "29.00",
		Currency:   "USD",
		StatusCode: "2",
	}
	valid.MD5Sig = signer.NotificationSignature(
		valid.MerchantID, valid.OrderID, valid.Amount, valid.Currency, valid.StatusCode)
	require.NoError(t, signer.VerifyNotification(valid))

	// Any single tampered field with the stale signature replayed must fail.
	tampered := map[string]func(Notification) Notification{
		"merchant id": func(n Notification) Notification { n.MerchantID = "x"; return n },
		"order id":    func(n Notification) Notification { n.OrderID = "x"; return n },
		"amount":      func(n Notification) Notification { n.Amount = "29.01"; return n },
		"currency":    func(n Notification) Notification { n.Currency = "LKR"; return n },
		"status code": func(n Notification) Notification { n.StatusCode = "0"; return n },
		"signature":   func(n Notification) Notification { n.MD5Sig = strings.Repeat("0", 32); return n },
		"empty sig":   func(n Notification) Notification { n.MD5Sig = ""; return n },
	}

	for name, mutate := range tampered {
		t.Run(name, func(t *testing.T) {
			err := signer.VerifyNotification(mutate(valid))
			require.Error(t, err)
			assert.True(t, apperrors.IsWebhookVerificationFailed(err))
		})
	}
}

func TestVerifyNotificationRejectsLowercaseSignature(t *testing.T) {
	signer := NewSigner("s", nil)
	n := Notification{MerchantID: "m", OrderID: "o", Amount: "29.00", Currency: "USD", StatusCode: "2"}
	n.MD5Sig = strings.ToLower(signer.NotificationSignature("m", "o", "29.00", "USD", "2"))

	assert.Error(t, signer.VerifyNotification(n))
}

func TestVerifyNotificationWrongSecret(t *testing.T) {
	signer := NewSigner("s", nil)
	other := NewSigner("t", nil)

	n := Notification{MerchantID: "m", OrderID: "o", Amount: "29.00", Currency: "USD", StatusCode: "2"}
	n.MD5Sig = other.NotificationSignature("m", "o", "29.00", "USD", "2")

	assert.Error(t, signer.VerifyNotification(n))
}

func TestCheckoutSignature(t *testing.T) {
	signer := NewSigner("secret", nil)

	want := md5Upper("1211149" + "ord_abc" + "29.00" + "USD" + md5Upper("secret"))
	assert.Equal(t, want, signer.CheckoutSignature("1211149", "ord_abc", "29.00", "USD"))
}

func TestSignerCustomDigest(t *testing.T) {
	// Both stages must go through the injected digest.
	calls := 0
	identity := func(s string) string { calls++; return s }
	signer := NewSigner("sec", identity)

	got := signer.CheckoutSignature("m", "o", "1.00", "USD")
	assert.Equal(t, strings.ToUpper("m"+"o"+"1.00"+"USD"+"SEC"), got)
	assert.Equal(t, 2, calls)
}

func TestBuildCheckoutRequest(t *testing.T) {
	signer := NewSigner("secret", nil)
	req := BuildCheckoutRequest(signer, CheckoutParams{
		CheckoutURL: "https://sandbox.payhere.lk/pay/checkout",
		MerchantID:  "1211149",
		OrderID:     "ord_abc",
		Items:       "AppForge pro plan",
		Amount:      "29.00",
		Currency:    "USD",
		Recurrence:  "1 Month",
		Duration:    "Forever",
		ReturnURL:   "https://app.appforge.dev/billing/return",
		CancelURL:   "https://app.appforge.dev/billing/cancel",
		NotifyURL:   "https://api.appforge.dev/v1/webhooks/payhere",
		TenantID:    "ten_abc",
		Reference:   "sub_abc",
	})

	assert.Equal(t, "ten_abc", req.Custom1)
	assert.Equal(t, "sub_abc", req.Custom2)
	assert.Equal(t, signer.CheckoutSignature("1211149", "ord_abc", "29.00", "USD"), req.Hash)
	assert.Equal(t, "1 Month", req.Recurrence)
}

func TestEffectOf(t *testing.T) {
	tests := []struct {
		name string
		n    Notification
		want Effect
	}{
		{"authorization success", Notification{MessageType: MessageAuthorizationSuccess}, EffectActivate},
		{"authorization failed", Notification{MessageType: MessageAuthorizationFailed}, EffectCancel},
		{"recurring stopped", Notification{MessageType: MessageRecurringStopped}, EffectCancel},
		{"recurring complete", Notification{MessageType: MessageRecurringComplete}, EffectCancel},
		{"installment success", Notification{MessageType: MessageRecurringInstallmentOK}, EffectInstallment},
		{"installment failed", Notification{MessageType: MessageRecurringInstallmentFailed}, EffectMarkPastDue},
		{"unknown message type", Notification{MessageType: "SOMETHING_NEW"}, EffectNone},
		{"one-time success", Notification{StatusCode: StatusCodeSuccess}, EffectActivate},
		{"one-time cancelled", Notification{StatusCode: StatusCodeCancelled}, EffectCancel},
		{"one-time chargeback", Notification{StatusCode: StatusCodeChargeback}, EffectCancel},
		{"one-time failed", Notification{StatusCode: StatusCodeFailed}, EffectMarkPastDue},
		{"one-time pending", Notification{StatusCode: StatusCodePending}, EffectNone},
		{"one-time unknown code", Notification{StatusCode: "7"}, EffectNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EffectOf(tt.n))
		})
	}
}
