// Package payhere implements the PayHere gateway integration: the keyed
// two-stage digest used for checkout signing and webhook verification, and
// the mapping from gateway notifications to subscription transitions.
package payhere

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	apperrors "github.com/appforge/appforge/internal/pkg/errors"
)

// DigestFunc hex-encodes a digest of the input. The gateway protocol is
// MD5-based; the function is injectable for tests.
type DigestFunc func(input string) string

// MD5Hex is the production digest.
func MD5Hex(input string) string {
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Signer produces and verifies the gateway's keyed two-stage signatures.
// The secret is hashed once, uppercased, folded into a second digest over
// the payload fields in a fixed order, and the result uppercased. Both
// directions of the protocol share this construction, so field ordering and
// case normalization must stay byte-identical between them.
type Signer struct {
	merchantSecret string
	digest         DigestFunc
}

// NewSigner builds a Signer. A nil digest falls back to MD5.
func NewSigner(merchantSecret string, digest DigestFunc) *Signer {
	if digest == nil {
		digest = MD5Hex
	}
	return &Signer{merchantSecret: merchantSecret, digest: digest}
}

func (s *Signer) hashedSecret() string {
	return strings.ToUpper(s.digest(s.merchantSecret))
}

// CheckoutSignature signs an outbound checkout request:
// upper(digest(merchantID + orderID + amount + currency + upper(digest(secret)))).
func (s *Signer) CheckoutSignature(merchantID, orderID, amount, currency string) string {
	payload := merchantID + orderID + amount + currency + s.hashedSecret()
	return strings.ToUpper(s.digest(payload))
}

// NotificationSignature computes the expected signature of an inbound
// notification. It extends the checkout payload with the status code.
func (s *Signer) NotificationSignature(merchantID, orderID, amount, currency, statusCode string) string {
	payload := merchantID + orderID + amount + currency + statusCode + s.hashedSecret()
	return strings.ToUpper(s.digest(payload))
}

// VerifyNotification checks a claimed signature against the recomputed one.
// It fails closed: any mismatch, including an empty claim, returns
// WebhookVerificationFailed. Callers must invoke this before any lookup or
// mutation driven by the notification.
func (s *Signer) VerifyNotification(n Notification) error {
	if n.MD5Sig == "" {
		return apperrors.WebhookVerificationFailed()
	}
	want := s.NotificationSignature(n.MerchantID, n.OrderID, n.Amount, n.Currency, n.StatusCode)
	if subtle.ConstantTimeCompare([]byte(want), []byte(n.MD5Sig)) != 1 {
		return apperrors.WebhookVerificationFailed()
	}
	return nil
}
