package payhere

// Gateway message types for recurring (subscription) notifications. One-time
// payment notifications carry no message type, only a status code.
const (
	MessageAuthorizationSuccess       = "AUTHORIZATION_SUCCESS"
	MessageAuthorizationFailed        = "AUTHORIZATION_FAILED"
	MessageRecurringInstallmentOK     = "RECURRING_INSTALLMENT_SUCCESS"
	MessageRecurringInstallmentFailed = "RECURRING_INSTALLMENT_FAILED"
	MessageRecurringComplete          = "RECURRING_COMPLETE"
	MessageRecurringStopped           = "RECURRING_STOPPED"
)

// Gateway status codes for one-time payments.
const (
	StatusCodeSuccess    = "2"
	StatusCodePending    = "0"
	StatusCodeCancelled  = "-1"
	StatusCodeFailed     = "-2"
	StatusCodeChargeback = "-3"
)

// Notification is the server-to-server callback payload posted by the
// gateway. Custom1 and Custom2 carry the tenant id and subscription id we
// attached to the checkout request.
type Notification struct {
	MerchantID         string `json:"merchant_id" form:"merchant_id"`
	OrderID            string `json:"order_id" form:"order_id"`
	PaymentID          string `json:"payment_id" form:"payment_id"`
	SubscriptionID     string `json:"subscription_id" form:"subscription_id"`
	Amount             string `json:"payhere_amount" form:"payhere_amount"`
	Currency           string `json:"payhere_currency" form:"payhere_currency"`
	StatusCode         string `json:"status_code" form:"status_code"`
	MD5Sig             string `json:"md5sig" form:"md5sig"`
	MessageType        string `json:"message_type" form:"message_type"`
	ItemRecurrence     string `json:"item_recurrence" form:"item_recurrence"`
	NextOccurrenceDate string `json:"item_rec_date_next" form:"item_rec_date_next"`
	StatusMessage      string `json:"status_message" form:"status_message"`
	Custom1            string `json:"custom_1" form:"custom_1"`
	Custom2            string `json:"custom_2" form:"custom_2"`
}

// IsRecurring reports whether the notification belongs to a recurring
// subscription rather than a one-time payment.
func (n Notification) IsRecurring() bool {
	return n.MessageType != ""
}

// Effect is the subscription transition a verified notification maps to.
type Effect string

const (
	// EffectActivate activates the subscription, storing the gateway
	// subscription id when present.
	EffectActivate Effect = "activate"
	// EffectCancel cancels the subscription.
	EffectCancel Effect = "cancel"
	// EffectMarkPastDue moves the subscription to past_due.
	EffectMarkPastDue Effect = "mark_past_due"
	// EffectInstallment activates a past_due subscription and renews the
	// billing period when a next-charge date is present.
	EffectInstallment Effect = "installment"
	// EffectNone leaves the subscription untouched.
	EffectNone Effect = "none"
)

// EffectOf maps a verified notification to its subscription effect.
// Recurring notifications dispatch on message type; one-time notifications
// dispatch on status code. Unknown signals map to EffectNone so a new
// gateway message type never mutates state by accident.
func EffectOf(n Notification) Effect {
	if n.IsRecurring() {
		switch n.MessageType {
		case MessageAuthorizationSuccess:
			return EffectActivate
		case MessageAuthorizationFailed, MessageRecurringStopped, MessageRecurringComplete:
			return EffectCancel
		case MessageRecurringInstallmentOK:
			return EffectInstallment
		case MessageRecurringInstallmentFailed:
			return EffectMarkPastDue
		default:
			return EffectNone
		}
	}

	switch n.StatusCode {
	case StatusCodeSuccess:
		return EffectActivate
	case StatusCodeCancelled, StatusCodeChargeback:
		return EffectCancel
	case StatusCodeFailed:
		return EffectMarkPastDue
	case StatusCodePending:
		return EffectNone
	default:
		return EffectNone
	}
}
