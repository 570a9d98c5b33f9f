package payhere

// CheckoutRequest is the signed form a client submits to the gateway's
// checkout page to start a subscription. Recurrence and Duration are empty
// for one-time payments.
type CheckoutRequest struct {
	CheckoutURL string `json:"checkoutUrl"`
	MerchantID  string `json:"merchant_id"`
	OrderID     string `json:"order_id"`
	Items       string `json:"items"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Recurrence  string `json:"recurrence,omitempty"`
	Duration    string `json:"duration,omitempty"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
	NotifyURL   string `json:"notify_url"`
	Custom1     string `json:"custom_1"`
	Custom2     string `json:"custom_2"`
	Hash        string `json:"hash"`
}

// CheckoutParams is what the caller supplies to build a checkout request;
// the signer and gateway endpoints come from configuration.
type CheckoutParams struct {
	CheckoutURL string
	MerchantID  string
	OrderID     string
	Items       string
	Amount      string
	Currency    string
	Recurrence  string
	Duration    string
	ReturnURL   string
	CancelURL   string
	NotifyURL   string
	TenantID    string
	Reference   string
}

// BuildCheckoutRequest assembles and signs a checkout request. The tenant id
// and our subscription id travel in the custom fields and come back on every
// notification.
func BuildCheckoutRequest(signer *Signer, p CheckoutParams) CheckoutRequest {
	return CheckoutRequest{
		CheckoutURL: p.CheckoutURL,
		MerchantID:  p.MerchantID,
		OrderID:     p.OrderID,
		Items:       p.Items,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Recurrence:  p.Recurrence,
		Duration:    p.Duration,
		ReturnURL:   p.ReturnURL,
		CancelURL:   p.CancelURL,
		NotifyURL:   p.NotifyURL,
		Custom1:     p.TenantID,
		Custom2:     p.Reference,
		Hash:        signer.CheckoutSignature(p.MerchantID, p.OrderID, p.Amount, p.Currency),
	}
}
