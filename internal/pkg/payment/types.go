package payment

import "encoding/json"

// Payment methods.
const (
	MethodStripe   = "stripe"
	MethodRazorpay = "razorpay"
	MethodBank     = "bank"
)

// Notification outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeIgnored = "ignored"
)

// CheckoutParams is what the client-side gateway widget needs to collect a payment.
type CheckoutParams struct {
	Method      string  `json:"payment_method"`
	Reference   string  `json:"reference"`
	Amount      float64 `json:"amount"`
	AmountMinor int64   `json:"amount_minor"`
	Currency    string  `json:"currency"`
	PublicKey   string  `json:"public_key,omitempty"`
	Description string  `json:"description"`
	// set for bank transfers
	BankDetails map[string]string `json:"bank_details,omitempty"`
}

// Notification is a verified gateway event reduced to what the payment flow uses.
type Notification struct {
	Method        string
	EventType     string
	Outcome       string
	Reference     string
	TransactionID string
	AmountMinor   int64
	Currency      string
	Raw           json.RawMessage
}

// StripeEvent covers the fields of the checkout and payment intent events we handle.
type StripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID                string            `json:"id"`
			ClientReferenceID string            `json:"client_reference_id"`
			PaymentIntent     string            `json:"payment_intent"`
			PaymentStatus     string            `json:"payment_status"`
			AmountTotal       int64             `json:"amount_total"`
			Amount            int64             `json:"amount"`
			Currency          string            `json:"currency"`
			Metadata          map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// RazorpayEvent covers payment.captured and payment.failed webhooks.
type RazorpayEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID       string            `json:"id"`
				OrderID  string            `json:"order_id"`
				Amount   int64             `json:"amount"`
				Currency string            `json:"currency"`
				Status   string            `json:"status"`
				Notes    map[string]string `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}
