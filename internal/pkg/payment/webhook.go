package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrTimestampExpired = errors.New("webhook timestamp outside tolerance")
)

// StripeTolerance is the accepted clock skew for Stripe-Signature timestamps.
const StripeTolerance = 5 * time.Minute

func sign(secret string, parts ...[]byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	for _, p := range parts {
		mac.Write(p)
	}
	return mac.Sum(nil)
}

// SignStripe builds a Stripe-Signature header value for payload.
func SignStripe(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	sig := sign(secret, []byte(ts), []byte("."), payload)
	return "t=" + ts + ",v1=" + hex.EncodeToString(sig)
}

// VerifyStripe checks a "t=<unix>,v1=<hex>" header against payload. Any of
// several v1 signatures may match.
func VerifyStripe(payload []byte, header, secret string, now time.Time) error {
	if secret == "" {
		return ErrInvalidSignature
	}

	var ts string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			signatures = append(signatures, v)
		}
	}
	if ts == "" || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if d := now.Sub(time.Unix(unix, 0)); d > StripeTolerance || d < -StripeTolerance {
		return ErrTimestampExpired
	}

	expected := sign(secret, []byte(ts), []byte("."), payload)
	for _, s := range signatures {
		got, err := hex.DecodeString(s)
		if err == nil && hmac.Equal(got, expected) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// SignRazorpay returns the hex HMAC-SHA256 Razorpay sends in X-Razorpay-Signature.
func SignRazorpay(payload []byte, secret string) string {
	return hex.EncodeToString(sign(secret, payload))
}

func VerifyRazorpay(payload []byte, signature, secret string) error {
	if secret == "" || signature == "" {
		return ErrInvalidSignature
	}
	got, err := hex.DecodeString(signature)
	if err != nil || !hmac.Equal(got, sign(secret, payload)) {
		return ErrInvalidSignature
	}
	return nil
}

// ParseStripe maps a verified Stripe event onto a Notification. Events we do
// not act on come back with OutcomeIgnored.
func ParseStripe(payload []byte) (*Notification, error) {
	var ev StripeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode stripe event: %w", err)
	}

	obj := ev.Data.Object
	n := &Notification{
		Method:    MethodStripe,
		EventType: ev.Type,
		Outcome:   OutcomeIgnored,
		Reference: obj.ClientReferenceID,
		Currency:  strings.ToUpper(obj.Currency),
		Raw:       payload,
	}
	if n.Reference == "" {
		n.Reference = obj.Metadata["payment_id"]
	}

	switch ev.Type {
	case "checkout.session.completed":
		if obj.PaymentStatus != "" && obj.PaymentStatus != "paid" {
			return n, nil
		}
		n.Outcome = OutcomeSuccess
		n.TransactionID = obj.PaymentIntent
		if n.TransactionID == "" {
			n.TransactionID = obj.ID
		}
		n.AmountMinor = obj.AmountTotal
	case "payment_intent.payment_failed":
		n.Outcome = OutcomeFailed
		n.TransactionID = obj.ID
		n.AmountMinor = obj.Amount
	}
	return n, nil
}

func ParseRazorpay(payload []byte) (*Notification, error) {
	var ev RazorpayEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, fmt.Errorf("decode razorpay event: %w", err)
	}

	entity := ev.Payload.Payment.Entity
	n := &Notification{
		Method:        MethodRazorpay,
		EventType:     ev.Event,
		Outcome:       OutcomeIgnored,
		Reference:     entity.Notes["payment_id"],
		TransactionID: entity.ID,
		AmountMinor:   entity.Amount,
		Currency:      strings.ToUpper(entity.Currency),
		Raw:           payload,
	}

	switch ev.Event {
	case "payment.captured":
		n.Outcome = OutcomeSuccess
	case "payment.failed":
		n.Outcome = OutcomeFailed
	}
	return n, nil
}
