package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyStripe(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	secret := "whsec_test"
	now := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid", SignStripe(payload, secret, now), nil},
		{"valid among several", "t=1700000000,v1=00ff," + SignStripe(payload, secret, now)[len("t=1700000000,"):], nil},
		{"wrong secret", SignStripe(payload, "other", now), ErrInvalidSignature},
		{"too old", SignStripe(payload, secret, now.Add(-6*time.Minute)), ErrTimestampExpired},
		{"from the future", SignStripe(payload, secret, now.Add(6*time.Minute)), ErrTimestampExpired},
		{"missing parts", "t=1700000000", ErrInvalidSignature},
		{"garbage", "nonsense", ErrInvalidSignature},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyStripe(payload, tt.header, secret, now)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.ErrorIs(t, VerifyStripe(payload, SignStripe(payload, "", now), "", now), ErrInvalidSignature)
}

func TestVerifyRazorpay(t *testing.T) {
	payload := []byte(`{"event":"payment.captured"}`)

	assert.NoError(t, VerifyRazorpay(payload, SignRazorpay(payload, "rzp_secret"), "rzp_secret"))
	assert.ErrorIs(t, VerifyRazorpay(payload, SignRazorpay(payload, "x"), "rzp_secret"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyRazorpay(payload, "not-hex", "rzp_secret"), ErrInvalidSignature)
	assert.ErrorIs(t, VerifyRazorpay(payload, "", "rzp_secret"), ErrInvalidSignature)
}

func TestParseStripe(t *testing.T) {
	completed := []byte(`{
		"id": "evt_1",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": "cs_1",
			"client_reference_id": "pay_abc",
			"payment_intent": "pi_1",
			"payment_status": "paid",
			"amount_total": 11800,
			"currency": "inr"
		}}
	}`)

	n, err := ParseStripe(completed)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, n.Outcome)
	assert.Equal(t, "pay_abc", n.Reference)
	assert.Equal(t, "pi_1", n.TransactionID)
	assert.Equal(t, int64(11800), n.AmountMinor)
	assert.Equal(t, "INR", n.Currency)

	failed := []byte(`{
		"type": "payment_intent.payment_failed",
		"data": {"object": {"id": "pi_2", "amount": 500, "metadata": {"payment_id": "pay_xyz"}}}
	}`)
	n, err = ParseStripe(failed)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, n.Outcome)
	assert.Equal(t, "pay_xyz", n.Reference)

	n, err = ParseStripe([]byte(`{"type":"customer.created","data":{"object":{}}}`))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, n.Outcome)

	_, err = ParseStripe([]byte(`{`))
	assert.Error(t, err)
}

func TestParseRazorpay(t *testing.T) {
	captured := []byte(`{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {
			"id": "pay_RZP1", "amount": 49900, "currency": "INR", "status": "captured",
			"notes": {"payment_id": "pay_local"}
		}}}
	}`)

	n, err := ParseRazorpay(captured)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, n.Outcome)
	assert.Equal(t, "pay_local", n.Reference)
	assert.Equal(t, "pay_RZP1", n.TransactionID)
	assert.Equal(t, int64(49900), n.AmountMinor)
}

func TestCalculate(t *testing.T) {
	exclusivePct := TaxRule{Enabled: true, Name: "GST", Type: TaxExclusive, AmountType: TaxPercentage, Amount: 18}
	inclusivePct := TaxRule{Enabled: true, Name: "VAT", Type: TaxInclusive, AmountType: TaxPercentage, Amount: 25}
	exclusiveFixed := TaxRule{Enabled: true, Type: TaxExclusive, AmountType: TaxFixed, Amount: 5}

	tests := []struct {
		name        string
		price       float64
		hasDiscount bool
		discount    float64
		tax         TaxRule
		want        Quote
	}{
		{"no tax", 100, false, 0, TaxRule{}, Quote{Price: 100, Amount: 100, Total: 100}},
		{"discount only", 100, true, 20, TaxRule{}, Quote{Price: 100, Discount: 20, Amount: 80, Total: 80}},
		{"exclusive percentage", 100, false, 0, exclusivePct, Quote{Price: 100, Amount: 100, TaxName: "GST", Tax: 18, Total: 118}},
		{"inclusive percentage", 125, false, 0, inclusivePct, Quote{Price: 125, Amount: 100, TaxName: "VAT", Tax: 25, Total: 125}},
		{"exclusive fixed after discount", 50, true, 10, exclusiveFixed, Quote{Price: 50, Discount: 5, Amount: 45, Tax: 5, Total: 50}},
		{"disabled tax", 100, false, 0, TaxRule{Enabled: false, Amount: 18}, Quote{Price: 100, Amount: 100, Total: 100}},
		{"free plan skips tax", 0, false, 0, exclusivePct, Quote{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Calculate(tt.price, tt.hasDiscount, tt.discount, tt.tax))
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(11800), MinorUnits(118))
	assert.Equal(t, int64(1999), MinorUnits(19.99))
}
