package payment

import "math"

// Tax types.
const (
	TaxExclusive  = "exclusive"
	TaxInclusive  = "inclusive"
	TaxPercentage = "percentage"
	TaxFixed      = "fixed"
)

// TaxRule is the tax configuration applied at checkout.
type TaxRule struct {
	Enabled    bool
	Name       string
	Type       string // exclusive, inclusive
	AmountType string // percentage, fixed
	Amount     float64
}

// Quote is the price breakdown stored on a payment.
type Quote struct {
	Price    float64 `json:"price"`
	Discount float64 `json:"discount"`
	Amount   float64 `json:"amount"`
	TaxName  string  `json:"tax_name,omitempty"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// DiscountedPrice applies a percentage discount when enabled.
func DiscountedPrice(price float64, hasDiscount bool, discountPercentage float64) float64 {
	if !hasDiscount || discountPercentage <= 0 {
		return round2(price)
	}
	if discountPercentage >= 100 {
		return 0
	}
	return round2(price * (100 - discountPercentage) / 100)
}

// Calculate prices a plan. Exclusive tax is added on top; inclusive tax is
// carved out of the amount so the total stays the discounted price.
func Calculate(price float64, hasDiscount bool, discountPercentage float64, tax TaxRule) Quote {
	amount := DiscountedPrice(price, hasDiscount, discountPercentage)
	q := Quote{
		Price:    round2(price),
		Discount: round2(price - amount),
		Amount:   amount,
		Total:    amount,
	}
	if !tax.Enabled || tax.Amount <= 0 || amount == 0 {
		return q
	}

	q.TaxName = tax.Name
	switch tax.Type {
	case TaxInclusive:
		if tax.AmountType == TaxFixed {
			q.Tax = math.Min(round2(tax.Amount), amount)
		} else {
			q.Tax = round2(amount - amount/(1+tax.Amount/100))
		}
		q.Amount = round2(amount - q.Tax)
	default:
		if tax.AmountType == TaxFixed {
			q.Tax = round2(tax.Amount)
		} else {
			q.Tax = round2(amount * tax.Amount / 100)
		}
		q.Total = round2(amount + q.Tax)
	}
	return q
}

// MinorUnits converts an amount to the smallest currency unit.
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
