package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm/clause"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/cache"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/logger"
	"qwiktest/internal/pkg/payment"
	"qwiktest/internal/pkg/validation"
)

// Setting groups.
const (
	GroupSite     = "site"
	GroupPayment  = "payment"
	GroupTax      = "tax"
	GroupStripe   = "stripe"
	GroupRazorpay = "razorpay"
	GroupBank     = "bank"
	GroupHome     = "home"
)

const settingsTTL = time.Hour

type SiteSettings struct {
	AppName        string `json:"app_name" binding:"required,max=100"`
	TagLine        string `json:"tag_line" binding:"max=255"`
	SeoDescription string `json:"seo_description" binding:"max=500"`
	CanRegister    bool   `json:"can_register"`
}

type PaymentSettings struct {
	DefaultPaymentProcessor string `json:"default_payment_processor" binding:"omitempty,payment_method"`
	DefaultCurrency         string `json:"default_currency" binding:"required,len=3"`
	CurrencySymbol          string `json:"currency_symbol" binding:"required,max=8"`
	CurrencySymbolPosition  string `json:"currency_symbol_position" binding:"oneof=left right"`
}

type TaxSettings struct {
	EnableTax     bool    `json:"enable_tax"`
	TaxName       string  `json:"tax_name" binding:"max=50"`
	TaxType       string  `json:"tax_type" binding:"oneof=exclusive inclusive"`
	TaxAmountType string  `json:"tax_amount_type" binding:"oneof=percentage fixed"`
	TaxAmount     float64 `json:"tax_amount" binding:"gte=0"`
}

// Rule converts the settings into the pricing package's tax rule.
func (t TaxSettings) Rule() payment.TaxRule {
	return payment.TaxRule{
		Enabled:    t.EnableTax,
		Name:       t.TaxName,
		Type:       t.TaxType,
		AmountType: t.TaxAmountType,
		Amount:     t.TaxAmount,
	}
}

type StripeSettings struct {
	Enabled       bool   `json:"enabled"`
	APIKey        string `json:"api_key"`
	SecretKey     string `json:"secret_key"`
	WebhookSecret string `json:"webhook_secret"`
}

type RazorpaySettings struct {
	Enabled       bool   `json:"enabled"`
	KeyID         string `json:"key_id"`
	KeySecret     string `json:"key_secret"`
	WebhookSecret string `json:"webhook_secret"`
}

type BankSettings struct {
	Enabled       bool   `json:"enabled"`
	BankName      string `json:"bank_name"`
	AccountOwner  string `json:"account_owner"`
	AccountNumber string `json:"account_number"`
	IBAN          string `json:"iban"`
	RoutingNumber string `json:"routing_number"`
	OtherDetails  string `json:"other_details"`
}

type HomeSettings struct {
	TopBar       bool `json:"top_bar"`
	Hero         bool `json:"hero"`
	Features     bool `json:"features"`
	Pricing      bool `json:"pricing"`
	Testimonials bool `json:"testimonials"`
	CTA          bool `json:"cta"`
}

// PublicSettings is what anonymous visitors may read.
type PublicSettings struct {
	Site     SiteSettings `json:"site"`
	Home     HomeSettings `json:"home"`
	Currency struct {
		Code     string `json:"code"`
		Symbol   string `json:"symbol"`
		Position string `json:"position"`
	} `json:"currency"`
	PaymentMethods []string `json:"payment_methods"`
}

var settingDefaults = map[string]func() any{
	GroupSite: func() any {
		return &SiteSettings{AppName: "QwikTest", TagLine: "Practice. Test. Improve.", CanRegister: true}
	},
	GroupPayment: func() any {
		return &PaymentSettings{
			DefaultPaymentProcessor: payment.MethodBank,
			DefaultCurrency:         "USD",
			CurrencySymbol:          "$",
			CurrencySymbolPosition:  "left",
		}
	},
	GroupTax: func() any {
		return &TaxSettings{TaxName: "VAT", TaxType: payment.TaxExclusive, TaxAmountType: payment.TaxPercentage}
	},
	GroupStripe:   func() any { return &StripeSettings{} },
	GroupRazorpay: func() any { return &RazorpaySettings{} },
	GroupBank:     func() any { return &BankSettings{} },
	GroupHome: func() any {
		return &HomeSettings{TopBar: true, Hero: true, Features: true, Pricing: true, Testimonials: true, CTA: true}
	},
}

var Settings = new(SettingsService)

type SettingsService struct{}

// Groups lists the known setting groups.
func (s *SettingsService) Groups() []string {
	groups := make([]string, 0, len(settingDefaults))
	for g := range settingDefaults {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

func cacheKeySettings(group string) string {
	return "settings:" + group
}

// Get returns the typed settings of group, stored values layered over the
// defaults.
func (s *SettingsService) Get(ctx context.Context, group string) (any, error) {
	newDefault, ok := settingDefaults[group]
	if !ok {
		return nil, apperr.NotFound("unknown settings group " + group)
	}

	values, err := cache.Remember(ctx, cache.Default, cacheKeySettings(group), settingsTTL, func() (map[string]json.RawMessage, error) {
		var rows []model.Setting
		if err := database.DB.WithContext(ctx).Where("setting_group = ?", group).Find(&rows).Error; err != nil {
			return nil, err
		}
		out := make(map[string]json.RawMessage, len(rows))
		for _, row := range rows {
			out[row.Name] = json.RawMessage(row.Payload)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	target := newDefault()
	if len(values) == 0 {
		return target, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, target); err != nil {
		logger.Warnf("settings: group %s holds undecodable values: %v", group, err)
		return newDefault(), nil
	}
	return target, nil
}

// Save validates payload against group's schema, upserts one row per field
// and invalidates the cached group.
func (s *SettingsService) Save(ctx context.Context, group string, payload []byte) (any, error) {
	newDefault, ok := settingDefaults[group]
	if !ok {
		return nil, apperr.NotFound("unknown settings group " + group)
	}

	target := newDefault()
	if err := json.Unmarshal(payload, target); err != nil {
		return nil, apperr.Validation("invalid settings payload")
	}
	if err := validation.Struct(target); err != nil {
		return nil, err
	}
	if err := s.store(ctx, group, target); err != nil {
		return nil, err
	}
	return target, nil
}

func (s *SettingsService) store(ctx context.Context, group string, values any) error {
	raw, err := json.Marshal(values)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}

	rows := make([]model.Setting, 0, len(fields))
	for name, value := range fields {
		rows = append(rows, model.Setting{Group: group, Name: name, Payload: string(value)})
	}

	err = database.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_group"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload"}),
	}).Create(&rows).Error
	if err != nil {
		return apperr.Internal("failed to save settings", err)
	}

	cache.Default.Forget(ctx, cacheKeySettings(group))
	return nil
}

// Seed writes the defaults of every group that has no stored rows yet.
// With overwrite set, stored values are replaced by the defaults.
func (s *SettingsService) Seed(ctx context.Context, overwrite bool) ([]string, error) {
	var seeded []string
	for _, group := range s.Groups() {
		if !overwrite {
			var count int64
			if err := database.DB.WithContext(ctx).Model(&model.Setting{}).Where("setting_group = ?", group).Count(&count).Error; err != nil {
				return seeded, err
			}
			if count > 0 {
				continue
			}
		}
		if err := s.store(ctx, group, settingDefaults[group]()); err != nil {
			return seeded, fmt.Errorf("seed %s: %w", group, err)
		}
		seeded = append(seeded, group)
	}
	return seeded, nil
}

func getGroup[T any](ctx context.Context, group string) (T, error) {
	var zero T
	v, err := Settings.Get(ctx, group)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(*T)
	if !ok {
		return zero, errors.New("settings: unexpected type for group " + group)
	}
	return *typed, nil
}

func (s *SettingsService) Site(ctx context.Context) (SiteSettings, error) {
	return getGroup[SiteSettings](ctx, GroupSite)
}

func (s *SettingsService) Payment(ctx context.Context) (PaymentSettings, error) {
	return getGroup[PaymentSettings](ctx, GroupPayment)
}

func (s *SettingsService) Tax(ctx context.Context) (TaxSettings, error) {
	return getGroup[TaxSettings](ctx, GroupTax)
}

func (s *SettingsService) Stripe(ctx context.Context) (StripeSettings, error) {
	return getGroup[StripeSettings](ctx, GroupStripe)
}

func (s *SettingsService) Razorpay(ctx context.Context) (RazorpaySettings, error) {
	return getGroup[RazorpaySettings](ctx, GroupRazorpay)
}

func (s *SettingsService) Bank(ctx context.Context) (BankSettings, error) {
	return getGroup[BankSettings](ctx, GroupBank)
}

func (s *SettingsService) Home(ctx context.Context) (HomeSettings, error) {
	return getGroup[HomeSettings](ctx, GroupHome)
}

// EnabledMethods lists the payment methods that can currently be used for
// checkout.
func (s *SettingsService) EnabledMethods(ctx context.Context) ([]string, error) {
	var methods []string
	stripe, err := s.Stripe(ctx)
	if err != nil {
		return nil, err
	}
	if stripe.Enabled {
		methods = append(methods, payment.MethodStripe)
	}
	razorpay, err := s.Razorpay(ctx)
	if err != nil {
		return nil, err
	}
	if razorpay.Enabled {
		methods = append(methods, payment.MethodRazorpay)
	}
	bank, err := s.Bank(ctx)
	if err != nil {
		return nil, err
	}
	if bank.Enabled {
		methods = append(methods, payment.MethodBank)
	}
	return methods, nil
}

// Public collects the settings exposed without authentication.
func (s *SettingsService) Public(ctx context.Context) (*PublicSettings, error) {
	site, err := s.Site(ctx)
	if err != nil {
		return nil, err
	}
	home, err := s.Home(ctx)
	if err != nil {
		return nil, err
	}
	pay, err := s.Payment(ctx)
	if err != nil {
		return nil, err
	}
	methods, err := s.EnabledMethods(ctx)
	if err != nil {
		return nil, err
	}

	out := &PublicSettings{Site: site, Home: home, PaymentMethods: methods}
	out.Currency.Code = pay.DefaultCurrency
	out.Currency.Symbol = pay.CurrencySymbol
	out.Currency.Position = pay.CurrencySymbolPosition
	return out, nil
}
