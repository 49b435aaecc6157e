package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/logger"
	"qwiktest/internal/pkg/mail"
	"qwiktest/internal/pkg/metrics"
	"qwiktest/internal/pkg/payment"
	"qwiktest/internal/types"
)

// Gateway payments left pending this long are cancelled by the cron job.
const stalePaymentAge = 24 * time.Hour

var Payment = &PaymentService{clock: clockwork.NewRealClock()}

type PaymentService struct {
	clock clockwork.Clock
}

type CheckoutResult struct {
	Payment *model.Payment          `json:"payment"`
	Params  *payment.CheckoutParams `json:"checkout"`
}

func newPaymentCode() string {
	return "pay_" + uuid.NewString()
}

// methodSettings checks that method is enabled and returns its public key and
// bank details.
func (s *PaymentService) methodSettings(ctx context.Context, method string) (string, map[string]string, error) {
	unavailable := apperr.Validation("payment method is not available").WithField("payment_method", "payment method is not available")

	switch method {
	case payment.MethodStripe:
		cfg, err := Settings.Stripe(ctx)
		if err != nil {
			return "", nil, err
		}
		if !cfg.Enabled {
			return "", nil, unavailable
		}
		return cfg.APIKey, nil, nil
	case payment.MethodRazorpay:
		cfg, err := Settings.Razorpay(ctx)
		if err != nil {
			return "", nil, err
		}
		if !cfg.Enabled {
			return "", nil, unavailable
		}
		return cfg.KeyID, nil, nil
	case payment.MethodBank:
		cfg, err := Settings.Bank(ctx)
		if err != nil {
			return "", nil, err
		}
		if !cfg.Enabled {
			return "", nil, unavailable
		}
		return "", map[string]string{
			"bank_name":      cfg.BankName,
			"account_owner":  cfg.AccountOwner,
			"account_number": cfg.AccountNumber,
			"iban":           cfg.IBAN,
			"routing_number": cfg.RoutingNumber,
			"other_details":  cfg.OtherDetails,
		}, nil
	default:
		return "", nil, unavailable
	}
}

// Checkout creates a pending payment for plan and returns what the
// client-side gateway widget needs. Free plans are activated right away.
func (s *PaymentService) Checkout(ctx context.Context, userID uint, req types.CheckoutRequest) (*CheckoutResult, error) {
	plan, err := Plan.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, apperr.NotFound("plan not found")
	}

	active, err := Subscription.Active(ctx, userID, plan.SubCategoryID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperr.Conflict("you already have an active subscription for this sub-category")
	}

	quote, err := Plan.Quote(ctx, plan)
	if err != nil {
		return nil, err
	}
	paySettings, err := Settings.Payment(ctx)
	if err != nil {
		return nil, err
	}

	p := &model.Payment{
		Code:          newPaymentCode(),
		UserID:        userID,
		PlanID:        plan.ID,
		PaymentMethod: req.PaymentMethod,
		Currency:      strings.ToUpper(paySettings.DefaultCurrency),
		Amount:        quote.Amount,
		Tax:           quote.Tax,
		TotalAmount:   quote.Total,
		Status:        model.PaymentPending,
		Data: model.JSONMap{
			"quote":           quote,
			"plan_name":       plan.Name,
			"sub_category_id": plan.SubCategoryID,
		},
	}

	if quote.Total == 0 {
		if err := database.DB.WithContext(ctx).Create(p).Error; err != nil {
			return nil, err
		}
		if _, err := s.complete(ctx, p.ID, "free", nil); err != nil {
			return nil, err
		}
		p, err = s.Get(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		return &CheckoutResult{Payment: p, Params: &payment.CheckoutParams{Method: p.PaymentMethod, Reference: p.Code, Currency: p.Currency}}, nil
	}

	publicKey, bankDetails, err := s.methodSettings(ctx, req.PaymentMethod)
	if err != nil {
		return nil, err
	}
	if err := database.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	metrics.Payments.WithLabelValues(p.PaymentMethod, model.PaymentPending).Inc()

	return &CheckoutResult{
		Payment: p,
		Params: &payment.CheckoutParams{
			Method:      p.PaymentMethod,
			Reference:   p.Code,
			Amount:      p.TotalAmount,
			AmountMinor: payment.MinorUnits(p.TotalAmount),
			Currency:    p.Currency,
			PublicKey:   publicKey,
			Description: plan.Name,
			BankDetails: bankDetails,
		},
	}, nil
}

// HandleStripe verifies and applies a Stripe webhook.
func (s *PaymentService) HandleStripe(ctx context.Context, payload []byte, signature string) error {
	cfg, err := Settings.Stripe(ctx)
	if err != nil {
		return err
	}
	if err := payment.VerifyStripe(payload, signature, cfg.WebhookSecret, s.clock.Now()); err != nil {
		logger.Warnf("stripe webhook rejected: %v", err)
		return apperr.BadRequest("invalid webhook signature")
	}
	n, err := payment.ParseStripe(payload)
	if err != nil {
		return apperr.BadRequest("invalid webhook payload")
	}
	return s.apply(ctx, n)
}

// HandleRazorpay verifies and applies a Razorpay webhook.
func (s *PaymentService) HandleRazorpay(ctx context.Context, payload []byte, signature string) error {
	cfg, err := Settings.Razorpay(ctx)
	if err != nil {
		return err
	}
	if err := payment.VerifyRazorpay(payload, signature, cfg.WebhookSecret); err != nil {
		logger.Warnf("razorpay webhook rejected: %v", err)
		return apperr.BadRequest("invalid webhook signature")
	}
	n, err := payment.ParseRazorpay(payload)
	if err != nil {
		return apperr.BadRequest("invalid webhook payload")
	}
	return s.apply(ctx, n)
}

// apply moves a payment according to a verified notification. Unknown
// references and repeated notifications are acknowledged without changes.
func (s *PaymentService) apply(ctx context.Context, n *payment.Notification) error {
	if n.Outcome == payment.OutcomeIgnored {
		return nil
	}
	log := logger.With("method", n.Method, "event", n.EventType, "reference", n.Reference)

	var p model.Payment
	err := database.DB.WithContext(ctx).Where("code = ?", n.Reference).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		log.Warn("webhook for unknown payment")
		return nil
	}
	if err != nil {
		return err
	}
	if p.PaymentMethod != n.Method {
		log.Warn("webhook method does not match payment", "payment_method", p.PaymentMethod)
		return nil
	}

	data := map[string]any{"event": n.EventType}
	var raw map[string]any
	if err := json.Unmarshal(n.Raw, &raw); err == nil {
		data["webhook"] = raw
	}

	switch n.Outcome {
	case payment.OutcomeSuccess:
		if n.AmountMinor != 0 && n.AmountMinor != payment.MinorUnits(p.TotalAmount) {
			log.Error("webhook amount does not match payment", "expected", payment.MinorUnits(p.TotalAmount), "got", n.AmountMinor)
			return nil
		}
		_, err := s.complete(ctx, p.ID, n.TransactionID, data)
		return err
	case payment.OutcomeFailed:
		return s.fail(ctx, p.ID, model.PaymentFailed, n.TransactionID, data)
	}
	return nil
}

// complete marks a payment successful and activates its subscription in one
// transaction. It reports false when the payment was already settled.
func (s *PaymentService) complete(ctx context.Context, paymentID uint, transactionID string, data map[string]any) (bool, error) {
	now := s.clock.Now()
	var p model.Payment
	var sub *model.Subscription

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, paymentID).Error; err != nil {
			return notFound(err, "payment")
		}
		if p.Status == model.PaymentSuccess {
			return nil
		}

		merged := model.JSONMap{}
		for k, v := range p.Data {
			merged[k] = v
		}
		for k, v := range data {
			merged[k] = v
		}

		// The status guard makes concurrent deliveries settle the payment once.
		res := tx.Model(&model.Payment{}).
			Where("id = ? AND status <> ?", p.ID, model.PaymentSuccess).
			Updates(map[string]any{
				"status":         model.PaymentSuccess,
				"transaction_id": transactionID,
				"payment_date":   now,
				"data":           merged,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}

		var plan model.Plan
		if err := tx.Unscoped().First(&plan, p.PlanID).Error; err != nil {
			return err
		}
		var err error
		sub, err = Subscription.activate(tx, p.UserID, &plan, &p.ID, now)
		return err
	})
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}

	metrics.Payments.WithLabelValues(p.PaymentMethod, model.PaymentSuccess).Inc()
	logger.Infof("payment %s settled, subscription %s active until %s", p.Code, sub.Code, sub.EndsAt.Format(time.DateOnly))
	s.sendReceipt(ctx, &p, sub)
	return true, nil
}

func (s *PaymentService) fail(ctx context.Context, paymentID uint, status, transactionID string, data map[string]any) error {
	var p model.Payment
	if err := database.DB.WithContext(ctx).First(&p, paymentID).Error; err != nil {
		return notFound(err, "payment")
	}
	if p.Status != model.PaymentPending {
		return nil
	}

	merged := model.JSONMap{}
	for k, v := range p.Data {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	updates := map[string]any{"status": status, "data": merged}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}
	res := database.DB.WithContext(ctx).Model(&model.Payment{}).
		Where("id = ? AND status = ?", p.ID, model.PaymentPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		metrics.Payments.WithLabelValues(p.PaymentMethod, status).Inc()
	}
	return nil
}

func (s *PaymentService) sendReceipt(ctx context.Context, p *model.Payment, sub *model.Subscription) {
	user, err := User.Get(ctx, p.UserID)
	if err != nil {
		logger.Warnf("receipt for payment %s: %v", p.Code, err)
		return
	}
	site, err := Settings.Site(ctx)
	if err != nil {
		site = SiteSettings{AppName: "QwikTest"}
	}
	planName, _ := p.Data["plan_name"].(string)

	mail.SendAsync(mail.Message{
		ToName:    user.FullName(),
		ToAddress: user.Email,
		Subject:   fmt.Sprintf("%s payment receipt %s", site.AppName, p.Code),
		Text: fmt.Sprintf(
			"Hi %s,\n\nwe received your payment of %.2f %s for %s.\nYour subscription is active until %s.\n\nReference: %s",
			user.FirstName, p.TotalAmount, p.Currency, planName, sub.EndsAt.Format(time.DateOnly), p.Code,
		),
	})
}

// Approve settles a pending bank transfer.
func (s *PaymentService) Approve(ctx context.Context, id uint) (*model.Payment, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.PaymentMethod != payment.MethodBank {
		return nil, apperr.Validation("only bank transfers can be approved manually")
	}
	if p.Status != model.PaymentPending {
		return nil, apperr.Conflict("payment is not pending")
	}

	if _, err := s.complete(ctx, id, p.Code, map[string]any{"approved_at": s.clock.Now()}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Reject fails a pending bank transfer.
func (s *PaymentService) Reject(ctx context.Context, id uint) (*model.Payment, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.PaymentMethod != payment.MethodBank {
		return nil, apperr.Validation("only bank transfers can be rejected manually")
	}
	if p.Status != model.PaymentPending {
		return nil, apperr.Conflict("payment is not pending")
	}
	if err := s.fail(ctx, id, model.PaymentFailed, "", map[string]any{"rejected_at": s.clock.Now()}); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *PaymentService) List(ctx context.Context, q types.PaymentQuery) ([]model.Payment, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.Payment{}).Preload("User").Preload("Plan")
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.Method != "" {
		db = db.Where("payment_method = ?", q.Method)
	}
	if q.UserID != 0 {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.Search != "" {
		db = db.Where("code LIKE ? OR transaction_id LIKE ?", like(q.Search), like(q.Search))
	}
	return paginate[model.Payment](db, q.PageQuery, "id DESC")
}

func (s *PaymentService) Get(ctx context.Context, id uint) (*model.Payment, error) {
	var p model.Payment
	if err := database.DB.WithContext(ctx).Preload("User").Preload("Plan").First(&p, id).Error; err != nil {
		return nil, notFound(err, "payment")
	}
	return &p, nil
}

func (s *PaymentService) ListForUser(ctx context.Context, userID uint, q types.PageQuery) ([]model.Payment, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.Payment{}).Preload("Plan").Where("user_id = ?", userID)
	return paginate[model.Payment](db, q, "id DESC")
}

func (s *PaymentService) GetForUser(ctx context.Context, userID uint, code string) (*model.Payment, error) {
	var p model.Payment
	if err := database.DB.WithContext(ctx).Preload("Plan").Where("user_id = ? AND code = ?", userID, code).First(&p).Error; err != nil {
		return nil, notFound(err, "payment")
	}
	return &p, nil
}

// CancelStale cancels gateway payments that stayed pending for a day.
// Bank transfers wait for an admin decision.
func (s *PaymentService) CancelStale(ctx context.Context) (int64, error) {
	res := database.DB.WithContext(ctx).Model(&model.Payment{}).
		Where("status = ? AND payment_method IN ? AND created_at <= ?",
			model.PaymentPending,
			[]string{payment.MethodStripe, payment.MethodRazorpay},
			s.clock.Now().Add(-stalePaymentAge)).
		Update("status", model.PaymentCancelled)
	return res.RowsAffected, res.Error
}
