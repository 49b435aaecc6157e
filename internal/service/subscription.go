package service

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/logger"
	"qwiktest/internal/types"
)

var Subscription = &SubscriptionService{clock: clockwork.NewRealClock()}

type SubscriptionService struct {
	clock clockwork.Clock
}

// Active returns the user's running subscription for a sub-category, or nil.
func (s *SubscriptionService) Active(ctx context.Context, userID, subCategoryID uint) (*model.Subscription, error) {
	var sub model.Subscription
	err := database.DB.WithContext(ctx).Preload("Plan").
		Where("user_id = ? AND sub_category_id = ? AND status = ? AND ends_at > ?",
			userID, subCategoryID, model.SubscriptionActive, s.clock.Now()).
		Order("ends_at DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// HasAccess reports whether the user holds a running subscription to the
// sub-category whose plan includes feature.
func (s *SubscriptionService) HasAccess(ctx context.Context, userID, subCategoryID uint, feature string) (bool, error) {
	var subs []model.Subscription
	err := database.DB.WithContext(ctx).Preload("Plan").
		Where("user_id = ? AND sub_category_id = ? AND status = ? AND ends_at > ?",
			userID, subCategoryID, model.SubscriptionActive, s.clock.Now()).
		Find(&subs).Error
	if err != nil {
		return false, err
	}
	for _, sub := range subs {
		if sub.Plan != nil && sub.Plan.Includes(feature) {
			return true, nil
		}
	}
	return false, nil
}

// CanUse is HasAccess for paid content; free content is open to everyone.
func (s *SubscriptionService) CanUse(ctx context.Context, userID uint, isPaid bool, subCategoryID uint, feature string) (bool, error) {
	if !isPaid {
		return true, nil
	}
	return s.HasAccess(ctx, userID, subCategoryID, feature)
}

// activate creates an active subscription for plan starting now.
func (s *SubscriptionService) activate(tx *gorm.DB, userID uint, plan *model.Plan, paymentID *uint, now time.Time) (*model.Subscription, error) {
	sub := &model.Subscription{
		Code:          newCode("sub"),
		UserID:        userID,
		PlanID:        plan.ID,
		SubCategoryID: plan.SubCategoryID,
		PaymentID:     paymentID,
		StartsAt:      now,
		EndsAt:        now.AddDate(0, plan.Duration, 0),
		Status:        model.SubscriptionActive,
	}
	if err := tx.Create(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubscriptionService) ListForUser(ctx context.Context, userID uint) ([]model.Subscription, error) {
	subs := make([]model.Subscription, 0)
	err := database.DB.WithContext(ctx).Preload("Plan").Preload("Plan.SubCategory").
		Where("user_id = ?", userID).Order("id DESC").Find(&subs).Error
	return subs, err
}

func (s *SubscriptionService) List(ctx context.Context, q types.SubscriptionQuery) ([]model.Subscription, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.Subscription{}).Preload("User").Preload("Plan")
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.UserID != 0 {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.PlanID != 0 {
		db = db.Where("plan_id = ?", q.PlanID)
	}
	if q.Search != "" {
		db = db.Where("code LIKE ?", like(q.Search))
	}
	return paginate[model.Subscription](db, q.PageQuery, "id DESC")
}

func (s *SubscriptionService) Get(ctx context.Context, id uint) (*model.Subscription, error) {
	var sub model.Subscription
	if err := database.DB.WithContext(ctx).Preload("User").Preload("Plan").First(&sub, id).Error; err != nil {
		return nil, notFound(err, "subscription")
	}
	return &sub, nil
}

// CreateManual grants a plan without a payment.
func (s *SubscriptionService) CreateManual(ctx context.Context, req types.ManualSubscriptionRequest) (*model.Subscription, error) {
	if _, err := User.Get(ctx, req.UserID); err != nil {
		return nil, err
	}
	plan, err := Plan.Get(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	active, err := s.Active(ctx, req.UserID, plan.SubCategoryID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		return nil, apperr.Conflict("user already has an active subscription for this sub-category")
	}

	sub, err := s.activate(database.DB.WithContext(ctx), req.UserID, plan, nil, s.clock.Now())
	if err != nil {
		return nil, err
	}
	logger.Infof("manual subscription %s granted to user %d", sub.Code, req.UserID)
	return s.Get(ctx, sub.ID)
}

func (s *SubscriptionService) Cancel(ctx context.Context, id uint) (*model.Subscription, error) {
	sub, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.Status != model.SubscriptionActive && sub.Status != model.SubscriptionCreated {
		return nil, apperr.Conflict("only active subscriptions can be cancelled")
	}
	if err := database.DB.WithContext(ctx).Model(sub).Update("status", model.SubscriptionCancelled).Error; err != nil {
		return nil, err
	}
	sub.Status = model.SubscriptionCancelled
	return sub, nil
}

// ExpireDue marks active subscriptions past their end as expired.
func (s *SubscriptionService) ExpireDue(ctx context.Context) (int64, error) {
	res := database.DB.WithContext(ctx).Model(&model.Subscription{}).
		Where("status = ? AND ends_at <= ?", model.SubscriptionActive, s.clock.Now()).
		Update("status", model.SubscriptionExpired)
	return res.RowsAffected, res.Error
}
