package service

import (
	"context"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/payment"
	"qwiktest/internal/types"
)

var Plan = new(PlanService)

type PlanService struct{}

// PricedPlan is a plan together with its checkout price.
type PricedPlan struct {
	model.Plan
	Quote payment.Quote `json:"quote"`
}

func (s *PlanService) List(ctx context.Context, subCategoryID uint, q types.PageQuery) ([]model.Plan, int64, error) {
	db := database.DB.WithContext(ctx).Model(&model.Plan{}).Preload("SubCategory")
	if subCategoryID != 0 {
		db = db.Where("sub_category_id = ?", subCategoryID)
	}
	if q.Search != "" {
		db = db.Where("name LIKE ? OR code LIKE ?", like(q.Search), like(q.Search))
	}
	return paginate[model.Plan](db, q, "sort_order ASC, id ASC")
}

func (s *PlanService) Get(ctx context.Context, id uint) (*model.Plan, error) {
	var plan model.Plan
	if err := database.DB.WithContext(ctx).Preload("SubCategory").First(&plan, id).Error; err != nil {
		return nil, notFound(err, "plan")
	}
	return &plan, nil
}

func planFeatures(req types.PlanRequest) model.StringArray {
	if !req.FeatureRestrictions {
		return model.StringArray{}
	}
	return model.StringArray(req.Features)
}

func (s *PlanService) Create(ctx context.Context, req types.PlanRequest) (*model.Plan, error) {
	if err := exists(ctx, &model.SubCategory{}, req.SubCategoryID, "sub-category"); err != nil {
		return nil, err
	}
	if req.FeatureRestrictions && len(req.Features) == 0 {
		return nil, apperr.Validation("features are required").WithField("features", "select at least one feature")
	}

	plan := &model.Plan{
		Code:                newCode("plan"),
		SubCategoryID:       req.SubCategoryID,
		Name:                req.Name,
		Description:         req.Description,
		Duration:            req.Duration,
		Price:               req.Price,
		HasDiscount:         req.HasDiscount,
		DiscountPercentage:  req.DiscountPercentage,
		FeatureRestrictions: req.FeatureRestrictions,
		Features:            planFeatures(req),
		IsActive:            boolOr(req.IsActive, true),
		IsPopular:           req.IsPopular,
		SortOrder:           req.SortOrder,
	}
	if err := database.DB.WithContext(ctx).Create(plan).Error; err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *PlanService) Update(ctx context.Context, id uint, req types.PlanRequest) (*model.Plan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := exists(ctx, &model.SubCategory{}, req.SubCategoryID, "sub-category"); err != nil {
		return nil, err
	}
	if req.FeatureRestrictions && len(req.Features) == 0 {
		return nil, apperr.Validation("features are required").WithField("features", "select at least one feature")
	}

	err = database.DB.WithContext(ctx).Model(&model.Plan{}).Where("id = ?", id).Updates(map[string]any{
		"sub_category_id":      req.SubCategoryID,
		"name":                 req.Name,
		"description":          req.Description,
		"duration":             req.Duration,
		"price":                req.Price,
		"has_discount":         req.HasDiscount,
		"discount_percentage":  req.DiscountPercentage,
		"feature_restrictions": req.FeatureRestrictions,
		"features":             planFeatures(req),
		"is_active":            boolOr(req.IsActive, plan.IsActive),
		"is_popular":           req.IsPopular,
		"sort_order":           req.SortOrder,
	}).Error
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Delete refuses plans that have subscriptions.
func (s *PlanService) Delete(ctx context.Context, id uint) error {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := guardChildren(ctx, &model.Subscription{}, "plan_id", id, "plan has subscriptions, deactivate it instead"); err != nil {
		return err
	}
	return database.DB.WithContext(ctx).Delete(plan).Error
}

// Quote prices a plan with the current tax settings.
func (s *PlanService) Quote(ctx context.Context, plan *model.Plan) (payment.Quote, error) {
	tax, err := Settings.Tax(ctx)
	if err != nil {
		return payment.Quote{}, err
	}
	return payment.Calculate(plan.Price, plan.HasDiscount, plan.DiscountPercentage, tax.Rule()), nil
}

// Pricing lists the active plans of a sub-category with their prices.
func (s *PlanService) Pricing(ctx context.Context, subCategoryID uint) ([]PricedPlan, error) {
	db := database.DB.WithContext(ctx).Where("is_active = ?", true)
	if subCategoryID != 0 {
		db = db.Where("sub_category_id = ?", subCategoryID)
	}
	var plans []model.Plan
	if err := db.Order("sort_order ASC, id ASC").Find(&plans).Error; err != nil {
		return nil, err
	}

	tax, err := Settings.Tax(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]PricedPlan, 0, len(plans))
	for _, plan := range plans {
		out = append(out, PricedPlan{
			Plan:  plan,
			Quote: payment.Calculate(plan.Price, plan.HasDiscount, plan.DiscountPercentage, tax.Rule()),
		})
	}
	return out, nil
}
