package types

type PlanRequest struct {
	SubCategoryID       uint     `json:"sub_category_id" binding:"required"`
	Name                string   `json:"name" binding:"required,max=100"`
	Description         string   `json:"description"`
	Duration            int      `json:"duration" binding:"required,min=1,max=120"`
	Price               float64  `json:"price" binding:"gte=0"`
	HasDiscount         bool     `json:"has_discount"`
	DiscountPercentage  float64  `json:"discount_percentage" binding:"gte=0,lte=100"`
	FeatureRestrictions bool     `json:"feature_restrictions"`
	Features            []string `json:"features" binding:"dive,oneof=quizzes exams practice"`
	IsActive            *bool    `json:"is_active"`
	IsPopular           bool     `json:"is_popular"`
	SortOrder           int      `json:"sort_order"`
}

type CheckoutRequest struct {
	PlanID        uint   `json:"plan_id" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required,payment_method"`
}

type ManualSubscriptionRequest struct {
	UserID uint `json:"user_id" binding:"required"`
	PlanID uint `json:"plan_id" binding:"required"`
}

type PaymentQuery struct {
	PageQuery
	Status string `form:"status" binding:"omitempty,oneof=pending success failed cancelled"`
	Method string `form:"method"`
	UserID uint   `form:"user_id"`
}

type SubscriptionQuery struct {
	PageQuery
	Status string `form:"status" binding:"omitempty,oneof=created active expired cancelled"`
	UserID uint   `form:"user_id"`
	PlanID uint   `form:"plan_id"`
}
