package model

import (
	"time"

	"gorm.io/gorm"
)

// Plan features.
const (
	FeatureQuizzes  = "quizzes"
	FeatureExams    = "exams"
	FeaturePractice = "practice"
)

type Plan struct {
	ID                  uint           `json:"id" gorm:"primarykey"`
	Code                string         `json:"code" gorm:"size:32;uniqueIndex"`
	SubCategoryID       uint           `json:"sub_category_id" gorm:"index"`
	SubCategory         *SubCategory   `json:"sub_category,omitempty"`
	Name                string         `json:"name" gorm:"size:100"`
	Description         string         `json:"description" gorm:"type:text"`
	Duration            int            `json:"duration"` // months
	Price               float64        `json:"price"`
	HasDiscount         bool           `json:"has_discount"`
	DiscountPercentage  float64        `json:"discount_percentage"`
	FeatureRestrictions bool           `json:"feature_restrictions"`
	Features            StringArray    `json:"features" gorm:"type:json"`
	IsActive            bool           `json:"is_active"`
	IsPopular           bool           `json:"is_popular"`
	SortOrder           int            `json:"sort_order"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`
	DeletedAt           gorm.DeletedAt `json:"-" gorm:"index"`
}

// Includes reports whether the plan unlocks feature. Unrestricted plans
// unlock everything.
func (p *Plan) Includes(feature string) bool {
	if !p.FeatureRestrictions {
		return true
	}
	for _, f := range p.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// Subscription statuses.
const (
	SubscriptionCreated   = "created"
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

type Subscription struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	Code          string    `json:"code" gorm:"size:40;uniqueIndex"`
	UserID        uint      `json:"user_id" gorm:"index"`
	User          *User     `json:"user,omitempty"`
	PlanID        uint      `json:"plan_id" gorm:"index"`
	Plan          *Plan     `json:"plan,omitempty"`
	SubCategoryID uint      `json:"sub_category_id" gorm:"index"`
	PaymentID     *uint     `json:"payment_id" gorm:"index"`
	StartsAt      time.Time `json:"starts_at"`
	EndsAt        time.Time `json:"ends_at" gorm:"index"`
	Status        string    `json:"status" gorm:"size:16;index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Payment statuses.
const (
	PaymentPending   = "pending"
	PaymentSuccess   = "success"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
)

type Payment struct {
	ID            uint       `json:"id" gorm:"primarykey"`
	Code          string     `json:"code" gorm:"size:48;uniqueIndex"`
	UserID        uint       `json:"user_id" gorm:"index"`
	User          *User      `json:"user,omitempty"`
	PlanID        uint       `json:"plan_id" gorm:"index"`
	Plan          *Plan      `json:"plan,omitempty"`
	PaymentMethod string     `json:"payment_method" gorm:"size:16;index"`
	TransactionID string     `json:"transaction_id" gorm:"size:100;index"`
	Currency      string     `json:"currency" gorm:"size:8"`
	Amount        float64    `json:"amount"`
	Tax           float64    `json:"tax"`
	TotalAmount   float64    `json:"total_amount"`
	Status        string     `json:"status" gorm:"size:16;index"`
	PaymentDate   *time.Time `json:"payment_date" gorm:"index"`
	Data          JSONMap    `json:"data" gorm:"type:json"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
