package service

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/scoring"
)

var Statistics = &StatisticsService{clock: clockwork.NewRealClock()}

type StatisticsService struct {
	clock clockwork.Clock
}

// SalesStatistics is revenue from successful payments over a range.
type SalesStatistics struct {
	TotalSales    float64                `json:"total_sales"`
	TotalPayments int64                  `json:"total_payments"`
	TimeData      []SalesStatisticsPoint `json:"time_data"`
}

type SalesStatisticsPoint struct {
	TimePoint string  `json:"time_point"` // 2025-01-31, 2025-01 or 2025
	Sales     float64 `json:"sales"`
	Payments  int64   `json:"payments"`
}

type TimeDimension string

const (
	DimensionDay   TimeDimension = "day"
	DimensionMonth TimeDimension = "month"
	DimensionYear  TimeDimension = "year"
)

func (d TimeDimension) layout() (string, bool) {
	switch d {
	case DimensionDay, "":
		return time.DateOnly, true
	case DimensionMonth:
		return "2006-01", true
	case DimensionYear:
		return "2006", true
	}
	return "", false
}

// AdminDashboard holds the counters on the admin home page.
type AdminDashboard struct {
	Users               map[string]int64 `json:"users"` // by role, plus "total"
	Questions           int64            `json:"questions"`
	Exams               int64            `json:"exams"`
	Quizzes             int64            `json:"quizzes"`
	ActiveSubscriptions int64            `json:"active_subscriptions"`
	PaymentsCount       map[string]int64 `json:"payments_count"` // by status, plus "total"
	TotalIncome         float64          `json:"total_income"`
	CurrentMonthIncome  float64          `json:"current_month_income"`
	LastMonthIncome     float64          `json:"last_month_income"`
}

// StudentDashboard summarizes a student's activity.
type StudentDashboard struct {
	Subscriptions    []model.Subscription `json:"subscriptions"`
	RecentExams      []model.ExamSession  `json:"recent_exams"`
	RecentQuizzes    []model.QuizSession  `json:"recent_quizzes"`
	ExamsCompleted   int64                `json:"exams_completed"`
	QuizzesCompleted int64                `json:"quizzes_completed"`
	ExamsPassed      int64                `json:"exams_passed"`
	QuizzesPassed    int64                `json:"quizzes_passed"`
	AverageScore     float64              `json:"average_percentage"`
}

const recentSessions = 5

// Sales buckets successful payments between startTime and endTime. Grouping
// happens here so the query runs unchanged on every supported database.
func (s *StatisticsService) Sales(ctx context.Context, startTime, endTime time.Time, dimension TimeDimension) (*SalesStatistics, error) {
	layout, ok := dimension.layout()
	if !ok {
		return nil, invalidField("dimension", "dimension must be day, month or year")
	}
	if endTime.Before(startTime) {
		return nil, apperr.Validation("end time must not be before start time")
	}

	var payments []model.Payment
	err := database.DB.WithContext(ctx).Model(&model.Payment{}).
		Select("id", "total_amount", "payment_date").
		Where("status = ? AND payment_date BETWEEN ? AND ?", model.PaymentSuccess, startTime, endTime).
		Order("payment_date ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}

	result := &SalesStatistics{TimeData: make([]SalesStatisticsPoint, 0)}
	index := make(map[string]int)
	for _, p := range payments {
		if p.PaymentDate == nil {
			continue
		}
		key := p.PaymentDate.In(startTime.Location()).Format(layout)
		i, seen := index[key]
		if !seen {
			i = len(result.TimeData)
			index[key] = i
			result.TimeData = append(result.TimeData, SalesStatisticsPoint{TimePoint: key})
		}
		result.TimeData[i].Sales += p.TotalAmount
		result.TimeData[i].Payments++
		result.TotalSales += p.TotalAmount
		result.TotalPayments++
	}

	for i := range result.TimeData {
		result.TimeData[i].Sales = scoring.Round2(result.TimeData[i].Sales)
	}
	result.TotalSales = scoring.Round2(result.TotalSales)
	return result, nil
}

func (s *StatisticsService) income(ctx context.Context, from, to *time.Time) (float64, error) {
	var total struct{ Income float64 }
	db := database.DB.WithContext(ctx).Model(&model.Payment{}).Where("status = ?", model.PaymentSuccess)
	if from != nil && to != nil {
		db = db.Where("payment_date >= ? AND payment_date < ?", *from, *to)
	}
	if err := db.Select("COALESCE(SUM(total_amount), 0) AS income").Scan(&total).Error; err != nil {
		return 0, err
	}
	return scoring.Round2(total.Income), nil
}

// groupCount counts rows of m per value of column.
func groupCount(ctx context.Context, m any, column string) (map[string]int64, error) {
	var rows []struct {
		Grp   string
		Count int64
	}
	if err := database.DB.WithContext(ctx).Model(m).
		Select(column + " AS grp, COUNT(*) AS count").
		Group(column).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := map[string]int64{"total": 0}
	for _, r := range rows {
		out[r.Grp] = r.Count
		out["total"] += r.Count
	}
	return out, nil
}

func (s *StatisticsService) Admin(ctx context.Context) (*AdminDashboard, error) {
	result := &AdminDashboard{}
	db := database.DB.WithContext(ctx)
	var err error

	if result.Users, err = groupCount(ctx, &model.User{}, "role"); err != nil {
		return nil, err
	}
	if result.PaymentsCount, err = groupCount(ctx, &model.Payment{}, "status"); err != nil {
		return nil, err
	}
	if err := db.Model(&model.Question{}).Count(&result.Questions).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Exam{}).Count(&result.Exams).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.Quiz{}).Count(&result.Quizzes).Error; err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := db.Model(&model.Subscription{}).
		Where("status = ? AND ends_at > ?", model.SubscriptionActive, now).
		Count(&result.ActiveSubscriptions).Error; err != nil {
		return nil, err
	}

	if result.TotalIncome, err = s.income(ctx, nil, nil); err != nil {
		return nil, err
	}
	currentMonthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	nextMonthStart := currentMonthStart.AddDate(0, 1, 0)
	lastMonthStart := currentMonthStart.AddDate(0, -1, 0)
	if result.CurrentMonthIncome, err = s.income(ctx, &currentMonthStart, &nextMonthStart); err != nil {
		return nil, err
	}
	if result.LastMonthIncome, err = s.income(ctx, &lastMonthStart, &currentMonthStart); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *StatisticsService) Student(ctx context.Context, userID uint) (*StudentDashboard, error) {
	db := database.DB.WithContext(ctx)
	result := &StudentDashboard{
		RecentExams:   make([]model.ExamSession, 0),
		RecentQuizzes: make([]model.QuizSession, 0),
	}

	var err error
	if result.Subscriptions, err = Subscription.ListForUser(ctx, userID); err != nil {
		return nil, err
	}

	if err := db.Preload("Exam", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped().Select("id", "title", "slug", "total_marks")
	}).Omit("results").
		Where("user_id = ? AND status = ?", userID, model.SessionCompleted).
		Order("completed_at DESC").Limit(recentSessions).
		Find(&result.RecentExams).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("Quiz", func(db *gorm.DB) *gorm.DB {
		return db.Unscoped().Select("id", "title", "slug", "total_marks")
	}).Omit("results").
		Where("user_id = ? AND status = ?", userID, model.SessionCompleted).
		Order("completed_at DESC").Limit(recentSessions).
		Find(&result.RecentQuizzes).Error; err != nil {
		return nil, err
	}

	var exams, quizzes struct {
		Completed int64
		Passed    int64
		Total     float64
	}
	summary := "COUNT(*) AS completed, COALESCE(SUM(CASE WHEN passed THEN 1 ELSE 0 END), 0) AS passed, COALESCE(SUM(percentage), 0) AS total"
	if err := db.Model(&model.ExamSession{}).Select(summary).
		Where("user_id = ? AND status = ?", userID, model.SessionCompleted).
		Scan(&exams).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&model.QuizSession{}).Select(summary).
		Where("user_id = ? AND status = ?", userID, model.SessionCompleted).
		Scan(&quizzes).Error; err != nil {
		return nil, err
	}

	result.ExamsCompleted, result.ExamsPassed = exams.Completed, exams.Passed
	result.QuizzesCompleted, result.QuizzesPassed = quizzes.Completed, quizzes.Passed
	if n := exams.Completed + quizzes.Completed; n > 0 {
		result.AverageScore = scoring.Round2((exams.Total + quizzes.Total) / float64(n))
	}
	return result, nil
}
