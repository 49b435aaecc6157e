package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/payment"
	"qwiktest/internal/types"
)

func paid(t *testing.T, ctx context.Context, user *model.User, plan *model.Plan, total float64, at time.Time) {
	t.Helper()
	p := &model.Payment{
		Code:          newPaymentCode(),
		UserID:        user.ID,
		PlanID:        plan.ID,
		PaymentMethod: payment.MethodBank,
		Currency:      "USD",
		Amount:        total,
		TotalAmount:   total,
		Status:        model.PaymentSuccess,
		PaymentDate:   &at,
	}
	require.NoError(t, database.DB.WithContext(ctx).Create(p).Error)
}

func TestStatistics_Sales(t *testing.T) {
	ctx := setup(t)
	useClock(t, clockwork.NewFakeClockAt(testNow))
	f := newFixture(t, ctx)
	student := newUser(t, ctx, model.RoleStudent)
	plan := f.plan(t, ctx, 10)

	paid(t, ctx, student, plan, 10.10, time.Date(2025, 2, 3, 10, 0, 0, 0, time.UTC))
	paid(t, ctx, student, plan, 20.20, time.Date(2025, 2, 3, 18, 0, 0, 0, time.UTC))
	paid(t, ctx, student, plan, 5, time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC))
	paid(t, ctx, student, plan, 99, time.Date(2024, 12, 31, 8, 0, 0, 0, time.UTC))

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	byDay, err := Statistics.Sales(ctx, start, end, DimensionDay)
	require.NoError(t, err)
	assert.Equal(t, int64(3), byDay.TotalPayments)
	assert.Equal(t, 35.3, byDay.TotalSales)
	require.Len(t, byDay.TimeData, 2)
	assert.Equal(t, SalesStatisticsPoint{TimePoint: "2025-02-03", Sales: 30.3, Payments: 2}, byDay.TimeData[0])
	assert.Equal(t, "2025-03-01", byDay.TimeData[1].TimePoint)

	byMonth, err := Statistics.Sales(ctx, start, end, DimensionMonth)
	require.NoError(t, err)
	require.Len(t, byMonth.TimeData, 2)
	assert.Equal(t, "2025-02", byMonth.TimeData[0].TimePoint)
	assert.Equal(t, "2025-03", byMonth.TimeData[1].TimePoint)

	byYear, err := Statistics.Sales(ctx, start.AddDate(-1, 0, 0), end, DimensionYear)
	require.NoError(t, err)
	require.Len(t, byYear.TimeData, 2)
	assert.Equal(t, SalesStatisticsPoint{TimePoint: "2024", Sales: 99, Payments: 1}, byYear.TimeData[0])

	_, err = Statistics.Sales(ctx, start, end, "week")
	assertType(t, err, apperr.TypeValidation)
	_, err = Statistics.Sales(ctx, end, start, DimensionDay)
	assertType(t, err, apperr.TypeValidation)
}

func TestStatistics_Admin(t *testing.T) {
	ctx := setup(t)
	useClock(t, clockwork.NewFakeClockAt(testNow))
	f := newFixture(t, ctx)
	newUser(t, ctx, model.RoleAdmin)
	student := newUser(t, ctx, model.RoleStudent)
	newUser(t, ctx, model.RoleStudent)
	plan := f.plan(t, ctx, 10)
	f.msa(t, ctx, "q", 1)

	paid(t, ctx, student, plan, 40, testNow.Add(-time.Hour))
	paid(t, ctx, student, plan, 15, time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC))
	paid(t, ctx, student, plan, 5, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC))

	d, err := Statistics.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.Users["total"])
	assert.Equal(t, int64(2), d.Users[model.RoleStudent])
	assert.Equal(t, int64(1), d.Users[model.RoleAdmin])
	assert.Equal(t, int64(1), d.Questions)
	assert.Equal(t, int64(3), d.PaymentsCount[model.PaymentSuccess])
	assert.Equal(t, 60.0, d.TotalIncome)
	assert.Equal(t, 40.0, d.CurrentMonthIncome)
	assert.Equal(t, 15.0, d.LastMonthIncome)
	assert.Zero(t, d.ActiveSubscriptions)
}

func TestStatistics_Student(t *testing.T) {
	ctx := setup(t)
	clock := clockwork.NewFakeClockAt(testNow)
	useClock(t, clock)
	f := newFixture(t, ctx)
	student := newUser(t, ctx, model.RoleStudent)
	q := f.msa(t, ctx, "1 + 1 = ?", 1)
	exam, _ := f.exam(t, ctx, "Dashboard Exam", q)
	quiz := f.quiz(t, ctx, "Dashboard Quiz", q)

	empty, err := Statistics.Student(ctx, student.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.RecentExams)
	assert.Zero(t, empty.AverageScore)

	es, err := ExamSession.Start(ctx, student.ID, exam.Slug, types.StartExamRequest{})
	require.NoError(t, err)
	view, err := ExamSession.Questions(ctx, student.ID, es.Code)
	require.NoError(t, err)
	_, err = ExamSession.Answer(ctx, student.ID, es.Code, view.Questions[0].ID, answered("2"))
	require.NoError(t, err)
	_, err = ExamSession.Finish(ctx, student.ID, es.Code)
	require.NoError(t, err)

	qs, err := QuizSession.Start(ctx, student.ID, quiz.Slug)
	require.NoError(t, err)
	_, err = QuizSession.Finish(ctx, student.ID, qs.Code)
	require.NoError(t, err)

	d, err := Statistics.Student(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.ExamsCompleted)
	assert.Equal(t, int64(1), d.ExamsPassed)
	assert.Equal(t, int64(1), d.QuizzesCompleted)
	assert.Equal(t, int64(0), d.QuizzesPassed)
	assert.Equal(t, 50.0, d.AverageScore)
	require.Len(t, d.RecentExams, 1)
	require.NotNil(t, d.RecentExams[0].Exam)
	assert.Equal(t, "Dashboard Exam", d.RecentExams[0].Exam.Title)
	require.Len(t, d.RecentQuizzes, 1)
}
