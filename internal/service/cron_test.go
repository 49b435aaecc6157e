package service

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/pkg/payment"
	"qwiktest/internal/types"
)

func TestCron_RunOnce(t *testing.T) {
	ctx := setup(t)
	clock := clockwork.NewFakeClockAt(testNow)
	useClock(t, clock)
	enableGateways(t, ctx)

	f := newFixture(t, ctx)
	student := newUser(t, ctx, model.RoleStudent)
	exam, _ := f.exam(t, ctx, "Cron Exam", f.msa(t, ctx, "q", 1))
	quiz := f.quiz(t, ctx, "Cron Quiz", f.msa(t, ctx, "q", 1))

	_, err := ExamSession.Start(ctx, student.ID, exam.Slug, types.StartExamRequest{})
	require.NoError(t, err)
	_, err = QuizSession.Start(ctx, student.ID, quiz.Slug)
	require.NoError(t, err)
	plan := f.plan(t, ctx, 10)
	_, err = Subscription.CreateManual(ctx, types.ManualSubscriptionRequest{UserID: student.ID, PlanID: plan.ID})
	require.NoError(t, err)

	other := newUser(t, ctx, model.RoleStudent)
	_, err = Payment.Checkout(ctx, other.ID, types.CheckoutRequest{PlanID: plan.ID, PaymentMethod: payment.MethodStripe})
	require.NoError(t, err)
	require.NoError(t, database.DB.Model(&model.Payment{}).Where("1 = 1").Update("created_at", testNow).Error)

	cron := NewCron(clock)
	affected := cron.RunOnce(ctx)
	assert.Zero(t, affected["finish_exam_sessions"])
	assert.Zero(t, affected["expire_subscriptions"])

	clock.Advance(100 * 24 * time.Hour)
	affected = cron.RunOnce(ctx)
	assert.Equal(t, int64(1), affected["finish_exam_sessions"])
	assert.Equal(t, int64(1), affected["finish_quiz_sessions"])
	assert.Equal(t, int64(1), affected["expire_subscriptions"])
	assert.Equal(t, int64(1), affected["cancel_stale_payments"])

	sub, err := Subscription.Active(ctx, student.ID, f.subCategory.ID)
	require.NoError(t, err)
	assert.Nil(t, sub)
}

func TestCron_StartStop(t *testing.T) {
	clock := clockwork.NewFakeClock()

	idle := NewCron(clock)
	idle.Stop()
	idle.Stop()

	cron := NewCron(clock)
	cron.Start(time.Minute)
	cron.Stop()
}
