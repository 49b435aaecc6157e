package service

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/types"
)

func TestQuizSession_ManualMarksAndPercentagePenalty(t *testing.T) {
	ctx := setup(t)
	clock := clockwork.NewFakeClockAt(testNow)
	useClock(t, clock)

	f := newFixture(t, ctx)
	student := newUser(t, ctx, model.RoleStudent)
	q1 := f.msa(t, ctx, "a", 1)
	q2 := f.msa(t, ctx, "b", 1)
	quiz := f.quiz(t, ctx, "Daily Quiz", q1, q2)
	assert.Equal(t, 2, quiz.TotalDuration)

	settings := types.QuizSettingsRequest(quiz.Settings)
	settings.MarksMode = model.ModeManual
	settings.CorrectMarks = 4
	settings.NegativeMarking = true
	settings.NegativeMarkingType = "percentage"
	settings.NegativeMarks = 25
	settings.PassPercentage = 40
	quiz, err := Quiz.UpdateSettings(ctx, quiz.ID, settings)
	require.NoError(t, err)
	assert.Equal(t, 8.0, quiz.TotalMarks)

	session, err := QuizSession.Start(ctx, student.ID, quiz.Slug)
	require.NoError(t, err)
	assert.True(t, session.EndsAt.Equal(testNow.Add(2*time.Minute)))

	view, err := QuizSession.Questions(ctx, student.ID, session.Code)
	require.NoError(t, err)
	require.Len(t, view.Questions, 2)
	assert.Equal(t, 4.0, view.Questions[0].Marks)
	ids := sessionQuestionIDs(view)

	_, err = QuizSession.Answer(ctx, student.ID, session.Code, ids[q1.ID], answered("2"))
	require.NoError(t, err)
	_, err = QuizSession.Answer(ctx, student.ID, session.Code, ids[q2.ID], types.AnswerRequest{
		Status: model.QuestionAnsweredMarkForReview, Answer: []string{"3"}, TimeTaken: 20,
	})
	require.NoError(t, err)

	clock.Advance(time.Minute)
	res, err := QuizSession.Finish(ctx, student.ID, session.Code)
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Result.Score)
	assert.Equal(t, 1.0, res.Result.MarksDeducted)
	assert.Equal(t, 37.5, res.Result.Percentage)
	assert.False(t, res.Result.Passed)
	assert.Equal(t, 50.0, res.Result.Accuracy)
	assert.Empty(t, res.Result.Sections)

	detail, err := Quiz.Detail(ctx, student.ID, quiz.Slug)
	require.NoError(t, err)
	assert.Equal(t, int64(1), detail.AttemptsUsed)
	assert.Empty(t, detail.ActiveSession)
}

func TestQuizSession_ResumeAndExpire(t *testing.T) {
	ctx := setup(t)
	clock := clockwork.NewFakeClockAt(testNow)
	useClock(t, clock)

	f := newFixture(t, ctx)
	student := newUser(t, ctx, model.RoleStudent)
	quiz := f.quiz(t, ctx, "Speed Quiz", f.msa(t, ctx, "a", 1))

	first, err := QuizSession.Start(ctx, student.ID, quiz.Slug)
	require.NoError(t, err)
	again, err := QuizSession.Start(ctx, student.ID, quiz.Slug)
	require.NoError(t, err)
	assert.Equal(t, first.Code, again.Code)

	detail, err := Quiz.Detail(ctx, student.ID, quiz.Slug)
	require.NoError(t, err)
	assert.Equal(t, first.Code, detail.ActiveSession)

	// an expired attempt is finished before a new one starts
	clock.Advance(5 * time.Minute)
	next, err := QuizSession.Start(ctx, student.ID, quiz.Slug)
	require.NoError(t, err)
	assert.NotEqual(t, first.Code, next.Code)

	res, err := QuizSession.Results(ctx, student.ID, first.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Result.Unanswered)

	_, err = QuizSession.Answer(ctx, student.ID, first.Code, 1, answered("2"))
	assertType(t, err, apperr.TypeConflict)

	clock.Advance(10 * time.Minute)
	n, err := QuizSession.FinishExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	sessions, total, err := QuizSession.UserSessions(ctx, student.ID, types.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	for _, s := range sessions {
		assert.Equal(t, model.SessionCompleted, s.Status)
	}
}

func TestQuizSession_AnswersCloseAtEndsAt(t *testing.T) {
	ctx := setup(t)
	clock := clockwork.NewFakeClockAt(testNow)
	useClock(t, clock)

	f := newFixture(t, ctx)
	student := newUser(t, ctx, model.RoleStudent)
	quiz := f.quiz(t, ctx, "Sprint", f.msa(t, ctx, "a", 1))

	session, err := QuizSession.Start(ctx, student.ID, quiz.Slug)
	require.NoError(t, err)
	view, err := QuizSession.Questions(ctx, student.ID, session.Code)
	require.NoError(t, err)
	id := view.Questions[0].ID

	clock.Advance(time.Minute)
	_, err = QuizSession.Answer(ctx, student.ID, session.Code, id, answered("2"))
	assertType(t, err, apperr.TypeConflict)

	n, err := QuizSession.FinishExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	clock.Advance(3 * time.Minute)
	n, err = QuizSession.FinishExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := QuizSession.Results(ctx, student.ID, session.Code)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Result.Unanswered)
	assert.Zero(t, res.Result.Score)
}

func TestQuizSession_PaidNeedsQuizFeature(t *testing.T) {
	ctx := setup(t)
	useClock(t, clockwork.NewFakeClockAt(testNow))

	f := newFixture(t, ctx)
	student := newUser(t, ctx, model.RoleStudent)
	quiz, err := Quiz.Create(ctx, types.QuizRequest{Title: "Premium", SubCategoryID: f.subCategory.ID, IsPaid: true})
	require.NoError(t, err)
	_, err = Quiz.AttachQuestions(ctx, quiz.ID, []uint{f.msa(t, ctx, "a", 1).ID})
	require.NoError(t, err)
	quiz, err = Quiz.Publish(ctx, quiz.ID)
	require.NoError(t, err)

	examsOnly, err := Plan.Create(ctx, types.PlanRequest{
		SubCategoryID:       f.subCategory.ID,
		Name:                "Exams only",
		Duration:            1,
		FeatureRestrictions: true,
		Features:            []string{model.FeatureExams},
	})
	require.NoError(t, err)
	_, err = Subscription.CreateManual(ctx, types.ManualSubscriptionRequest{UserID: student.ID, PlanID: examsOnly.ID})
	require.NoError(t, err)

	_, err = QuizSession.Start(ctx, student.ID, quiz.Slug)
	assertType(t, err, apperr.TypeForbidden)
}

func TestQuizSession_Leaderboard(t *testing.T) {
	ctx := setup(t)
	useClock(t, clockwork.NewFakeClockAt(testNow))

	f := newFixture(t, ctx)
	student := newUser(t, ctx, model.RoleStudent)
	q := f.msa(t, ctx, "a", 1)
	quiz := f.quiz(t, ctx, "Board", q)

	session, err := QuizSession.Start(ctx, student.ID, quiz.Slug)
	require.NoError(t, err)
	view, err := QuizSession.Questions(ctx, student.ID, session.Code)
	require.NoError(t, err)
	_, err = QuizSession.Answer(ctx, student.ID, session.Code, view.Questions[0].ID, answered("2"))
	require.NoError(t, err)
	_, err = QuizSession.Finish(ctx, student.ID, session.Code)
	require.NoError(t, err)

	board, err := QuizSession.Leaderboard(ctx, quiz.Slug)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 1.0, board[0].Score)

	solutions, err := QuizSession.Solutions(ctx, student.ID, session.Code)
	require.NoError(t, err)
	require.Len(t, solutions, 1)
	assert.True(t, solutions[0].Solution.IsCorrect)
}
