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

func TestExam_TotalsFollowSections(t *testing.T) {
	ctx := setup(t)
	f := newFixture(t, ctx)
	q1 := f.msa(t, ctx, "a", 2)
	q2 := f.msa(t, ctx, "b", 3)
	q3 := f.msa(t, ctx, "c", 1)

	exam, err := Exam.Create(ctx, types.ExamRequest{Title: "GATE Mock 1", SubCategoryID: f.subCategory.ID})
	require.NoError(t, err)
	assert.Equal(t, "gate-mock-1", exam.Slug)

	_, err = Exam.Publish(ctx, exam.ID)
	assertType(t, err, apperr.TypeValidation)

	first, err := Exam.CreateSection(ctx, exam.ID, types.ExamSectionRequest{SectionID: f.section.ID, Name: "Part A", Duration: 20, CorrectMarks: 4})
	require.NoError(t, err)
	second, err := Exam.CreateSection(ctx, exam.ID, types.ExamSectionRequest{SectionID: f.section.ID, Name: "Part B", Duration: 10})
	require.NoError(t, err)

	added, err := Exam.AttachQuestions(ctx, exam.ID, first.ID, []uint{q1.ID, q2.ID, q1.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	added, err = Exam.AttachQuestions(ctx, exam.ID, first.ID, []uint{q1.ID})
	require.NoError(t, err)
	assert.Zero(t, added)
	_, err = Exam.AttachQuestions(ctx, exam.ID, second.ID, []uint{q2.ID, q3.ID})
	assertType(t, err, apperr.TypeConflict)
	_, err = Exam.AttachQuestions(ctx, exam.ID, second.ID, []uint{q3.ID, 999})
	assertType(t, err, apperr.TypeValidation)
	_, err = Exam.AttachQuestions(ctx, exam.ID, second.ID, []uint{q3.ID})
	require.NoError(t, err)

	got, err := Exam.Get(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.TotalQuestions)
	assert.Equal(t, 6.0, got.TotalMarks)
	assert.Equal(t, 30, got.TotalDuration)

	// Section marks apply once auto grading is off.
	got, err = Exam.UpdateSettings(ctx, exam.ID, examSettings(got, func(r *types.ExamSettingsRequest) {
		r.AutoGrading = false
	}))
	require.NoError(t, err)
	assert.Equal(t, 9.0, got.TotalMarks)

	_, err = Exam.UpdateSettings(ctx, exam.ID, examSettings(got, func(r *types.ExamSettingsRequest) {
		r.RestrictAttempts = true
	}))
	assertType(t, err, apperr.TypeValidation)

	require.NoError(t, Exam.DetachQuestion(ctx, exam.ID, first.ID, q1.ID))
	assertType(t, Exam.DetachQuestion(ctx, exam.ID, first.ID, q1.ID), apperr.TypeNotFound)
	require.NoError(t, Exam.DeleteSection(ctx, exam.ID, second.ID))

	got, err = Exam.Get(ctx, exam.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalQuestions)
	assert.Equal(t, 4.0, got.TotalMarks)
	assert.Equal(t, 20, got.TotalDuration)

	published, err := Exam.Publish(ctx, exam.ID)
	require.NoError(t, err)
	assert.True(t, published.IsActive)

	list, total, err := Exam.ListPublished(ctx, f.subCategory.ID, types.PageQuery{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, exam.ID, list[0].ID)

	_, err = Exam.Unpublish(ctx, exam.ID)
	require.NoError(t, err)
	_, err = Exam.BySlug(ctx, exam.Slug)
	assertType(t, err, apperr.TypeNotFound)
}

func TestExam_SchedulesAndDetail(t *testing.T) {
	ctx := setup(t)
	useClock(t, clockwork.NewFakeClockAt(testNow))
	f := newFixture(t, ctx)
	student := newUser(t, ctx, model.RoleStudent)
	exam, _ := f.exam(t, ctx, "Scheduled", f.msa(t, ctx, "q", 1))

	end := testNow.Add(-time.Hour)
	_, err := Exam.CreateSchedule(ctx, exam.ID, types.ScheduleRequest{ScheduleType: model.ScheduleFlexible, StartsAt: testNow, EndsAt: &end})
	assertType(t, err, apperr.TypeValidation)

	fixed, err := Exam.CreateSchedule(ctx, exam.ID, types.ScheduleRequest{ScheduleType: model.ScheduleFixed, StartsAt: testNow.Add(-time.Minute), EndsAt: &end})
	require.NoError(t, err)
	require.NotNil(t, fixed.EndsAt)
	assert.True(t, fixed.EndsAt.Equal(fixed.StartsAt.Add(30*time.Minute)), "ends at %s", fixed.EndsAt)
	assert.Equal(t, defaultFixedGrace, fixed.GracePeriod)

	detail, err := Exam.Detail(ctx, student.ID, exam.Slug)
	require.NoError(t, err)
	assert.True(t, detail.HasAccess)
	require.Len(t, detail.Schedules, 1)
	require.NotNil(t, detail.OpenScheduleID)
	assert.Equal(t, fixed.ID, *detail.OpenScheduleID)
	assert.Empty(t, detail.ActiveSession)

	session, err := ExamSession.Start(ctx, student.ID, exam.Slug, types.StartExamRequest{})
	require.NoError(t, err)
	detail, err = Exam.Detail(ctx, student.ID, exam.Slug)
	require.NoError(t, err)
	assert.Equal(t, session.Code, detail.ActiveSession)

	assertType(t, Exam.DeleteSchedule(ctx, exam.ID, fixed.ID), apperr.TypeConflict)
	assertType(t, Exam.Delete(ctx, exam.ID), apperr.TypeConflict)

	cancelled, err := Exam.CancelSchedule(ctx, exam.ID, fixed.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ScheduleCancelled, cancelled.Status)

	detail, err = Exam.Detail(ctx, student.ID, exam.Slug)
	require.NoError(t, err)
	assert.Empty(t, detail.Schedules)
	assert.Nil(t, detail.OpenScheduleID)

	// a longer exam pushes the stored end of fixed schedules
	_, err = Exam.CreateSection(ctx, exam.ID, types.ExamSectionRequest{SectionID: f.section.ID, Name: "Reasoning", Duration: 15})
	require.NoError(t, err)
	schedules, err := Exam.ListSchedules(ctx, exam.ID)
	require.NoError(t, err)
	require.Len(t, schedules, 1)
	require.NotNil(t, schedules[0].EndsAt)
	assert.True(t, schedules[0].EndsAt.Equal(fixed.StartsAt.Add(45*time.Minute)), "ends at %s", schedules[0].EndsAt)
}

func TestQuiz_SettingsValidation(t *testing.T) {
	ctx := setup(t)
	f := newFixture(t, ctx)
	quiz := f.quiz(t, ctx, "Settings", f.msa(t, ctx, "q", 2), f.msa(t, ctx, "r", 3))
	assert.Equal(t, 5.0, quiz.TotalMarks)

	req := types.QuizSettingsRequest(quiz.Settings)
	req.DurationMode = model.ModeManual
	req.Duration = 0
	_, err := Quiz.UpdateSettings(ctx, quiz.ID, req)
	assertType(t, err, apperr.TypeValidation)

	req.Duration = 15
	req.MarksMode = model.ModeManual
	req.CorrectMarks = 0
	_, err = Quiz.UpdateSettings(ctx, quiz.ID, req)
	assertType(t, err, apperr.TypeValidation)

	req.CorrectMarks = 4
	updated, err := Quiz.UpdateSettings(ctx, quiz.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 8.0, updated.TotalMarks)
	assert.Equal(t, 15, updated.TotalDuration)
}
