package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/cache"
	"qwiktest/internal/pkg/database"
	"qwiktest/internal/types"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

// setup gives the test a fresh database and cache.
func setup(t *testing.T) context.Context {
	t.Helper()
	database.SetupTest(t)

	previous := cache.Default
	cache.Default = cache.New(cache.NewMemoryStore(nil), "")
	t.Cleanup(func() { cache.Default = previous })
	return context.Background()
}

// useClock points every time-aware service at clock for the test.
func useClock(t *testing.T, clock clockwork.Clock) {
	t.Helper()
	clocks := []*clockwork.Clock{
		&Auth.clock, &Exam.clock, &Quiz.clock, &Subscription.clock, &Payment.clock,
		&ExamSession.clock, &QuizSession.clock, &Statistics.clock, &Media.clock,
	}
	saved := make([]clockwork.Clock, len(clocks))
	for i, c := range clocks {
		saved[i] = *c
		*c = clock
	}
	t.Cleanup(func() {
		for i, c := range clocks {
			*c = saved[i]
		}
	})
}

func assertType(t *testing.T, err error, want apperr.Type) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, apperr.Is(err, want), "want %s, got %v", want, err)
}

var userSeq int

func newUser(t *testing.T, ctx context.Context, role string) *model.User {
	t.Helper()
	userSeq++
	u, err := User.Create(ctx, types.UserRequest{
		FirstName: "User",
		LastName:  fmt.Sprint(userSeq),
		UserName:  fmt.Sprintf("user%d", userSeq),
		Email:     fmt.Sprintf("user%d@example.com", userSeq),
		Password:  "password123",
		Role:      role,
	})
	require.NoError(t, err)
	return u
}

type fixture struct {
	subCategory *model.SubCategory
	section     *model.Section
	skill       *model.Skill
}

func newFixture(t *testing.T, ctx context.Context) *fixture {
	t.Helper()
	cat, err := Taxonomy.CreateCategory(ctx, types.CategoryRequest{Name: "Engineering"})
	require.NoError(t, err)
	section, err := Taxonomy.CreateSection(ctx, types.SectionRequest{Name: "Quantitative Aptitude"})
	require.NoError(t, err)
	sub, err := Taxonomy.CreateSubCategory(ctx, types.SubCategoryRequest{
		CategoryID: cat.ID,
		Name:       "GATE",
		SectionIDs: []uint{section.ID},
	})
	require.NoError(t, err)
	skill, err := Taxonomy.CreateSkill(ctx, types.SkillRequest{SectionID: section.ID, Name: "Arithmetic"})
	require.NoError(t, err)
	return &fixture{subCategory: sub, section: section, skill: skill}
}

// msa creates a single choice question whose second option is correct.
func (f *fixture) msa(t *testing.T, ctx context.Context, text string, marks float64) *model.Question {
	t.Helper()
	q, err := Question.Create(ctx, types.QuestionRequest{
		Type:          "MSA",
		Question:      text,
		Options:       []types.QuestionOption{{Option: "1"}, {Option: "2"}, {Option: "3"}},
		CorrectAnswer: []string{"2"},
		DefaultMarks:  marks,
		DefaultTime:   60,
		SkillID:       f.skill.ID,
	})
	require.NoError(t, err)
	return q
}

// exam builds a published exam with one 30 minute section holding questions.
func (f *fixture) exam(t *testing.T, ctx context.Context, title string, questions ...*model.Question) (*model.Exam, *model.ExamSection) {
	t.Helper()
	exam, err := Exam.Create(ctx, types.ExamRequest{Title: title, SubCategoryID: f.subCategory.ID})
	require.NoError(t, err)
	section, err := Exam.CreateSection(ctx, exam.ID, types.ExamSectionRequest{
		SectionID:           f.section.ID,
		Name:                "Aptitude",
		Duration:            30,
		NegativeMarkingType: "fixed",
		NegativeMarks:       0.5,
	})
	require.NoError(t, err)

	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	_, err = Exam.AttachQuestions(ctx, exam.ID, section.ID, ids)
	require.NoError(t, err)
	exam, err = Exam.Publish(ctx, exam.ID)
	require.NoError(t, err)
	return exam, section
}

func (f *fixture) quiz(t *testing.T, ctx context.Context, title string, questions ...*model.Question) *model.Quiz {
	t.Helper()
	quiz, err := Quiz.Create(ctx, types.QuizRequest{Title: title, SubCategoryID: f.subCategory.ID})
	require.NoError(t, err)
	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	_, err = Quiz.AttachQuestions(ctx, quiz.ID, ids)
	require.NoError(t, err)
	quiz, err = Quiz.Publish(ctx, quiz.ID)
	require.NoError(t, err)
	return quiz
}

func (f *fixture) plan(t *testing.T, ctx context.Context, price float64) *model.Plan {
	t.Helper()
	plan, err := Plan.Create(ctx, types.PlanRequest{
		SubCategoryID: f.subCategory.ID,
		Name:          fmt.Sprintf("Plan %.0f", price),
		Duration:      3,
		Price:         price,
	})
	require.NoError(t, err)
	return plan
}

func examSettings(e *model.Exam, change func(*types.ExamSettingsRequest)) types.ExamSettingsRequest {
	req := types.ExamSettingsRequest(e.Settings)
	change(&req)
	return req
}
