package router

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwiktest/internal/model"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

type catalog struct {
	exam *model.Exam
	quiz *model.Quiz
}

// publishCatalog builds a published exam and quiz that share one question
// whose correct answer is "2".
func publishCatalog(t *testing.T) *catalog {
	t.Helper()
	ctx := context.Background()

	cat, err := service.Taxonomy.CreateCategory(ctx, types.CategoryRequest{Name: "Banking"})
	require.NoError(t, err)
	section, err := service.Taxonomy.CreateSection(ctx, types.SectionRequest{Name: "Numeracy"})
	require.NoError(t, err)
	sub, err := service.Taxonomy.CreateSubCategory(ctx, types.SubCategoryRequest{
		CategoryID: cat.ID, Name: "Clerk Prelims", SectionIDs: []uint{section.ID},
	})
	require.NoError(t, err)
	skill, err := service.Taxonomy.CreateSkill(ctx, types.SkillRequest{SectionID: section.ID, Name: "Addition"})
	require.NoError(t, err)

	q, err := service.Question.Create(ctx, types.QuestionRequest{
		Type:          "MSA",
		Question:      "1 + 1 = ?",
		Options:       []types.QuestionOption{{Option: "1"}, {Option: "2"}, {Option: "3"}},
		CorrectAnswer: []string{"2"},
		DefaultMarks:  2,
		DefaultTime:   60,
		SkillID:       skill.ID,
	})
	require.NoError(t, err)

	exam, err := service.Exam.Create(ctx, types.ExamRequest{Title: "Mock Test 1", SubCategoryID: sub.ID})
	require.NoError(t, err)
	es, err := service.Exam.CreateSection(ctx, exam.ID, types.ExamSectionRequest{SectionID: section.ID, Name: "Numeracy", Duration: 20})
	require.NoError(t, err)
	_, err = service.Exam.AttachQuestions(ctx, exam.ID, es.ID, []uint{q.ID})
	require.NoError(t, err)
	exam, err = service.Exam.Publish(ctx, exam.ID)
	require.NoError(t, err)

	quiz, err := service.Quiz.Create(ctx, types.QuizRequest{Title: "Warm Up", SubCategoryID: sub.ID})
	require.NoError(t, err)
	_, err = service.Quiz.AttachQuestions(ctx, quiz.ID, []uint{q.ID})
	require.NoError(t, err)
	quiz, err = service.Quiz.Publish(ctx, quiz.ID)
	require.NoError(t, err)

	return &catalog{exam: exam, quiz: quiz}
}

func registerStudent(t *testing.T, r http.Handler, name string) string {
	t.Helper()
	w, _ := call(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"first_name": name, "user_name": name, "email": name + "@example.com", "password": "password1",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return login(t, r, name, "password1")
}

func decode(t *testing.T, env envelope, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

// takeSession drives one attempt through the session endpoints under base
// and answers every question with "2".
func takeSession(t *testing.T, r http.Handler, token, startPath, base string) {
	t.Helper()

	w, env := call(t, r, http.MethodPost, startPath, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var started struct {
		Code string `json:"code"`
	}
	decode(t, env, &started)
	require.NotEmpty(t, started.Code)

	// starting again resumes the running attempt
	w, env = call(t, r, http.MethodPost, startPath, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resumed struct {
		Code string `json:"code"`
	}
	decode(t, env, &resumed)
	assert.Equal(t, started.Code, resumed.Code)

	sessionPath := fmt.Sprintf("%s/%s", base, started.Code)
	w, env = call(t, r, http.MethodGet, sessionPath, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view struct {
		Status           string                  `json:"status"`
		RemainingSeconds int                     `json:"remaining_seconds"`
		Questions        []types.SessionQuestion `json:"questions"`
	}
	decode(t, env, &view)
	assert.Equal(t, model.SessionStarted, view.Status)
	assert.Positive(t, view.RemainingSeconds)
	require.Len(t, view.Questions, 1)
	assert.Equal(t, 1, view.Questions[0].SNo)
	assert.Nil(t, view.Questions[0].Solution)

	answerPath := fmt.Sprintf("%s/questions/%d", sessionPath, view.Questions[0].ID)
	w, env = call(t, r, http.MethodPut, answerPath, token, gin.H{"status": "skipped"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	w, env = call(t, r, http.MethodPut, answerPath, token, gin.H{"status": model.QuestionAnswered, "answer": []string{"2"}, "time_taken": 12})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var answered types.SessionQuestion
	decode(t, env, &answered)
	assert.Equal(t, []string{"2"}, answered.Answer)

	// results and solutions wait for the attempt to finish
	w, _ = call(t, r, http.MethodGet, sessionPath+"/results", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w, _ = call(t, r, http.MethodGet, sessionPath+"/solutions", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = call(t, r, http.MethodPost, sessionPath+"/finish", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var finished struct {
		Code   string `json:"code"`
		Result struct {
			Score   float64 `json:"score"`
			Correct int     `json:"correct_answered_questions"`
		} `json:"result"`
	}
	decode(t, env, &finished)
	assert.Equal(t, started.Code, finished.Code)
	assert.Equal(t, 2.0, finished.Result.Score)
	assert.Equal(t, 1, finished.Result.Correct)

	w, _ = call(t, r, http.MethodPut, answerPath, token, gin.H{"status": model.QuestionAnswered, "answer": []string{"1"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env = call(t, r, http.MethodGet, sessionPath+"/results", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var results struct {
		Result struct {
			Score float64 `json:"score"`
		} `json:"result"`
	}
	decode(t, env, &results)
	assert.Equal(t, 2.0, results.Result.Score)

	w, env = call(t, r, http.MethodGet, sessionPath+"/solutions", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var solutions []types.SessionQuestion
	decode(t, env, &solutions)
	require.Len(t, solutions, 1)
	require.NotNil(t, solutions[0].Solution)
	assert.True(t, solutions[0].Solution.IsCorrect)
	assert.Equal(t, []string{"2"}, solutions[0].Solution.CorrectAnswer)

	w, env = call(t, r, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var page struct {
		Total int64 `json:"total"`
	}
	decode(t, env, &page)
	assert.EqualValues(t, 1, page.Total)
}

func TestExamSessionFlow(t *testing.T) {
	r := newTestRouter(t)
	c := publishCatalog(t)
	token := registerStudent(t, r, "ravi")

	takeSession(t, r, token, "/api/v1/exams/"+c.exam.Slug+"/start", "/api/v1/exam-sessions")

	w, env := call(t, r, http.MethodGet, "/api/v1/exams/"+c.exam.Slug+"/leaderboard", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var board []types.LeaderboardEntry
	decode(t, env, &board)
	require.Len(t, board, 1)
	assert.Equal(t, 2.0, board[0].Score)

	// another student cannot read the attempt
	other := registerStudent(t, r, "meena")
	w, _ = call(t, r, http.MethodGet, "/api/v1/exam-sessions?page=1", other, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = call(t, r, http.MethodGet, "/api/v1/exam-sessions/not-a-session", other, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuizSessionFlow(t *testing.T) {
	r := newTestRouter(t)
	c := publishCatalog(t)
	token := registerStudent(t, r, "kiran")

	takeSession(t, r, token, "/api/v1/quizzes/"+c.quiz.Slug+"/start", "/api/v1/quiz-sessions")

	w, _ := call(t, r, http.MethodPost, "/api/v1/quizzes/no-such-quiz/start", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitsAreSeparate(t *testing.T) {
	r := newTestRouter(t)
	burst := 10

	for i := 0; i < burst; i++ {
		w, _ := call(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "nobody", "password": "password1"})
		require.NotEqual(t, http.StatusTooManyRequests, w.Code)
	}
	w, _ := call(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{"login": "nobody", "password": "password1"})
	require.Equal(t, http.StatusTooManyRequests, w.Code)

	// a client locked out of login can still deliver gateway callbacks
	w, _ = call(t, r, http.MethodPost, "/api/v1/webhooks/stripe", "", gin.H{"type": "ping"})
	assert.NotEqual(t, http.StatusTooManyRequests, w.Code)
}
