package service

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qwiktest/internal/model"
	"qwiktest/internal/pkg/scoring"
	"qwiktest/internal/types"
)

func TestPresentQuestion_HidesAnswers(t *testing.T) {
	saq := &model.Question{ID: 1, Type: scoring.TypeSAQ, Question: "Capital of France?",
		Options: model.QuestionOptions{{Option: "Paris"}}}
	out := presentQuestion(10, 1, 0, saq, 1, model.QuestionNotVisited, nil, 0, 42)
	assert.Empty(t, out.Options)
	assert.Equal(t, []string{}, out.Answer)

	mtf := &model.Question{ID: 2, Type: scoring.TypeMTF, Options: model.QuestionOptions{
		{Option: "H2O", Pair: "Water"}, {Option: "NaCl", Pair: "Salt"}, {Option: "O2", Pair: "Oxygen"},
	}}
	out = presentQuestion(11, 2, 0, mtf, 1, model.QuestionNotVisited, nil, 0, 42)
	assert.Equal(t, []string{"H2O", "NaCl", "O2"}, out.Options)
	pairs := append([]string(nil), out.Pairs...)
	sort.Strings(pairs)
	assert.Equal(t, []string{"Oxygen", "Salt", "Water"}, pairs)
	again := presentQuestion(11, 2, 0, mtf, 1, model.QuestionNotVisited, nil, 0, 42)
	assert.Equal(t, out.Pairs, again.Pairs)

	ord := &model.Question{ID: 3, Type: scoring.TypeORD, Options: model.QuestionOptions{
		{Option: "first"}, {Option: "second"}, {Option: "third"}, {Option: "fourth"},
	}}
	out = presentQuestion(12, 3, 0, ord, 1, model.QuestionNotVisited, nil, 0, 7)
	require.Len(t, out.Order, 4)
	for i, n := range out.Order {
		assert.Equal(t, ord.Options[n-1].Option, out.Options[i])
	}

	fib := &model.Question{ID: 4, Type: scoring.TypeFIB, Question: "## is the capital of ##"}
	out = presentQuestion(13, 4, 0, fib, 1, model.QuestionNotVisited, nil, 0, 7)
	assert.Empty(t, out.Options)
}

func TestSolutionOf_SAQFallsBackToOptions(t *testing.T) {
	q := &model.Question{Type: scoring.TypeSAQ, Options: model.QuestionOptions{{Option: "Paris"}, {Option: "paris city"}}, Solution: "It is Paris."}
	sol := solutionOf(q, true, 1, 0)
	assert.Equal(t, []string{"Paris", "paris city"}, sol.CorrectAnswer)
	assert.Equal(t, "It is Paris.", sol.Explanation)
}

func TestGrade(t *testing.T) {
	q := &model.Question{Type: scoring.TypeMMA, Options: model.QuestionOptions{{Option: "a"}, {Option: "b"}, {Option: "c"}},
		CorrectAnswer: model.StringArray{"1", "3"}}
	penalty := scoring.MarkingSettings{NegativeMarking: true, NegativeMarkingType: scoring.NegativeFixed, NegativeMarks: 1}

	item := grade(q, []string{"3", "1"}, 4, penalty)
	assert.True(t, item.Correct)
	assert.Equal(t, 4.0, item.Earned)

	item = grade(q, []string{"1"}, 4, penalty)
	assert.False(t, item.Correct)
	assert.Equal(t, 1.0, item.Deducted)

	item = grade(q, nil, 4, penalty)
	assert.False(t, item.Answered)
	assert.Zero(t, item.Deducted)

	item = grade(nil, []string{"1"}, 4, penalty)
	assert.False(t, item.Answered)
	assert.Equal(t, 4.0, item.Marks)
}

func TestCheckAnswer(t *testing.T) {
	_, err := checkAnswer(types.AnswerRequest{Status: model.QuestionAnswered, Answer: []string{" "}})
	assert.Error(t, err)

	answer, err := checkAnswer(types.AnswerRequest{Status: model.QuestionAnsweredMarkForReview, Answer: []string{"2"}})
	require.NoError(t, err)
	assert.Equal(t, model.StringArray{"2"}, answer)

	answer, err = checkAnswer(types.AnswerRequest{Status: model.QuestionNotVisited, Answer: []string{"2"}})
	require.NoError(t, err)
	assert.Nil(t, answer)
}

func TestRankAttempts(t *testing.T) {
	attempts := []attempt{
		{UserID: 1, Score: 5, TimeTaken: 300},
		{UserID: 1, Score: 8, TimeTaken: 500},
		{UserID: 2, Score: 8, TimeTaken: 400, User: &model.User{FirstName: "Ana", LastName: "Lima"}},
		{UserID: 3, Score: 2, TimeTaken: 100},
	}

	board := rankAttempts(attempts, 2)
	require.Len(t, board, 2)
	assert.Equal(t, types.LeaderboardEntry{Rank: 1, UserID: 2, Name: "Ana Lima", Score: 8, TimeTaken: 400}, board[0])
	assert.Equal(t, uint(1), board[1].UserID)
	assert.Equal(t, 8.0, board[1].Score)
	assert.Equal(t, "User 1", board[1].Name)
}

func TestElapsedAndRemaining(t *testing.T) {
	end := testNow.Add(10 * time.Minute)
	assert.Equal(t, 600, remaining(testNow, end))
	assert.Zero(t, remaining(end.Add(time.Second), end))
	assert.Equal(t, 600, elapsed(testNow, end, end.Add(time.Minute)))
	assert.Zero(t, elapsed(testNow, end, testNow.Add(-time.Second)))
}
