package api

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

func StartQuiz(c *gin.Context) {
	session, err := service.QuizSession.Start(c.Request.Context(), c.GetUint("userId"), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

func GetQuizLeaderboard(c *gin.Context) {
	entries, err := service.QuizSession.Leaderboard(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}

func GetQuizSessions(c *gin.Context) {
	var q types.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	sessions, total, err := service.QuizSession.UserSessions(c.Request.Context(), c.GetUint("userId"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, sessions, total, q.Page, q.Size)
}

func GetQuizSessionQuestions(c *gin.Context) {
	view, err := service.QuizSession.Questions(c.Request.Context(), c.GetUint("userId"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

func AnswerQuizQuestion(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req types.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	question, err := service.QuizSession.Answer(c.Request.Context(), c.GetUint("userId"), c.Param("code"), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, question)
}

func FinishQuizSession(c *gin.Context) {
	results, err := service.QuizSession.Finish(c.Request.Context(), c.GetUint("userId"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, results)
}

func GetQuizResults(c *gin.Context) {
	results, err := service.QuizSession.Results(c.Request.Context(), c.GetUint("userId"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, results)
}

func GetQuizSolutions(c *gin.Context) {
	solutions, err := service.QuizSession.Solutions(c.Request.Context(), c.GetUint("userId"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, solutions)
}
