package api

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

// StartExam starts an attempt or resumes the running one.
func StartExam(c *gin.Context) {
	var req types.StartExamRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
	}

	session, err := service.ExamSession.Start(c.Request.Context(), c.GetUint("userId"), c.Param("slug"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, session)
}

func GetExamLeaderboard(c *gin.Context) {
	entries, err := service.ExamSession.Leaderboard(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}

// GetExamSessions lists the student's attempts, newest first.
func GetExamSessions(c *gin.Context) {
	var q types.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	sessions, total, err := service.ExamSession.UserSessions(c.Request.Context(), c.GetUint("userId"), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, sessions, total, q.Page, q.Size)
}

func GetExamSessionQuestions(c *gin.Context) {
	view, err := service.ExamSession.Questions(c.Request.Context(), c.GetUint("userId"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, view)
}

func AnswerExamQuestion(c *gin.Context) {
	id, ok := ParamID(c, "id")
	if !ok {
		return
	}
	var req types.AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}

	question, err := service.ExamSession.Answer(c.Request.Context(), c.GetUint("userId"), c.Param("code"), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, question)
}

func FinishExamSession(c *gin.Context) {
	results, err := service.ExamSession.Finish(c.Request.Context(), c.GetUint("userId"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, results)
}

func GetExamResults(c *gin.Context) {
	results, err := service.ExamSession.Results(c.Request.Context(), c.GetUint("userId"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, results)
}

func GetExamSolutions(c *gin.Context) {
	solutions, err := service.ExamSession.Solutions(c.Request.Context(), c.GetUint("userId"), c.Param("code"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, solutions)
}
