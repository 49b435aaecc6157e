package admin

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/api"
	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

func GetQuizzes(c *gin.Context) {
	var q types.ExamQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	quizzes, total, err := service.Quiz.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, quizzes, total, q.Page, q.Size)
}

func GetQuiz(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	quiz, err := service.Quiz.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quiz)
}

func CreateQuiz(c *gin.Context) {
	var req types.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	quiz, err := service.Quiz.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, quiz)
}

func UpdateQuiz(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req types.QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	quiz, err := service.Quiz.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quiz)
}

func UpdateQuizSettings(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req types.QuizSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	quiz, err := service.Quiz.UpdateSettings(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quiz)
}

func DeleteQuiz(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	if err := service.Quiz.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "quiz deleted")
}

func PublishQuiz(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	quiz, err := service.Quiz.Publish(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quiz)
}

func UnpublishQuiz(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	quiz, err := service.Quiz.Unpublish(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, quiz)
}

func GetQuizQuestions(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	questions, err := service.Quiz.ListQuestions(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, questions)
}

func AttachQuizQuestions(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req types.AttachQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	added, err := service.Quiz.AttachQuestions(c.Request.Context(), id, req.QuestionIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"added": added})
}

func DetachQuizQuestion(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	questionID, ok := api.ParamID(c, "questionId")
	if !ok {
		return
	}
	if err := service.Quiz.DetachQuestion(c.Request.Context(), id, questionID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "question removed")
}
