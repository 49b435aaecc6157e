package admin

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"qwiktest/internal/api"
	"qwiktest/internal/pkg/apperr"
	"qwiktest/internal/pkg/logger"
	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

// maxImportSize bounds an uploaded question CSV.
const maxImportSize = 10 << 20

func GetQuestions(c *gin.Context) {
	var q types.QuestionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	questions, total, err := service.Question.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, questions, total, q.Page, q.Size)
}

func GetQuestion(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	question, err := service.Question.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, question)
}

func CreateQuestion(c *gin.Context) {
	var req types.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	question, err := service.Question.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, question)
}

func UpdateQuestion(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req types.QuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	question, err := service.Question.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, question)
}

func DeleteQuestion(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	if err := service.Question.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "question deleted")
}

func BatchDeleteQuestions(c *gin.Context) {
	var req types.IDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if err := service.Question.BatchDelete(c.Request.Context(), req.IDs); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "questions deleted")
}

// ExportQuestions streams the filtered question bank as CSV.
func ExportQuestions(c *gin.Context) {
	var q types.QuestionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	filename := fmt.Sprintf("questions_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	// BOM so spreadsheet tools detect UTF-8.
	c.Writer.WriteString("\ufeff")

	if err := service.Question.Export(c.Request.Context(), c.Writer, q); err != nil {
		// Headers are gone already; all that is left is to log.
		logger.Errorf("export questions: %v", err)
	}
}

// ImportQuestions reads the CSV from the "file" form field.
func ImportQuestions(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, apperr.Validation("file is required").WithField("file", "upload a CSV file"))
		return
	}
	if header.Size > maxImportSize {
		response.Error(c, apperr.Validation("file is too large").WithField("file", "file must not exceed 10 MB"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, apperr.BadRequest("cannot read uploaded file"))
		return
	}
	defer file.Close()

	report, err := service.Question.Import(c.Request.Context(), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, report)
}
