package admin

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/api"
	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

func GetExams(c *gin.Context) {
	var q types.ExamQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	exams, total, err := service.Exam.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, exams, total, q.Page, q.Size)
}

func GetExam(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	exam, err := service.Exam.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exam)
}

func CreateExam(c *gin.Context) {
	var req types.ExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	exam, err := service.Exam.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, exam)
}

func UpdateExam(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req types.ExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	exam, err := service.Exam.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exam)
}

func UpdateExamSettings(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req types.ExamSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	exam, err := service.Exam.UpdateSettings(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exam)
}

func DeleteExam(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	if err := service.Exam.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "exam deleted")
}

func PublishExam(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	exam, err := service.Exam.Publish(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exam)
}

func UnpublishExam(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	exam, err := service.Exam.Unpublish(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, exam)
}

// Exam sections

func GetExamSections(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	sections, err := service.Exam.ListSections(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sections)
}

func CreateExamSection(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req types.ExamSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	section, err := service.Exam.CreateSection(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

func UpdateExamSection(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	sectionID, ok := api.ParamID(c, "sectionId")
	if !ok {
		return
	}
	var req types.ExamSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	section, err := service.Exam.UpdateSection(c.Request.Context(), id, sectionID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, section)
}

func DeleteExamSection(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	sectionID, ok := api.ParamID(c, "sectionId")
	if !ok {
		return
	}
	if err := service.Exam.DeleteSection(c.Request.Context(), id, sectionID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "section deleted")
}

func GetExamQuestions(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	sectionID, ok := api.ParamID(c, "sectionId")
	if !ok {
		return
	}
	questions, err := service.Exam.ListQuestions(c.Request.Context(), id, sectionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, questions)
}

// AttachExamQuestions adds questions to a section; already attached ones
// are skipped.
func AttachExamQuestions(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	sectionID, ok := api.ParamID(c, "sectionId")
	if !ok {
		return
	}
	var req types.AttachQuestionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	added, err := service.Exam.AttachQuestions(c.Request.Context(), id, sectionID, req.QuestionIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"added": added})
}

func DetachExamQuestion(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	sectionID, ok := api.ParamID(c, "sectionId")
	if !ok {
		return
	}
	questionID, ok := api.ParamID(c, "questionId")
	if !ok {
		return
	}
	if err := service.Exam.DetachQuestion(c.Request.Context(), id, sectionID, questionID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "question removed")
}

// Exam schedules

func GetExamSchedules(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	schedules, err := service.Exam.ListSchedules(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedules)
}

func CreateExamSchedule(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req types.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	schedule, err := service.Exam.CreateSchedule(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

func UpdateExamSchedule(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	scheduleID, ok := api.ParamID(c, "scheduleId")
	if !ok {
		return
	}
	var req types.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	schedule, err := service.Exam.UpdateSchedule(c.Request.Context(), id, scheduleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

func CancelExamSchedule(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	scheduleID, ok := api.ParamID(c, "scheduleId")
	if !ok {
		return
	}
	schedule, err := service.Exam.CancelSchedule(c.Request.Context(), id, scheduleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schedule)
}

func DeleteExamSchedule(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	scheduleID, ok := api.ParamID(c, "scheduleId")
	if !ok {
		return
	}
	if err := service.Exam.DeleteSchedule(c.Request.Context(), id, scheduleID); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "schedule deleted")
}
