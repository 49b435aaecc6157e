package api

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

// GetCategories returns the public category tree.
func GetCategories(c *gin.Context) {
	tree, err := service.Taxonomy.Tree(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tree)
}

func GetSubCategory(c *gin.Context) {
	sub, err := service.Taxonomy.SubCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sub)
}

type planQuery struct {
	SubCategoryID uint `form:"sub_category_id"`
}

// GetPlans lists active plans priced with the current tax settings.
func GetPlans(c *gin.Context) {
	var q planQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}

	plans, err := service.Plan.Pricing(c.Request.Context(), q.SubCategoryID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plans)
}

func GetSiteSettings(c *gin.Context) {
	settings, err := service.Settings.Public(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, settings)
}

// GetExams lists the published exams of a sub-category.
func GetExams(c *gin.Context) {
	sub, err := service.Taxonomy.SubCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var q types.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	exams, total, err := service.Exam.ListPublished(c.Request.Context(), sub.ID, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, exams, total, q.Page, q.Size)
}

func GetExamDetail(c *gin.Context) {
	detail, err := service.Exam.Detail(c.Request.Context(), c.GetUint("userId"), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}

// GetQuizzes lists the published quizzes of a sub-category.
func GetQuizzes(c *gin.Context) {
	sub, err := service.Taxonomy.SubCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	var q types.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	quizzes, total, err := service.Quiz.ListPublished(c.Request.Context(), sub.ID, q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, quizzes, total, q.Page, q.Size)
}

func GetQuizDetail(c *gin.Context) {
	detail, err := service.Quiz.Detail(c.Request.Context(), c.GetUint("userId"), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, detail)
}
