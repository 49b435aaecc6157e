package admin

import (
	"context"

	"github.com/gin-gonic/gin"

	"qwiktest/internal/api"
	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

// The taxonomy resources share one shape, so their handlers are built from
// these generic helpers.

func listTaxonomy[T any](list func(context.Context, types.TaxonomyQuery) ([]T, int64, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q types.TaxonomyQuery
		if err := c.ShouldBindQuery(&q); err != nil {
			response.BindError(c, err)
			return
		}
		q.Normalize()

		items, total, err := list(c.Request.Context(), q)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Page(c, items, total, q.Page, q.Size)
	}
}

func getTaxonomy[T any](get func(context.Context, uint) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.ParamID(c, "id")
		if !ok {
			return
		}
		item, err := get(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, item)
	}
}

func createTaxonomy[R, T any](create func(context.Context, R) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req R
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		item, err := create(c.Request.Context(), req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, item)
	}
}

func updateTaxonomy[R, T any](update func(context.Context, uint, R) (*T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.ParamID(c, "id")
		if !ok {
			return
		}
		var req R
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindError(c, err)
			return
		}
		item, err := update(c.Request.Context(), id, req)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, item)
	}
}

func deleteTaxonomy(del func(context.Context, uint) error, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := api.ParamID(c, "id")
		if !ok {
			return
		}
		if err := del(c.Request.Context(), id); err != nil {
			response.Error(c, err)
			return
		}
		response.Message(c, msg)
	}
}

var (
	GetCategories  = listTaxonomy(service.Taxonomy.ListCategories)
	GetCategory    = getTaxonomy(service.Taxonomy.GetCategory)
	CreateCategory = createTaxonomy(service.Taxonomy.CreateCategory)
	UpdateCategory = updateTaxonomy(service.Taxonomy.UpdateCategory)
	DeleteCategory = deleteTaxonomy(service.Taxonomy.DeleteCategory, "category deleted")

	GetSubCategories  = listTaxonomy(service.Taxonomy.ListSubCategories)
	GetSubCategory    = getTaxonomy(service.Taxonomy.GetSubCategory)
	CreateSubCategory = createTaxonomy(service.Taxonomy.CreateSubCategory)
	UpdateSubCategory = updateTaxonomy(service.Taxonomy.UpdateSubCategory)
	DeleteSubCategory = deleteTaxonomy(service.Taxonomy.DeleteSubCategory, "sub-category deleted")

	GetSections   = listTaxonomy(service.Taxonomy.ListSections)
	GetSection    = getTaxonomy(service.Taxonomy.GetSection)
	CreateSection = createTaxonomy(service.Taxonomy.CreateSection)
	UpdateSection = updateTaxonomy(service.Taxonomy.UpdateSection)
	DeleteSection = deleteTaxonomy(service.Taxonomy.DeleteSection, "section deleted")

	GetSkills   = listTaxonomy(service.Taxonomy.ListSkills)
	CreateSkill = createTaxonomy(service.Taxonomy.CreateSkill)
	UpdateSkill = updateTaxonomy(service.Taxonomy.UpdateSkill)
	DeleteSkill = deleteTaxonomy(service.Taxonomy.DeleteSkill, "skill deleted")

	GetTopics   = listTaxonomy(service.Taxonomy.ListTopics)
	CreateTopic = createTaxonomy(service.Taxonomy.CreateTopic)
	UpdateTopic = updateTaxonomy(service.Taxonomy.UpdateTopic)
	DeleteTopic = deleteTaxonomy(service.Taxonomy.DeleteTopic, "topic deleted")
)
