package admin

import (
	"github.com/gin-gonic/gin"

	"qwiktest/internal/api"
	"qwiktest/internal/pkg/response"
	"qwiktest/internal/service"
	"qwiktest/internal/types"
)

type planQuery struct {
	types.PageQuery
	SubCategoryID uint `form:"sub_category_id"`
}

func GetPlans(c *gin.Context) {
	var q planQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	plans, total, err := service.Plan.List(c.Request.Context(), q.SubCategoryID, q.PageQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, plans, total, q.Page, q.Size)
}

func GetPlan(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	plan, err := service.Plan.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

func CreatePlan(c *gin.Context) {
	var req types.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	plan, err := service.Plan.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, plan)
}

func UpdatePlan(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	var req types.PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	plan, err := service.Plan.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, plan)
}

func DeletePlan(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	if err := service.Plan.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "plan deleted")
}

// Payments

func GetPayments(c *gin.Context) {
	var q types.PaymentQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	payments, total, err := service.Payment.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, payments, total, q.Page, q.Size)
}

func GetPayment(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := service.Payment.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// ApprovePayment confirms a pending bank transfer and activates its
// subscription.
func ApprovePayment(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := service.Payment.Approve(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

func RejectPayment(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	p, err := service.Payment.Reject(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, p)
}

// Subscriptions

func GetSubscriptions(c *gin.Context) {
	var q types.SubscriptionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BindError(c, err)
		return
	}
	q.Normalize()

	subs, total, err := service.Subscription.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, subs, total, q.Page, q.Size)
}

func GetSubscription(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	sub, err := service.Subscription.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sub)
}

func CreateSubscription(c *gin.Context) {
	var req types.ManualSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	sub, err := service.Subscription.CreateManual(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sub)
}

func CancelSubscription(c *gin.Context) {
	id, ok := api.ParamID(c, "id")
	if !ok {
		return
	}
	sub, err := service.Subscription.Cancel(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, sub)
}
